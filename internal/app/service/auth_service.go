package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"roster-bot/internal/domain"
	"roster-bot/internal/repository/api"
)

// AuthService owns the current session and its single persisted record.
type AuthService struct {
	api  domain.AuthRepo
	repo domain.SessionRepo
	key  string
	log  *logrus.Entry

	mu      sync.RWMutex
	current *domain.Session
}

func NewAuthService(authRepo domain.AuthRepo, repo domain.SessionRepo, key string, log *logrus.Entry) *AuthService {
	return &AuthService{api: authRepo, repo: repo, key: key, log: log}
}

// Restore loads the persisted record. A missing or corrupt record leaves the
// service logged out.
func (s *AuthService) Restore(ctx context.Context) (domain.Session, bool) {
	raw, err := s.repo.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.WithError(err).Warn("session record unavailable")
		}
		return domain.Session{}, false
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil || sess.Token == "" {
		if err == nil {
			err = errors.New("record has no token")
		}
		s.log.WithError(err).WithField("key", s.key).Warn("discarding corrupt session record")
		return domain.Session{}, false
	}

	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()
	return sess, true
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	token, err := s.api.Login(ctx, email, password)
	if err != nil {
		return domain.Session{}, asAuthError(err)
	}
	profile, err := s.api.Profile(ctx, token)
	if err != nil {
		return domain.Session{}, asAuthError(err)
	}
	name := profile.Username
	if name == "" {
		name = email
	}
	sess := domain.Session{Token: token, User: domain.AuthUser{Email: email, Name: name}}

	raw, err := json.Marshal(sess)
	if err != nil {
		return domain.Session{}, pkgerrors.Wrap(err, "encode session")
	}
	if err := s.repo.Save(ctx, s.key, raw); err != nil {
		return domain.Session{}, pkgerrors.Wrap(err, "persist session")
	}

	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()
	s.log.WithField("email", email).Info("logged in")
	return sess, nil
}

// Logout clears memory first so the session is gone even if storage fails.
func (s *AuthService) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	if err := s.repo.Delete(ctx, s.key); err != nil {
		return pkgerrors.Wrap(err, "delete session record")
	}
	return nil
}

func (s *AuthService) Current() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.Session{}, false
	}
	return *s.current, true
}

func (s *AuthService) Token() string {
	sess, _ := s.Current()
	return sess.Token
}

func asAuthError(err error) error {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return err
	}
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) && reqErr.Status >= http.StatusBadRequest && reqErr.Status < http.StatusInternalServerError {
		return &domain.AuthError{Message: reqErr.Message, Err: err}
	}
	return err
}
