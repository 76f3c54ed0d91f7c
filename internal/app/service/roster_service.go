package service

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"roster-bot/internal/domain"
	"roster-bot/internal/metrics"
)

type TokenSource interface {
	Token() string
}

// RosterService caches list results by the full query tuple and drops the
// whole cache after every successful write.
type RosterService struct {
	repo    domain.EmployeeRepo
	tokens  TokenSource
	async   *AsyncService
	ramp    Ramp
	log     *logrus.Entry
	metrics *metrics.Metrics

	mu         sync.Mutex
	cache      map[domain.ListQuery]domain.EmployeePage
	cacheToken string
	generation uint64
	group      singleflight.Group
}

func NewRosterService(repo domain.EmployeeRepo, tokens TokenSource, async *AsyncService, ramp Ramp, log *logrus.Entry, m *metrics.Metrics) *RosterService {
	return &RosterService{
		repo:    repo,
		tokens:  tokens,
		async:   async,
		ramp:    ramp,
		log:     log,
		metrics: m,
		cache:   make(map[domain.ListQuery]domain.EmployeePage),
	}
}

func (s *RosterService) List(ctx context.Context, q domain.ListQuery) (domain.EmployeePage, error) {
	q = q.Normalize()
	token := s.tokens.Token()
	if token == "" {
		return domain.EmployeePage{}, domain.ErrNoSession
	}

	s.mu.Lock()
	if s.cacheToken != token {
		s.resetLocked()
		s.cacheToken = token
	}
	if page, ok := s.cache[q]; ok {
		s.mu.Unlock()
		s.metrics.CacheHit()
		return clonePage(page), nil
	}
	gen := s.generation
	s.mu.Unlock()
	s.metrics.CacheMiss()

	key := fmt.Sprintf("%d\x00%s\x00%d\x00%s\x00%s\x00%s", gen, token, q.Page, q.Sort, q.Direction, q.Search)
	v, err, _ := s.group.Do(key, func() (any, error) {
		page, err := s.repo.ListEmployees(ctx, token, q)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		// a write that finished meanwhile makes this result stale
		if s.generation == gen && s.cacheToken == token {
			s.cache[q] = page
		}
		s.mu.Unlock()
		return page, nil
	})
	if err != nil {
		return domain.EmployeePage{}, err
	}
	return clonePage(v.(domain.EmployeePage)), nil
}

// Invalidate discards every cached listing regardless of key.
func (s *RosterService) Invalidate() {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
}

func (s *RosterService) resetLocked() {
	s.cache = make(map[domain.ListQuery]domain.EmployeePage)
	s.generation++
}

func (s *RosterService) Create(ctx context.Context, rows ...domain.NewEmployee) (int, error) {
	return s.mutate(ctx, "create", func(ctx context.Context, token string) (int, error) {
		return s.repo.CreateEmployees(ctx, token, rows)
	})
}

func (s *RosterService) Update(ctx context.Context, patch domain.EmployeePatch) (int, error) {
	return s.mutate(ctx, "update", func(ctx context.Context, token string) (int, error) {
		return s.repo.UpdateEmployees(ctx, token, []domain.EmployeePatch{patch})
	})
}

func (s *RosterService) Delete(ctx context.Context, id string) (int, error) {
	return s.mutate(ctx, "delete", func(ctx context.Context, token string) (int, error) {
		return s.repo.DeleteEmployees(ctx, token, []string{id})
	})
}

// Import uploads a CSV file while reporting a simulated progress ramp. The
// remote side does not report per-row progress; the final 100 is only sent
// once the upload has been accepted.
func (s *RosterService) Import(ctx context.Context, filename string, r io.Reader, onProgress ProgressFunc) (int, error) {
	token := s.tokens.Token()
	if token == "" {
		return 0, domain.ErrNoSession
	}
	resC, err := s.async.Go(ctx, func(ctx context.Context) (any, error) {
		return s.repo.ImportEmployeesCSV(ctx, token, filename, r)
	})
	if err != nil {
		return 0, err
	}
	v, err := s.ramp.Drive(ctx, resC, onProgress)
	s.metrics.Import(err)
	if err != nil {
		s.log.WithError(err).WithField("file", filename).Warn("csv import failed")
		return 0, err
	}
	s.Invalidate()
	n, _ := v.(int)
	s.log.WithFields(logrus.Fields{"file": filename, "queued": n}).Info("csv import accepted")
	return n, nil
}

// mutate runs call on the worker pool so writes share its concurrency bound.
func (s *RosterService) mutate(ctx context.Context, op string, call func(ctx context.Context, token string) (int, error)) (int, error) {
	token := s.tokens.Token()
	if token == "" {
		return 0, domain.ErrNoSession
	}
	v, err := s.async.SubmitAsync(ctx, func(ctx context.Context) (any, error) {
		return call(ctx, token)
	})
	if err != nil {
		s.log.WithError(err).WithField("op", op).Debug("roster mutation failed")
		return 0, err
	}
	s.Invalidate()
	n, _ := v.(int)
	return n, nil
}

func clonePage(p domain.EmployeePage) domain.EmployeePage {
	items := make([]domain.Employee, len(p.Items))
	copy(items, p.Items)
	return domain.EmployeePage{Items: items, Total: p.Total}
}
