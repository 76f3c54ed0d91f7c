package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"roster-bot/internal/domain"
	"roster-bot/internal/metrics"
	"roster-bot/pkg/logging"
)

// Backend is everything a workspace needs from the remote API.
type Backend interface {
	domain.AuthRepo
	domain.EmployeeRepo
	domain.NotificationRepo
	domain.PushDialer
}

type WorkspaceDeps struct {
	Backend    Backend
	Sessions   domain.SessionRepo
	SessionKey string
	Async      *AsyncService
	Reconnect  ReconnectPolicy
	Ramp       Ramp
	Logger     *logrus.Logger
	Metrics    *metrics.Metrics
}

// Workspace bundles the services of one operator session.
type Workspace struct {
	Auth          *AuthService
	Roster        *RosterService
	Notifications *NotificationChannel
}

func NewWorkspace(deps WorkspaceDeps) *Workspace {
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}
	auth := NewAuthService(deps.Backend, deps.Sessions, deps.SessionKey,
		logging.Component(log, "auth").WithField("session_key", deps.SessionKey))
	return &Workspace{
		Auth:          auth,
		Roster:        NewRosterService(deps.Backend, auth, deps.Async, deps.Ramp, logging.Component(log, "roster"), deps.Metrics),
		Notifications: NewNotificationChannel(deps.Backend, deps.Backend, deps.Reconnect, logging.Component(log, "notifications"), deps.Metrics),
	}
}

// Logout ends the session and releases everything bound to its token.
func (w *Workspace) Logout(ctx context.Context) error {
	w.Notifications.Close()
	w.Roster.Invalidate()
	return w.Auth.Logout(ctx)
}

// Close releases background resources but keeps the persisted session.
func (w *Workspace) Close() {
	w.Notifications.Close()
}
