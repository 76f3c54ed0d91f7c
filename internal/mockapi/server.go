// Package mockapi is an in-memory implementation of the roster API used by
// tests and local development.
package mockapi

import (
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"roster-bot/internal/domain"
	"roster-bot/pkg/logging"
)

const (
	AdminEmail    = "admin@nusa.id"
	AdminName     = "Nusa Admin"
	AdminPassword = "Admin123!"
	TokenPrefix   = "mock-jwt-"

	DefaultSeedCount = 12000
)

type Options struct {
	SeedCount int
	// NotifyDelay picks the delay of the job notification sent after a write.
	NotifyDelay func() time.Duration
	Now         func() time.Time
	Logger      *logrus.Entry
}

type Server struct {
	opts     Options
	log      *logrus.Entry
	validate *validator.Validate
	upgrader websocket.Upgrader
	hub      *hub
	handler  http.Handler
	pwHash   []byte

	mu            sync.RWMutex
	employees     []domain.Employee
	tokens        map[string]struct{}
	notifications []domain.NotificationItem
	timers        []*time.Timer
	closed        bool
}

func New(opts Options) *Server {
	if opts.SeedCount < 0 {
		opts.SeedCount = 0
	}
	if opts.NotifyDelay == nil {
		opts.NotifyDelay = func() time.Duration {
			return 1200*time.Millisecond + time.Duration(rand.Int63n(int64(800*time.Millisecond)))
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Component(nil, "mockapi")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(AdminPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	s := &Server{
		opts:      opts,
		log:       opts.Logger,
		validate:  validator.New(),
		upgrader:  websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		hub:       newHub(),
		pwHash:    hash,
		employees: seedEmployees(opts.SeedCount, opts.Now()),
		tokens:    make(map[string]struct{}),
	}
	s.handler = cors.AllowAll().Handler(s.routes())
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/ws/notifications", s.handlePush).Methods(http.MethodGet)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.requireToken)
	authed.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	authed.HandleFunc("/employee/data", s.handleList).Methods(http.MethodGet)
	authed.HandleFunc("/employee/add", s.handleAdd).Methods(http.MethodPost)
	authed.HandleFunc("/employee/add/csv", s.handleImportCSV).Methods(http.MethodPost)
	authed.HandleFunc("/employee/update", s.handleUpdate).Methods(http.MethodPatch)
	authed.HandleFunc("/employee/remove", s.handleRemove).Methods(http.MethodDelete)
	authed.HandleFunc("/notifications", s.handleNotifications).Methods(http.MethodGet)
	authed.HandleFunc("/notifications/read", s.handleMarkRead).Methods(http.MethodPatch)
	return r
}

// Notify publishes a job update right away.
func (s *Server) Notify(message string) domain.NotificationItem {
	return s.pushNotification(message)
}

// DropConnections closes every open push connection, as a server restart would.
func (s *Server) DropConnections() {
	s.hub.closeAll()
}

func (s *Server) PushConnections() int {
	return s.hub.count()
}

func (s *Server) EmployeeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.employees)
}

// Close stops pending notifications and drops push connections.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	s.mu.Unlock()
	s.hub.closeAll()
}

func (s *Server) validToken(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[token]
	return ok
}

func (s *Server) scheduleNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	t := time.AfterFunc(s.opts.NotifyDelay(), func() {
		s.pushNotification(message)
	})
	s.timers = append(s.timers, t)
}
