package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"roster-bot/internal/domain"
	"roster-bot/internal/mockapi"
	"roster-bot/internal/repository/api"
	"roster-bot/pkg/logging"
	"roster-bot/pkg/workerpool"
)

type memSessions struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemSessions() *memSessions {
	return &memSessions{data: make(map[string][]byte)}
}

func (m *memSessions) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memSessions) Save(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memSessions) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memSessions) raw(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// backend is a seeded mock API plus a counter of list requests.
type backend struct {
	srv       *mockapi.Server
	client    *api.Client
	listCalls atomic.Int32
}

func newBackend(t *testing.T, seed int) *backend {
	t.Helper()
	b := &backend{}
	b.srv = mockapi.New(mockapi.Options{
		SeedCount:   seed,
		NotifyDelay: func() time.Duration { return time.Millisecond },
	})
	h := b.srv.Handler()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/employee/data" {
			b.listCalls.Add(1)
		}
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(func() {
		b.srv.Close()
		ts.Close()
	})
	b.client = api.NewClient(ts.URL)
	return b
}

func newTestWorkspace(t *testing.T, b *backend) (*Workspace, *memSessions) {
	t.Helper()
	pool := workerpool.NewWorkerPool(2, 4)
	t.Cleanup(pool.Close)
	sessions := newMemSessions()
	ws := NewWorkspace(WorkspaceDeps{
		Backend:    b.client,
		Sessions:   sessions,
		SessionKey: "example-auth",
		Async:      NewAsyncService(pool),
		Reconnect:  ReconnectPolicy{Delay: 10 * time.Millisecond, MaxDelay: 20 * time.Millisecond, Multiplier: 1},
		Ramp:       Ramp{Tick: 5 * time.Millisecond, Step: 5, Cap: 95},
		Logger:     logging.Discard(),
	})
	t.Cleanup(ws.Close)
	return ws, sessions
}

func loggedIn(t *testing.T, b *backend) (*Workspace, *memSessions) {
	t.Helper()
	ws, sessions := newTestWorkspace(t, b)
	_, err := ws.Auth.Login(context.Background(), mockapi.AdminEmail, mockapi.AdminPassword)
	require.NoError(t, err)
	return ws, sessions
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

type fakeConn struct {
	msgs   chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{msgs: make(chan []byte, 16), closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case m := <-c.msgs:
		return m, nil
	case <-c.closed:
		return nil, errors.New("use of closed connection")
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type fakeDialer struct {
	mu    sync.Mutex
	dials map[string]int
	conns []*fakeConn
	err   error
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{dials: make(map[string]int)}
}

func (d *fakeDialer) DialPush(ctx context.Context, token string) (domain.PushConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials[token]++
	if d.err != nil {
		return nil, d.err
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) setErr(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

func (d *fakeDialer) dialCount(token string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials[token]
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

func (d *fakeDialer) connCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

type fakeNotifications struct {
	mu        sync.Mutex
	items     map[string][]domain.NotificationItem
	fetches   map[string]int
	fetchErr  error
	markErr   error
	markCalls [][]string
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{
		items:   make(map[string][]domain.NotificationItem),
		fetches: make(map[string]int),
	}
}

func (f *fakeNotifications) Notifications(ctx context.Context, token string) ([]domain.NotificationItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[token]++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]domain.NotificationItem, len(f.items[token]))
	copy(out, f.items[token])
	return out, nil
}

func (f *fakeNotifications) MarkNotificationsRead(ctx context.Context, token string, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls = append(f.markCalls, ids)
	if f.markErr != nil {
		return 0, f.markErr
	}
	return len(f.items[token]), nil
}

func (f *fakeNotifications) fetchCount(token string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[token]
}

type recorder struct {
	mu    sync.Mutex
	calls [][]domain.NotificationItem
}

func (r *recorder) listen(items []domain.NotificationItem) {
	r.mu.Lock()
	r.calls = append(r.calls, items)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recorder) last() []domain.NotificationItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}
