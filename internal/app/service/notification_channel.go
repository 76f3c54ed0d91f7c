package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"roster-bot/internal/domain"
	"roster-bot/internal/metrics"
	"roster-bot/internal/model"
)

// ReconnectPolicy bounds push reconnects. Multiplier 1 with MaxAttempts 0
// gives a fixed-interval loop that never gives up.
type ReconnectPolicy struct {
	Delay       time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	MaxAttempts uint64
}

func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{Delay: 2 * time.Second, MaxDelay: 30 * time.Second, Multiplier: 2, MaxAttempts: 10}
}

func (p ReconnectPolicy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Delay
	if b.InitialInterval <= 0 {
		b.InitialInterval = 2 * time.Second
	}
	b.MaxInterval = p.MaxDelay
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	b.Multiplier = p.Multiplier
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	if p.MaxAttempts > 0 {
		return backoff.WithMaxRetries(b, p.MaxAttempts)
	}
	return b
}

type Listener func(items []domain.NotificationItem)

type listenerEntry struct {
	id uint64
	fn Listener
}

type pushSession struct {
	token  string
	cancel context.CancelFunc
	done   chan struct{}
	conn   domain.PushConn
}

// NotificationChannel hydrates the feed of one token and keeps it live over
// a push connection shared by all listeners. Listeners run synchronously and
// must not call back into the channel.
type NotificationChannel struct {
	repo    domain.NotificationRepo
	dialer  domain.PushDialer
	policy  ReconnectPolicy
	log     *logrus.Entry
	metrics *metrics.Metrics

	subMu  sync.Mutex
	emitMu sync.Mutex

	mu        sync.Mutex
	active    *pushSession
	items     []domain.NotificationItem
	listeners []listenerEntry
	nextID    uint64
}

func NewNotificationChannel(repo domain.NotificationRepo, dialer domain.PushDialer, policy ReconnectPolicy, log *logrus.Entry, m *metrics.Metrics) *NotificationChannel {
	return &NotificationChannel{
		repo:    repo,
		dialer:  dialer,
		policy:  policy,
		log:     log,
		metrics: m,
	}
}

// Subscribe registers l for token. The first subscription of a token hydrates
// the feed and opens the push connection; a different token tears the old one
// down first. A hydration failure fails the call. Subscribing again after the
// push loop gave up revives the feed and keeps the listeners already
// registered for the token.
func (c *NotificationChannel) Subscribe(ctx context.Context, token string, l Listener) (func(), error) {
	if token == "" {
		return nil, domain.ErrNoSession
	}
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.emitMu.Lock()
	c.mu.Lock()
	if sess := c.active; sess != nil && sess.token == token && !finished(sess) {
		id := c.addListenerLocked(l)
		snapshot := cloneItems(c.items)
		c.mu.Unlock()
		l(snapshot)
		c.emitMu.Unlock()
		return c.unsubscriber(id), nil
	}
	var dead *pushSession
	if sess := c.active; sess != nil && sess.token == token {
		dead = sess
	}
	c.mu.Unlock()
	c.emitMu.Unlock()

	// a dead session for the same token keeps its listeners until the feed
	// is hydrated again, so a failed revive can be retried
	if dead == nil {
		c.shutdown(true)
	}

	items, err := c.repo.Notifications(ctx, token)
	if err != nil {
		c.log.WithError(err).Warn("notification hydration failed")
		return nil, err
	}
	sortNewestFirst(items)

	loopCtx, cancel := context.WithCancel(context.Background())
	sess := &pushSession{token: token, cancel: cancel, done: make(chan struct{})}

	c.emitMu.Lock()
	c.mu.Lock()
	var survivors []listenerEntry
	if dead != nil && c.active == dead {
		survivors = c.listeners
		dead.cancel()
	}
	c.active = sess
	c.items = items
	c.listeners = survivors
	id := c.addListenerLocked(l)
	snapshot, listeners := cloneItems(c.items), c.listenersLocked()
	c.mu.Unlock()
	go c.run(loopCtx, sess)
	notify(listeners, snapshot)
	c.emitMu.Unlock()

	c.log.WithFields(logrus.Fields{"items": len(items), "revived": len(survivors)}).Debug("notification feed hydrated")
	return c.unsubscriber(id), nil
}

// Live reports whether a push loop is still running for the current token.
// It turns false once reconnect attempts are exhausted.
func (c *NotificationChannel) Live() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil && !finished(c.active)
}

// MarkRead flips read flags after the server accepted the change. An empty
// ids list marks everything.
func (c *NotificationChannel) MarkRead(ctx context.Context, ids []string) (int, error) {
	c.mu.Lock()
	sess := c.active
	c.mu.Unlock()
	if sess == nil {
		return 0, domain.ErrNoSession
	}

	modified, err := c.repo.MarkNotificationsRead(ctx, sess.token, ids)
	if err != nil {
		return 0, err
	}

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	c.mu.Lock()
	if c.active != sess {
		c.mu.Unlock()
		return modified, nil
	}
	for i := range c.items {
		if _, ok := want[c.items[i].ID]; ok || len(want) == 0 {
			c.items[i].Read = true
		}
	}
	snapshot, listeners := cloneItems(c.items), c.listenersLocked()
	c.mu.Unlock()
	notify(listeners, snapshot)
	return modified, nil
}

func (c *NotificationChannel) Items() []domain.NotificationItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneItems(c.items)
}

// Token is the token the channel is currently bound to, if any.
func (c *NotificationChannel) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return ""
	}
	return c.active.token
}

// Close drops every listener and waits for the push loop to exit.
func (c *NotificationChannel) Close() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.shutdown(true)
}

// unsubscriber removes listener id wherever it lives now. Removing the last
// listener closes the connection.
func (c *NotificationChannel) unsubscriber(id uint64) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			found := false
			for i, e := range c.listeners {
				if e.id == id {
					c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
					found = true
					break
				}
			}
			sess := c.active
			last := found && len(c.listeners) == 0
			c.mu.Unlock()
			if last && sess != nil {
				c.shutdownSession(sess, false)
			}
		})
	}
}

func (c *NotificationChannel) shutdown(wait bool) {
	c.mu.Lock()
	sess := c.active
	c.mu.Unlock()
	if sess != nil {
		c.shutdownSession(sess, wait)
	}
}

// shutdownSession cancels under mu so run either sees the cancellation before
// attaching a connection or has attached it and we close it here.
func (c *NotificationChannel) shutdownSession(sess *pushSession, wait bool) {
	c.mu.Lock()
	if c.active != sess {
		c.mu.Unlock()
		return
	}
	c.active = nil
	c.items = nil
	c.listeners = nil
	sess.cancel()
	conn := sess.conn
	sess.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if wait {
		<-sess.done
	}
}

func (c *NotificationChannel) run(ctx context.Context, sess *pushSession) {
	defer close(sess.done)
	log := c.log.WithField("token_suffix", suffix(sess.token))
	bo := c.policy.backOff()

	for {
		conn, err := c.dialer.DialPush(ctx, sess.token)
		if err == nil {
			if !c.attach(ctx, sess, conn) {
				_ = conn.Close()
				return
			}
			bo.Reset()
			log.Debug("push connection open")
			c.readLoop(sess, conn)
			c.detach(sess, conn)
			_ = conn.Close()
			if ctx.Err() != nil {
				return
			}
			log.Info("push connection closed")
		} else {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Warn("push connection failed")
		}

		delay := bo.NextBackOff()
		if delay == backoff.Stop {
			log.Error("push connection retries exhausted")
			return
		}
		c.metrics.Reconnect()
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (c *NotificationChannel) attach(ctx context.Context, sess *pushSession, conn domain.PushConn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	sess.conn = conn
	return true
}

func (c *NotificationChannel) detach(sess *pushSession, conn domain.PushConn) {
	c.mu.Lock()
	if sess.conn == conn {
		sess.conn = nil
	}
	c.mu.Unlock()
}

func (c *NotificationChannel) readLoop(sess *pushSession, conn domain.PushConn) {
	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		c.handle(sess, raw)
	}
}

func (c *NotificationChannel) handle(sess *pushSession, raw []byte) {
	item, ok := decodePush(raw)
	c.metrics.PushMessage(ok)
	if !ok {
		c.log.WithField("bytes", len(raw)).Debug("discarding malformed push message")
		return
	}
	item.Read = false

	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	c.mu.Lock()
	if c.active != sess {
		c.mu.Unlock()
		return
	}
	items := make([]domain.NotificationItem, 0, len(c.items)+1)
	items = append(items, item)
	for _, existing := range c.items {
		if existing.ID != item.ID {
			items = append(items, existing)
		}
	}
	sortNewestFirst(items)
	c.items = items
	snapshot, listeners := cloneItems(c.items), c.listenersLocked()
	c.mu.Unlock()
	notify(listeners, snapshot)
}

func (c *NotificationChannel) addListenerLocked(l Listener) uint64 {
	c.nextID++
	c.listeners = append(c.listeners, listenerEntry{id: c.nextID, fn: l})
	return c.nextID
}

func (c *NotificationChannel) listenersLocked() []Listener {
	out := make([]Listener, 0, len(c.listeners))
	for _, e := range c.listeners {
		out = append(out, e.fn)
	}
	return out
}

func decodePush(raw []byte) (domain.NotificationItem, bool) {
	var ev model.PushEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return domain.NotificationItem{}, false
	}
	if ev.Type != model.PushTypeNotification || len(ev.Data) == 0 {
		return domain.NotificationItem{}, false
	}
	var item domain.NotificationItem
	if err := json.Unmarshal(ev.Data, &item); err != nil || item.ID == "" {
		return domain.NotificationItem{}, false
	}
	return item, true
}

func notify(listeners []Listener, items []domain.NotificationItem) {
	for _, l := range listeners {
		l(cloneItems(items))
	}
}

func finished(sess *pushSession) bool {
	select {
	case <-sess.done:
		return true
	default:
		return false
	}
}

func sortNewestFirst(items []domain.NotificationItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func cloneItems(items []domain.NotificationItem) []domain.NotificationItem {
	out := make([]domain.NotificationItem, len(items))
	copy(out, items)
	return out
}

// HasUnread reports whether any item is still unread.
func HasUnread(items []domain.NotificationItem) bool {
	for _, it := range items {
		if !it.Read {
			return true
		}
	}
	return false
}

func suffix(token string) string {
	if len(token) <= 6 {
		return token
	}
	return token[len(token)-6:]
}
