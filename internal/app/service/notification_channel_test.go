package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"roster-bot/internal/domain"
	"roster-bot/internal/model"
	"roster-bot/pkg/logging"
)

var testPolicy = ReconnectPolicy{Delay: 5 * time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 1, MaxAttempts: 3}

func newTestChannel(repo domain.NotificationRepo, dialer domain.PushDialer, policy ReconnectPolicy) *NotificationChannel {
	return NewNotificationChannel(repo, dialer, policy, logging.Discard().WithField("test", true), nil)
}

func pushFrame(t *testing.T, item domain.NotificationItem) []byte {
	t.Helper()
	data, err := json.Marshal(item)
	require.NoError(t, err)
	raw, err := json.Marshal(model.PushEvent{Type: model.PushTypeNotification, Data: data})
	require.NoError(t, err)
	return raw
}

func at(minute int) time.Time {
	return time.Date(2024, 5, 1, 10, minute, 0, 0, time.UTC)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 2*time.Millisecond)
}

func TestNotificationChannel_SharesOneConnectionPerToken(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	repo := newFakeNotifications()
	repo.items["tok"] = []domain.NotificationItem{
		{ID: "old", Message: "older", CreatedAt: at(1), Read: true},
		{ID: "new", Message: "newer", CreatedAt: at(5)},
	}
	dialer := newFakeDialer()
	ch := newTestChannel(repo, dialer, testPolicy)
	ctx := context.Background()

	var a, b recorder
	unsubA, err := ch.Subscribe(ctx, "tok", a.listen)
	require.NoError(t, err)
	unsubB, err := ch.Subscribe(ctx, "tok", b.listen)
	require.NoError(t, err)

	require.Equal(t, 1, a.count())
	require.Equal(t, 1, b.count())
	assert.Equal(t, "new", a.last()[0].ID)
	assert.Equal(t, a.last(), b.last())
	assert.True(t, HasUnread(a.last()))

	waitFor(t, func() bool { return dialer.connCount() == 1 })
	assert.Equal(t, 1, repo.fetchCount("tok"))
	assert.Equal(t, 1, dialer.dialCount("tok"))
	assert.Equal(t, "tok", ch.Token())

	unsubA()
	unsubA()
	assert.False(t, dialer.conn(0).isClosed())
	unsubB()
	waitFor(t, dialer.conn(0).isClosed)
	assert.Empty(t, ch.Token())

	ch.Close()
}

func TestNotificationChannel_PushPrependsAndDiscardsMalformed(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	repo := newFakeNotifications()
	repo.items["tok"] = []domain.NotificationItem{{ID: "a", CreatedAt: at(1), Read: true}}
	dialer := newFakeDialer()
	ch := newTestChannel(repo, dialer, testPolicy)
	defer ch.Close()

	var rec recorder
	_, err := ch.Subscribe(context.Background(), "tok", rec.listen)
	require.NoError(t, err)
	waitFor(t, func() bool { return dialer.connCount() == 1 })
	conn := dialer.conn(0)

	conn.msgs <- []byte("not json")
	conn.msgs <- []byte(`{"type":"heartbeat","data":{}}`)
	conn.msgs <- []byte(`{"type":"notification","data":{"title":"no id"}}`)
	// the server never marks pushed items as read
	conn.msgs <- pushFrame(t, domain.NotificationItem{ID: "b", Message: "Profil Bob selesai diproses.", CreatedAt: at(9), Read: true})

	waitFor(t, func() bool { return rec.count() == 2 })
	items := rec.last()
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
	assert.False(t, items[0].Read)
	assert.Equal(t, "a", items[1].ID)

	// a replayed id replaces the earlier copy
	conn.msgs <- pushFrame(t, domain.NotificationItem{ID: "b", Message: "again", CreatedAt: at(9)})
	waitFor(t, func() bool { return rec.count() == 3 })
	assert.Len(t, ch.Items(), 2)
	assert.Equal(t, "again", ch.Items()[0].Message)
}

func TestNotificationChannel_TokenSwitchRehydrates(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	repo := newFakeNotifications()
	repo.items["one"] = []domain.NotificationItem{{ID: "1", CreatedAt: at(1)}}
	repo.items["two"] = []domain.NotificationItem{{ID: "2", CreatedAt: at(2)}}
	dialer := newFakeDialer()
	ch := newTestChannel(repo, dialer, testPolicy)
	defer ch.Close()
	ctx := context.Background()

	var first, second recorder
	_, err := ch.Subscribe(ctx, "one", first.listen)
	require.NoError(t, err)
	waitFor(t, func() bool { return dialer.connCount() == 1 })

	_, err = ch.Subscribe(ctx, "two", second.listen)
	require.NoError(t, err)
	assert.True(t, dialer.conn(0).isClosed())
	assert.Equal(t, "2", second.last()[0].ID)
	assert.Equal(t, "two", ch.Token())
	waitFor(t, func() bool { return dialer.dialCount("two") == 1 })

	// the first listener was dropped with its token
	dialer.conn(1).msgs <- pushFrame(t, domain.NotificationItem{ID: "3", CreatedAt: at(3)})
	waitFor(t, func() bool { return second.count() == 2 })
	assert.Equal(t, 1, first.count())
}

func TestNotificationChannel_HydrationFailure(t *testing.T) {
	repo := newFakeNotifications()
	repo.fetchErr = errors.New("backend down")
	dialer := newFakeDialer()
	ch := newTestChannel(repo, dialer, testPolicy)
	defer ch.Close()

	_, err := ch.Subscribe(context.Background(), "tok", func([]domain.NotificationItem) {})
	assert.EqualError(t, err, "backend down")
	assert.Zero(t, dialer.dialCount("tok"))
	assert.Empty(t, ch.Token())

	_, err = ch.Subscribe(context.Background(), "", func([]domain.NotificationItem) {})
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestNotificationChannel_MarkRead(t *testing.T) {
	repo := newFakeNotifications()
	repo.items["tok"] = []domain.NotificationItem{
		{ID: "a", CreatedAt: at(1)},
		{ID: "b", CreatedAt: at(2)},
		{ID: "c", CreatedAt: at(3)},
	}
	dialer := newFakeDialer()
	ch := newTestChannel(repo, dialer, testPolicy)
	defer ch.Close()
	ctx := context.Background()

	_, err := ch.MarkRead(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrNoSession)

	var rec recorder
	_, err = ch.Subscribe(ctx, "tok", rec.listen)
	require.NoError(t, err)

	_, err = ch.MarkRead(ctx, []string{"b"})
	require.NoError(t, err)
	read := map[string]bool{}
	for _, it := range rec.last() {
		read[it.ID] = it.Read
	}
	assert.Equal(t, map[string]bool{"a": false, "b": true, "c": false}, read)

	repo.markErr = errors.New("rejected")
	_, err = ch.MarkRead(ctx, nil)
	assert.Error(t, err)
	assert.True(t, HasUnread(ch.Items()))

	repo.markErr = nil
	_, err = ch.MarkRead(ctx, nil)
	require.NoError(t, err)
	assert.False(t, HasUnread(ch.Items()))
	assert.False(t, HasUnread(rec.last()))
	assert.Equal(t, [][]string{{"b"}, nil, nil}, repo.markCalls)
}

func TestNotificationChannel_ReconnectsAfterDrop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	repo := newFakeNotifications()
	dialer := newFakeDialer()
	ch := newTestChannel(repo, dialer, testPolicy)

	var rec recorder
	_, err := ch.Subscribe(context.Background(), "tok", rec.listen)
	require.NoError(t, err)
	waitFor(t, func() bool { return dialer.connCount() == 1 })

	require.NoError(t, dialer.conn(0).Close())
	waitFor(t, func() bool { return dialer.connCount() == 2 })

	dialer.conn(1).msgs <- pushFrame(t, domain.NotificationItem{ID: "x", CreatedAt: at(1)})
	waitFor(t, func() bool { return rec.count() == 2 })
	assert.Equal(t, 1, repo.fetchCount("tok"))

	ch.Close()
	assert.True(t, dialer.conn(1).isClosed())
}

func TestNotificationChannel_GivesUpAfterMaxAttempts(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	repo := newFakeNotifications()
	dialer := newFakeDialer()
	dialer.err = errors.New("refused")
	ch := newTestChannel(repo, dialer, testPolicy)
	defer ch.Close()

	_, err := ch.Subscribe(context.Background(), "tok", func([]domain.NotificationItem) {})
	require.NoError(t, err)

	waitFor(t, func() bool { return dialer.dialCount("tok") == 4 })
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 4, dialer.dialCount("tok"))
}

func TestNotificationChannel_ResubscribeRevivesListeners(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	repo := newFakeNotifications()
	repo.items["tok"] = []domain.NotificationItem{{ID: "old", CreatedAt: at(1)}}
	dialer := newFakeDialer()
	dialer.setErr(errors.New("refused"))
	ch := newTestChannel(repo, dialer, testPolicy)
	defer ch.Close()
	ctx := context.Background()

	var first, second recorder
	unsubFirst, err := ch.Subscribe(ctx, "tok", first.listen)
	require.NoError(t, err)
	assert.Equal(t, 1, first.count())

	waitFor(t, func() bool { return !ch.Live() })
	assert.Equal(t, 4, dialer.dialCount("tok"))

	// a failed revive keeps the stranded listener for the next attempt
	repo.mu.Lock()
	repo.fetchErr = errors.New("down")
	repo.mu.Unlock()
	_, err = ch.Subscribe(ctx, "tok", second.listen)
	require.Error(t, err)
	assert.False(t, ch.Live())

	repo.mu.Lock()
	repo.fetchErr = nil
	repo.mu.Unlock()
	dialer.setErr(nil)
	unsubSecond, err := ch.Subscribe(ctx, "tok", second.listen)
	require.NoError(t, err)
	assert.True(t, ch.Live())
	assert.Equal(t, 2, first.count())
	assert.Equal(t, 1, second.count())
	waitFor(t, func() bool { return dialer.connCount() == 1 })

	dialer.conn(0).msgs <- pushFrame(t, domain.NotificationItem{ID: "fresh", CreatedAt: at(9)})
	waitFor(t, func() bool { return first.count() == 3 && second.count() == 2 })
	assert.Equal(t, "fresh", first.last()[0].ID)
	assert.Equal(t, "fresh", second.last()[0].ID)

	// the unsubscribe handed out before the revive still works
	unsubFirst()
	assert.False(t, dialer.conn(0).isClosed())
	unsubSecond()
	waitFor(t, func() bool { return dialer.conn(0).isClosed() })
}

func TestNotificationChannel_AgainstMockBackend(t *testing.T) {
	b := newBackend(t, 0)
	ws, _ := loggedIn(t, b)
	ctx := context.Background()

	var rec recorder
	unsub, err := ws.Notifications.Subscribe(ctx, ws.Auth.Token(), rec.listen)
	require.NoError(t, err)
	defer unsub()
	waitFor(t, func() bool { return b.srv.PushConnections() == 1 })

	b.srv.Notify("Profil Ani selesai diproses.")
	waitFor(t, func() bool { return rec.count() == 2 })
	assert.Equal(t, "Profil Ani selesai diproses.", rec.last()[0].Message)

	b.srv.DropConnections()
	waitFor(t, func() bool { return b.srv.PushConnections() == 1 })
	b.srv.Notify("Profil Budi selesai diproses.")
	waitFor(t, func() bool { return rec.count() == 3 })
	assert.Len(t, rec.last(), 2)

	_, err = ws.Notifications.MarkRead(ctx, nil)
	require.NoError(t, err)
	assert.False(t, HasUnread(ws.Notifications.Items()))

	require.NoError(t, ws.Logout(ctx))
	assert.Empty(t, ws.Notifications.Token())
	waitFor(t, func() bool { return b.srv.PushConnections() == 0 })
}
