package flows

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"roster-bot/internal/app/service"
	"roster-bot/internal/delivery/telegram/keyboards"
	"roster-bot/internal/delivery/telegram/middleware"
	"roster-bot/internal/delivery/telegram/view"
	"roster-bot/internal/domain"
)

// Bot is the part of *telebot.Bot the flows use outside a handler context.
type Bot interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
	Edit(msg telebot.Editable, what interface{}, opts ...interface{}) (*telebot.Message, error)
	File(file *telebot.File) (io.ReadCloser, error)
}

// WorkspaceFactory builds the workspace of one chat.
type WorkspaceFactory func(chatID int64) *service.Workspace

// Chat is the dashboard of one Telegram chat.
type Chat struct {
	ID  int64
	WS  *service.Workspace
	bot Bot
	log *logrus.Entry

	mu        sync.Mutex
	state     view.State
	field     domain.SortField
	page      domain.EmployeePage
	dashboard *telebot.Message
	notifs    []domain.NotificationItem
	known     map[string]struct{}
	unsub     func()
}

// Chats owns one Chat per Telegram chat id.
type Chats struct {
	factory WorkspaceFactory
	bot     Bot
	log     *logrus.Entry

	mu    sync.Mutex
	chats map[int64]*Chat
}

func NewChats(factory WorkspaceFactory, bot Bot, log *logrus.Entry) *Chats {
	return &Chats{factory: factory, bot: bot, log: log, chats: make(map[int64]*Chat)}
}

// Get returns the chat, restoring its persisted session on first use.
func (r *Chats) Get(ctx context.Context, chatID int64) *Chat {
	r.mu.Lock()
	c, ok := r.chats[chatID]
	if !ok {
		c = &Chat{
			ID:    chatID,
			WS:    r.factory(chatID),
			bot:   r.bot,
			log:   r.log.WithField("chat", chatID),
			state: view.NewState(),
		}
		r.chats[chatID] = c
	}
	r.mu.Unlock()

	if !ok {
		if _, restored := c.WS.Auth.Restore(ctx); restored {
			if err := c.Watch(ctx); err != nil {
				c.log.WithError(err).Warn("notification feed unavailable")
			}
		}
	}
	return c
}

func (r *Chats) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.chats {
		c.WS.Close()
	}
}

func (c *Chat) recipient() telebot.Recipient {
	return &telebot.Chat{ID: c.ID}
}

// Watch subscribes the chat to the notification feed of its session. New
// items arriving after hydration are announced as separate messages.
func (c *Chat) Watch(ctx context.Context) error {
	c.stopWatch()
	unsub, err := c.WS.Notifications.Subscribe(ctx, c.WS.Auth.Token(), c.onNotifications)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.unsub = unsub
	c.mu.Unlock()
	return nil
}

// EnsureWatch subscribes again when the chat never watched its feed or the
// push loop gave up reconnecting.
func (c *Chat) EnsureWatch(ctx context.Context) error {
	c.mu.Lock()
	watching := c.unsub != nil
	c.mu.Unlock()
	if watching && c.WS.Notifications.Live() {
		return nil
	}
	return c.Watch(ctx)
}

func (c *Chat) stopWatch() {
	c.mu.Lock()
	unsub := c.unsub
	c.unsub = nil
	c.known = nil
	c.notifs = nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (c *Chat) onNotifications(items []domain.NotificationItem) {
	c.mu.Lock()
	var fresh []domain.NotificationItem
	if c.known != nil {
		for _, it := range items {
			if _, seen := c.known[it.ID]; !seen && !it.Read {
				fresh = append(fresh, it)
			}
		}
	}
	c.known = make(map[string]struct{}, len(items))
	for _, it := range items {
		c.known[it.ID] = struct{}{}
	}
	c.notifs = items
	c.mu.Unlock()

	for _, it := range fresh {
		if _, err := c.bot.Send(c.recipient(), view.RenderPush(it), telebot.ModeHTML); err != nil {
			c.log.WithError(err).Warn("push announcement failed")
		}
	}
}

// Notifications is the latest feed snapshot.
func (c *Chat) Notifications() []domain.NotificationItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.NotificationItem, len(c.notifs))
	copy(out, c.notifs)
	return out
}

// Logout drops the session and resets the dashboard.
func (c *Chat) Logout(ctx context.Context) error {
	c.stopWatch()
	c.mu.Lock()
	c.state = view.NewState()
	c.page = domain.EmployeePage{}
	c.dashboard = nil
	c.mu.Unlock()
	return c.WS.Logout(ctx)
}

func (c *Chat) State() view.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Update mutates the dashboard state under the chat lock.
func (c *Chat) Update(fn func(st *view.State)) {
	c.mu.Lock()
	fn(&c.state)
	c.mu.Unlock()
}

func (c *Chat) stats(total int) view.Stats {
	unread := 0
	for _, it := range c.notifs {
		if !it.Read {
			unread++
		}
	}
	return view.Stats{
		Total:     total,
		Importing: c.state.Processing == view.LabelImport,
		ImportPct: c.state.ImportPct,
		Unread:    unread,
		Notifs:    len(c.notifs),
	}
}

// Render lists the current page and builds the dashboard message. A page
// past the end, as after a delete, falls back to the last page.
func (c *Chat) Render(ctx context.Context) (string, *telebot.ReplyMarkup, error) {
	q := c.State().Query
	page, err := c.WS.Roster.List(ctx, q)
	if err != nil {
		return "", nil, err
	}
	if q.Page > page.TotalPages() {
		c.Update(func(st *view.State) { st.GoTo(q.Page, page.TotalPages()) })
		if page, err = c.WS.Roster.List(ctx, c.State().Query); err != nil {
			return "", nil, err
		}
	}

	c.mu.Lock()
	c.page = page
	st := c.state
	stats := c.stats(page.Total)
	c.mu.Unlock()

	// only rows that made it into the message can be picked by number
	text, shown := view.RenderRoster(page, st, stats)
	c.mu.Lock()
	c.state.Remember(page.Items[:shown])
	c.mu.Unlock()

	return text, keyboards.Roster(st.Query, page.TotalPages(), stats.Unread), nil
}

// Employee resolves a row number of the last rendered page.
func (c *Chat) Employee(row int) (domain.Employee, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.state.RowID(row)
	if !ok {
		return domain.Employee{}, false
	}
	for _, e := range c.page.Items {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Employee{}, false
}

func (c *Chat) employeeByID(id string) (domain.Employee, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.page.Items {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Employee{}, false
}

// ShowDashboard edits the callback message when there is one, otherwise
// sends a fresh dashboard.
func (c *Chat) ShowDashboard(ctx context.Context, tc telebot.Context) error {
	if _, ok := c.WS.Auth.Current(); ok {
		if err := c.EnsureWatch(ctx); err != nil {
			c.log.WithError(err).Warn("notification feed unavailable")
		}
	}
	text, kb, err := c.Render(ctx)
	if err != nil {
		return c.Fail(tc, err)
	}
	if tc != nil && tc.Callback() != nil && tc.Message() != nil {
		if _, err := c.bot.Edit(tc.Message(), text, kb, telebot.ModeHTML); err == nil || middleware.IsNotModified(err) {
			c.remember(tc.Message())
			return nil
		}
	}
	msg, err := c.bot.Send(c.recipient(), text, kb, telebot.ModeHTML)
	if err != nil {
		return err
	}
	c.remember(msg)
	return nil
}

// RefreshDashboard re-renders the last dashboard message in place.
func (c *Chat) RefreshDashboard(ctx context.Context) error {
	c.mu.Lock()
	msg := c.dashboard
	c.mu.Unlock()
	if msg == nil {
		return c.ShowDashboard(ctx, nil)
	}
	text, kb, err := c.Render(ctx)
	if err != nil {
		return err
	}
	if _, err := c.bot.Edit(msg, text, kb, telebot.ModeHTML); err != nil && !middleware.IsNotModified(err) {
		return c.ShowDashboard(ctx, nil)
	}
	return nil
}

func (c *Chat) remember(msg *telebot.Message) {
	c.mu.Lock()
	c.dashboard = msg
	c.mu.Unlock()
}

// Fail reports err to the operator. Nothing is retried.
func (c *Chat) Fail(tc telebot.Context, err error) error {
	text := "⚠️ " + ErrorText(err)
	c.log.WithError(err).Debug("action failed")
	if tc != nil {
		return tc.Send(text)
	}
	_, sendErr := c.bot.Send(c.recipient(), text)
	return sendErr
}

// ErrorText is the operator-facing text of err.
func ErrorText(err error) string {
	var authErr *domain.AuthError
	switch {
	case errors.Is(err, domain.ErrNoSession):
		return "Silakan login dulu: /login email password"
	case errors.As(err, &authErr):
		return authErr.Message
	}
	return err.Error()
}
