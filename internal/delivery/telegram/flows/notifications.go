package flows

import (
	"context"

	"gopkg.in/telebot.v3"

	"roster-bot/internal/delivery/telegram/keyboards"
	"roster-bot/internal/delivery/telegram/middleware"
	"roster-bot/internal/delivery/telegram/router"
	"roster-bot/internal/delivery/telegram/view"
	"roster-bot/internal/domain"
)

// RegisterNotifications wires the notification panel and its mark-read
// buttons.
func RegisterNotifications(r *router.CallbackRouter, chats *Chats) {
	r.Register(keyboards.KeyNotifs, func(c telebot.Context, payload string) error {
		return ShowNotifications(context.Background(), c, chats.Get(context.Background(), c.Chat().ID))
	})

	r.Register(keyboards.KeyReadAll, func(c telebot.Context, payload string) error {
		return markRead(c, chats, nil)
	})

	r.Register(keyboards.KeyReadOne, func(c telebot.Context, payload string) error {
		if payload == "" {
			return nil
		}
		return markRead(c, chats, []string{payload})
	})
}

// ShowNotifications opens the panel, subscribing first if the chat is not
// watching a live feed.
func ShowNotifications(ctx context.Context, c telebot.Context, chat *Chat) error {
	if _, ok := chat.WS.Auth.Current(); !ok {
		return chat.Fail(c, domain.ErrNoSession)
	}
	if err := chat.EnsureWatch(ctx); err != nil {
		return chat.Fail(c, err)
	}
	chat.Update(func(st *view.State) { st.Open(view.ModalNotifications, "") })
	items := chat.Notifications()
	return middleware.EditOrSend(c, view.RenderNotifications(items), keyboards.Notifications(items), telebot.ModeHTML)
}

func markRead(c telebot.Context, chats *Chats, ids []string) error {
	ctx := context.Background()
	chat := chats.Get(ctx, c.Chat().ID)
	if _, err := chat.WS.Notifications.MarkRead(ctx, ids); err != nil {
		return chat.Fail(c, err)
	}
	items := chat.Notifications()
	return middleware.EditOrSend(c, view.RenderNotifications(items), keyboards.Notifications(items), telebot.ModeHTML)
}
