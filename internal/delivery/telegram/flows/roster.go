package flows

import (
	"context"
	"strconv"

	"gopkg.in/telebot.v3"

	"roster-bot/internal/delivery/telegram/keyboards"
	"roster-bot/internal/delivery/telegram/middleware"
	"roster-bot/internal/delivery/telegram/router"
	"roster-bot/internal/delivery/telegram/view"
	"roster-bot/internal/domain"
)

// RegisterRoster wires table navigation: sorting, paging, search and refresh.
func RegisterRoster(r *router.CallbackRouter, chats *Chats) {
	r.Register(keyboards.KeySort, func(c telebot.Context, payload string) error {
		field, ok := domain.ParseSortField(payload)
		if !ok {
			return nil
		}
		chat := chats.Get(context.Background(), c.Chat().ID)
		chat.Update(func(st *view.State) { st.ToggleSort(field) })
		return chat.ShowDashboard(context.Background(), c)
	})

	r.Register(keyboards.KeyPage, func(c telebot.Context, payload string) error {
		page, err := strconv.Atoi(payload)
		if err != nil {
			return nil
		}
		chat := chats.Get(context.Background(), c.Chat().ID)
		// Render clamps pages past the end
		chat.Update(func(st *view.State) {
			if page >= 1 {
				st.Query.Page = page
			}
		})
		return chat.ShowDashboard(context.Background(), c)
	})

	r.Register(keyboards.KeyNoop, func(c telebot.Context, payload string) error {
		return nil
	})

	r.Register(keyboards.KeyRefresh, func(c telebot.Context, payload string) error {
		chat := chats.Get(context.Background(), c.Chat().ID)
		chat.WS.Roster.Invalidate()
		return chat.ShowDashboard(context.Background(), c)
	})

	r.Register(keyboards.KeySearch, func(c telebot.Context, payload string) error {
		chat := chats.Get(context.Background(), c.Chat().ID)
		chat.Update(func(st *view.State) { st.Open(view.ModalSearch, "") })
		return c.Send("🔍 Ketik kata kunci (nama, posisi atau umur):", keyboards.Cancel())
	})

	r.Register(keyboards.KeyClear, func(c telebot.Context, payload string) error {
		chat := chats.Get(context.Background(), c.Chat().ID)
		chat.Update(func(st *view.State) { st.Search("") })
		return chat.ShowDashboard(context.Background(), c)
	})

	r.Register(keyboards.KeyCancel, func(c telebot.Context, payload string) error {
		chat := chats.Get(context.Background(), c.Chat().ID)
		chat.Update(func(st *view.State) { st.Close() })
		return middleware.EditOrSend(c, "Dibatalkan.")
	})

	r.Register(keyboards.KeyBack, func(c telebot.Context, payload string) error {
		chat := chats.Get(context.Background(), c.Chat().ID)
		chat.Update(func(st *view.State) { st.Close() })
		return chat.ShowDashboard(context.Background(), c)
	})
}
