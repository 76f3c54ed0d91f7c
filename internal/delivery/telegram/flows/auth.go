package flows

import (
	"context"
	"errors"
	"fmt"
	"html"

	"gopkg.in/telebot.v3"

	"roster-bot/internal/delivery/telegram/view"
	"roster-bot/internal/domain"
)

const helpText = "<b>Nusa Roster</b>\n" +
	"/login email password: masuk\n" +
	"/roster: tabel karyawan\n" +
	"/notifications: panel notifikasi\n" +
	"/whoami: sesi aktif\n" +
	"/logout: keluar"

func Start(chats *Chats) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ctx := context.Background()
		chat := chats.Get(ctx, c.Chat().ID)
		if err := c.Send(helpText, telebot.ModeHTML); err != nil {
			return err
		}
		if _, ok := chat.WS.Auth.Current(); !ok {
			return nil
		}
		return chat.ShowDashboard(ctx, nil)
	}
}

// Login signs the chat in. The command message carries the password and is
// deleted first.
func Login(chats *Chats) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ctx := context.Background()
		chat := chats.Get(ctx, c.Chat().ID)
		if err := c.Delete(); err != nil {
			chat.log.WithError(err).Debug("could not delete login message")
		}

		email, password, err := ParseLogin(c.Args())
		if err != nil {
			return c.Send("⚠️ " + err.Error())
		}
		sess, err := chat.WS.Auth.Login(ctx, email, password)
		if err != nil {
			var authErr *domain.AuthError
			if errors.As(err, &authErr) {
				return c.Send("⚠️ " + authErr.Message)
			}
			return chat.Fail(c, err)
		}
		chat.Update(func(st *view.State) { *st = view.NewState() })
		if err := chat.Watch(ctx); err != nil {
			chat.log.WithError(err).Warn("notification feed unavailable")
		}
		if err := c.Send(fmt.Sprintf("👋 Halo, <b>%s</b>.", html.EscapeString(sess.User.Name)), telebot.ModeHTML); err != nil {
			return err
		}
		return chat.ShowDashboard(ctx, nil)
	}
}

func Logout(chats *Chats) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ctx := context.Background()
		chat := chats.Get(ctx, c.Chat().ID)
		if err := chat.Logout(ctx); err != nil {
			return chat.Fail(c, err)
		}
		return c.Send("Anda sudah keluar.")
	}
}

func WhoAmI(chats *Chats) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		chat := chats.Get(context.Background(), c.Chat().ID)
		sess, ok := chat.WS.Auth.Current()
		if !ok {
			return chat.Fail(c, domain.ErrNoSession)
		}
		return c.Send(fmt.Sprintf("%s\n%s", html.EscapeString(sess.User.Name), html.EscapeString(sess.User.Email)), telebot.ModeHTML)
	}
}

func Roster(chats *Chats) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ctx := context.Background()
		return chats.Get(ctx, c.Chat().ID).ShowDashboard(ctx, nil)
	}
}

func Notifications(chats *Chats) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ctx := context.Background()
		return ShowNotifications(ctx, c, chats.Get(ctx, c.Chat().ID))
	}
}
