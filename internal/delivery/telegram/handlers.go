package telegram

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
	tbmiddleware "gopkg.in/telebot.v3/middleware"

	"roster-bot/internal/delivery/telegram/flows"
	"roster-bot/internal/delivery/telegram/middleware"
	"roster-bot/internal/delivery/telegram/router"
)

type Handler struct {
	Bot    *telebot.Bot
	Chats  *flows.Chats
	Router *router.CallbackRouter
	Log    *logrus.Entry
}

func NewHandler(bot *telebot.Bot, chats *flows.Chats, log *logrus.Entry) *Handler {
	return &Handler{
		Bot:    bot,
		Chats:  chats,
		Router: router.New(log.WithField("part", "callbacks")),
		Log:    log,
	}
}

// Register wires commands, typed input, uploads and the inline keyboard
// callbacks.
func (h *Handler) Register() {
	h.Bot.Use(tbmiddleware.Recover(func(err error) {
		h.Log.WithError(err).Error("handler panic")
	}))
	h.Bot.Use(middleware.Logger(h.Log))

	h.Bot.Handle("/start", flows.Start(h.Chats))
	h.Bot.Handle("/help", flows.Start(h.Chats))
	h.Bot.Handle("/login", flows.Login(h.Chats))
	h.Bot.Handle("/logout", flows.Logout(h.Chats))
	h.Bot.Handle("/whoami", flows.WhoAmI(h.Chats))
	h.Bot.Handle("/roster", flows.Roster(h.Chats))
	h.Bot.Handle("/notifications", flows.Notifications(h.Chats))
	h.Bot.Handle(telebot.OnText, flows.HandleText(h.Chats))
	h.Bot.Handle(telebot.OnDocument, flows.HandleDocument(h.Chats))

	flows.RegisterRoster(h.Router, h.Chats)
	flows.RegisterEmployees(h.Router, h.Chats)
	flows.RegisterImport(h.Router, h.Chats)
	flows.RegisterNotifications(h.Router, h.Chats)
	h.Router.Attach(h.Bot)
}
