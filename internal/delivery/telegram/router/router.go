package router

import (
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

type HandlerFunc func(c telebot.Context, payload string) error

// CallbackRouter dispatches inline button callbacks by their unique key.
type CallbackRouter struct {
	handlers map[string]HandlerFunc
	log      *logrus.Entry
}

func New(log *logrus.Entry) *CallbackRouter {
	return &CallbackRouter{handlers: make(map[string]HandlerFunc), log: log}
}

func (r *CallbackRouter) Register(key string, h HandlerFunc) {
	r.handlers[key] = h
}

// Keys lists registered callback keys.
func (r *CallbackRouter) Keys() []string {
	keys := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		keys = append(keys, k)
	}
	return keys
}

// ParseCallback splits telebot callback data ("\f<unique>|<payload>") into
// its key and payload.
func ParseCallback(data string) (key, payload string) {
	raw := strings.TrimPrefix(data, "\f")
	key = raw
	if i := strings.IndexByte(raw, '|'); i >= 0 {
		key = raw[:i]
		payload = raw[i+1:]
	}
	return key, payload
}

func (r *CallbackRouter) Attach(bot *telebot.Bot) {
	bot.Handle(telebot.OnCallback, func(c telebot.Context) error {
		_, err := r.Dispatch(c)
		return err
	})
}

// Dispatch answers the callback and runs the matching handler. It reports
// whether a handler was found.
func (r *CallbackRouter) Dispatch(c telebot.Context) (bool, error) {
	key, payload := ParseCallback(c.Data())
	r.log.WithFields(logrus.Fields{"key": key, "payload": payload}).Debug("callback")
	_ = c.Respond()

	h, ok := r.handlers[key]
	if !ok {
		r.log.WithField("key", key).Warn("unhandled callback")
		return false, nil
	}
	return true, h(c, payload)
}
