package middleware

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// IsNotModified reports Telegram's rejection of an edit that changes nothing.
func IsNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

// EditOrSend edits the message behind a callback, or sends a new one when
// there is nothing to edit or the edit fails.
func EditOrSend(c telebot.Context, text string, opts ...interface{}) error {
	if c.Callback() != nil {
		err := c.Edit(text, opts...)
		if err == nil || IsNotModified(err) {
			return nil
		}
	}
	return c.Send(text, opts...)
}

// Logger logs every update with its chat and handling time.
func Logger(log *logrus.Entry) telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			start := time.Now()
			err := next(c)
			entry := log.WithField("took", time.Since(start))
			if chat := c.Chat(); chat != nil {
				entry = entry.WithField("chat", chat.ID)
			}
			if err != nil {
				entry.WithError(err).Warn("update failed")
				return err
			}
			entry.Debug("update handled")
			return nil
		}
	}
}
