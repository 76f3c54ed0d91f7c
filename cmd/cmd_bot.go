package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"

	"roster-bot/internal/app/service"
	"roster-bot/internal/delivery/telegram"
	"roster-bot/internal/delivery/telegram/flows"
	"roster-bot/pkg/logging"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireTelegram(); err != nil {
			return err
		}
		ctx := cmd.Context()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		a, err := newApp(reg)
		if err != nil {
			return err
		}
		defer a.Close()

		bot, err := telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) {
				logger.WithError(err).Error("telegram update failed")
			},
		})
		if err != nil {
			return errors.Wrap(err, "start telegram bot")
		}

		log := logging.Component(logger, "telegram")
		chats := flows.NewChats(func(chatID int64) *service.Workspace {
			return a.workspace(fmt.Sprintf("%s:%d", cfg.SessionKey, chatID))
		}, bot, log)
		defer chats.Close()

		telegram.NewHandler(bot, chats, log).Register()

		if cfg.MetricsAddr != "" {
			srv := &http.Server{
				Addr:              cfg.MetricsAddr,
				Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.WithError(err).Error("metrics server stopped")
				}
			}()
			defer shutdown(srv)
			logger.WithField("addr", cfg.MetricsAddr).Info("metrics listening")
		}

		go func() {
			<-ctx.Done()
			bot.Stop()
		}()

		logger.WithField("bot", bot.Me.Username).Info("bot started")
		bot.Start()
		logger.Info("bot stopped")
		return nil
	},
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("server shutdown")
	}
}

func init() {
	rootCmd.AddCommand(botCmd)
}
