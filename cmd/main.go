package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"roster-bot/config"
	"roster-bot/pkg/logging"
)

var (
	cfg    *config.Config
	logger *logrus.Logger

	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "roster",
	Short: "Employee roster admin: Telegram dashboard, CLI and mock backend",
	Long: `roster manages the employee roster of a remote HR API.

It runs as a Telegram bot dashboard (roster bot), as a set of one-shot commands
sharing the same persisted session (login, list, add, update, delete, import,
watch), or as a local mock of the API for development (roster mockapi).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		logger = logging.New(level, os.Stderr)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
