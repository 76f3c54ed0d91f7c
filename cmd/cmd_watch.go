package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"roster-bot/internal/app/service"
	"roster-bot/internal/domain"
)

var watchMarkRead bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print notifications and stream new ones until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		return withWorkspace(cmd, true, func(ctx context.Context, ws *service.Workspace) error {
			seen := make(map[string]struct{})
			first := true
			unsub, err := ws.Notifications.Subscribe(ctx, ws.Auth.Token(), func(items []domain.NotificationItem) {
				printFresh(out, items, seen, first)
				first = false
			})
			if err != nil {
				return err
			}
			defer unsub()

			if watchMarkRead {
				n, err := ws.Notifications.MarkRead(ctx, nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "marked %d read\n", n)
			}

			<-ctx.Done()
			return nil
		})
	},
}

// printFresh prints the items not printed before, oldest first. The initial
// snapshot is printed in full.
func printFresh(out io.Writer, items []domain.NotificationItem, seen map[string]struct{}, initial bool) {
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		mark := " "
		if !it.Read {
			mark = "*"
		}
		prefix := "+"
		if initial {
			prefix = " "
		}
		fmt.Fprintf(out, "%s%s %s  %s: %s\n", prefix, mark, it.CreatedAt.Local().Format("2006-01-02 15:04"), it.Title, it.Message)
	}
}

func init() {
	watchCmd.Flags().BoolVar(&watchMarkRead, "mark-read", false, "mark every notification read after loading")
	rootCmd.AddCommand(watchCmd)
}
