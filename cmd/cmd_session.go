package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"roster-bot/internal/app/service"
	"roster-bot/internal/domain"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, false, func(ctx context.Context, ws *service.Workspace) error {
			sess, err := ws.Auth.Login(ctx, loginEmail, loginPassword)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", sess.User.Name, sess.User.Email)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, false, func(ctx context.Context, ws *service.Workspace) error {
			if err := ws.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, true, func(ctx context.Context, ws *service.Workspace) error {
			sess, _ := ws.Auth.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", sess.User.Name, sess.User.Email)
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

// withWorkspace runs fn against the CLI's workspace. With needSession the
// persisted session must exist.
func withWorkspace(cmd *cobra.Command, needSession bool, fn func(ctx context.Context, ws *service.Workspace) error) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ws := a.workspace(cfg.SessionKey)
	defer ws.Close()

	ctx := cmd.Context()
	if _, ok := ws.Auth.Restore(ctx); !ok && needSession {
		return domain.ErrNoSession
	}
	return fn(ctx, ws)
}
