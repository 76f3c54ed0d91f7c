package main

import (
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"roster-bot/internal/mockapi"
	"roster-bot/pkg/logging"
)

var (
	mockAddr string
	mockSeed int
)

var mockapiCmd = &cobra.Command{
	Use:   "mockapi",
	Short: "Serve an in-memory roster API for local development",
	Long: `mockapi serves the roster API from memory, seeded with generated employees.
Sign in with ` + mockapi.AdminEmail + ` / ` + mockapi.AdminPassword + `.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logging.Component(logger, "mockapi")

		backend := mockapi.New(mockapi.Options{SeedCount: mockSeed, Logger: log})
		srv := &http.Server{
			Handler:           backend.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		ln, err := net.Listen("tcp", mockAddr)
		if err != nil {
			return errors.Wrapf(err, "listen on %s", mockAddr)
		}

		errC := make(chan error, 1)
		go func() {
			errC <- srv.Serve(ln)
		}()
		log.WithField("addr", ln.Addr().String()).WithField("employees", backend.EmployeeCount()).Info("mock API listening")

		select {
		case <-ctx.Done():
		case err := <-errC:
			if !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "serve mock API")
			}
		}
		backend.Close()
		shutdown(srv)
		return nil
	},
}

func init() {
	mockapiCmd.Flags().StringVar(&mockAddr, "addr", "127.0.0.1:8080", "listen address")
	mockapiCmd.Flags().IntVar(&mockSeed, "seed", mockapi.DefaultSeedCount, "number of generated employees")
	rootCmd.AddCommand(mockapiCmd)
}
