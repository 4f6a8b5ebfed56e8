package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"

	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/store"
	"github.com/nhle/novatasks/internal/syncserver"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the remote sync server",
		Long: `Run the remote sync server.

Clients authenticate with a bearer token issued by "novatasks token".
The signing secret is read from server.jwt_secret or NOVATASKS_SERVER_JWT_SECRET.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}
			logger := newLogger(os.Stderr)
			if addr == "" {
				addr = cfg.Server.Addr
			}

			tokens, err := syncserver.NewTokenManager(cfg.Server.JWTSecret, cfg.Server.Issuer)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(cfg.Server.DBPath), 0o755); err != nil {
				return fmt.Errorf("creating data directory: %w", err)
			}
			st, err := store.NewSQLiteStore(cfg.Server.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			srv := syncserver.New(st, tokens, logger)
			go func() {
				if err := srv.Listen(addr); err != nil {
					logger.Error("sync server stopped", "err", err)
				}
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "Sync server listening on %s (Ctrl+C to stop)\n", addr)

			wait := gfshutdown.GracefulShutdown(
				context.Background(),
				shutdownTimeout,
				map[string]gfshutdown.Operation{
					"sync-server": func(ctx context.Context) error {
						logger.Info("shutting down sync server")
						return srv.Shutdown(ctx)
					},
				},
			)

			if code := <-wait; code != 0 {
				return fmt.Errorf("shutdown exited with code %d", code)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		user string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a sync API token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return errors.New("--user is required")
			}
			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}
			tokens, err := syncserver.NewTokenManager(cfg.Server.JWTSecret, cfg.Server.Issuer)
			if err != nil {
				return err
			}
			tok, err := tokens.Issue(user, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user id the token is issued to")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime; 0 never expires")
	return cmd
}
