package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/novatasks/internal/credential"
	"github.com/nhle/novatasks/internal/gcal"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push or pull tasks from the remote sync server",
	}

	run := func(op func(ctx context.Context, e *env) (int, error), verb string) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer e.Close()

			n, err := op(cmd.Context(), e)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d tasks\n", verb, n)
			return nil
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "push",
		Short: "Send every local task to the server",
		RunE: run(func(ctx context.Context, e *env) (int, error) {
			s, err := e.newSyncer()
			if err != nil {
				return 0, err
			}
			if s == nil {
				return 0, errors.New("remote sync is disabled (set sync.enabled and sync.url)")
			}
			return s.Push(ctx)
		}, "Pushed"),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pull",
		Short: "Merge the server's tasks into the local database",
		RunE: run(func(ctx context.Context, e *env) (int, error) {
			s, err := e.newSyncer()
			if err != nil {
				return 0, err
			}
			if s == nil {
				return 0, errors.New("remote sync is disabled (set sync.enabled and sync.url)")
			}
			return s.Pull(ctx)
		}, "Pulled"),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "login",
		Short: "Store the sync API token in the system keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), "Sync API token: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading token: %w", err)
			}
			token := strings.TrimSpace(line)
			if token == "" {
				return errors.New("empty token")
			}
			if err := credential.Set(credential.SyncTokenKey, token); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token saved.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Remove the sync API token from the system keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			return credential.Delete(credential.SyncTokenKey)
		},
	})

	return cmd
}

func calendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Mirror task deadlines to Google Calendar",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "login",
		Short: "Authorize access to Google Calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer e.Close()

			oauthCfg, err := gcal.OAuthConfig(e.cfg.Calendar.CredentialsFile)
			if err != nil {
				return err
			}
			tok, err := gcal.Login(cmd.Context(), oauthCfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := gcal.SaveToken(e.cfg.Calendar.TokenFile, tok); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", e.cfg.Calendar.TokenFile)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Create, update or remove events for every task once",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer e.Close()

			cal, err := e.newCalendar(cmd.Context())
			if err != nil {
				return err
			}
			if cal == nil {
				return errors.New("calendar mirror is disabled (set calendar.enabled)")
			}
			tasks, err := e.tracker.Tasks(cmd.Context())
			if err != nil {
				return err
			}
			report, err := cal.SyncAll(cmd.Context(), tasks)
			fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d, deleted %d, unchanged %d, failed %d\n",
				report.Created, report.Updated, report.Deleted, report.Unchanged, report.Failed)
			return err
		},
	})

	return cmd
}
