// Command kbctl runs administrative tasks against the knowledgebase database:
// schema migrations and password resets.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"knowledgebase/internal/config"
	pgRepo "knowledgebase/internal/infra/adapter/persistence/postgres"
	"knowledgebase/internal/infra/db"
	"knowledgebase/internal/infra/session"
	"knowledgebase/internal/observability/logging"
	"knowledgebase/internal/repository"
	credUC "knowledgebase/internal/usecase/credential"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:          "kbctl",
		Short:        "Knowledgebase administration",
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			slog.SetDefault(logging.NewTextLogger(os.Getenv("LOG_LEVEL")))
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", os.Getenv("CONFIG_FILE"), "path to the YAML configuration file")

	open := func(ctx context.Context) (*sql.DB, *config.Config, error) {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, nil, err
		}
		conn, err := db.Open(ctx, cfg.Database.URL, db.ConnectionConfig{MaxOpenConns: 2, MaxIdleConns: 1})
		return conn, cfg, err
	}

	root.AddCommand(newMigrateCommand(open), newUserCommand(open))
	return root
}

type opener func(ctx context.Context) (*sql.DB, *config.Config, error)

func newMigrateCommand(open opener) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), open, func(conn *sql.DB, _ *config.Config) error {
				if err := db.MigrateUp(conn); err != nil {
					return err
				}
				return printVersion(cmd.OutOrStdout(), conn)
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back the given number of migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := parseSteps(args)
			if err != nil {
				return err
			}
			return withDB(cmd.Context(), open, func(conn *sql.DB, _ *config.Config) error {
				if err := db.MigrateDown(conn, steps); err != nil {
					return err
				}
				return printVersion(cmd.OutOrStdout(), conn)
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), open, func(conn *sql.DB, _ *config.Config) error {
				return printVersion(cmd.OutOrStdout(), conn)
			})
		},
	})
	return migrateCmd
}

func newUserCommand(open opener) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var passwordStdin bool
	reset := &cobra.Command{
		Use:   "reset-password <email> [new password]",
		Short: "Replace a user's password and end every session",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd.InOrStdin(), args, passwordStdin)
			if err != nil {
				return err
			}
			return withDB(cmd.Context(), open, func(conn *sql.DB, cfg *config.Config) error {
				ctx := cmd.Context()
				var sessions repository.SessionStore = noSessions{}
				if store, err := session.NewRedisStore(ctx, cfg.Redis.URL); err != nil {
					slog.Warn("redis unavailable, refresh sessions are left to expire", slog.Any("error", err))
				} else {
					defer func() { _ = store.Close() }()
					sessions = store
				}

				svc := &credUC.Service{
					Users:       pgRepo.NewUserRepo(conn),
					Credentials: pgRepo.NewCredentialRepo(conn),
					Sessions:    sessions,
				}
				if err := svc.ResetPassword(ctx, args[0], password); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully updated password for '%s'\n", args[0])
				return nil
			})
		},
	}
	reset.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the new password from stdin")
	userCmd.AddCommand(reset)
	return userCmd
}

func withDB(ctx context.Context, open opener, fn func(*sql.DB, *config.Config) error) error {
	conn, cfg, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return fn(conn, cfg)
}

// noSessions stands in when redis is unreachable. The new password hash
// already invalidates every refresh token.
type noSessions struct{}

func (noSessions) Save(context.Context, string, string, time.Duration) error { return nil }
func (noSessions) Consume(context.Context, string) (string, error) {
	return "", repository.ErrSessionNotFound
}
func (noSessions) Revoke(context.Context, string) error     { return nil }
func (noSessions) RevokeUser(context.Context, string) error { return nil }

func printVersion(w io.Writer, conn *sql.DB) error {
	version, dirty, err := db.MigrationVersion(conn)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "schema version %d (dirty: %t)\n", version, dirty)
	return err
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("steps must be a positive integer, got %q", args[0])
	}
	return n, nil
}

func readPassword(in io.Reader, args []string, fromStdin bool) (string, error) {
	switch {
	case fromStdin && len(args) == 2:
		return "", fmt.Errorf("pass the password either as an argument or on stdin, not both")
	case fromStdin:
		b, err := io.ReadAll(io.LimitReader(in, 4096))
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(string(b), "\r\n"), nil
	case len(args) == 2:
		return args[1], nil
	default:
		return "", fmt.Errorf("a new password is required")
	}
}
