package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeelus/server/internal/storage/postgres"
)

type migrateOptions struct {
	databaseURL string
	path        string
	steps       int
}

func newMigrateCommand(global *globalOptions) *cobra.Command {
	opts := &migrateOptions{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		Long: `Apply or roll back the database schema.

Migrations are compiled into the binary; --path reads them from a directory
instead. The database comes from --database-url or DATABASE_URL.`,
	}
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "database connection string (default: DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.path, "path", "", "directory of migration files (default: embedded)")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			databaseURL, err := opts.resolveDatabaseURL(global)
			if err != nil {
				return err
			}
			if err := postgres.MigrateUp(databaseURL, opts.path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.steps <= 0 {
				return fmt.Errorf("--steps must be > 0")
			}
			databaseURL, err := opts.resolveDatabaseURL(global)
			if err != nil {
				return err
			}
			if err := postgres.MigrateDown(databaseURL, opts.path, opts.steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", opts.steps)
			return nil
		},
	}
	down.Flags().IntVar(&opts.steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

func (o *migrateOptions) resolveDatabaseURL(global *globalOptions) (string, error) {
	if o.databaseURL != "" {
		return o.databaseURL, nil
	}
	cfg, err := loadConfig(global)
	if err != nil {
		return "", fmt.Errorf("config error: %w", err)
	}
	return cfg.Database.URL, nil
}
