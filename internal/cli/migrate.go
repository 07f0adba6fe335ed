package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillhq/quill/internal/app"
	"github.com/quillhq/quill/internal/store/migrate"
)

func migrateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the SQL schema",
	}
	c.AddCommand(migrateUpCmd(), migrateDownCmd(), migrateStatusCmd())
	return c
}

func openRunner() (*migrate.Runner, *sql.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	dialect, err := app.Dialect(cfg.DatabaseDriver)
	if err != nil {
		return nil, nil, err
	}
	db, err := migrate.Open(dialect, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	runner, err := migrate.New(db, dialect)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return runner, db, nil
}

func migrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, db, err := openRunner()
			if err != nil {
				return err
			}
			defer db.Close()

			p := newPrinter(cmd.OutOrStdout())
			applied, err := runner.Up(cmd.Context())
			for _, v := range applied {
				p.ok("applied migration %d", v)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				p.skip("schema is up to date")
			}
			return nil
		},
	}
}

func migrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, db, err := openRunner()
			if err != nil {
				return err
			}
			defer db.Close()

			p := newPrinter(cmd.OutOrStdout())
			reverted, err := runner.Down(cmd.Context())
			if err != nil {
				return err
			}
			if reverted == 0 {
				p.skip("no migration to revert")
				return nil
			}
			p.ok("reverted migration %d", reverted)
			return nil
		},
	}
}

func migrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, db, err := openRunner()
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := runner.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return nil
		},
	}
}
