package main

import (
	"context"
	"fmt"

	"github.com/safar/storefront/internal/config"
	"github.com/safar/storefront/internal/database"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Apply or roll back the SQL migrations",
		Long: `Apply every *.up.sql file in order, or every *.down.sql file in
reverse order.

Examples:
  storefront migrate up
  storefront migrate down --dir ./migrations`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, err := database.ParseDirection(args[0])
			if err != nil {
				return err
			}
			return runMigrate(cmd.Context(), dir, direction)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "migrations", "directory containing migration files")

	return cmd
}

func runMigrate(ctx context.Context, dir string, direction database.Direction) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	applied, err := database.RunMigrations(ctx, db, dir, direction)
	if err != nil {
		return err
	}

	for _, name := range applied {
		fmt.Printf("Applied %s\n", name)
	}
	fmt.Printf("Migrations %s completed successfully (%d files)\n", direction, len(applied))
	return nil
}
