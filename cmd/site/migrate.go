package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noblesavage/site/internal/config"
	"github.com/noblesavage/site/internal/repository"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema to DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.HasDatabase() {
				return errors.New("DATABASE_URL is not set")
			}
			logger := initLogger(cfg, cmd.ErrOrStderr())

			repo, err := repository.New(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %s", sanitizeError(err, cfg.DatabaseURL))
			}
			defer repo.Close()

			if err := repo.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("schema applied", "database_url", redactURL(cfg.DatabaseURL))
			return nil
		},
	}
}
