// Package migrate runs schema migrations from the command line.
package migrate

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trellis-inc/trellis/internal/infrastructure/config"
	"github.com/trellis-inc/trellis/internal/infrastructure/database"
	"github.com/trellis-inc/trellis/internal/infrastructure/migration"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply the schema for partners, campaigns, ledger entries, invitation codes, and redemptions.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, false); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if err := migration.Run(database.Get()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("migrations completed", "environment", env)
	return nil
}
