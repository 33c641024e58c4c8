package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/partsflow/demandcast/internal/store"
	"github.com/partsflow/demandcast/pkg/config"
	"github.com/partsflow/demandcast/pkg/database"
	"github.com/partsflow/demandcast/pkg/logger"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Create or update the forecast tables.

Example:
  go run ./cmd/demandcast migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := store.Migrate(cmd.Context(), db.Pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	log.Info("Migrations applied")
	fmt.Println("Migrations applied")
	return nil
}
