package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/bootstrap"
	"github.com/Zachkp/folio/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the projects and contact_messages tables",
	Long: `Create the tables used by the sqlite and postgres backends. Running it
again is harmless. The hosted backend manages its own schema.

Examples:
  DATA_BACKEND=sqlite folio migrate
  DATA_BACKEND=postgres DATABASE_URL=postgres://... folio migrate`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DataService.Backend == config.BackendSupabase {
		return fmt.Errorf("migrate only applies to the %s and %s backends", config.BackendSQLite, config.BackendPostgres)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	backend, err := bootstrap.OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\n", backend.Name)
	return nil
}
