package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/bootstrap"
	"github.com/Zachkp/folio/internal/keepalive"
)

var keepAliveCmd = &cobra.Command{
	Use:   "keepalive",
	Short: "Ping the data service once",
	Long: `Run a single keep-alive ping against the projects collection and print
the result. Exits non-zero when the ping fails, which makes it usable from an
external scheduler.`,
	Args: cobra.NoArgs,
	RunE: runKeepAlive,
}

func init() {
	rootCmd.AddCommand(keepAliveCmd)
}

func runKeepAlive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	backend, err := bootstrap.OpenBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s backend: %w", cfg.DataService.Backend, err)
	}
	defer backend.Close()

	resp, err := keepalive.Ping(ctx, backend.Pinger)
	if err != nil {
		return fmt.Errorf("keep-alive failed: %w", err)
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
