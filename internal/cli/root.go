// Package cli is the folio command line: the web server and its maintenance
// commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Personal portfolio site with an admin area",
	Long: `folio serves a personal portfolio: the public pages, a contact form and
an authenticated admin area for managing projects and reading messages.

Configuration comes from the environment and an optional .env file.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig is replaced in tests.
var loadConfig = config.Load
