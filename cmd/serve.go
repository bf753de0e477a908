// =============================================================================
// Price Book Importer - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which runs the HTTP import API.
// The API is the service-side counterpart of the web app's import dialog:
// clients upload a price list, receive a priced preview, and trigger the
// batch submission.
//
// COMMAND USAGE:
//   pricebook serve
//
// =============================================================================

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/elecmate/pricebook-importer/internal/server"
)

// serveCmd represents the 'serve' command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP import API",
	Long: `The serve command starts the HTTP import API. Endpoints:

  POST /api/v1/imports/preview  Upload a price list, get a priced preview
  POST /api/v1/imports          Upload a price list and submit the batch
  GET  /healthz                 Liveness check

The listen address and CORS allow-list come from the server section of the
configuration file.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		return server.New(cfg).Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
