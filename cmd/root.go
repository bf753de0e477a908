// =============================================================================
// Price Book Importer - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands ('import', 'preview', 'serve',
// 'version') are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (pricebook)
//   ├── importCmd  (pricebook import)
//   ├── previewCmd (pricebook preview)
//   ├── serveCmd   (pricebook serve)
//   └── versionCmd (pricebook version)
//
// The root command owns the global flags (--config, --verbose) and the
// logging setup.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elecmate/pricebook-importer/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose forces debug-level logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pricebook",
	Short: "Price Book Importer - Bulk-load supplier price lists into your price book",

	Long: `Price Book Importer is a CLI tool and HTTP service that bulk-loads trade
price lists from arbitrary spreadsheet or CSV exports into a structured
price book, applying a configurable markup to compute sell prices.

Key Features:
  - Accepts .csv, .xlsx and .xls supplier exports
  - Heuristic column inference (name, SKU, price, category)
  - Row validation with a per-row reject log
  - Markup-based sell price projection
  - One-batch submission to the price book API, all-or-nothing

Example Usage:
  pricebook import                       # Import every file in the input directory
  pricebook import --dry-run             # Write payloads without submitting
  pricebook preview --file prices.xlsx   # Inspect what an import would produce
  pricebook serve                        # Run the HTTP import API`,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// initLogging configures the global zerolog logger for console output.
// The level is info until a config file is loaded; --verbose forces debug.
func initLogging() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// loadConfig loads the main configuration and applies its log level
// (unless --verbose already forced debug).
func loadConfig() (*config.MainConfig, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if !verbose {
		if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	}

	return cfg, nil
}
