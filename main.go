// =============================================================================
// Price Book Importer - Main Entry Point
// =============================================================================
//
// This is the main entry point for the price book importer CLI application.
// It initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   pricebook import        - Import all price list files from the input directory
//   pricebook preview       - Preview a single price list without submitting
//   pricebook serve         - Run the HTTP import API
//   pricebook version       - Display the application version
//
// ARCHITECTURE:
//   This application follows a modular design where:
//   - cmd/           : Contains all CLI command definitions (Cobra)
//   - internal/      : Contains core business logic (not for external import)
//   - pkg/           : Contains shared utilities
//
// =============================================================================

package main

import (
	"github.com/elecmate/pricebook-importer/cmd"
)

// main is the entry point of the application.
// It simply calls the Execute function from the cmd package, which
// initializes and runs the Cobra CLI.
func main() {
	cmd.Execute()
}
