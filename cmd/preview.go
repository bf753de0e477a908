// =============================================================================
// Price Book Importer - Preview Command
// =============================================================================
//
// This file defines the 'preview' command, which runs the pipeline on a
// single file without submitting anything. It shows the inferred column
// mapping, the first rows of the priced result and the rejection summary -
// the terminal equivalent of the import preview in the web dialog.
//
// COMMAND USAGE:
//   pricebook preview --file prices.csv [--markup 35] [--rows 20]
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elecmate/pricebook-importer/internal/importer"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// previewFile is the file to preview.
var previewFile string

// previewMarkup is the markup percentage; negative means "use config value".
var previewMarkup float64

// previewRows is how many priced rows to print.
var previewRows int

// =============================================================================
// PREVIEW COMMAND DEFINITION
// =============================================================================

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview a price list import without submitting",
	Long: `The preview command parses a single price list file, infers its column
mapping, validates every row and prints the priced result, without calling
the price book API. Use it to check a supplier file before importing.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreview()
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVar(&previewFile, "file", "", "Path to the price list file to preview")
	previewCmd.Flags().Float64Var(&previewMarkup, "markup", -1, "Markup percentage to apply (0-500; default from config)")
	previewCmd.Flags().IntVar(&previewRows, "rows", 20, "Number of priced rows to print")
	previewCmd.MarkFlagRequired("file")
}

// =============================================================================
// PREVIEW FUNCTION
// =============================================================================

func runPreview() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	markup, err := resolveMarkup(cfg, previewMarkup)
	if err != nil {
		return err
	}

	session := importer.New(previewFile, cfg, nil)
	session.SetMarkup(markup)

	if err := session.Parse(); err != nil {
		// The two zero-item conditions are guidance for the user, not
		// command failures.
		if errors.Is(err, importer.ErrNoResolvableColumns) || errors.Is(err, importer.ErrNoValidRows) {
			fmt.Println(session.Message())
			printRejections(session)
			return nil
		}
		return err
	}

	mapping := session.Mapping()
	fmt.Printf("File:      %s\n", previewFile)
	fmt.Printf("Columns:   name=%q sku=%q price=%q category=%q\n",
		mapping.NameColumn, mapping.SKUColumn, mapping.PriceColumn, mapping.CategoryColumn)
	fmt.Printf("Items:     %d (%d rows rejected)\n", session.ItemCount(), len(session.Rejections()))
	fmt.Printf("Markup:    %.4g%%\n\n", markup)

	fmt.Printf("%-40s %-16s %10s %10s  %s\n", "NAME", "SKU", "BUY", "SELL", "CATEGORY")
	for _, item := range session.Preview(previewRows) {
		fmt.Printf("%-40.40s %-16.16s %10.2f %10.2f  %s\n",
			item.Name, item.SKU, item.BuyPrice, item.SellPrice, item.Category)
	}

	if session.ItemCount() > previewRows {
		fmt.Printf("... and %d more\n", session.ItemCount()-previewRows)
	}

	printRejections(session)
	return nil
}

// printRejections prints the per-row rejection diagnostics, if any.
func printRejections(session *importer.Session) {
	rejections := session.Rejections()
	if len(rejections) == 0 {
		return
	}

	fmt.Printf("\nRejected rows (%d):\n", len(rejections))
	for _, rejection := range rejections {
		fmt.Printf("  %s\n", rejection)
	}
}
