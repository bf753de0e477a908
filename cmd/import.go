// =============================================================================
// Price Book Importer - Import Command
// =============================================================================
//
// This file defines the 'import' command, which is the main batch command.
// It discovers supported price list files in the input directory and runs
// the full pipeline on each one.
//
// COMMAND USAGE:
//   pricebook import [flags]
//
// FLAGS:
//   --dry-run   : Write submission payloads to the output directory instead
//                 of calling the price book API
//   --file      : Import only this one file (skips input-directory discovery)
//   --markup    : Markup percentage to apply (default from config, 0-500)
//
// PROCESSING PIPELINE (per file, concurrently):
//   1. Decode the file (CSV streamed, workbooks whole)
//   2. Infer the column mapping from the header row
//   3. Normalize rows into candidate items, collecting rejections
//   4. Project sell prices at the requested markup
//   5. Submit the batch (or write the payload in dry-run mode)
//   6. Archive the input file on success
// Afterwards a reject log and a run summary are written to the output
// directory.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/elecmate/pricebook-importer/internal/config"
	"github.com/elecmate/pricebook-importer/internal/importer"
	"github.com/elecmate/pricebook-importer/internal/submit"
	"github.com/elecmate/pricebook-importer/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun writes payloads to the output directory instead of submitting.
var dryRun bool

// importFile imports a single file instead of scanning the input directory.
var importFile string

// markupFlag is the markup percentage; negative means "use the config value".
var markupFlag float64

// =============================================================================
// IMPORT COMMAND DEFINITION
// =============================================================================

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import price list files into the price book",
	Long: `The import command scans the input directory for supported price list files
(.csv, .xlsx, .xls), runs each one through the import pipeline and submits
the priced items to the price book API as a single batch per file.

Files are processed concurrently and independently: a failure in one file
does not affect the others.

On success:
  - The batch is accepted by the price book API (or, with --dry-run, the
    payload JSON is written to the output directory)
  - The input file is moved to the input archive

On failure:
  - The input file remains in the input directory for retry
  - The failure is recorded in the run summary

Rows dropped during validation are listed in the reject log.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Write submission payloads instead of calling the price book API",
	)

	importCmd.Flags().StringVar(
		&importFile,
		"file",
		"",
		"Import only this file (skips input-directory discovery)",
	)

	importCmd.Flags().Float64Var(
		&markupFlag,
		"markup",
		-1,
		"Markup percentage to apply (0-500; default from config)",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runImport orchestrates a batch import run.
func runImport() error {
	startTime := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	markup, err := resolveMarkup(cfg, markupFlag)
	if err != nil {
		return err
	}

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	// =========================================================================
	// DISCOVER INPUT FILES
	// =========================================================================

	var inputFiles []string
	if importFile != "" {
		inputFiles = []string{importFile}
	} else {
		inputFiles, err = fm.DiscoverInputFiles()
		if err != nil {
			return err
		}
	}

	if len(inputFiles) == 0 {
		fmt.Println("No price list files found in the input directory.")
		return nil
	}

	fmt.Printf("Found %d file(s) to import (markup %.4g%%)\n", len(inputFiles), markup)

	// =========================================================================
	// PROCESS FILES CONCURRENTLY
	// =========================================================================
	// One goroutine per file, bounded by max_concurrency. Results are
	// collected over a buffered channel.

	client := submit.NewClient(cfg)

	var wg sync.WaitGroup
	results := make(chan importer.Result, len(inputFiles))
	semaphore := make(chan struct{}, cfg.MaxConcurrency)

	for _, file := range inputFiles {
		wg.Add(1)

		go func(filePath string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results <- importOne(filePath, cfg, client, fm, markup)
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// =========================================================================
	// COLLECT RESULTS
	// =========================================================================

	summary := utils.RunSummary{StartedAt: startTime}
	var rejectEntries []utils.RejectLogEntry

	for result := range results {
		summary.TotalFiles++
		summary.TotalItems += result.ItemCount
		summary.TotalRejects += result.RejectCount

		outcome := utils.FileOutcome{
			File:        filepath.Base(result.FilePath),
			Success:     result.Success,
			ItemCount:   result.ItemCount,
			RejectCount: result.RejectCount,
			OutputFile:  result.OutputFile,
		}

		if result.Success {
			summary.Successful++
			fmt.Printf("  ✓ %s: %d items (%d rows rejected)\n",
				outcome.File, result.ItemCount, result.RejectCount)
		} else {
			summary.Failed++
			outcome.Error = result.Err.Error()
			fmt.Printf("  ✗ %s: %v\n", outcome.File, result.Err)
		}

		summary.Files = append(summary.Files, outcome)

		for _, rejection := range result.Rejections {
			rejectEntries = append(rejectEntries, utils.RejectLogEntry{
				File:      result.FilePath,
				Rejection: rejection,
			})
		}
	}

	// =========================================================================
	// WRITE LOGS AND PRINT SUMMARY
	// =========================================================================

	summary.FinishedAt = time.Now()
	summary.Elapsed = summary.FinishedAt.Sub(startTime).String()

	if rejectPath, err := utils.WriteRejectLog(rejectEntries, cfg.OutputDir); err != nil {
		fmt.Printf("Warning: could not write reject log: %v\n", err)
	} else if rejectPath != "" {
		fmt.Printf("Reject log: %s\n", rejectPath)
	}

	if _, err := utils.WriteSummaryLog(summary, cfg.OutputDir); err != nil {
		fmt.Printf("Warning: could not write summary log: %v\n", err)
	}

	fmt.Println("\n=== Import Complete ===")
	fmt.Printf("Total files:     %d\n", summary.TotalFiles)
	fmt.Printf("Successful:      %d\n", summary.Successful)
	fmt.Printf("Failed:          %d\n", summary.Failed)
	fmt.Printf("Items imported:  %d\n", summary.TotalItems)
	fmt.Printf("Rows rejected:   %d\n", summary.TotalRejects)
	fmt.Printf("Time elapsed:    %s\n", summary.FinishedAt.Sub(startTime))

	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed to import", summary.Failed)
	}
	return nil
}

// importOne runs the pipeline for a single file and reports its outcome.
func importOne(filePath string, cfg *config.MainConfig, client *submit.Client, fm *utils.FileManager, markup float64) importer.Result {
	started := time.Now()

	session := importer.New(filePath, cfg, client)
	session.SetMarkup(markup)

	result := importer.Result{FilePath: filePath}

	if err := session.Parse(); err != nil {
		result.Err = err
		result.Rejections = session.Rejections()
		result.RejectCount = len(session.Rejections())
		result.Elapsed = time.Since(started)
		return result
	}

	result.ItemCount = session.ItemCount()
	result.Rejections = session.Rejections()
	result.RejectCount = len(session.Rejections())

	if dryRun {
		outPath, err := fm.WritePayloadFile(filePath, session.Payload())
		if err != nil {
			result.Err = err
			result.Elapsed = time.Since(started)
			return result
		}
		result.OutputFile = outPath
		result.Success = true
		result.Elapsed = time.Since(started)
		return result
	}

	if err := session.Submit(context.Background()); err != nil {
		result.Err = err
		result.Elapsed = time.Since(started)
		return result
	}

	if _, err := fm.ArchiveInputFile(filePath); err != nil {
		// The batch was accepted; a failed archive move is only a warning.
		fmt.Printf("Warning: %v\n", err)
	}

	result.Success = true
	result.Elapsed = time.Since(started)
	return result
}

// resolveMarkup picks the markup from the flag value or the config and
// applies the CLI surface bound of 0-500 percent. A negative flag value
// means "use the config default".
func resolveMarkup(cfg *config.MainConfig, flagValue float64) (float64, error) {
	markup := cfg.DefaultMarkupPercent
	if flagValue >= 0 {
		markup = flagValue
	}
	if markup < 0 || markup > 500 {
		return 0, fmt.Errorf("markup must be between 0 and 500 percent, got %.4g", markup)
	}
	return markup, nil
}
