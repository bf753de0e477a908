// =============================================================================
// Price Book Importer - File Manager
// =============================================================================
//
// Utilities for the batch import workflow: working-directory bootstrap,
// input discovery, archival of successfully imported files, and the reject
// and summary logs written alongside each run.
//
// ARCHIVAL STRATEGY:
//   Input files are moved (not copied) to the archive directory after the
//   batch was accepted, renamed with a timestamp and a short unique suffix
//   so repeated imports of identically named supplier files never collide.
//
// =============================================================================

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/elecmate/pricebook-importer/internal/decoder"
	"github.com/elecmate/pricebook-importer/internal/normalize"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles the directories used by batch imports.
type FileManager struct {
	// InputDir is scanned for price list files.
	InputDir string

	// OutputDir receives dry-run payloads, reject logs and summaries.
	OutputDir string

	// InputArchiveDir receives successfully imported input files.
	InputArchiveDir string
}

// NewFileManager creates a file manager for the given directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:        inputDir,
		OutputDir:       outputDir,
		InputArchiveDir: inputArchiveDir,
	}
}

// EnsureDirectories creates all managed directories if they do not exist.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{fm.InputDir, fm.OutputDir, fm.InputArchiveDir}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// DiscoverInputFiles scans the input directory (recursively) for supported
// price list files (.csv, .xlsx, .xls), sorted by walk order.
func (fm *FileManager) DiscoverInputFiles() ([]string, error) {
	var files []string

	err := filepath.Walk(fm.InputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if decoder.IsSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	return files, nil
}

// ArchiveInputFile moves a successfully imported file into the archive
// directory under a collision-free name.
//
// RETURNS:
//   - The archived path.
//   - An error if the move fails; the original file is left in place.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if err := os.MkdirAll(fm.InputArchiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := filepath.Base(filePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	archived := filepath.Join(fm.InputArchiveDir, fmt.Sprintf(
		"%s_%s_%s%s",
		stem,
		time.Now().Format("20060102_150405"),
		shortID(),
		ext,
	))

	if err := os.Rename(filePath, archived); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", base, err)
	}

	return archived, nil
}

// WritePayloadFile writes a dry-run submission payload to the output
// directory as pretty-printed JSON.
func (fm *FileManager) WritePayloadFile(sourceFile string, payload interface{}) (string, error) {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	outPath := filepath.Join(fm.OutputDir, fmt.Sprintf("%s_payload_%s.json", base, shortID()))

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write payload file: %w", err)
	}

	return outPath, nil
}

// shortID returns the first segment of a random UUID, enough to avoid name
// collisions within a run.
func shortID() string {
	return strings.SplitN(uuid.New().String(), "-", 2)[0]
}

// =============================================================================
// REJECT LOG
// =============================================================================

// RejectLogEntry is one dropped row, attributed to its source file.
type RejectLogEntry struct {
	File      string
	Rejection normalize.Rejection
}

// WriteRejectLog writes the per-row rejection diagnostics for a run to a
// timestamped text file in the output directory.
//
// RETURNS:
//   - The path to the reject log, or "" when there were no rejections.
func WriteRejectLog(entries []RejectLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("Price Book Import - Rejected Rows\n")
	b.WriteString(fmt.Sprintf("Generated: %s\n", time.Now().Format(time.RFC3339)))
	b.WriteString(strings.Repeat("-", 60) + "\n")

	for _, entry := range entries {
		b.WriteString(fmt.Sprintf("%s: %s\n", filepath.Base(entry.File), entry.Rejection))
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("rejects_%s.log", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(logPath, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write reject log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary describes a whole batch import run.
type RunSummary struct {
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	Elapsed      string        `json:"elapsed"`
	TotalFiles   int           `json:"total_files"`
	Successful   int           `json:"successful"`
	Failed       int           `json:"failed"`
	TotalItems   int           `json:"total_items"`
	TotalRejects int           `json:"total_rejects"`
	Files        []FileOutcome `json:"files"`
}

// FileOutcome describes the result for a single input file.
type FileOutcome struct {
	File        string `json:"file"`
	Success     bool   `json:"success"`
	ItemCount   int    `json:"item_count"`
	RejectCount int    `json:"reject_count"`
	Error       string `json:"error,omitempty"`
	OutputFile  string `json:"output_file,omitempty"`
}

// WriteSummaryLog writes the run summary to a timestamped JSON file in the
// output directory.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("summary_%s.json", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(logPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write summary log: %w", err)
	}

	return logPath, nil
}

// FileExists reports whether a path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
