// =============================================================================
// Price Book Importer - File Decoder
// =============================================================================
//
// This module turns an uploaded price list file into an ordered sequence of
// row records, each a mapping from column header to cell value. It supports:
//   - CSV exports (.csv) from wholesaler and supplier systems
//   - Excel workbooks (.xlsx, .xls)
//
// File type detection is by filename suffix, not content sniffing. Any other
// extension fails immediately with UnsupportedFileTypeError and performs no
// further work - the file is never opened.
//
// ERROR HANDLING:
//   - Unsupported extensions return *UnsupportedFileTypeError
//   - Malformed CSV or corrupt workbooks return *ParseError carrying the
//     underlying decoder's message
//
// =============================================================================

package decoder

import (
	"fmt"
	"path/filepath"
	"strings"
)

// =============================================================================
// ROW DATA STRUCTURES
// =============================================================================

// RawRow is a single data row keyed by the exact header string found in the
// source file. Values are the raw cell strings, whitespace-trimmed.
type RawRow map[string]string

// Row is a data row together with its position in the source file. Decoders
// skip blank rows, so positions are not contiguous; diagnostics that name a
// row must use Number, never an index into the filtered slice.
type Row struct {
	// Number is the 1-indexed file row (the header is row 1).
	Number int

	// Cells holds the row values keyed by header.
	Cells RawRow
}

// Table represents a fully decoded price list file.
type Table struct {
	// Headers contains the column headers in their declared file order.
	// Header order matters downstream: column inference is first-match-wins
	// by header iteration order.
	Headers []string

	// Rows contains the data rows with their source row numbers.
	// Row order is preserved from the source file.
	Rows []Row

	// SourceFile is the path to the decoded file.
	SourceFile string

	// RowCount is the total number of data rows (excluding the header row).
	RowCount int

	// ColumnCount is the number of columns in the file.
	ColumnCount int
}

// =============================================================================
// ERROR TYPES
// =============================================================================

// UnsupportedFileTypeError indicates the file extension is not in the
// accepted set. The attempt is fatal; the user must pick another file.
type UnsupportedFileTypeError struct {
	// Ext is the offending extension, including the leading dot.
	Ext string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q: expected .csv, .xlsx or .xls", e.Ext)
}

// ParseError indicates the underlying decoder could not tokenize the file.
type ParseError struct {
	// Path is the file that failed to parse.
	Path string

	// Cause is the underlying decoder error.
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", filepath.Base(e.Path), e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// =============================================================================
// DECODER DISPATCH
// =============================================================================

// supportedExtensions is the accepted set of input file extensions.
var supportedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xls":  true,
}

// IsSupported reports whether the given path has an accepted extension.
// Matching is case-insensitive on the suffix only.
func IsSupported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Decode reads a price list file and returns the decoded table.
//
// PARAMETERS:
//   - path: The path to the input file. The extension selects the decoder.
//
// RETURNS:
//   - A pointer to the Table containing headers and data rows.
//   - *UnsupportedFileTypeError if the extension is not accepted. The file
//     is not opened in this case.
//   - *ParseError if the file cannot be tokenized.
func Decode(path string) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".csv":
		return DecodeCSV(path)
	case ".xlsx", ".xls":
		return DecodeWorkbook(path)
	default:
		return nil, &UnsupportedFileTypeError{Ext: ext}
	}
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// cleanHeaders trims whitespace from header values and assigns a positional
// placeholder to empty headers so every column remains addressable.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// rowToMap converts a raw record to a header-keyed RawRow. Cells are
// whitespace-trimmed; columns missing from a short row are set to "".
func rowToMap(headers []string, row []string) RawRow {
	rowMap := make(RawRow, len(headers))

	for colIndex, header := range headers {
		if colIndex < len(row) {
			rowMap[header] = strings.TrimSpace(row[colIndex])
		} else {
			rowMap[header] = ""
		}
	}

	return rowMap
}

// buildTable assembles a Table from cleaned headers and raw records,
// skipping rows that are entirely blank. numbers holds the 1-indexed file
// row of each record and must be the same length as records.
func buildTable(path string, headers []string, records [][]string, numbers []int) *Table {
	rows := make([]Row, 0, len(records))

	for i, record := range records {
		if isRowEmpty(record) {
			continue
		}
		rows = append(rows, Row{
			Number: numbers[i],
			Cells:  rowToMap(headers, record),
		})
	}

	return &Table{
		Headers:     headers,
		Rows:        rows,
		SourceFile:  path,
		RowCount:    len(rows),
		ColumnCount: len(headers),
	}
}
