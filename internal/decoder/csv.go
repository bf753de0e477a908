// =============================================================================
// Price Book Importer - CSV Decoder
// =============================================================================
//
// CSV decoding for price list exports. Wholesaler exports vary widely, so the
// reader is configured to be permissive:
//   - Variable field counts per record
//   - Lazy quotes (quotes that don't follow strict CSV rules)
//   - Leading whitespace trimmed
//
// The first row is always treated as the header row. Blank lines and rows
// containing only empty cells are skipped.
//
// Two decoders are provided:
//   - DecodeCSV loads the whole file into a Table; it backs the Decode
//     extension dispatch for ad-hoc whole-table reads
//   - StreamingDecoder yields rows one at a time and is what import
//     sessions use for .csv sources
//
// Both report row numbers from the reader's file position, so blank lines
// the csv package swallows never shift the numbering.
//
// =============================================================================

package decoder

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// WHOLE-FILE DECODER
// =============================================================================

// DecodeCSV reads a CSV file and returns the decoded table.
//
// PARAMETERS:
//   - path: The path to the CSV file.
//
// RETURNS:
//   - A pointer to the Table containing headers and data rows.
//   - *ParseError if the file cannot be opened or tokenized, or is empty.
func DecodeCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}
	defer file.Close()

	reader := newCSVReader(file)

	// Read record by record so each one can be tagged with its true file
	// line. ReadAll would lose positions for files with blank lines, which
	// the csv package skips without returning a record.
	var records [][]string
	var numbers []int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Path: path, Cause: err}
		}

		line, _ := reader.FieldPos(0)
		records = append(records, record)
		numbers = append(numbers, line)
	}

	if len(records) == 0 {
		return nil, &ParseError{Path: path, Cause: fmt.Errorf("file is empty")}
	}

	headers := cleanHeaders(records[0])
	return buildTable(path, headers, records[1:], numbers[1:]), nil
}

// newCSVReader creates a CSV reader configured for messy supplier exports.
func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(bufio.NewReader(r))

	// Allow variable number of fields per row. Supplier exports often have
	// trailing summary rows with fewer columns.
	reader.FieldsPerRecord = -1

	// Allow quotes that don't follow strict CSV rules.
	reader.LazyQuotes = true

	// Trim leading space from fields.
	reader.TrimLeadingSpace = true

	return reader
}

// =============================================================================
// STREAMING DECODER FOR LARGE FILES
// =============================================================================

// StreamingDecoder provides memory-efficient decoding for large CSV price
// books. Instead of loading the entire file into memory, it yields rows one
// at a time. The header row is read up front so column inference can run
// before any data row is consumed.
//
// USAGE:
//   dec, err := NewStreamingDecoder(path)
//   if err != nil {
//       return err
//   }
//   defer dec.Close()
//
//   for dec.Next() {
//       row := dec.Row()
//       // Process the row...
//   }
//
//   if err := dec.Err(); err != nil {
//       return err
//   }
type StreamingDecoder struct {
	file       *os.File
	reader     *csv.Reader
	headers    []string
	currentRow RawRow
	rowNumber  int
	err        error
	path       string
}

// NewStreamingDecoder opens a CSV file and reads its header row.
//
// PARAMETERS:
//   - path: The path to the CSV file. Only .csv is supported for streaming.
//
// RETURNS:
//   - A pointer to the StreamingDecoder, positioned before the first data row.
//   - *UnsupportedFileTypeError for non-CSV extensions.
//   - *ParseError if the file cannot be opened or the header row is missing.
func NewStreamingDecoder(path string) (*StreamingDecoder, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return nil, &UnsupportedFileTypeError{Ext: ext}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}

	dec := &StreamingDecoder{
		file:   file,
		reader: newCSVReader(file),
		path:   path,
	}

	if err := dec.readHeaders(); err != nil {
		file.Close()
		return nil, err
	}

	return dec, nil
}

// readHeaders reads and cleans the header row.
func (d *StreamingDecoder) readHeaders() error {
	row, err := d.reader.Read()
	if err == io.EOF {
		return &ParseError{Path: d.path, Cause: fmt.Errorf("file is empty")}
	}
	if err != nil {
		return &ParseError{Path: d.path, Cause: fmt.Errorf("error reading header row: %w", err)}
	}

	d.rowNumber, _ = d.reader.FieldPos(0)
	d.headers = cleanHeaders(row)
	return nil
}

// Next advances to the next non-blank data row.
// Returns false when there are no more rows or an error occurred.
func (d *StreamingDecoder) Next() bool {
	if d.err != nil {
		return false
	}

	for {
		row, err := d.reader.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			d.err = &ParseError{Path: d.path, Cause: fmt.Errorf("error reading row %d: %w", d.rowNumber+1, err)}
			return false
		}

		// The reader's file position, not a counter: blank lines are
		// swallowed by the csv package and must not shift the numbering.
		d.rowNumber, _ = d.reader.FieldPos(0)

		if isRowEmpty(row) {
			continue
		}

		d.currentRow = rowToMap(d.headers, row)
		return true
	}
}

// Row returns the current data row.
func (d *StreamingDecoder) Row() RawRow {
	return d.currentRow
}

// Headers returns the cleaned header row.
func (d *StreamingDecoder) Headers() []string {
	return d.headers
}

// RowNumber returns the file row number of the current row (1-indexed; the
// header sits on the first non-blank line, normally row 1).
func (d *StreamingDecoder) RowNumber() int {
	return d.rowNumber
}

// Err returns any error that occurred during decoding.
func (d *StreamingDecoder) Err() error {
	return d.err
}

// Close closes the underlying file.
func (d *StreamingDecoder) Close() error {
	return d.file.Close()
}
