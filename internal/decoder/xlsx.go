// =============================================================================
// Price Book Importer - Workbook Decoder
// =============================================================================
//
// Excel workbook decoding for price lists supplied as .xlsx or .xls files.
// The first sheet is selected by position and converted to the same
// header-keyed row shape as the CSV decoder, so everything downstream of the
// decoder is format-agnostic.
//
// NOTE: excelize reads OOXML workbooks. Legacy binary .xls files that are
// genuine BIFF documents fail to open and are surfaced as a ParseError; in
// practice most ".xls" supplier exports are renamed OOXML or XML files that
// decode fine.
//
// =============================================================================

package decoder

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DecodeWorkbook reads an Excel workbook and returns the decoded table.
//
// PARAMETERS:
//   - path: The path to the workbook file.
//
// RETURNS:
//   - A pointer to the Table built from the first sheet.
//   - *ParseError if the workbook is corrupt, has no sheets or no header row.
func DecodeWorkbook(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}
	defer f.Close()

	// Select the first sheet by position.
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, &ParseError{Path: path, Cause: fmt.Errorf("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, &ParseError{Path: path, Cause: fmt.Errorf("failed to read sheet %q: %w", sheetName, err)}
	}

	if len(rows) == 0 {
		return nil, &ParseError{Path: path, Cause: fmt.Errorf("sheet %q is empty", sheetName)}
	}

	headers := cleanHeaders(rows[0])

	// GetRows returns blank interior rows as empty slices, so sheet row
	// numbers follow directly from the slice index.
	numbers := make([]int, len(rows)-1)
	for i := range numbers {
		numbers[i] = i + 2
	}

	return buildTable(path, headers, rows[1:], numbers), nil
}
