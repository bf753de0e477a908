// =============================================================================
// Price Book Importer - Error Taxonomy
// =============================================================================
//
// The import pipeline distinguishes five failure conditions:
//
//   - UnsupportedFileType (decoder.UnsupportedFileTypeError): extension not
//     in the accepted set; fatal, the user must pick another file.
//   - ParseFailure (decoder.ParseError): the underlying decoder could not
//     tokenize the file; fatal, carries the decoder's message.
//   - ErrNoResolvableColumns: header inference could not find both a name
//     and a price column. Guidance condition, not a stack-level failure.
//   - ErrNoValidRows: columns resolved but every row failed validation.
//     Same user-facing treatment.
//   - SubmissionFailure (submit.SubmissionError): the price book API
//     rejected the batch or was unreachable; the in-memory candidate list
//     is preserved for retry.
//
// Parse-time conditions are absorbed into session state and never escape
// uncaught; the returned errors exist so CLI and HTTP callers can classify.
//
// =============================================================================

package importer

import "errors"

// ErrNoResolvableColumns indicates header inference could not find both a
// name and a price column.
var ErrNoResolvableColumns = errors.New("could not identify name and price columns")

// ErrNoValidRows indicates columns resolved but every row was dropped by
// validation.
var ErrNoValidRows = errors.New("no valid rows in file")

// Guidance messages surfaced to the user for the two zero-item conditions.
const (
	msgNoResolvableColumns = "no valid items found - ensure your file has columns for name and price"
	msgNoValidRows         = "no valid items found - every row was missing a name or a valid price"
)
