// =============================================================================
// Price Book Importer - Import Session
// =============================================================================
//
// This module orchestrates the import pipeline for a single price list file:
//
//   File -> Decoder -> raw rows -> Column Inference (once, on headers)
//        -> Row Normalizer (per row) -> candidate items
//        -> Pricing Projector (re-run on markup change) -> priced items
//        -> Bulk Submission Client
//
// A Session owns exactly one in-flight import. Intermediate state (mapping,
// candidate items, rejections) is treated as an immutable snapshot that is
// replaced wholesale by Parse, never mutated incrementally. A markup change
// only re-projects; it never re-parses. A failed submission restores the
// parsed state so the user can retry without re-uploading.
//
// CONCURRENCY:
//   A Session is owned by the interaction that created it and is not safe
//   for concurrent use. Batch mode runs one Session per file, each in its
//   own goroutine.
//
// =============================================================================

package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/elecmate/pricebook-importer/internal/config"
	"github.com/elecmate/pricebook-importer/internal/decoder"
	"github.com/elecmate/pricebook-importer/internal/inference"
	"github.com/elecmate/pricebook-importer/internal/normalize"
	"github.com/elecmate/pricebook-importer/internal/pricing"
	"github.com/elecmate/pricebook-importer/internal/submit"
)

// =============================================================================
// SESSION STATES
// =============================================================================

// State is the user-facing state of an import session.
type State string

const (
	// StateIdle - the session exists but the file has not been parsed.
	StateIdle State = "idle"

	// StateParsedWithError - parsing finished but produced no usable items;
	// Message carries the user-facing explanation.
	StateParsedWithError State = "parsed-with-error"

	// StateParsedWithItems - parsing produced candidate items ready to price
	// and submit.
	StateParsedWithItems State = "parsed-with-items"

	// StateImporting - a submission is in flight. Progress is coarse and
	// stage-based (0-100), not per-item.
	StateImporting State = "importing"

	// StateComplete - the batch was accepted.
	StateComplete State = "complete"
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// BatchSubmitter hands a priced batch to the persistence collaborator.
type BatchSubmitter interface {
	SubmitBatch(ctx context.Context, items []submit.Item) error
}

// =============================================================================
// SESSION
// =============================================================================

// Session is a single import of one price list file.
type Session struct {
	// ID identifies the session in logs and file names.
	ID uuid.UUID

	source    string
	markup    float64
	synonyms  inference.Synonyms
	defaults  config.CatalogueDefaults
	submitter BatchSubmitter

	mapping    inference.ColumnMapping
	items      []normalize.CandidateItem
	rejections []normalize.Rejection

	state    State
	progress int
	message  string

	log zerolog.Logger
}

// New creates an import session for the given source file.
//
// PARAMETERS:
//   - source: Path to the price list file (.csv, .xlsx or .xls).
//   - cfg: Application configuration (markup default, synonym overrides,
//     catalogue defaults).
//   - submitter: The bulk submission collaborator. May be nil for
//     preview-only sessions; Submit then fails.
func New(source string, cfg *config.MainConfig, submitter BatchSubmitter) *Session {
	id := uuid.New()
	return &Session{
		ID:        id,
		source:    source,
		markup:    cfg.DefaultMarkupPercent,
		synonyms:  cfg.Synonyms,
		defaults:  cfg.Catalogue,
		submitter: submitter,
		state:     StateIdle,
		log: log.With().
			Str("component", "importer").
			Str("session", id.String()).
			Str("file", filepath.Base(source)).
			Logger(),
	}
}

// =============================================================================
// PARSING
// =============================================================================

// Parse decodes the source file, infers the column mapping and normalizes
// every row into candidate items. The session moves to StateParsedWithItems
// on success, or StateParsedWithError with a user-facing message otherwise.
//
// RETURNS:
//   - nil on success.
//   - *decoder.UnsupportedFileTypeError, *decoder.ParseError,
//     ErrNoResolvableColumns or ErrNoValidRows for classification by the
//     caller. All four are already absorbed into session state.
func (s *Session) Parse() error {
	// CSV price books can be large; stream them row by row. Workbooks are
	// decoded whole - excelize materializes the sheet anyway.
	if strings.EqualFold(filepath.Ext(s.source), ".csv") {
		return s.parseStreaming()
	}
	return s.parseTable()
}

// parseTable decodes the whole file into memory (workbooks, and any
// unsupported extension, which fails before the file is opened).
func (s *Session) parseTable() error {
	table, err := decoder.Decode(s.source)
	if err != nil {
		return s.failParse(err)
	}

	mapping := inference.InferWithSynonyms(table.Headers, s.synonyms)
	if !mapping.Resolved() {
		return s.failInference(mapping)
	}

	result := normalize.Rows(table.Rows, mapping)
	return s.finishParse(mapping, result.Items, result.Rejections)
}

// parseStreaming decodes a CSV file row by row, normalizing as it goes.
func (s *Session) parseStreaming() error {
	dec, err := decoder.NewStreamingDecoder(s.source)
	if err != nil {
		return s.failParse(err)
	}
	defer dec.Close()

	mapping := inference.InferWithSynonyms(dec.Headers(), s.synonyms)
	if !mapping.Resolved() {
		return s.failInference(mapping)
	}

	var items []normalize.CandidateItem
	var rejections []normalize.Rejection

	for dec.Next() {
		item, rejection := normalize.One(dec.Row(), mapping, dec.RowNumber())
		if rejection != nil {
			rejections = append(rejections, *rejection)
			continue
		}
		items = append(items, item)
	}

	if err := dec.Err(); err != nil {
		return s.failParse(err)
	}

	return s.finishParse(mapping, items, rejections)
}

// failParse records a decoder-level failure as session state.
func (s *Session) failParse(err error) error {
	s.state = StateParsedWithError
	s.message = err.Error()
	s.log.Warn().Err(err).Msg("parse failed")
	return err
}

// failInference records the missing name/price condition. This is guidance,
// not a hard error: the file parsed fine, it just has no usable columns.
func (s *Session) failInference(mapping inference.ColumnMapping) error {
	s.mapping = mapping
	s.state = StateParsedWithError
	s.message = msgNoResolvableColumns
	s.log.Warn().
		Str("name_column", mapping.NameColumn).
		Str("price_column", mapping.PriceColumn).
		Msg("could not resolve name and price columns")
	return ErrNoResolvableColumns
}

// finishParse installs the new snapshot and settles the parsed state.
func (s *Session) finishParse(mapping inference.ColumnMapping, items []normalize.CandidateItem, rejections []normalize.Rejection) error {
	s.mapping = mapping
	s.items = items
	s.rejections = rejections

	for _, rejection := range rejections {
		s.log.Debug().Msg(rejection.String())
	}

	if len(items) == 0 {
		s.state = StateParsedWithError
		s.message = msgNoValidRows
		return ErrNoValidRows
	}

	s.state = StateParsedWithItems
	s.message = fmt.Sprintf("%d items found", len(items))
	s.log.Info().
		Int("items", len(items)).
		Int("rejected", len(rejections)).
		Str("name_column", mapping.NameColumn).
		Str("price_column", mapping.PriceColumn).
		Msg("file parsed")
	return nil
}

// =============================================================================
// PRICING
// =============================================================================

// SetMarkup changes the markup percentage for subsequent projections.
// No re-parse happens; Preview and Payload recompute from the retained
// candidate list.
func (s *Session) SetMarkup(markupPercent float64) {
	s.markup = markupPercent
}

// MarkupPercent returns the current markup percentage.
func (s *Session) MarkupPercent() float64 {
	return s.markup
}

// Preview projects the candidate items at the current markup and returns the
// first n priced items in file order. n <= 0 returns all of them.
func (s *Session) Preview(n int) []pricing.PricedItem {
	priced := pricing.Project(s.items, s.markup)
	if n > 0 && len(priced) > n {
		priced = priced[:n]
	}
	return priced
}

// Payload builds the full submission payload at the current markup, with the
// catalogue defaults applied uniformly. A fresh payload is constructed on
// every call; nothing is cached or mutated in place.
func (s *Session) Payload() []submit.Item {
	return submit.BuildPayload(pricing.Project(s.items, s.markup), s.defaults)
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit sends the priced batch to the price book API.
//
// On failure the session returns to StateParsedWithItems with the candidate
// list intact, so the caller may retry (possibly at a different markup)
// without re-parsing the file.
//
// RETURNS:
//   - nil when the batch was accepted (session is StateComplete).
//   - An error wrapping *submit.SubmissionError otherwise.
func (s *Session) Submit(ctx context.Context) error {
	if s.state != StateParsedWithItems || len(s.items) == 0 {
		return fmt.Errorf("nothing to submit: session is %s", s.state)
	}
	if s.submitter == nil {
		return fmt.Errorf("session has no submission client")
	}

	s.state = StateImporting
	s.progress = 10

	payload := s.Payload()
	s.progress = 35

	started := time.Now()
	if err := s.submitter.SubmitBatch(ctx, payload); err != nil {
		// Restore the parsed state; the candidate list is untouched.
		s.state = StateParsedWithItems
		s.progress = 0
		s.message = err.Error()
		s.log.Error().Err(err).Msg("submission failed")
		return fmt.Errorf("submission failed: %w", err)
	}

	s.state = StateComplete
	s.progress = 100
	s.message = fmt.Sprintf("imported %d items", len(payload))
	s.log.Info().
		Int("items", len(payload)).
		Float64("markup_percent", s.markup).
		Dur("elapsed", time.Since(started)).
		Msg("import complete")
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Source returns the path of the file this session imports.
func (s *Session) Source() string { return s.source }

// State returns the current session state.
func (s *Session) State() State { return s.state }

// Progress returns the coarse submission progress (0-100).
func (s *Session) Progress() int { return s.progress }

// Message returns the latest user-facing status message.
func (s *Session) Message() string { return s.message }

// Mapping returns the inferred column mapping.
func (s *Session) Mapping() inference.ColumnMapping { return s.mapping }

// Items returns the surviving candidate items.
func (s *Session) Items() []normalize.CandidateItem { return s.items }

// ItemCount returns the number of surviving candidate items.
func (s *Session) ItemCount() int { return len(s.items) }

// Rejections returns the per-row rejection diagnostics.
func (s *Session) Rejections() []normalize.Rejection { return s.rejections }

// =============================================================================
// BATCH RESULT
// =============================================================================

// Result represents the outcome of importing a single file in batch mode.
type Result struct {
	// FilePath is the input file that was processed.
	FilePath string

	// Success indicates whether the file was imported (or, in dry-run mode,
	// its payload written).
	Success bool

	// Err is the failure cause; nil on success.
	Err error

	// ItemCount is the number of items that survived normalization.
	ItemCount int

	// RejectCount is the number of rows dropped during normalization.
	RejectCount int

	// Rejections carries the per-row diagnostics for the reject log.
	Rejections []normalize.Rejection

	// OutputFile is the dry-run payload path, if one was written.
	OutputFile string

	// Elapsed is the time taken to process the file.
	Elapsed time.Duration
}
