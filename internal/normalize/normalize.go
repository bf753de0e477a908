// =============================================================================
// Price Book Importer - Row Normalizer
// =============================================================================
//
// This module converts raw decoded rows into typed candidate items using a
// resolved column mapping. Rows that fail validation are dropped, never
// coerced: a row survives only if it has a non-empty trimmed name and a
// positive, finite buy price.
//
// Dropped rows are expected noise (trailing summary rows, section banners,
// "N/A" prices), so they are not treated as errors. Each drop is instead
// recorded as a Rejection carrying the file row number and reason, which the
// callers write to the reject log and debug output. The only user-facing
// aggregate condition is "no valid items found" when every row is dropped.
//
// PRICE PARSING:
//   Currency symbols (GBP and USD signs) and thousands separators are
//   stripped before the value is parsed as a decimal number. "£1,234.50"
//   parses to 1234.50.
//
// =============================================================================

package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/elecmate/pricebook-importer/internal/decoder"
	"github.com/elecmate/pricebook-importer/internal/inference"
)

// DefaultCategory is the fallback category assigned when the file has no
// resolvable category column or the cell is empty.
const DefaultCategory = "Materials"

// =============================================================================
// CANDIDATE ITEM
// =============================================================================

// CandidateItem is a row that has survived normalization and validation but
// has not yet been priced or submitted.
type CandidateItem struct {
	// Name is the item name, whitespace-trimmed, never empty.
	Name string

	// SKU is the supplier SKU or part code. Empty when the file has no SKU
	// column or the cell is blank.
	SKU string

	// BuyPrice is the trade/buy price. Always positive and finite.
	BuyPrice float64

	// Category is the item category, defaulted to DefaultCategory when no
	// category column was found.
	Category string
}

// =============================================================================
// REJECTION DIAGNOSTICS
// =============================================================================

// Rejection records why a single row was dropped during normalization.
type Rejection struct {
	// RowNumber is the 1-indexed source file row number as recorded by the
	// decoder (the header normally sits on row 1).
	RowNumber int

	// Field is the semantic field that failed ("name" or "price").
	Field string

	// Value is the offending raw cell value.
	Value string

	// Reason is a short human-readable explanation.
	Reason string
}

func (r Rejection) String() string {
	return fmt.Sprintf("row %d: %s %s (value: %q)", r.RowNumber, r.Field, r.Reason, r.Value)
}

// Result holds the outcome of normalizing a sequence of rows.
type Result struct {
	// Items are the surviving candidate items, in source row order.
	Items []CandidateItem

	// Rejections records every dropped row with its reason.
	Rejections []Rejection
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// Rows normalizes every row of a decoded table using the resolved mapping.
// Output order is a subsequence of the input row order. Rejections carry the
// source row number recorded by the decoder, so they stay accurate even when
// the decoder dropped blank rows in between.
//
// PARAMETERS:
//   - rows: The decoded data rows, in file order.
//   - mapping: A resolved column mapping (Resolved() must be true).
//
// RETURNS:
//   - A Result with surviving items and per-row rejections.
func Rows(rows []decoder.Row, mapping inference.ColumnMapping) Result {
	result := Result{
		Items: make([]CandidateItem, 0, len(rows)),
	}

	for _, row := range rows {
		item, rejection := One(row.Cells, mapping, row.Number)
		if rejection != nil {
			result.Rejections = append(result.Rejections, *rejection)
			continue
		}
		result.Items = append(result.Items, item)
	}

	return result
}

// One normalizes a single row. A nil rejection means the row survived.
// This is the streaming-friendly entry point used by the batch importer.
func One(row decoder.RawRow, mapping inference.ColumnMapping, rowNumber int) (CandidateItem, *Rejection) {
	name := strings.TrimSpace(row[mapping.NameColumn])
	if name == "" {
		return CandidateItem{}, &Rejection{
			RowNumber: rowNumber,
			Field:     "name",
			Value:     row[mapping.NameColumn],
			Reason:    "is empty",
		}
	}

	rawPrice := row[mapping.PriceColumn]
	buyPrice, err := ParsePrice(rawPrice)
	if err != nil {
		return CandidateItem{}, &Rejection{
			RowNumber: rowNumber,
			Field:     "price",
			Value:     rawPrice,
			Reason:    "unparseable",
		}
	}
	if buyPrice <= 0 {
		return CandidateItem{}, &Rejection{
			RowNumber: rowNumber,
			Field:     "price",
			Value:     rawPrice,
			Reason:    "must be greater than zero",
		}
	}

	item := CandidateItem{
		Name:     name,
		BuyPrice: buyPrice,
		Category: DefaultCategory,
	}

	if mapping.SKUColumn != "" {
		item.SKU = strings.TrimSpace(row[mapping.SKUColumn])
	}

	if mapping.CategoryColumn != "" {
		if category := strings.TrimSpace(row[mapping.CategoryColumn]); category != "" {
			item.Category = category
		}
	}

	return item, nil
}

// =============================================================================
// PRICE PARSING
// =============================================================================

// priceReplacer strips currency symbols and thousands separators before
// decimal parsing.
var priceReplacer = strings.NewReplacer("£", "", "$", "", ",", "")

// ParsePrice parses a raw price cell into a finite decimal number.
//
// PARAMETERS:
//   - raw: The raw cell value, e.g. "£1,234.50", "$999", "12.00".
//
// RETURNS:
//   - The parsed value, or an error if the cleaned string is not a finite
//     decimal number. Range validation (> 0) is the caller's concern.
func ParsePrice(raw string) (float64, error) {
	cleaned := strings.TrimSpace(priceReplacer.Replace(raw))
	if cleaned == "" {
		return 0, fmt.Errorf("empty price value")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", raw, err)
	}

	// ParseFloat accepts "Inf" and "NaN" spellings; neither is a price.
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, fmt.Errorf("invalid price %q: not a finite number", raw)
	}

	return value, nil
}
