// =============================================================================
// Price Book Importer - Pricing Projector
// =============================================================================
//
// Pure projection of candidate items into priced items by applying a markup
// percentage to the buy price. The projection is deterministic and
// side-effect-free, so callers re-invoke it whenever the markup changes
// rather than mutating a priced list in place.
//
// The markup is unconstrained at this level; any range clamping is a
// calling-surface concern.
//
// =============================================================================

package pricing

import (
	"math"

	"github.com/elecmate/pricebook-importer/internal/normalize"
)

// DefaultMarkupPercent is the markup applied when the caller supplies none.
const DefaultMarkupPercent = 30.0

// PricedItem is a candidate item extended with a computed sell price.
type PricedItem struct {
	normalize.CandidateItem

	// SellPrice is RoundToCents(BuyPrice * (1 + markupPercent/100)).
	SellPrice float64
}

// Project computes sell prices for every candidate item at the given markup.
//
// The same (buyPrice, markupPercent) pair always yields the same sellPrice,
// and a markup increase never decreases any sell price. Input items are
// never mutated; a fresh slice is returned on every call.
//
// PARAMETERS:
//   - items: The candidate items, in source order.
//   - markupPercent: The markup percentage, e.g. 30 for a 30% uplift.
//
// RETURNS:
//   - A new slice of PricedItem, 1:1 with the input and in the same order.
func Project(items []normalize.CandidateItem, markupPercent float64) []PricedItem {
	priced := make([]PricedItem, len(items))

	factor := 1 + markupPercent/100
	for i, item := range items {
		priced[i] = PricedItem{
			CandidateItem: item,
			SellPrice:     RoundToCents(item.BuyPrice * factor),
		}
	}

	return priced
}

// RoundToCents rounds a value to two decimal places, half away from zero.
func RoundToCents(value float64) float64 {
	return math.Round(value*100) / 100
}
