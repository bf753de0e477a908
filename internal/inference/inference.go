// =============================================================================
// Price Book Importer - Column Inference
// =============================================================================
//
// This module guesses which spreadsheet column holds the item name, SKU, buy
// price and category by keyword matching against the header row. Supplier
// price lists have no standard layout, so the mapping is heuristic:
//
//   - For each field, headers are scanned in their declared file order and
//     the first header whose lowercased, trimmed text contains any of the
//     field's synonym substrings wins. This is first-match-wins, not a
//     scored/best-match algorithm.
//   - Fields are resolved in a fixed order: name, then sku, then price, then
//     category. A header claimed by an earlier field is not considered again,
//     so an ambiguous header like "Product Code" resolves to the name column
//     (via "product") rather than the SKU column (via "code").
//
// Name and price are mandatory: if either cannot be resolved the mapping is
// unresolvable and zero items result. SKU and category are optional and are
// left empty when no header matches.
//
// CUSTOMIZATION:
//   The synonym lists can be extended per deployment via the column_synonyms
//   section of the main configuration file. Overrides replace the default
//   list for that field entirely.
//
// =============================================================================

package inference

import "strings"

// =============================================================================
// COLUMN MAPPING
// =============================================================================

// ColumnMapping holds the header strings selected for each semantic field.
// An empty string means the field was not resolved.
type ColumnMapping struct {
	// NameColumn is the header holding the item name. Mandatory.
	NameColumn string

	// SKUColumn is the header holding the supplier SKU or part code. Optional.
	SKUColumn string

	// PriceColumn is the header holding the buy price. Mandatory.
	PriceColumn string

	// CategoryColumn is the header holding the item category. Optional.
	CategoryColumn string
}

// Resolved reports whether the mapping can produce items. Name and price
// must both be present; SKU and category may be empty.
func (m ColumnMapping) Resolved() bool {
	return m.NameColumn != "" && m.PriceColumn != ""
}

// =============================================================================
// SYNONYM LISTS
// =============================================================================

// Synonyms holds the substring lists used to match headers to fields.
type Synonyms struct {
	Name     []string
	SKU      []string
	Price    []string
	Category []string
}

// DefaultSynonyms returns the built-in synonym lists.
func DefaultSynonyms() Synonyms {
	return Synonyms{
		Name:     []string{"name", "description", "product", "item", "material"},
		SKU:      []string{"sku", "code", "part", "ref", "number"},
		Price:    []string{"price", "cost", "buy", "trade", "net"},
		Category: []string{"category", "cat", "type", "group"},
	}
}

// merge returns s with any empty field list replaced by the default list.
func (s Synonyms) merge(defaults Synonyms) Synonyms {
	if len(s.Name) == 0 {
		s.Name = defaults.Name
	}
	if len(s.SKU) == 0 {
		s.SKU = defaults.SKU
	}
	if len(s.Price) == 0 {
		s.Price = defaults.Price
	}
	if len(s.Category) == 0 {
		s.Category = defaults.Category
	}
	return s
}

// =============================================================================
// INFERENCE
// =============================================================================

// Infer guesses the column mapping for the given header set using the
// built-in synonym lists. The result is deterministic for a fixed header
// slice: repeated calls always resolve to the same mapping.
//
// PARAMETERS:
//   - headers: The header row in declared file order.
//
// RETURNS:
//   - The inferred ColumnMapping. Check Resolved() before normalizing rows.
func Infer(headers []string) ColumnMapping {
	return InferWithSynonyms(headers, DefaultSynonyms())
}

// InferWithSynonyms guesses the column mapping using caller-supplied synonym
// lists. Empty lists fall back to the defaults.
func InferWithSynonyms(headers []string, synonyms Synonyms) ColumnMapping {
	synonyms = synonyms.merge(DefaultSynonyms())

	claimed := make(map[string]bool, 4)

	// Field resolution order is fixed: name, sku, price, category.
	// Changing this order silently changes which column is chosen on
	// ambiguous files.
	mapping := ColumnMapping{}
	mapping.NameColumn = findColumn(headers, synonyms.Name, claimed)
	mapping.SKUColumn = findColumn(headers, synonyms.SKU, claimed)
	mapping.PriceColumn = findColumn(headers, synonyms.Price, claimed)
	mapping.CategoryColumn = findColumn(headers, synonyms.Category, claimed)

	return mapping
}

// findColumn returns the first unclaimed header whose lowercased text
// contains any of the given synonym substrings, claiming it on success.
func findColumn(headers []string, synonyms []string, claimed map[string]bool) string {
	for _, header := range headers {
		if claimed[header] {
			continue
		}

		normalized := strings.ToLower(strings.TrimSpace(header))
		for _, synonym := range synonyms {
			if strings.Contains(normalized, synonym) {
				claimed[header] = true
				return header
			}
		}
	}

	return ""
}
