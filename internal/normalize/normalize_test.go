package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elecmate/pricebook-importer/internal/decoder"
	"github.com/elecmate/pricebook-importer/internal/inference"
)

var testMapping = inference.ColumnMapping{
	NameColumn:     "Name",
	SKUColumn:      "SKU",
	PriceColumn:    "Price",
	CategoryColumn: "Category",
}

// dataRows numbers the given cell maps as contiguous data rows below a
// single header row.
func dataRows(cells ...decoder.RawRow) []decoder.Row {
	rows := make([]decoder.Row, len(cells))
	for i, c := range cells {
		rows[i] = decoder.Row{Number: i + 2, Cells: c}
	}
	return rows
}

func TestParsePriceCurrencyStripping(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"£1,234.50", 1234.50},
		{"$999", 999},
		{"12.00", 12.00},
		{" £ 45.00 ", 45.00},
	}

	for _, tc := range cases {
		got, err := ParsePrice(tc.raw)
		require.NoError(t, err, "price %q", tc.raw)
		assert.Equal(t, tc.want, got, "price %q", tc.raw)
	}
}

func TestParsePriceRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "N/A", "POA", "£", "Inf", "NaN", "1.2.3"} {
		_, err := ParsePrice(raw)
		assert.Error(t, err, "price %q", raw)
	}
}

func TestRowsHappyPath(t *testing.T) {
	rows := dataRows(
		decoder.RawRow{"Name": "Cable 2.5mm", "SKU": "C25", "Price": "£45.00", "Category": "Cable"},
		decoder.RawRow{"Name": "Socket", "SKU": "", "Price": "3.20", "Category": "Accessories"},
	)

	result := Rows(rows, testMapping)
	require.Len(t, result.Items, 2)
	assert.Empty(t, result.Rejections)

	assert.Equal(t, CandidateItem{Name: "Cable 2.5mm", SKU: "C25", BuyPrice: 45.00, Category: "Cable"}, result.Items[0])
	assert.Equal(t, CandidateItem{Name: "Socket", BuyPrice: 3.20, Category: "Accessories"}, result.Items[1])
}

func TestRowsDropsInvalidPriceKeepsSiblings(t *testing.T) {
	rows := dataRows(
		decoder.RawRow{"Name": "Cable", "Price": "1.00"},
		decoder.RawRow{"Name": "Mystery", "Price": "N/A"},
		decoder.RawRow{"Name": "Socket", "Price": "2.00"},
	)

	result := Rows(rows, testMapping)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "Cable", result.Items[0].Name)
	assert.Equal(t, "Socket", result.Items[1].Name)

	require.Len(t, result.Rejections, 1)
	assert.Equal(t, 3, result.Rejections[0].RowNumber) // header is row 1
	assert.Equal(t, "price", result.Rejections[0].Field)
	assert.Equal(t, "N/A", result.Rejections[0].Value)
}

// Rejections must name the file row the decoder saw, not an index into the
// filtered slice: a blank separator row between data rows shifts the two
// apart.
func TestRowsReportSourceRowNumbersAcrossBlankRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name,Price\nCable,1.00\n,\nBad,N/A\n"), 0644))

	table, err := decoder.DecodeCSV(path)
	require.NoError(t, err)

	result := Rows(table.Rows, testMapping)
	require.Len(t, result.Items, 1)
	require.Len(t, result.Rejections, 1)

	// The bad price sits on file row 4; row 3 is a blank separator.
	assert.Equal(t, 4, result.Rejections[0].RowNumber)
}

func TestRowsDropsNonPositivePrices(t *testing.T) {
	rows := dataRows(
		decoder.RawRow{"Name": "Free sample", "Price": "0"},
		decoder.RawRow{"Name": "Refund line", "Price": "-4.50"},
	)

	result := Rows(rows, testMapping)
	assert.Empty(t, result.Items)
	require.Len(t, result.Rejections, 2)
	assert.Equal(t, "must be greater than zero", result.Rejections[0].Reason)
}

func TestRowsDropsBlankName(t *testing.T) {
	rows := dataRows(
		decoder.RawRow{"Name": "   ", "Price": "9.99"},
		decoder.RawRow{"Name": "Socket", "Price": "2.00"},
	)

	result := Rows(rows, testMapping)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Socket", result.Items[0].Name)

	require.Len(t, result.Rejections, 1)
	assert.Equal(t, "name", result.Rejections[0].Field)
	assert.Equal(t, 2, result.Rejections[0].RowNumber)
}

func TestRowsFallbackCategory(t *testing.T) {
	mapping := inference.ColumnMapping{NameColumn: "Name", PriceColumn: "Price"}
	rows := dataRows(decoder.RawRow{"Name": "Cable", "Price": "1.00"})

	result := Rows(rows, mapping)
	require.Len(t, result.Items, 1)
	assert.Equal(t, DefaultCategory, result.Items[0].Category)
	assert.Equal(t, "", result.Items[0].SKU)
}

func TestRowsEmptyCategoryCellFallsBack(t *testing.T) {
	rows := dataRows(decoder.RawRow{"Name": "Cable", "Price": "1.00", "Category": "  "})

	result := Rows(rows, testMapping)
	require.Len(t, result.Items, 1)
	assert.Equal(t, DefaultCategory, result.Items[0].Category)
}

// Output item count never exceeds input row count, and every survivor has a
// non-empty name and a positive buy price.
func TestRowsValidityFilter(t *testing.T) {
	rows := dataRows(
		decoder.RawRow{"Name": "A", "Price": "1"},
		decoder.RawRow{"Name": "", "Price": "2"},
		decoder.RawRow{"Name": "C", "Price": "x"},
		decoder.RawRow{"Name": "D", "Price": "4"},
		decoder.RawRow{"Name": "E", "Price": "-1"},
	)

	result := Rows(rows, testMapping)
	assert.LessOrEqual(t, len(result.Items), len(rows))
	assert.Equal(t, len(rows), len(result.Items)+len(result.Rejections))

	for _, item := range result.Items {
		assert.NotEmpty(t, item.Name)
		assert.Greater(t, item.BuyPrice, 0.0)
	}
}
