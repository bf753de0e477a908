package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/elecmate/pricebook-importer/internal/config"
	"github.com/elecmate/pricebook-importer/internal/decoder"
	"github.com/elecmate/pricebook-importer/internal/submit"
)

// fakeSubmitter records batches and fails on demand.
type fakeSubmitter struct {
	err     error
	batches [][]submit.Item
}

func (f *fakeSubmitter) SubmitBatch(ctx context.Context, items []submit.Item) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, items)
	return nil
}

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSessionHappyPath(t *testing.T) {
	path := writeTempCSV(t, "Name,Price,Category\nCable 2.5mm,£45.00,Cable\nSocket,3.20,Accessories\n")

	sub := &fakeSubmitter{}
	session := New(path, config.Default(), sub)
	assert.Equal(t, StateIdle, session.State())

	require.NoError(t, session.Parse())
	assert.Equal(t, StateParsedWithItems, session.State())
	assert.Equal(t, 2, session.ItemCount())
	assert.Equal(t, "Name", session.Mapping().NameColumn)
	assert.Equal(t, "Price", session.Mapping().PriceColumn)

	require.NoError(t, session.Submit(context.Background()))
	assert.Equal(t, StateComplete, session.State())
	assert.Equal(t, 100, session.Progress())

	require.Len(t, sub.batches, 1)
	batch := sub.batches[0]
	require.Len(t, batch, 2)

	// Default markup is 30%.
	assert.Equal(t, 58.50, batch[0].SellPrice)
	assert.Equal(t, 4.16, batch[1].SellPrice)
	assert.Equal(t, "each", batch[0].Unit)
	assert.Equal(t, 10, batch[0].ReorderLevel)
	assert.Nil(t, batch[0].SupplierID)
}

func TestSessionWorkbookSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Item Description", "Trade Price"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"RCBO 32A", "18.40"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	session := New(path, config.Default(), nil)
	require.NoError(t, session.Parse())
	assert.Equal(t, 1, session.ItemCount())
	assert.Equal(t, "Item Description", session.Mapping().NameColumn)
}

func TestSessionUnsupportedFileType(t *testing.T) {
	session := New(filepath.Join(t.TempDir(), "prices.pdf"), config.Default(), nil)

	err := session.Parse()
	var unsupportedErr *decoder.UnsupportedFileTypeError
	require.ErrorAs(t, err, &unsupportedErr)
	assert.Equal(t, StateParsedWithError, session.State())
}

func TestSessionNoResolvableColumns(t *testing.T) {
	path := writeTempCSV(t, "Name,Qty\nCable,3\n")

	session := New(path, config.Default(), nil)
	err := session.Parse()

	require.ErrorIs(t, err, ErrNoResolvableColumns)
	assert.Equal(t, StateParsedWithError, session.State())
	assert.Contains(t, session.Message(), "name and price")
	assert.Equal(t, 0, session.ItemCount())
}

func TestSessionNoValidRows(t *testing.T) {
	path := writeTempCSV(t, "Name,Price\n,9.99\nCable,N/A\n")

	session := New(path, config.Default(), nil)
	err := session.Parse()

	require.ErrorIs(t, err, ErrNoValidRows)
	assert.Equal(t, StateParsedWithError, session.State())
	assert.Equal(t, 0, session.ItemCount())
	assert.Len(t, session.Rejections(), 2)
}

func TestSessionMarkupReprojection(t *testing.T) {
	path := writeTempCSV(t, "Name,Price\nCable,10.00\n")

	session := New(path, config.Default(), nil)
	require.NoError(t, session.Parse())

	preview := session.Preview(0)
	require.Len(t, preview, 1)
	assert.Equal(t, 13.00, preview[0].SellPrice)

	// A markup change re-projects from the retained candidate list.
	session.SetMarkup(50)
	preview = session.Preview(0)
	assert.Equal(t, 15.00, preview[0].SellPrice)
	assert.Equal(t, 10.00, session.Items()[0].BuyPrice)
}

func TestSessionRetryAfterSubmissionFailure(t *testing.T) {
	path := writeTempCSV(t, "Name,Price\nCable,10.00\n")

	sub := &fakeSubmitter{err: errors.New("price book API unreachable")}
	session := New(path, config.Default(), sub)
	require.NoError(t, session.Parse())

	err := session.Submit(context.Background())
	require.Error(t, err)

	// The candidate list survives; the session is back in the parsed state
	// and a retry needs no re-parse.
	assert.Equal(t, StateParsedWithItems, session.State())
	assert.Equal(t, 1, session.ItemCount())

	sub.err = nil
	require.NoError(t, session.Submit(context.Background()))
	assert.Equal(t, StateComplete, session.State())
	require.Len(t, sub.batches, 1)
}

func TestSessionSubmitRequiresItems(t *testing.T) {
	session := New(writeTempCSV(t, "Name,Qty\n"), config.Default(), &fakeSubmitter{})
	_ = session.Parse()

	err := session.Submit(context.Background())
	require.Error(t, err)
}

func TestSessionPreviewLimit(t *testing.T) {
	path := writeTempCSV(t, "Name,Price\nA,1\nB,2\nC,3\n")

	session := New(path, config.Default(), nil)
	require.NoError(t, session.Parse())

	assert.Len(t, session.Preview(2), 2)
	assert.Len(t, session.Preview(0), 3)
}
