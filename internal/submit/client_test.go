package submit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elecmate/pricebook-importer/internal/config"
	"github.com/elecmate/pricebook-importer/internal/normalize"
	"github.com/elecmate/pricebook-importer/internal/pricing"
)

func testConfig(baseURL string) *config.MainConfig {
	cfg := config.Default()
	cfg.PriceBookAPI.BaseURL = baseURL
	return cfg
}

func TestBuildPayload(t *testing.T) {
	priced := pricing.Project([]normalize.CandidateItem{
		{Name: "Cable 2.5mm", SKU: "C25", BuyPrice: 45.00, Category: "Cable"},
		{Name: "Socket", BuyPrice: 3.20, Category: "Accessories"},
	}, 30)

	payload := BuildPayload(priced, config.CatalogueDefaults{Unit: "each", StockLevel: 0, ReorderLevel: 10})
	require.Len(t, payload, 2)

	first := payload[0]
	assert.Equal(t, "Cable 2.5mm", first.Name)
	require.NotNil(t, first.SKU)
	assert.Equal(t, "C25", *first.SKU)
	assert.Equal(t, 45.00, first.BuyPrice)
	assert.Equal(t, 58.50, first.SellPrice)
	assert.Equal(t, "each", first.Unit)
	assert.Nil(t, first.SupplierID)
	assert.Equal(t, 0, first.StockLevel)
	assert.Equal(t, 10, first.ReorderLevel)

	// Items without a SKU carry an explicit null.
	assert.Nil(t, payload[1].SKU)
}

func TestSubmitBatchPayloadShape(t *testing.T) {
	var gotBody map[string][]map[string]interface{}
	var gotAuth, gotContentType, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	t.Setenv(cfg.PriceBookAPI.APIKeyEnv, "test-key")

	client := NewClient(cfg)
	sku := "C25"
	err := client.SubmitBatch(context.Background(), []Item{{
		Name:         "Cable 2.5mm",
		SKU:          &sku,
		BuyPrice:     45.00,
		SellPrice:    58.50,
		Category:     "Cable",
		Unit:         "each",
		ReorderLevel: 10,
	}})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/price-book/items/bulk", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "application/json", gotContentType)

	items := gotBody["items"]
	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, "Cable 2.5mm", item["name"])
	assert.Equal(t, "C25", item["sku"])
	assert.Equal(t, 45.00, item["buy_price"])
	assert.Equal(t, 58.50, item["sell_price"])
	assert.Equal(t, "Cable", item["category"])
	assert.Equal(t, "each", item["unit"])
	assert.Nil(t, item["supplier_id"])
	assert.Equal(t, 0.0, item["stock_level"])
	assert.Equal(t, 10.0, item["reorder_level"])
}

func TestSubmitBatchRejectsEmpty(t *testing.T) {
	client := NewClient(testConfig("http://localhost:0"))

	err := client.SubmitBatch(context.Background(), nil)
	require.Error(t, err)
}

func TestSubmitBatchAPIRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "duplicate SKU", http.StatusConflict)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	err := client.SubmitBatch(context.Background(), []Item{{Name: "A"}})

	var submissionErr *SubmissionError
	require.ErrorAs(t, err, &submissionErr)
	assert.Equal(t, http.StatusConflict, submissionErr.StatusCode)
	assert.Contains(t, submissionErr.Message, "duplicate SKU")
}

func TestSubmitBatchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(testConfig(srv.URL))
	err := client.SubmitBatch(context.Background(), []Item{{Name: "A"}})

	var submissionErr *SubmissionError
	require.ErrorAs(t, err, &submissionErr)
	assert.Equal(t, 0, submissionErr.StatusCode)
}
