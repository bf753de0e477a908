// =============================================================================
// Price Book Importer - Bulk Submission Client
// =============================================================================
//
// HTTP client for the price book persistence API. The full priced list is
// sent as one batch; there is no partial-success model. Either the whole
// batch is accepted or the attempt fails as a unit with the underlying cause
// surfaced to the caller. Callers keep their in-memory candidate list on
// failure so a retry needs no re-parse.
//
// The client must not be invoked with an empty batch; callers gate that
// precondition and SubmitBatch rejects it defensively.
//
// =============================================================================

package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/elecmate/pricebook-importer/internal/config"
	"github.com/elecmate/pricebook-importer/internal/pricing"
)

// =============================================================================
// PAYLOAD SHAPE
// =============================================================================

// Item is the boundary contract exposed to the price book API, one per
// imported item.
type Item struct {
	Name         string  `json:"name"`
	SKU          *string `json:"sku"`
	BuyPrice     float64 `json:"buy_price"`
	SellPrice    float64 `json:"sell_price"`
	Category     string  `json:"category"`
	Unit         string  `json:"unit"`
	SupplierID   *string `json:"supplier_id"`
	StockLevel   int     `json:"stock_level"`
	ReorderLevel int     `json:"reorder_level"`
}

// batchRequest is the bulk submission request body.
type batchRequest struct {
	Items []Item `json:"items"`
}

// BuildPayload converts priced items into the submission payload shape,
// applying the catalogue defaults uniformly. Items without a SKU carry an
// explicit null; supplier_id is always null for imported items.
func BuildPayload(items []pricing.PricedItem, defaults config.CatalogueDefaults) []Item {
	payload := make([]Item, len(items))

	for i, item := range items {
		entry := Item{
			Name:         item.Name,
			BuyPrice:     item.BuyPrice,
			SellPrice:    item.SellPrice,
			Category:     item.Category,
			Unit:         defaults.Unit,
			StockLevel:   defaults.StockLevel,
			ReorderLevel: defaults.ReorderLevel,
		}
		if item.SKU != "" {
			sku := item.SKU
			entry.SKU = &sku
		}
		payload[i] = entry
	}

	return payload
}

// =============================================================================
// ERROR TYPE
// =============================================================================

// SubmissionError indicates the price book API rejected the batch or could
// not be reached. The message is surfaced verbatim to the user.
type SubmissionError struct {
	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int

	// Message is the response body or transport error text.
	Message string

	// Cause is the underlying error for transport failures.
	Cause error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("price book API rejected the batch (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("price book API unreachable: %s", e.Message)
}

func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

// =============================================================================
// CLIENT
// =============================================================================

// HTTPDoer abstracts the HTTP client for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the price book API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
	log        zerolog.Logger
}

// NewClient creates a new price book API client from the application
// configuration.
func NewClient(cfg *config.MainConfig) *Client {
	return &Client{
		baseURL: cfg.PriceBookAPI.BaseURL,
		apiKey:  cfg.APIKey(),
		httpClient: &http.Client{
			Timeout: cfg.APITimeout(),
		},
		log: log.With().Str("component", "submit").Logger(),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(client HTTPDoer) {
	c.httpClient = client
}

// SubmitBatch sends the full priced list to the price book API as one batch.
//
// PARAMETERS:
//   - ctx: Context for cancellation; the request carries the client timeout.
//   - items: The submission payload. Must be non-empty.
//
// RETURNS:
//   - nil when the whole batch was accepted.
//   - *SubmissionError when the API rejected the batch or was unreachable.
func (c *Client) SubmitBatch(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return fmt.Errorf("refusing to submit an empty batch")
	}

	body, err := json.Marshal(batchRequest{Items: items})
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	reqURL := c.baseURL + "/api/v1/price-book/items/bulk"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &SubmissionError{Message: err.Error(), Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &SubmissionError{Message: fmt.Sprintf("failed to read response: %v", err), Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &SubmissionError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	c.log.Info().
		Int("items", len(items)).
		Dur("elapsed", time.Since(started)).
		Msg("batch accepted")

	return nil
}
