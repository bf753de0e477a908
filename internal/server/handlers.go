// =============================================================================
// Price Book Importer - HTTP Handlers
// =============================================================================
//
// Request handlers for the import API. Uploads arrive as multipart form
// data: a "file" part holding the price list and an optional "markup" form
// value (percentage, bounded 0-500 at this surface).
//
// STATUS MAPPING:
//   - Unsupported extension, malformed file       -> 400
//   - Columns or rows unusable (guidance states)  -> 422
//   - Price book API rejected / unreachable       -> 502
//
// =============================================================================

package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/elecmate/pricebook-importer/internal/decoder"
	"github.com/elecmate/pricebook-importer/internal/importer"
	"github.com/elecmate/pricebook-importer/internal/inference"
	"github.com/elecmate/pricebook-importer/internal/normalize"
	"github.com/elecmate/pricebook-importer/internal/pricing"
)

// maxUploadBytes bounds in-memory multipart parsing.
const maxUploadBytes = 32 << 20

// previewItemLimit is how many priced items a preview response carries.
const previewItemLimit = 20

// =============================================================================
// RESPONSE SHAPES
// =============================================================================

type columnMappingResponse struct {
	Name     string `json:"name_column"`
	SKU      string `json:"sku_column,omitempty"`
	Price    string `json:"price_column"`
	Category string `json:"category_column,omitempty"`
}

type previewItemResponse struct {
	Name      string  `json:"name"`
	SKU       string  `json:"sku,omitempty"`
	BuyPrice  float64 `json:"buy_price"`
	SellPrice float64 `json:"sell_price"`
	Category  string  `json:"category"`
}

type rejectionResponse struct {
	RowNumber int    `json:"row_number"`
	Field     string `json:"field"`
	Value     string `json:"value"`
	Reason    string `json:"reason"`
}

type previewResponse struct {
	State         importer.State        `json:"state"`
	Message       string                `json:"message"`
	MarkupPercent float64               `json:"markup_percent"`
	Mapping       columnMappingResponse `json:"mapping"`
	ItemCount     int                   `json:"item_count"`
	RejectCount   int                   `json:"reject_count"`
	Items         []previewItemResponse `json:"items"`
	Rejections    []rejectionResponse   `json:"rejections,omitempty"`
}

type importResponse struct {
	State       importer.State `json:"state"`
	Message     string         `json:"message"`
	Progress    int            `json:"progress"`
	ItemCount   int            `json:"item_count"`
	RejectCount int            `json:"reject_count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// =============================================================================
// HANDLERS
// =============================================================================

// handleHealth is the liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePreview parses an uploaded price list and returns the priced
// preview without submitting anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	session, cleanup, ok := s.startSession(w, r)
	if !ok {
		return
	}
	defer cleanup()

	if done := s.parseSession(w, session); done {
		return
	}

	writeJSON(w, http.StatusOK, buildPreviewResponse(session))
}

// handleImport parses an uploaded price list and submits the priced batch
// to the price book API.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	session, cleanup, ok := s.startSession(w, r)
	if !ok {
		return
	}
	defer cleanup()

	if done := s.parseSession(w, session); done {
		return
	}

	if err := session.Submit(r.Context()); err != nil {
		// The candidate list survives a failed submission; the client may
		// retry by re-uploading, which re-parses deterministically.
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, importResponse{
		State:       session.State(),
		Message:     session.Message(),
		Progress:    session.Progress(),
		ItemCount:   session.ItemCount(),
		RejectCount: len(session.Rejections()),
	})
}

// =============================================================================
// SHARED REQUEST PLUMBING
// =============================================================================

// startSession reads the multipart upload, stages it in a temp file and
// creates an import session at the requested markup. On failure it writes
// the error response and returns ok=false.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request) (*importer.Session, func(), bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "expected a multipart upload with a \"file\" part"})
		return nil, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing \"file\" part"})
		return nil, nil, false
	}
	defer file.Close()

	// Reject unsupported extensions before touching the file contents.
	if !decoder.IsSupported(header.Filename) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("unsupported file type %q: expected .csv, .xlsx or .xls", filepath.Ext(header.Filename)),
		})
		return nil, nil, false
	}

	markup := s.cfg.DefaultMarkupPercent
	if raw := r.FormValue("markup"); raw != "" {
		markup, err = strconv.ParseFloat(raw, 64)
		if err != nil || markup < 0 || markup > 500 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "markup must be a number between 0 and 500"})
			return nil, nil, false
		}
	}

	stagedPath, err := stageUpload(file, header.Filename)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to stage upload")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to store upload"})
		return nil, nil, false
	}
	cleanup := func() { os.Remove(stagedPath) }

	session := importer.New(stagedPath, s.cfg, s.submitter)
	session.SetMarkup(markup)
	return session, cleanup, true
}

// parseSession runs Parse and writes the error response for the failure
// conditions. Returns true when the response has been written.
func (s *Server) parseSession(w http.ResponseWriter, session *importer.Session) bool {
	err := session.Parse()
	if err == nil {
		return false
	}

	switch err.(type) {
	case *decoder.UnsupportedFileTypeError, *decoder.ParseError:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		// The zero-item guidance conditions: the upload parsed, but nothing
		// is importable. The full session state is still useful.
		writeJSON(w, http.StatusUnprocessableEntity, buildPreviewResponse(session))
	}
	return true
}

// stageUpload copies the uploaded part to a temp file, preserving the
// extension so the decoder dispatch sees the declared file type.
func stageUpload(file io.Reader, filename string) (string, error) {
	tmp, err := os.CreateTemp("", "pricebook-upload-*"+filepath.Ext(filename))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return tmp.Name(), nil
}

// =============================================================================
// RESPONSE BUILDING
// =============================================================================

func buildPreviewResponse(session *importer.Session) previewResponse {
	return previewResponse{
		State:         session.State(),
		Message:       session.Message(),
		MarkupPercent: session.MarkupPercent(),
		Mapping:       toMappingResponse(session.Mapping()),
		ItemCount:     session.ItemCount(),
		RejectCount:   len(session.Rejections()),
		Items:         toPreviewItems(session.Preview(previewItemLimit)),
		Rejections:    toRejectionResponses(session.Rejections()),
	}
}

func toMappingResponse(mapping inference.ColumnMapping) columnMappingResponse {
	return columnMappingResponse{
		Name:     mapping.NameColumn,
		SKU:      mapping.SKUColumn,
		Price:    mapping.PriceColumn,
		Category: mapping.CategoryColumn,
	}
}

func toPreviewItems(items []pricing.PricedItem) []previewItemResponse {
	out := make([]previewItemResponse, len(items))
	for i, item := range items {
		out[i] = previewItemResponse{
			Name:      item.Name,
			SKU:       item.SKU,
			BuyPrice:  item.BuyPrice,
			SellPrice: item.SellPrice,
			Category:  item.Category,
		}
	}
	return out
}

func toRejectionResponses(rejections []normalize.Rejection) []rejectionResponse {
	if len(rejections) == 0 {
		return nil
	}
	out := make([]rejectionResponse, len(rejections))
	for i, rejection := range rejections {
		out[i] = rejectionResponse{
			RowNumber: rejection.RowNumber,
			Field:     rejection.Field,
			Value:     rejection.Value,
			Reason:    rejection.Reason,
		}
	}
	return out
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
