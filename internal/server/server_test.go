package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elecmate/pricebook-importer/internal/config"
	"github.com/elecmate/pricebook-importer/internal/submit"
)

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

// uploadRequest builds a multipart POST with a "file" part and optional
// extra form values.
func uploadRequest(t *testing.T, target, filename, content string, form map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)

	for key, value := range form {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newTestServer(sub *fakeSubmitter) *Server {
	s := New(config.Default())
	if sub != nil {
		s.SetSubmitter(sub)
	}
	return s
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestPreviewHappyPath(t *testing.T) {
	req := uploadRequest(t, "/api/v1/imports/preview", "prices.csv",
		"Name,SKU,Price,Category\nCable 2.5mm,C25,£45.00,Cable\nSocket,,3.20,Accessories\n", nil)

	rec := httptest.NewRecorder()
	newTestServer(nil).Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp previewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "parsed-with-items", string(resp.State))
	assert.Equal(t, 2, resp.ItemCount)
	assert.Equal(t, 0, resp.RejectCount)
	assert.Equal(t, 30.0, resp.MarkupPercent)
	assert.Equal(t, "Name", resp.Mapping.Name)
	assert.Equal(t, "Price", resp.Mapping.Price)

	require.Len(t, resp.Items, 2)
	assert.Equal(t, 58.50, resp.Items[0].SellPrice)
	assert.Equal(t, 4.16, resp.Items[1].SellPrice)
}

func TestPreviewHonoursMarkupFormValue(t *testing.T) {
	req := uploadRequest(t, "/api/v1/imports/preview", "prices.csv",
		"Name,Price\nCable,10.00\n", map[string]string{"markup": "50"})

	rec := httptest.NewRecorder()
	newTestServer(nil).Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp previewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 15.00, resp.Items[0].SellPrice)
}

func TestPreviewRejectsBadMarkup(t *testing.T) {
	for _, markup := range []string{"abc", "-1", "501"} {
		req := uploadRequest(t, "/api/v1/imports/preview", "prices.csv",
			"Name,Price\nCable,10.00\n", map[string]string{"markup": markup})

		rec := httptest.NewRecorder()
		newTestServer(nil).Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "markup %q", markup)
	}
}

func TestPreviewRejectsUnsupportedExtension(t *testing.T) {
	req := uploadRequest(t, "/api/v1/imports/preview", "prices.pdf", "%PDF-1.4", nil)

	rec := httptest.NewRecorder()
	newTestServer(nil).Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file type")
}

func TestPreviewMissingFilePart(t *testing.T) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("markup", "30"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/preview", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	newTestServer(nil).Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewUnresolvableColumns(t *testing.T) {
	req := uploadRequest(t, "/api/v1/imports/preview", "prices.csv", "Name,Qty\nCable,3\n", nil)

	rec := httptest.NewRecorder()
	newTestServer(nil).Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp previewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "parsed-with-error", string(resp.State))
	assert.Contains(t, resp.Message, "name and price")
	assert.Equal(t, 0, resp.ItemCount)
}

func TestPreviewNoValidRows(t *testing.T) {
	req := uploadRequest(t, "/api/v1/imports/preview", "prices.csv",
		"Name,Price\n,9.99\nCable,N/A\n", nil)

	rec := httptest.NewRecorder()
	newTestServer(nil).Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp previewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.RejectCount)
	require.Len(t, resp.Rejections, 2)
	assert.Equal(t, "name", resp.Rejections[0].Field)
}

func TestImportSubmitsBatch(t *testing.T) {
	sub := &fakeSubmitter{}
	req := uploadRequest(t, "/api/v1/imports", "prices.csv",
		"Name,Price\nCable,45.00\n", nil)

	rec := httptest.NewRecorder()
	newTestServer(sub).Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp importResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "complete", string(resp.State))
	assert.Equal(t, 100, resp.Progress)
	assert.Equal(t, 1, resp.ItemCount)

	require.Len(t, sub.batches, 1)
	require.Len(t, sub.batches[0], 1)
	assert.Equal(t, 58.50, sub.batches[0][0].SellPrice)
	assert.Equal(t, "each", sub.batches[0][0].Unit)
}

func TestImportSubmissionFailure(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("price book API returned 503")}
	req := uploadRequest(t, "/api/v1/imports", "prices.csv",
		"Name,Price\nCable,45.00\n", nil)

	rec := httptest.NewRecorder()
	newTestServer(sub).Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "price book API returned 503")
}

func TestImportMalformedWorkbook(t *testing.T) {
	req := uploadRequest(t, "/api/v1/imports", "prices.xlsx", "this is not a zip archive", nil)

	rec := httptest.NewRecorder()
	newTestServer(&fakeSubmitter{}).Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
