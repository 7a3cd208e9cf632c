package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
	"github.com/wonny/demandprep/internal/pipeline"
	"github.com/wonny/demandprep/internal/s0_ingest"
	"github.com/wonny/demandprep/pkg/logger"
)

type fakeRunner struct {
	err      error
	mode     contracts.Mode
	path     string
	body     string
	products int
}

func (f *fakeRunner) LoadPath(_ context.Context, path string, req pipeline.Request) (*pipeline.Result, error) {
	f.mode = req.Mode
	f.path = path
	data, _ := os.ReadFile(path)
	f.body = string(data)
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.Result{Summary: contracts.RunSummary{RunID: "run-1", Mode: req.Mode, Rows: 3}}, nil
}

func (f *fakeRunner) Predict(_ context.Context, payload *s0_ingest.PredictionRequest, _ string) (*pipeline.Result, error) {
	f.products = len(payload.Products)
	if f.err != nil {
		return nil, f.err
	}
	ds := dataset.New("product_id", "date", "quantity_lag_1")
	ds.Records = append(ds.Records, &dataset.Record{})
	ds.Records[0].Set("product_id", "dog_food")
	ds.Records[0].Set("date", "2024-02-01")
	ds.Records[0].Set("quantity_lag_1", "6")
	return &pipeline.Result{Summary: contracts.RunSummary{RunID: "run-2", Mode: contracts.ModePrediction, Rows: 1}, Dataset: ds}, nil
}

func newHandler(t *testing.T, runner Runner) (*PreprocessHandler, string) {
	t.Helper()
	dir := t.TempDir()
	return NewPreprocessHandler(runner, dir, 1<<20, logger.Nop()), dir
}

func uploadRequest(t *testing.T, file, metadata string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if file != "" {
		fw, err := mw.CreateFormFile("file", "sales.csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(file))
		require.NoError(t, err)
	}
	if metadata != "" {
		require.NoError(t, mw.WriteField("metadata", metadata))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/export-sales-data", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const csvBody = "product_id,product_name,category,date,quantity\n1,Dog Food,Pet Food,2024-01-01,3\n"

func TestExportSalesData(t *testing.T) {
	runner := &fakeRunner{}
	h, dir := newHandler(t, runner)

	rec := httptest.NewRecorder()
	h.ExportSalesData(rec, uploadRequest(t, csvBody, `{"type": "historical", "format": "daily"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Success, data processed", body["status"])
	assert.Equal(t, "run-1", body["run"].(map[string]interface{})["run_id"])

	assert.Equal(t, contracts.ModeDaily, runner.mode)
	assert.Equal(t, csvBody, runner.body)
	assert.True(t, strings.HasPrefix(runner.path, dir))

	// upload removed after the run
	_, err := os.Stat(runner.path)
	assert.True(t, os.IsNotExist(err))
}

func TestExportSalesDataNonHistorical(t *testing.T) {
	runner := &fakeRunner{}
	h, _ := newHandler(t, runner)

	rec := httptest.NewRecorder()
	h.ExportSalesData(rec, uploadRequest(t, csvBody, `{"type": "forecast", "format": "weekly"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Warning, no data processed, use data type historical", decode(t, rec)["status"])
	assert.Empty(t, runner.path)
}

func TestExportSalesDataBadRequests(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		metadata string
		message  string
	}{
		{"no file", "", `{"type": "historical", "format": "weekly"}`, "No file uploaded"},
		{"no metadata", csvBody, "", "No metadata provided"},
		{"broken metadata", csvBody, `{"type":`, "Invalid metadata format, must be valid JSON"},
		{"unknown format", csvBody, `{"type": "historical", "format": "monthly"}`, "Invalid metadata format, must be weekly or daily"},
		{"prediction format", csvBody, `{"type": "historical", "format": "prediction"}`, "Invalid metadata format, must be weekly or daily"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			h, _ := newHandler(t, runner)

			rec := httptest.NewRecorder()
			h.ExportSalesData(rec, uploadRequest(t, tt.file, tt.metadata))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decode(t, rec)["error"])
			assert.Empty(t, runner.path)
		})
	}
}

func TestExportSalesDataErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"schema", fmt.Errorf("S1 failed: %w", &contracts.SchemaError{Stage: "S1_CLEAN", Missing: []string{"date"}}), http.StatusUnprocessableEntity},
		{"empty", fmt.Errorf("S0 failed: %w", contracts.ErrEmptyDataset), http.StatusUnprocessableEntity},
		{"busy", contracts.ErrRunInProgress, http.StatusConflict},
		{"mapping locked", fmt.Errorf("S2 failed: lock mapping category: %w", contracts.ErrLockHeld), http.StatusConflict},
		{"io", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newHandler(t, &fakeRunner{err: tt.err})

			rec := httptest.NewRecorder()
			h.ExportSalesData(rec, uploadRequest(t, csvBody, `{"type": "historical", "format": "weekly"}`))

			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, decode(t, rec)["error"], tt.err.Error())
		})
	}
}

func TestPreparePrediction(t *testing.T) {
	runner := &fakeRunner{}
	h, _ := newHandler(t, runner)

	payload := `{"prediction_dates": ["2024-02-01"], "products": [{"details": {"product_name": "Dog Food"}}]}`
	rec := httptest.NewRecorder()
	h.PreparePrediction(rec, httptest.NewRequest(http.MethodPost, "/api/prepare-prediction", strings.NewReader(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PredictionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, runner.products)
	assert.Equal(t, []string{"product_id", "date", "quantity_lag_1"}, resp.Columns)
	assert.Equal(t, [][]string{{"dog_food", "2024-02-01", "6"}}, resp.Rows)
	assert.Equal(t, "run-2", resp.Run.RunID)
}

func TestPreparePredictionAcceptsStorefrontPayload(t *testing.T) {
	runner := &fakeRunner{}
	h, _ := newHandler(t, runner)

	payload := `{
		"prediction_dates": ["2024-02-01"],
		"products": [
			{"details": {"source_product_id": "A", "product_name": "Product A", "category": "cat1", "per_item_value": 1.5, "in_stock": 3},
			 "historical_sales": [{"date": "2024-01-31", "quantity": 2}]},
			{"details": {"source_product_id": "B", "product_name": "Product B", "category": "cat2", "per_item_value": 2.0, "in_stock": 0},
			 "historical_sales": []}
		]
	}`
	rec := httptest.NewRecorder()
	h.PreparePrediction(rec, httptest.NewRequest(http.MethodPost, "/api/prepare-prediction", strings.NewReader(payload)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, runner.products)
}

func TestPreparePredictionRejectsMalformedJSON(t *testing.T) {
	runner := &fakeRunner{}
	h, _ := newHandler(t, runner)

	rec := httptest.NewRecorder()
	h.PreparePrediction(rec, httptest.NewRequest(http.MethodPost, "/api/prepare-prediction", strings.NewReader(`{"prediction_dates": [`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, runner.products)
}
