package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/pipeline"
	"github.com/wonny/demandprep/internal/s0_ingest"
	"github.com/wonny/demandprep/pkg/logger"
)

// Runner is the part of the orchestrator the API needs
type Runner interface {
	LoadPath(ctx context.Context, path string, req pipeline.Request) (*pipeline.Result, error)
	Predict(ctx context.Context, payload *s0_ingest.PredictionRequest, outputPath string) (*pipeline.Result, error)
}

// PreprocessHandler exposes the preprocessing pipeline over HTTP
// ⭐ SSOT: 업로드/예측 API 핸들러는 이 구조체에서만
type PreprocessHandler struct {
	runner        Runner
	uploadDir     string
	maxUploadSize int64
	logger        *logger.Logger
}

// NewPreprocessHandler creates a new handler
func NewPreprocessHandler(runner Runner, uploadDir string, maxUploadSize int64, log *logger.Logger) *PreprocessHandler {
	return &PreprocessHandler{
		runner:        runner,
		uploadDir:     uploadDir,
		maxUploadSize: maxUploadSize,
		logger:        log,
	}
}

// ExportMetadata is the JSON "metadata" form field of an upload
type ExportMetadata struct {
	Type   string `json:"type"`   // "historical"
	Format string `json:"format"` // "weekly" | "daily"
}

// ExportResponse is returned by ExportSalesData
type ExportResponse struct {
	Status string                `json:"status"`
	Run    *contracts.RunSummary `json:"run,omitempty"`
}

// ExportSalesData runs the historical pipeline on an uploaded CSV
// POST /api/export-sales-data (multipart: file, metadata)
func (h *PreprocessHandler) ExportSalesData(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()
	if header.Filename == "" {
		respondError(w, http.StatusBadRequest, "No selected file")
		return
	}

	raw := r.FormValue("metadata")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "No metadata provided")
		return
	}
	var meta ExportMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid metadata format, must be valid JSON")
		return
	}

	if meta.Type != "historical" {
		respondJSON(w, http.StatusOK, ExportResponse{Status: "Warning, no data processed, use data type historical"})
		return
	}
	mode, err := contracts.ParseMode(meta.Format)
	if err != nil || mode == contracts.ModePrediction {
		respondError(w, http.StatusBadRequest, "Invalid metadata format, must be weekly or daily")
		return
	}

	path, err := h.saveUpload(file, header.Filename)
	if err != nil {
		h.logger.WithError(err).Error("Failed to store upload")
		respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	defer os.Remove(path)

	res, err := h.runner.LoadPath(r.Context(), path, pipeline.Request{Mode: mode})
	if err != nil {
		h.fail(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ExportResponse{Status: "Success, data processed", Run: &res.Summary})
}

// PredictionResponse carries prediction-ready features
type PredictionResponse struct {
	Status  string               `json:"status"`
	Run     contracts.RunSummary `json:"run"`
	Columns []string             `json:"columns"`
	Rows    [][]string           `json:"rows"`
}

// PreparePrediction builds model features for the requested prediction dates
// POST /api/prepare-prediction (JSON body)
func (h *PreprocessHandler) PreparePrediction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	payload, err := s0_ingest.DecodePrediction(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.runner.Predict(r.Context(), payload, "")
	if err != nil {
		h.fail(w, err)
		return
	}

	resp := PredictionResponse{
		Status:  "Success, data processed",
		Run:     res.Summary,
		Columns: res.Dataset.Columns,
		Rows:    make([][]string, 0, res.Dataset.Len()),
	}
	for _, rec := range res.Dataset.Records {
		row := make([]string, len(res.Dataset.Columns))
		for i, col := range res.Dataset.Columns {
			row[i] = rec.Cell(col)
		}
		resp.Rows = append(resp.Rows, row)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *PreprocessHandler) saveUpload(src io.Reader, name string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(h.uploadDir, fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(name)))

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", err
	}
	return path, dst.Close()
}

// fail maps pipeline errors onto status codes
func (h *PreprocessHandler) fail(w http.ResponseWriter, err error) {
	var schemaErr *contracts.SchemaError
	var validationErr *contracts.ValidationError

	switch {
	case errors.Is(err, contracts.ErrRunInProgress), errors.Is(err, contracts.ErrLockHeld):
		respondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &schemaErr), errors.As(err, &validationErr), errors.Is(err, contracts.ErrEmptyDataset):
		respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Error processing data: %v", err))
	default:
		h.logger.WithError(err).Error("Pipeline run failed")
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing data: %v", err))
	}
}
