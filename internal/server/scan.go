// ABOUTME: HTTP handler for the contract scan endpoint.
// ABOUTME: Decodes scan requests, runs the pipeline, and shapes success and error responses.

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vulnhunt/vulnhunt/internal/metrics"
	"github.com/vulnhunt/vulnhunt/internal/types"
)

// Scanner runs one scan request through the pipeline.
type Scanner interface {
	Scan(ctx context.Context, code string) (*types.ScanReport, error)
}

// ScanHandler serves POST /api/scan.
type ScanHandler struct {
	pipeline Scanner
	metrics  *metrics.Metrics
	logger   *logrus.Logger
}

// ErrorResponse is the scan-level error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewScanHandler creates the scan endpoint handler. metrics may be nil.
func NewScanHandler(pipeline Scanner, m *metrics.Metrics, logger *logrus.Logger) *ScanHandler {
	return &ScanHandler{
		pipeline: pipeline,
		metrics:  m,
		logger:   logger,
	}
}

func (h *ScanHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.WithField("endpoint", "/api/scan")

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// A malformed or empty body is treated as an empty-code request; the
	// pipeline stays defined for empty input.
	var req types.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WithError(err).Debug("Request body not decodable, scanning empty input")
		req.Code = ""
	}

	startTime := time.Now()
	report, err := h.pipeline.Scan(r.Context(), req.Code)
	duration := time.Since(startTime).Seconds()

	w.Header().Set("Content-Type", "application/json")

	if err != nil {
		logger.WithError(err).Error("Scan failed")
		if h.metrics != nil {
			h.metrics.ObserveScan("error", duration)
		}
		w.WriteHeader(http.StatusInternalServerError)
		if encErr := json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()}); encErr != nil {
			logger.WithError(encErr).Error("Failed to encode error response")
		}
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveScan("success", duration)
		for _, finding := range report.Vulnerabilities {
			h.metrics.ObserveFinding(finding.Severity)
		}
	}

	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.WithError(err).Error("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.WithFields(logrus.Fields{
		"scan_id":         report.ScanID,
		"verdict":         report.FinalVerdict,
		"vulnerabilities": len(report.Vulnerabilities),
	}).Info("Served scan response")
}

// CreateScanHandler creates a standard HTTP handler func.
func CreateScanHandler(pipeline Scanner, m *metrics.Metrics, logger *logrus.Logger) http.HandlerFunc {
	handler := NewScanHandler(pipeline, m, logger)
	return handler.ServeHTTP
}
