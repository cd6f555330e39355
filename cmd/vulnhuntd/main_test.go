// ABOUTME: Tests for service assembly and the HTTP middleware.
// ABOUTME: Covers mock-mode wiring, the health endpoint, and CORS/preflight handling.

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/vulnhunt/vulnhunt/internal/config"
	"github.com/vulnhunt/vulnhunt/internal/server"
	"github.com/vulnhunt/vulnhunt/internal/types"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestNewServiceMockMode(t *testing.T) {
	service, err := NewService(config.Default(), true, testLogger())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if service.pipeline == nil {
		t.Fatal("Service has no pipeline")
	}
	if service.watcher != nil {
		t.Error("Mock mode must not start a knowledge-base watcher")
	}
}

func TestMockModeScanEndToEnd(t *testing.T) {
	service, err := NewService(config.Default(), true, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	handler := service.corsMiddleware(server.CreateScanHandler(service.pipeline, service.metrics, service.logger))

	body := `{"code":"function withdraw(uint amount) public { msg.sender.call.value(amount)(); balances[msg.sender] -= amount; }"}`
	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report types.ScanReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("Response not decodable: %v", err)
	}
	if report.PipelineStatus.Detector.Label != "reentrancy" {
		t.Errorf("Unexpected detector label %q", report.PipelineStatus.Detector.Label)
	}
	if len(report.Vulnerabilities) != 1 {
		t.Fatalf("Expected 1 vulnerability, got %d", len(report.Vulnerabilities))
	}
	if report.Vulnerabilities[0].Remediation == "See fix below" {
		t.Error("Mock fix entry was not merged into the finding")
	}
}

func TestCorsMiddleware(t *testing.T) {
	service, err := NewService(config.Default(), true, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	called := false
	handler := service.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/scan", nil)
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("Expected 204 for preflight, got %d", rec.Code)
		}
		if called {
			t.Error("Preflight must not reach the handler")
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("Missing CORS origin header")
		}
	})

	t.Run("passthrough with headers", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodPost, "/api/scan", nil)
		rec := httptest.NewRecorder()

		handler(rec, req)

		if !called {
			t.Error("Handler not invoked")
		}
		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Error("Missing security headers")
		}
	})
}

func TestHealthHandler(t *testing.T) {
	service, err := NewService(config.Default(), true, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	service.healthHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("Unexpected health body %q", rec.Body.String())
	}
}
