// ABOUTME: Unit tests for resource registry initialization.
// ABOUTME: Tests independent resource construction and readiness flags.

package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/vulnhunt/vulnhunt/internal/config"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func testConfig(t *testing.T, withLabels, withKB bool) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	// Unroutable endpoint so the availability probe fails fast.
	cfg.Inference.Endpoint = "http://127.0.0.1:1"
	cfg.Inference.TimeoutSeconds = 1
	cfg.Inference.LabelsPath = filepath.Join(dir, "labels.json")
	cfg.Retrieval.KBPath = filepath.Join(dir, "kb.json")

	if withLabels {
		if err := os.WriteFile(cfg.Inference.LabelsPath, []byte(`["safe","reentrancy"]`), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if withKB {
		kb := `[{"filename":"dao.sol","label":"reentrancy","code":"x","embedding":[0.1]}]`
		if err := os.WriteFile(cfg.Retrieval.KBPath, []byte(kb), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return cfg
}

func TestInitializeAllResources(t *testing.T) {
	reg := New(testConfig(t, true, true), testLogger())
	reg.Initialize(context.Background())

	if !reg.DetectorReady() {
		t.Error("Detector should be ready with labels present")
	}
	if !reg.RetrieverReady() {
		t.Error("Retriever should be ready with knowledge base present")
	}
	if reg.InferenceClient() == nil {
		t.Error("Inference client should always be constructed")
	}
	if reg.LabelEncoder() == nil || reg.LabelEncoder().NumClasses() != 2 {
		t.Error("Label encoder not loaded")
	}
	if reg.KBStore() == nil || reg.KBStore().Len() != 1 {
		t.Error("Knowledge base not loaded")
	}
	if reg.EmbeddingCache() == nil {
		t.Error("Embedding cache should accompany the retriever")
	}
}

func TestInitializeFailuresAreIndependent(t *testing.T) {
	tests := []struct {
		name          string
		withLabels    bool
		withKB        bool
		wantDetector  bool
		wantRetriever bool
	}{
		{name: "labels missing", withLabels: false, withKB: true, wantDetector: false, wantRetriever: true},
		{name: "knowledge base missing", withLabels: true, withKB: false, wantDetector: true, wantRetriever: false},
		{name: "both missing", withLabels: false, withKB: false, wantDetector: false, wantRetriever: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := New(testConfig(t, tt.withLabels, tt.withKB), testLogger())

			// Initialize must not panic or error out regardless of what loads.
			reg.Initialize(context.Background())

			if reg.DetectorReady() != tt.wantDetector {
				t.Errorf("DetectorReady() = %v, want %v", reg.DetectorReady(), tt.wantDetector)
			}
			if reg.RetrieverReady() != tt.wantRetriever {
				t.Errorf("RetrieverReady() = %v, want %v", reg.RetrieverReady(), tt.wantRetriever)
			}
		})
	}
}
