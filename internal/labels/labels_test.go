// ABOUTME: Unit tests for label-encoder loading and index decoding.
// ABOUTME: Tests file parsing, range validation, and failure modes.

package labels

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLabels(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labels.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndInverseTransform(t *testing.T) {
	path := writeLabels(t, `["safe", "reentrancy", "integer_overflow"]`)

	encoder, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if encoder.NumClasses() != 3 {
		t.Errorf("NumClasses() = %d, want 3", encoder.NumClasses())
	}

	label, err := encoder.InverseTransform(1)
	if err != nil {
		t.Fatalf("InverseTransform() error = %v", err)
	}
	if label != "reentrancy" {
		t.Errorf("InverseTransform(1) = %q, want reentrancy", label)
	}
}

func TestInverseTransformOutOfRange(t *testing.T) {
	path := writeLabels(t, `["safe"]`)

	encoder, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	for _, index := range []int{-1, 1, 42} {
		if _, err := encoder.InverseTransform(index); err == nil {
			t.Errorf("InverseTransform(%d) expected error", index)
		}
	}
}

func TestLoadFailures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
			t.Error("Expected error for missing file")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := Load(writeLabels(t, "not json")); err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})

	t.Run("empty label set", func(t *testing.T) {
		if _, err := Load(writeLabels(t, "[]")); err == nil {
			t.Error("Expected error for empty label set")
		}
	})
}
