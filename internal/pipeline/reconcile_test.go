// ABOUTME: Tests for finding/fix reconciliation and display normalization.
// ABOUTME: Covers placeholder retention, last-match-wins merging, and idempotence.

package pipeline

import (
	"reflect"
	"testing"

	"github.com/vulnhunt/vulnhunt/internal/types"
)

func TestReconcilePlaceholderWithoutFix(t *testing.T) {
	payload := &types.ReasonerPayload{
		VulnerableLines: []types.RawFinding{
			{VulnerabilityType: "integer_overflow", Severity: "Medium", LineNumber: 12},
		},
		ChangesMade: []types.FixEntry{
			{LineNumber: 99, Fixed: "unrelated"},
		},
	}

	findings := Reconcile(payload)

	if len(findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d", len(findings))
	}
	if findings[0].Remediation != RemediationPlaceholder {
		t.Errorf("Expected placeholder remediation, got %q", findings[0].Remediation)
	}
	if findings[0].Name != "Integer Overflow" {
		t.Errorf("Expected normalized name, got %q", findings[0].Name)
	}
	if !reflect.DeepEqual(findings[0].Lines, []int{12}) {
		t.Errorf("Expected lines [12], got %v", findings[0].Lines)
	}
}

func TestMergeFixesLastMatchWins(t *testing.T) {
	findings := []types.VulnerabilityFinding{
		{Name: "Reentrancy", Lines: []int{7}, Remediation: RemediationPlaceholder},
	}
	fixes := []types.FixEntry{
		{LineNumber: 7, Fixed: "first fix"},
		{LineNumber: 7, Fixed: "second fix"},
	}

	MergeFixes(findings, fixes)

	if findings[0].Remediation != "second fix" {
		t.Errorf("Expected later fix to win, got %q", findings[0].Remediation)
	}
}

func TestMergeFixesIdempotent(t *testing.T) {
	findings := []types.VulnerabilityFinding{
		{Name: "Reentrancy", Lines: []int{3}, Remediation: RemediationPlaceholder},
		{Name: "Unchecked Call", Lines: []int{9}, Remediation: RemediationPlaceholder},
	}
	fixes := []types.FixEntry{
		{LineNumber: 3, Fixed: "checked transfer"},
	}

	MergeFixes(findings, fixes)
	first := make([]types.VulnerabilityFinding, len(findings))
	copy(first, findings)

	MergeFixes(findings, fixes)

	if !reflect.DeepEqual(first, findings) {
		t.Errorf("Second merge changed the result: %+v vs %+v", first, findings)
	}
}

func TestMergeFixesEmptyFixedKeepsCurrent(t *testing.T) {
	findings := []types.VulnerabilityFinding{
		{Name: "Reentrancy", Lines: []int{3}, Remediation: RemediationPlaceholder},
	}
	fixes := []types.FixEntry{
		{LineNumber: 3, Fixed: ""},
	}

	MergeFixes(findings, fixes)

	if findings[0].Remediation != RemediationPlaceholder {
		t.Errorf("Empty fix must not overwrite remediation, got %q", findings[0].Remediation)
	}
}

func TestMergeFixesMultipleFindings(t *testing.T) {
	findings := []types.VulnerabilityFinding{
		{Name: "A", Lines: []int{1}, Remediation: RemediationPlaceholder},
		{Name: "B", Lines: []int{2}, Remediation: RemediationPlaceholder},
		{Name: "C", Lines: []int{3}, Remediation: RemediationPlaceholder},
	}
	fixes := []types.FixEntry{
		{LineNumber: 2, Fixed: "fix two"},
		{LineNumber: 3, Fixed: "fix three"},
	}

	MergeFixes(findings, fixes)

	if findings[0].Remediation != RemediationPlaceholder {
		t.Errorf("Finding A should keep placeholder, got %q", findings[0].Remediation)
	}
	if findings[1].Remediation != "fix two" || findings[2].Remediation != "fix three" {
		t.Errorf("Fixes not routed by line: %q, %q", findings[1].Remediation, findings[2].Remediation)
	}
}

func TestReconcileNoFindings(t *testing.T) {
	findings := Reconcile(&types.ReasonerPayload{})

	if findings == nil {
		t.Fatal("Expected non-nil slice for JSON encoding")
	}
	if len(findings) != 0 {
		t.Errorf("Expected 0 findings, got %d", len(findings))
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"reentrancy", "Reentrancy"},
		{"integer_overflow", "Integer Overflow"},
		{"UNCHECKED_low_level_CALL", "Unchecked Low Level Call"},
		{"Unknown", "Unknown"},
	}

	for _, tt := range tests {
		if got := DisplayName(tt.in); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
