// ABOUTME: Reconciliation of reasoner findings with their line-scoped fix entries.
// ABOUTME: Normalizes display names and merges fixes by exact line-number match, last match wins.

package pipeline

import (
	"strings"
	"unicode"

	"github.com/vulnhunt/vulnhunt/internal/types"
)

// RemediationPlaceholder is the remediation reported for findings with no
// matching fix entry.
const RemediationPlaceholder = "See fix below"

// Reconcile turns the raw reasoner payload into display findings and merges
// the fix entries into them.
func Reconcile(payload *types.ReasonerPayload) []types.VulnerabilityFinding {
	findings := make([]types.VulnerabilityFinding, 0, len(payload.VulnerableLines))
	for _, raw := range payload.VulnerableLines {
		findings = append(findings, types.VulnerabilityFinding{
			Name:           DisplayName(raw.VulnerabilityType),
			Severity:       raw.Severity,
			Lines:          []int{raw.LineNumber},
			CodeSnippet:    raw.CodeSnippet,
			Explanation:    raw.Explanation,
			AttackScenario: raw.AttackScenario,
			Remediation:    RemediationPlaceholder,
		})
	}

	MergeFixes(findings, payload.ChangesMade)
	return findings
}

// MergeFixes overwrites each finding's remediation with the corrected code
// of every fix entry whose line number appears among the finding's lines.
// Iteration order makes the last matching fix win; the pass is idempotent.
func MergeFixes(findings []types.VulnerabilityFinding, fixes []types.FixEntry) {
	for i := range findings {
		for _, fix := range fixes {
			if containsLine(findings[i].Lines, fix.LineNumber) && fix.Fixed != "" {
				findings[i].Remediation = fix.Fixed
			}
		}
	}
}

func containsLine(lines []int, line int) bool {
	for _, l := range lines {
		if l == line {
			return true
		}
	}
	return false
}

// DisplayName normalizes a reasoner vulnerability type for display:
// underscores become spaces and each word is title-cased.
func DisplayName(vulnType string) string {
	words := strings.Fields(strings.ReplaceAll(vulnType, "_", " "))
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
