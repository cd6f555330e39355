// ABOUTME: Common types shared across the VulnHunt scan pipeline.
// ABOUTME: Defines data structures for detection, retrieval, findings, and the scan report.

package types

// ScanRequest carries the raw contract source code submitted for scanning.
type ScanRequest struct {
	Code string `json:"code"`
}

// DetectionResult is the classifier stage output. Label is "N/A" and
// Confidence 0.0 when the detector did not run or failed.
type DetectionResult struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"` // rounded to 4 decimals, in [0,1]
}

// RetrievalSummary describes the retrieval stage outcome for display.
// Found is true iff the stage executed, even when no matches came back.
type RetrievalSummary struct {
	Found    bool     `json:"found"`
	Count    int      `json:"count"`
	Examples []string `json:"examples"`
}

// KBEntry is one known-vulnerable example in the knowledge base.
type KBEntry struct {
	Filename  string    `json:"filename"`
	Label     string    `json:"label"`
	Code      string    `json:"code"`
	Embedding []float64 `json:"embedding"`
}

// RetrievalMatch pairs a knowledge-base entry with its similarity score.
type RetrievalMatch struct {
	Entry KBEntry `json:"entry"`
	Score float64 `json:"score"`
}

// VulnerabilityFinding is one reported vulnerability with its location,
// explanation, and remediation. Remediation starts as a placeholder and is
// overwritten when a fix entry matches one of its lines.
type VulnerabilityFinding struct {
	Name           string `json:"name"`
	Severity       string `json:"severity"` // Low, Medium, High, Critical
	Lines          []int  `json:"lines"`
	CodeSnippet    string `json:"code_snippet"`
	Explanation    string `json:"explanation"`
	AttackScenario string `json:"attack_scenario"`
	Remediation    string `json:"remediation"`
}

// FixEntry is a line-scoped corrected code fragment emitted by the
// reasoning service independently of findings.
type FixEntry struct {
	LineNumber int    `json:"line_number"`
	Original   string `json:"original,omitempty"`
	Fixed      string `json:"fixed"`
}

// RawFinding is a vulnerability item as the reasoning service reports it,
// before display normalization.
type RawFinding struct {
	VulnerabilityType string `json:"vulnerability_type"`
	Severity          string `json:"severity"`
	LineNumber        int    `json:"line_number"`
	CodeSnippet       string `json:"code_snippet"`
	Explanation       string `json:"explanation"`
	AttackScenario    string `json:"attack_scenario"`
}

// ReasonerPayload is the structured response of the reasoning service.
type ReasonerPayload struct {
	CorrectedVerdict string       `json:"corrected_verdict"`
	FixStrategy      string       `json:"fix_strategy"`
	VulnerableLines  []RawFinding `json:"vulnerable_lines"`
	ChangesMade      []FixEntry   `json:"changes_made"`
}

// PipelineStatus reports the per-stage outcomes included in every report.
type PipelineStatus struct {
	Detector DetectionResult  `json:"detector"`
	RAG      RetrievalSummary `json:"rag"`
}

// ScanReport is the sole return value of the pipeline.
type ScanReport struct {
	ScanID          string                 `json:"scan_id"`
	PipelineStatus  PipelineStatus         `json:"pipeline_status"`
	Vulnerabilities []VulnerabilityFinding `json:"vulnerabilities"`
	FixStrategy     string                 `json:"fix_strategy"`
	FinalVerdict    string                 `json:"final_verdict"`
	ExecutionTimeMS int64                  `json:"executionTime"`
}

// StageStatus is the typed outcome of a degradable pipeline stage.
type StageStatus int

const (
	// StageOK means the stage ran and produced a usable result.
	StageOK StageStatus = iota
	// StageUnavailable means the stage's backing resource was never loaded.
	StageUnavailable
	// StageFailed means the stage ran but errored; its sentinel result applies.
	StageFailed
)

func (s StageStatus) String() string {
	switch s {
	case StageOK:
		return "ok"
	case StageUnavailable:
		return "unavailable"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}
