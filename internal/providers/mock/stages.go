// ABOUTME: Mock pipeline stages for local testing and development.
// ABOUTME: Produce realistic scan results without an inference sidecar or API credential.

package mock

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vulnhunt/vulnhunt/internal/detector"
	"github.com/vulnhunt/vulnhunt/internal/types"
)

// Detector is a canned classifier keyed on code content.
type Detector struct {
	logger *logrus.Logger
}

// NewDetector creates a mock detector stage.
func NewDetector(logger *logrus.Logger) *Detector {
	return &Detector{logger: logger}
}

// Run labels the code by keyword. Empty input still yields a deterministic,
// low-confidence result.
func (d *Detector) Run(ctx context.Context, code string) (types.DetectionResult, types.StageStatus) {
	d.logger.WithField("component", "mock_detector").Debug("Classifying with mock detector")

	lower := strings.ToLower(code)
	switch {
	case strings.Contains(lower, "call.value") || strings.Contains(lower, ".call{value"):
		return types.DetectionResult{Label: "reentrancy", Confidence: 0.9731}, types.StageOK
	case strings.Contains(lower, "tx.origin"):
		return types.DetectionResult{Label: "access_control", Confidence: 0.9122}, types.StageOK
	case strings.Contains(lower, "block.timestamp") || strings.Contains(lower, "now"):
		return types.DetectionResult{Label: "time_manipulation", Confidence: 0.8417}, types.StageOK
	case strings.TrimSpace(code) == "":
		return types.DetectionResult{Label: "safe", Confidence: 0.5103}, types.StageOK
	default:
		return types.DetectionResult{Label: "safe", Confidence: 0.8845}, types.StageOK
	}
}

// Retriever serves canned knowledge-base matches.
type Retriever struct {
	logger *logrus.Logger
}

// NewRetriever creates a mock retrieval stage.
func NewRetriever(logger *logrus.Logger) *Retriever {
	return &Retriever{logger: logger}
}

// Run returns up to k canned matches when the code looks vulnerable, and an
// executed-but-empty result otherwise.
func (r *Retriever) Run(ctx context.Context, code string, k int) ([]types.RetrievalMatch, types.RetrievalSummary, types.StageStatus) {
	r.logger.WithField("component", "mock_retriever").Debug("Retrieving with mock knowledge base")

	lower := strings.ToLower(code)
	if !strings.Contains(lower, "call") && !strings.Contains(lower, "tx.origin") {
		return nil, types.RetrievalSummary{Found: true, Count: 0, Examples: []string{}}, types.StageOK
	}

	matches := []types.RetrievalMatch{
		{
			Entry: types.KBEntry{
				Filename: "dao_withdraw.sol",
				Label:    "reentrancy",
				Code:     "function withdraw(uint amount) public {\n    require(balances[msg.sender] >= amount);\n    msg.sender.call.value(amount)();\n    balances[msg.sender] -= amount;\n}",
			},
			Score: 0.914,
		},
		{
			Entry: types.KBEntry{
				Filename: "wallet_drain.sol",
				Label:    "reentrancy",
				Code:     "function claim() external {\n    (bool ok,) = msg.sender.call{value: owed[msg.sender]}(\"\");\n    require(ok);\n    owed[msg.sender] = 0;\n}",
			},
			Score: 0.871,
		},
		{
			Entry: types.KBEntry{
				Filename: "origin_auth.sol",
				Label:    "access_control",
				Code:     "modifier onlyOwner() {\n    require(tx.origin == owner);\n    _;\n}",
			},
			Score: 0.742,
		},
	}
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}

	examples := make([]string, 0, len(matches))
	for _, m := range matches {
		examples = append(examples, m.Entry.Filename)
	}

	return matches, types.RetrievalSummary{Found: true, Count: len(matches), Examples: examples}, types.StageOK
}

// Reasoner serves a canned reasoning payload.
type Reasoner struct {
	logger *logrus.Logger
}

// NewReasoner creates a mock reasoning stage.
func NewReasoner(logger *logrus.Logger) *Reasoner {
	return &Reasoner{logger: logger}
}

// Analyze reports a reentrancy finding with its fix when the detector saw
// one, and a clean verdict otherwise. It never fails.
func (m *Reasoner) Analyze(ctx context.Context, code string, detection types.DetectionResult, matches []types.RetrievalMatch) (*types.ReasonerPayload, error) {
	m.logger.WithField("component", "mock_reasoner").Debug("Reasoning with mock payload")

	if detection.Label != "reentrancy" && detection.Label != detector.SentinelLabel {
		return &types.ReasonerPayload{
			CorrectedVerdict: "No vulnerabilities found",
			FixStrategy:      "",
			VulnerableLines:  []types.RawFinding{},
			ChangesMade:      []types.FixEntry{},
		}, nil
	}

	return &types.ReasonerPayload{
		CorrectedVerdict: "Vulnerable: reentrancy",
		FixStrategy:      "Apply the checks-effects-interactions pattern: update balances before external calls.",
		VulnerableLines: []types.RawFinding{
			{
				VulnerabilityType: "reentrancy",
				Severity:          "High",
				LineNumber:        3,
				CodeSnippet:       "msg.sender.call.value(amount)();",
				Explanation:       "The external call happens before the balance update, so a malicious fallback can re-enter withdraw.",
				AttackScenario:    "An attacker contract calls withdraw and re-enters from its fallback until the contract is drained.",
			},
		},
		ChangesMade: []types.FixEntry{
			{
				LineNumber: 3,
				Original:   "msg.sender.call.value(amount)();",
				Fixed:      "balances[msg.sender] -= amount;\n(bool ok,) = msg.sender.call{value: amount}(\"\");\nrequire(ok);",
			},
		},
	}, nil
}
