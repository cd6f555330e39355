// ABOUTME: Scan pipeline orchestrator sequencing the detector, retriever, and reasoner stages.
// ABOUTME: Isolates detector/retriever failures and assembles the unified scan report.

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vulnhunt/vulnhunt/internal/retriever"
	"github.com/vulnhunt/vulnhunt/internal/types"
)

// DetectorStage classifies code or degrades to the sentinel result.
type DetectorStage interface {
	Run(ctx context.Context, code string) (types.DetectionResult, types.StageStatus)
}

// RetrieverStage fetches the top-k most similar known examples or degrades
// to the empty summary.
type RetrieverStage interface {
	Run(ctx context.Context, code string, k int) ([]types.RetrievalMatch, types.RetrievalSummary, types.StageStatus)
}

// ReasonerStage produces the authoritative findings payload. Its errors are
// fatal for the scan.
type ReasonerStage interface {
	Analyze(ctx context.Context, code string, detection types.DetectionResult, matches []types.RetrievalMatch) (*types.ReasonerPayload, error)
}

// Pipeline sequences the three stages for one scan request.
type Pipeline struct {
	detector  DetectorStage
	retriever RetrieverStage
	reasoner  ReasonerStage
	topK      int
	logger    *logrus.Logger
}

// New creates a pipeline. topK <= 0 selects the retriever default.
func New(det DetectorStage, ret RetrieverStage, rsn ReasonerStage, topK int, logger *logrus.Logger) *Pipeline {
	if topK <= 0 {
		topK = retriever.DefaultTopK
	}
	return &Pipeline{
		detector:  det,
		retriever: ret,
		reasoner:  rsn,
		topK:      topK,
		logger:    logger,
	}
}

// Scan runs one request through the full pipeline. Detector and retriever
// failures degrade to their sentinel results; reasoner failures abort the
// scan and no partial report is returned.
func (p *Pipeline) Scan(ctx context.Context, code string) (*types.ScanReport, error) {
	startTime := time.Now()
	scanID := uuid.NewString()
	logger := p.logger.WithFields(logrus.Fields{
		"component": "pipeline",
		"scan_id":   scanID,
	})

	logger.WithField("code_bytes", len(code)).Info("Starting scan")

	detection, detStatus := p.detector.Run(ctx, code)
	if detStatus != types.StageOK {
		logger.WithField("status", detStatus.String()).Warn("Detector stage degraded")
	}

	matches, ragSummary, ragStatus := p.retriever.Run(ctx, code, p.topK)
	if ragStatus != types.StageOK {
		logger.WithField("status", ragStatus.String()).Warn("Retrieval stage degraded")
	}

	payload, err := p.reasoner.Analyze(ctx, code, detection, matches)
	if err != nil {
		logger.WithError(err).Error("Reasoning stage failed")
		return nil, fmt.Errorf("scan %s: %w", scanID, err)
	}

	report := &types.ScanReport{
		ScanID: scanID,
		PipelineStatus: types.PipelineStatus{
			Detector: detection,
			RAG:      ragSummary,
		},
		Vulnerabilities: Reconcile(payload),
		FixStrategy:     payload.FixStrategy,
		FinalVerdict:    payload.CorrectedVerdict,
		ExecutionTimeMS: time.Since(startTime).Milliseconds(),
	}

	logger.WithFields(logrus.Fields{
		"verdict":         report.FinalVerdict,
		"vulnerabilities": len(report.Vulnerabilities),
		"duration_ms":     report.ExecutionTimeMS,
	}).Info("Scan completed")

	return report, nil
}
