// ABOUTME: Detector stage running the CodeBERT classifier over submitted contract code.
// ABOUTME: Degrades to a sentinel N/A result whenever the classifier is unavailable or errors.

package detector

import (
	"context"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vulnhunt/vulnhunt/internal/types"
)

// SentinelLabel is reported when the detector did not run or failed.
const SentinelLabel = "N/A"

// DefaultMaxTokens matches the classifier's fixed input length.
const DefaultMaxTokens = 512

// Classifier returns raw class logits for a piece of text.
type Classifier interface {
	Predict(ctx context.Context, text string) ([]float64, error)
}

// LabelDecoder maps class indices back to label names.
type LabelDecoder interface {
	InverseTransform(index int) (string, error)
	NumClasses() int
}

// Detector runs the classification stage. Either handle may be nil when the
// resource registry could not load it; Run then reports unavailable.
type Detector struct {
	classifier Classifier
	labels     LabelDecoder
	maxTokens  int
	logger     *logrus.Logger
}

// New creates a detector. maxTokens <= 0 selects DefaultMaxTokens.
func New(classifier Classifier, labels LabelDecoder, maxTokens int, logger *logrus.Logger) *Detector {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Detector{
		classifier: classifier,
		labels:     labels,
		maxTokens:  maxTokens,
		logger:     logger,
	}
}

// Sentinel returns the result reported when the stage did not produce a
// prediction.
func Sentinel() types.DetectionResult {
	return types.DetectionResult{Label: SentinelLabel, Confidence: 0.0}
}

// Run classifies the code. It never returns an error: unavailable or failed
// runs degrade to the sentinel result and the pipeline continues.
func (d *Detector) Run(ctx context.Context, code string) (types.DetectionResult, types.StageStatus) {
	if d.classifier == nil || d.labels == nil {
		return Sentinel(), types.StageUnavailable
	}

	logger := d.logger.WithField("component", "detector")

	logits, err := d.classifier.Predict(ctx, Truncate(code, d.maxTokens))
	if err != nil {
		logger.WithError(err).Error("Classifier inference failed")
		return Sentinel(), types.StageFailed
	}

	probs := softmax(logits)
	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}

	label, err := d.labels.InverseTransform(best)
	if err != nil {
		logger.WithError(err).Error("Label decoding failed")
		return Sentinel(), types.StageFailed
	}

	result := types.DetectionResult{
		Label:      label,
		Confidence: Round4(probs[best]),
	}

	logger.WithFields(logrus.Fields{
		"label":      result.Label,
		"confidence": result.Confidence,
	}).Debug("Detection completed")

	return result, types.StageOK
}

// Truncate limits text to at most maxTokens whitespace-delimited tokens,
// approximating the tokenizer-side truncation the model applies.
func Truncate(text string, maxTokens int) string {
	fields := strings.Fields(text)
	if len(fields) <= maxTokens {
		return text
	}
	return strings.Join(fields[:maxTokens], " ")
}

// Round4 rounds a probability to 4 decimal digits for display stability.
func Round4(p float64) float64 {
	return math.Round(p*10000) / 10000
}

// softmax converts logits to probabilities, shifted by the max logit so
// large values do not overflow.
func softmax(logits []float64) []float64 {
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		probs[i] = math.Exp(l - maxLogit)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
