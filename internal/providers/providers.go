// ABOUTME: Stage factory wiring registry resources or mock collaborators into the pipeline.
// ABOUTME: Centralizes the choice between real and mock stage implementations.

package providers

import (
	"github.com/sirupsen/logrus"

	"github.com/vulnhunt/vulnhunt/internal/config"
	"github.com/vulnhunt/vulnhunt/internal/detector"
	"github.com/vulnhunt/vulnhunt/internal/pipeline"
	"github.com/vulnhunt/vulnhunt/internal/providers/mock"
	"github.com/vulnhunt/vulnhunt/internal/reasoner"
	"github.com/vulnhunt/vulnhunt/internal/registry"
	"github.com/vulnhunt/vulnhunt/internal/retriever"
)

// CreateStages builds the three pipeline stages from the registry's loaded
// resources. A resource the registry could not load yields a stage with nil
// handles, which degrades per its own policy.
func CreateStages(cfg *config.Config, reg *registry.Registry, logger *logrus.Logger) (pipeline.DetectorStage, pipeline.RetrieverStage, pipeline.ReasonerStage) {
	var cls detector.Classifier
	var dec detector.LabelDecoder
	if reg.DetectorReady() {
		cls = reg.InferenceClient()
		dec = reg.LabelEncoder()
	}
	det := detector.New(cls, dec, cfg.Inference.MaxTokens, logger)

	var emb retriever.Embedder
	var src retriever.EntrySource
	if reg.RetrieverReady() {
		emb = reg.InferenceClient()
		src = reg.KBStore()
	}
	ret := retriever.New(emb, src, reg.EmbeddingCache(), logger)

	rsn := reasoner.NewClient(reasoner.Config{
		BaseURL: cfg.Reasoner.BaseURL,
		Model:   cfg.Reasoner.Model,
		APIKey:  cfg.Reasoner.APIKey,
		Timeout: cfg.Reasoner.Timeout(),
	})

	return det, ret, rsn
}

// CreateMockStages builds canned stage implementations for local testing
// without an inference sidecar or reasoning-service credential.
func CreateMockStages(logger *logrus.Logger) (pipeline.DetectorStage, pipeline.RetrieverStage, pipeline.ReasonerStage) {
	logger.Info("Using mock pipeline stages for testing")
	return mock.NewDetector(logger), mock.NewRetriever(logger), mock.NewReasoner(logger)
}
