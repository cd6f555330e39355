// ABOUTME: Process-wide resource registry for the classifier, label encoder, and knowledge base.
// ABOUTME: Initializes each resource independently and exposes readiness flags to the stages.

package registry

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/vulnhunt/vulnhunt/internal/cache"
	"github.com/vulnhunt/vulnhunt/internal/config"
	"github.com/vulnhunt/vulnhunt/internal/inference"
	"github.com/vulnhunt/vulnhunt/internal/kb"
	"github.com/vulnhunt/vulnhunt/internal/labels"
)

// Registry holds the write-once-at-startup handles shared by all scans.
// Handles are nil when their resource failed to load; the owning stage then
// degrades instead of erroring.
type Registry struct {
	config *config.Config
	logger *logrus.Logger

	inferenceClient *inference.Client
	labelEncoder    *labels.Encoder
	kbStore         *kb.Store
	embeddingCache  *cache.EmbeddingCache

	detectorReady  bool
	retrieverReady bool
}

// New creates an uninitialized registry.
func New(cfg *config.Config, logger *logrus.Logger) *Registry {
	return &Registry{
		config: cfg,
		logger: logger,
	}
}

// Initialize constructs each resource independently. A resource that fails
// to load is logged and left nil; the error never propagates past this
// boundary.
func (r *Registry) Initialize(ctx context.Context) {
	logger := r.logger.WithField("component", "registry")

	r.inferenceClient = inference.NewClient(inference.Config{
		Endpoint: r.config.Inference.Endpoint,
		Timeout:  r.config.Inference.Timeout(),
	})
	if r.inferenceClient.IsAvailable(ctx) {
		logger.WithField("endpoint", r.config.Inference.Endpoint).Info("Inference sidecar reachable")
	} else {
		logger.WithField("endpoint", r.config.Inference.Endpoint).Warn("Inference sidecar not reachable; stages will degrade per call")
	}

	encoder, err := labels.Load(r.config.Inference.LabelsPath)
	if err != nil {
		logger.WithError(err).Warn("Label encoder unavailable; detector stage disabled")
	} else {
		r.labelEncoder = encoder
		r.detectorReady = true
		logger.WithField("classes", encoder.NumClasses()).Info("Label encoder loaded")
	}

	store, err := kb.NewStore(r.config.Retrieval.KBPath, r.logger)
	if err != nil {
		logger.WithError(err).Warn("Knowledge base unavailable; retrieval stage disabled")
	} else {
		r.kbStore = store
		r.embeddingCache = cache.NewEmbeddingCache(r.logger)
		r.retrieverReady = true
	}
}

// DetectorReady reports whether the classifier resources are loaded.
func (r *Registry) DetectorReady() bool {
	return r.detectorReady
}

// RetrieverReady reports whether the knowledge base is loaded.
func (r *Registry) RetrieverReady() bool {
	return r.retrieverReady
}

// InferenceClient returns the shared inference client.
func (r *Registry) InferenceClient() *inference.Client {
	return r.inferenceClient
}

// LabelEncoder returns the loaded label encoder, or nil.
func (r *Registry) LabelEncoder() *labels.Encoder {
	return r.labelEncoder
}

// KBStore returns the loaded knowledge base, or nil.
func (r *Registry) KBStore() *kb.Store {
	return r.kbStore
}

// EmbeddingCache returns the embedding cache, or nil when retrieval is
// disabled.
func (r *Registry) EmbeddingCache() *cache.EmbeddingCache {
	return r.embeddingCache
}
