// ABOUTME: Retrieval stage finding the known-vulnerable examples most similar to the input.
// ABOUTME: Embeds the query via the inference sidecar and ranks knowledge-base entries by cosine similarity.

package retriever

import (
	"context"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/vulnhunt/vulnhunt/internal/cache"
	"github.com/vulnhunt/vulnhunt/internal/types"
)

// DefaultTopK is the retrieval breadth used when none is configured.
const DefaultTopK = 3

// Embedder produces a semantic embedding vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// EntrySource provides the knowledge-base entries to rank. Snapshot
// semantics: the returned slice must not change under the caller.
type EntrySource interface {
	Entries() []types.KBEntry
}

// Retriever runs the similarity-search stage. Either handle may be nil when
// the resource registry could not load it; Run then reports unavailable.
type Retriever struct {
	embedder Embedder
	source   EntrySource
	embCache *cache.EmbeddingCache
	logger   *logrus.Logger
}

// New creates a retriever. The embedding cache is optional.
func New(embedder Embedder, source EntrySource, embCache *cache.EmbeddingCache, logger *logrus.Logger) *Retriever {
	return &Retriever{
		embedder: embedder,
		source:   source,
		embCache: embCache,
		logger:   logger,
	}
}

// EmptySummary is the sentinel summary for an unavailable or failed stage.
func EmptySummary() types.RetrievalSummary {
	return types.RetrievalSummary{Found: false, Count: 0, Examples: []string{}}
}

// Run returns the top-k most similar knowledge-base entries. It never
// returns an error: unavailable or failed runs degrade to the empty summary
// and the pipeline continues.
func (r *Retriever) Run(ctx context.Context, code string, k int) ([]types.RetrievalMatch, types.RetrievalSummary, types.StageStatus) {
	if r.embedder == nil || r.source == nil {
		return nil, EmptySummary(), types.StageUnavailable
	}
	if k <= 0 {
		k = DefaultTopK
	}

	logger := r.logger.WithField("component", "retriever")

	query, err := r.embed(ctx, code)
	if err != nil {
		logger.WithError(err).Error("Query embedding failed")
		return nil, EmptySummary(), types.StageFailed
	}

	entries := r.source.Entries()
	matches := make([]types.RetrievalMatch, 0, len(entries))
	for _, entry := range entries {
		score := CosineSimilarity(query, entry.Embedding)
		if math.IsNaN(score) {
			continue
		}
		matches = append(matches, types.RetrievalMatch{Entry: entry, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}

	examples := make([]string, 0, len(matches))
	for _, m := range matches {
		examples = append(examples, m.Entry.Filename)
	}

	summary := types.RetrievalSummary{
		Found:    true,
		Count:    len(matches),
		Examples: examples,
	}

	logger.WithFields(logrus.Fields{
		"requested": k,
		"matched":   len(matches),
	}).Debug("Retrieval completed")

	return matches, summary, types.StageOK
}

func (r *Retriever) embed(ctx context.Context, code string) ([]float64, error) {
	if r.embCache == nil {
		return r.embedder.Embed(ctx, code)
	}

	key := cache.Key(code)
	if cached := r.embCache.Get(key); cached != nil {
		return cached, nil
	}

	embedding, err := r.embedder.Embed(ctx, code)
	if err != nil {
		return nil, err
	}
	r.embCache.Set(key, embedding)
	return embedding, nil
}

// CosineSimilarity computes the cosine similarity of two vectors. Vectors
// of mismatched length or zero magnitude yield NaN.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.NaN()
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return math.NaN()
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
