package rag

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/maxcollombin/gn-rag-stack/internal/cache"
	"github.com/maxcollombin/gn-rag-stack/internal/index"
	"github.com/maxcollombin/gn-rag-stack/internal/model"
)

// ErrEmptyQuery is returned before any downstream call when the query is
// blank.
var ErrEmptyQuery = errors.New("query must not be empty")

const (
	// DefaultNumResults bounds the hybrid query when the caller gives no k.
	DefaultNumResults = 20
	fastResults       = 20
)

// Engine answers search requests against the index store, memoizing query
// embeddings.
type Engine struct {
	store      index.Store
	embeddings *cache.Embeddings
	logger     *zap.Logger
}

func NewEngine(store index.Store, embeddings *cache.Embeddings, logger *zap.Logger) *Engine {
	return &Engine{
		store:      store,
		embeddings: embeddings,
		logger:     logger,
	}
}

// Search runs the hybrid query and drops results scoring below minScore.
// The index returns up to k candidates before filtering, so fewer than k
// may come back.
func (e *Engine) Search(ctx context.Context, query string, k int, minScore float64) ([]model.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = DefaultNumResults
	}

	vec, err := e.embeddings.Get(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates, err := e.store.HybridSearch(ctx, query, vec, k)
	if err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(candidates))
	for _, r := range candidates {
		if r.RelevanceScore >= minScore {
			results = append(results, r)
		}
	}

	e.logger.Debug("search finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
		zap.Float64("min_score", minScore))
	return results, nil
}

// SearchFast ranks by vector similarity only, with no score filtering, for
// callers that trade relevance shaping for latency.
func (e *Engine) SearchFast(ctx context.Context, query string) ([]model.Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	vec, err := e.embeddings.Get(ctx, query)
	if err != nil {
		return nil, err
	}
	return e.store.VectorSearch(ctx, vec, fastResults)
}
