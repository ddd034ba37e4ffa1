package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/maxcollombin/gn-rag-stack/internal/llm"
)

func hashKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Embeddings memoizes embedder calls by text hash. The underlying LRU is
// bounded and safe for concurrent handlers; two callers racing on the same
// uncached text may both hit the embedder, the second write wins.
type Embeddings struct {
	embedder llm.EmbedderClient
	cache    *lru.Cache[string, []float32]
}

func NewEmbeddings(embedder llm.EmbedderClient, capacity int) (*Embeddings, error) {
	cache, err := lru.New[string, []float32](capacity)
	if err != nil {
		return nil, err
	}
	return &Embeddings{embedder: embedder, cache: cache}, nil
}

func (e *Embeddings) Get(ctx context.Context, text string) ([]float32, error) {
	key := hashKey(text)
	if vec, ok := e.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, vec)
	return vec, nil
}

func (e *Embeddings) Len() int {
	return e.cache.Len()
}

// Responses caches generated answers, keyed by the query and the ordered
// identifiers of the documents the answer was built from.
type Responses struct {
	cache *lru.Cache[string, string]
}

func NewResponses(capacity int) (*Responses, error) {
	cache, err := lru.New[string, string](capacity)
	if err != nil {
		return nil, err
	}
	return &Responses{cache: cache}, nil
}

// Key derives the cache key from the query plus the ordered result ids.
func (r *Responses) Key(query string, ids []string) string {
	return hashKey(query + "|" + strings.Join(ids, ","))
}

func (r *Responses) Get(key string) (string, bool) {
	return r.cache.Get(key)
}

func (r *Responses) Add(key, answer string) {
	r.cache.Add(key, answer)
}

func (r *Responses) Len() int {
	return r.cache.Len()
}
