package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return []float32{float32(len(text)), 1.0}, nil
}

type failingEmbedder struct{}

func (e *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("model unavailable")
}

func TestEmbeddingsMemoized(t *testing.T) {
	embedder := &countingEmbedder{}
	embeddings, err := NewEmbeddings(embedder, 10)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := embeddings.Get(ctx, "flood map")
	require.NoError(t, err)
	second, err := embeddings.Get(ctx, "flood map")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, 1, embeddings.Len())
}

func TestEmbeddingsBoundedEviction(t *testing.T) {
	embedder := &countingEmbedder{}
	embeddings, err := NewEmbeddings(embedder, 2)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := embeddings.Get(ctx, fmt.Sprintf("query %d", i))
		require.NoError(t, err)
	}

	assert.Equal(t, 2, embeddings.Len())

	// "query 0" was evicted, so it costs another provider call.
	_, err = embeddings.Get(ctx, "query 0")
	require.NoError(t, err)
	assert.Equal(t, 6, embedder.calls)
}

func TestEmbeddingsErrorNotCached(t *testing.T) {
	embeddings, err := NewEmbeddings(&failingEmbedder{}, 10)
	require.NoError(t, err)

	_, err = embeddings.Get(context.Background(), "anything")
	assert.Error(t, err)
	assert.Equal(t, 0, embeddings.Len())
}

func TestResponsesKeyDependsOnOrderedIDs(t *testing.T) {
	responses, err := NewResponses(10)
	require.NoError(t, err)

	keyA := responses.Key("query", []string{"a", "b"})
	keyB := responses.Key("query", []string{"b", "a"})
	keyC := responses.Key("other", []string{"a", "b"})

	assert.NotEqual(t, keyA, keyB)
	assert.NotEqual(t, keyA, keyC)
	assert.Equal(t, keyA, responses.Key("query", []string{"a", "b"}))
}

func TestResponsesRoundTrip(t *testing.T) {
	responses, err := NewResponses(2)
	require.NoError(t, err)

	key := responses.Key("query", []string{"a"})
	_, ok := responses.Get(key)
	assert.False(t, ok)

	responses.Add(key, "an answer")
	got, ok := responses.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "an answer", got)

	responses.Add(responses.Key("q2", nil), "x")
	responses.Add(responses.Key("q3", nil), "y")
	assert.Equal(t, 2, responses.Len())
}
