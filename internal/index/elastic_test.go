package index

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxcollombin/gn-rag-stack/internal/model"
)

type fakeES struct {
	t        *testing.T
	handler  http.HandlerFunc
	requests []*capturedRequest
}

type capturedRequest struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

func newFakeES(t *testing.T, handler http.HandlerFunc) (*fakeES, *Elastic) {
	t.Helper()
	fake := &fakeES{t: t, handler: handler}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewElastic(Options{
		Addresses:         []string{srv.URL},
		Index:             "geonetwork",
		Dims:              4,
		SearchTimeout:     5 * time.Second,
		FastSearchTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return fake, store
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	captured := &capturedRequest{Method: r.Method, Path: r.URL.Path}
	if data, err := io.ReadAll(r.Body); err == nil && len(data) > 0 {
		var body map[string]interface{}
		if json.Unmarshal(data, &body) == nil {
			captured.Body = body
		}
	}
	f.requests = append(f.requests, captured)

	// The v8 client verifies it is talking to a real cluster.
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	f.handler(w, r)
}

func TestEnsureIndexExistingIsSuccess(t *testing.T) {
	fake, store := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	err := store.EnsureIndex(context.Background())
	require.NoError(t, err)

	require.Len(t, fake.requests, 1)
	assert.Equal(t, http.MethodHead, fake.requests[0].Method)
	assert.Equal(t, "/geonetwork", fake.requests[0].Path)
}

func TestEnsureIndexCreatesMapping(t *testing.T) {
	fake, store := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"acknowledged": true}`))
	})

	err := store.EnsureIndex(context.Background())
	require.NoError(t, err)

	require.Len(t, fake.requests, 2)
	create := fake.requests[1]
	assert.Equal(t, http.MethodPut, create.Method)
	assert.Equal(t, "/geonetwork", create.Path)

	mappings := create.Body["mappings"].(map[string]interface{})
	props := mappings["properties"].(map[string]interface{})
	embedding := props["embedding"].(map[string]interface{})
	assert.Equal(t, "dense_vector", embedding["type"])
	assert.Equal(t, float64(4), embedding["dims"])
	assert.Contains(t, props, "uuid")
	assert.Contains(t, props, "title")
	assert.Contains(t, props, "abstract")
}

func TestUpsertWritesUnderDocumentID(t *testing.T) {
	fake, store := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": "updated"}`))
	})

	doc := model.Document{ID: "abc-123", Title: "Flood map", Abstract: "risk", Embedding: []float32{1, 0, 0, 0}}
	err := store.Upsert(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, "/geonetwork/_doc/abc-123", req.Path)
	assert.Equal(t, "abc-123", req.Body["uuid"])
	assert.Equal(t, "Flood map", req.Body["title"])
	assert.Len(t, req.Body["embedding"], 4)
}

const searchFixture = `{"hits": {"hits": [
	{"_score": 2.3456, "_source": {"uuid": "a", "title": "Flood map", "abstract": "risk"}},
	{"_score": 1.2, "_source": {"uuid": "b", "title": "Geology", "abstract": "rocks"}}
]}}`

func TestHybridSearchQueryShapeAndParsing(t *testing.T) {
	fake, store := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchFixture))
	})

	results, err := store.HybridSearch(context.Background(), "flood", []float32{1, 0, 0, 0}, 5)
	require.NoError(t, err)

	require.Len(t, fake.requests, 1)
	body := fake.requests[0].Body
	assert.Equal(t, "/geonetwork/_search", fake.requests[0].Path)
	assert.Equal(t, float64(5), body["size"])
	assert.ElementsMatch(t, []interface{}{"uuid", "title", "abstract"}, body["_source"])

	should := body["query"].(map[string]interface{})["bool"].(map[string]interface{})["should"].([]interface{})
	require.Len(t, should, 2)

	scriptScore := should[0].(map[string]interface{})["script_score"].(map[string]interface{})
	script := scriptScore["script"].(map[string]interface{})
	assert.Equal(t, "cosineSimilarity(params.query_vector, 'embedding') + 1.0", script["source"])
	assert.Equal(t, 0.7, scriptScore["boost"])

	multiMatch := should[1].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "flood", multiMatch["query"])
	assert.ElementsMatch(t, []interface{}{"title^2", "abstract"}, multiMatch["fields"])
	assert.Equal(t, 0.3, multiMatch["boost"])

	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, 2.346, results[0].RelevanceScore)
	assert.Equal(t, 1.2, results[1].RelevanceScore)
}

func TestVectorSearchSkipsTextClause(t *testing.T) {
	fake, store := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchFixture))
	})

	docs, err := store.VectorSearch(context.Background(), []float32{1, 0, 0, 0}, 20)
	require.NoError(t, err)

	body := fake.requests[0].Body
	query := body["query"].(map[string]interface{})
	assert.Contains(t, query, "script_score")
	assert.NotContains(t, query, "bool")

	require.Len(t, docs, 2)
	assert.Equal(t, "Flood map", docs[0].Title)
	assert.Empty(t, docs[0].Embedding)
}

func TestSearchErrorSurfaces(t *testing.T) {
	_, store := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "boom"}`))
	})

	_, err := store.HybridSearch(context.Background(), "flood", []float32{1, 0, 0, 0}, 5)
	assert.ErrorContains(t, err, "search error")
}
