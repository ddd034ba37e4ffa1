package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/maxcollombin/gn-rag-stack/internal/model"
)

// Store is the searchable text+vector index the pipeline writes to and the
// retrieval engine reads from.
type Store interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, doc model.Document) error
	HybridSearch(ctx context.Context, query string, vector []float32, k int) ([]model.SearchResult, error)
	VectorSearch(ctx context.Context, vector []float32, k int) ([]model.Document, error)
}

// Elastic implements Store on an Elasticsearch index with a dense_vector
// field next to the text fields, so one request can blend cosine similarity
// with textual match.
type Elastic struct {
	client        *elasticsearch.Client
	index         string
	dims          int
	searchTimeout time.Duration
	fastTimeout   time.Duration
}

type Options struct {
	Addresses         []string
	Username          string
	Password          string
	Index             string
	Dims              int
	SearchTimeout     time.Duration
	FastSearchTimeout time.Duration
}

func NewElastic(opts Options) (*Elastic, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: opts.Addresses,
		Username:  opts.Username,
		Password:  opts.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &Elastic{
		client:        client,
		index:         opts.Index,
		dims:          opts.Dims,
		searchTimeout: opts.SearchTimeout,
		fastTimeout:   opts.FastSearchTimeout,
	}, nil
}

// EnsureIndex creates the index with its mapping if it does not exist yet.
// An index that is already there is success, not an error.
func (e *Elastic) EnsureIndex(ctx context.Context) error {
	existsReq := esapi.IndicesExistsRequest{Index: []string{e.index}}
	resp, err := existsReq.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("failed to check index '%s': %w", e.index, err)
	}
	resp.Body.Close()
	if resp.StatusCode == 200 {
		return nil
	}

	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"uuid":     map[string]interface{}{"type": "keyword"},
				"title":    map[string]interface{}{"type": "text"},
				"abstract": map[string]interface{}{"type": "text"},
				"embedding": map[string]interface{}{
					"type": "dense_vector",
					"dims": e.dims,
				},
			},
		},
	}

	body, _ := json.Marshal(mapping)
	createReq := esapi.IndicesCreateRequest{
		Index: e.index,
		Body:  bytes.NewReader(body),
	}
	createResp, err := createReq.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("failed to create index '%s': %w", e.index, err)
	}
	defer createResp.Body.Close()

	// A concurrent creator may have won the race.
	if createResp.StatusCode == 400 {
		return nil
	}
	if createResp.IsError() {
		return fmt.Errorf("create index error: %s", createResp.String())
	}
	return nil
}

// Upsert writes the document under its catalog identifier, overwriting any
// previous version with the same id.
func (e *Elastic) Upsert(ctx context.Context, doc model.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(payload),
	}
	resp, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("index document %s error: %s", doc.ID, resp.String())
	}
	return nil
}

// HybridSearch runs one combined query: a script_score clause over the
// embedding (cosine similarity shifted by +1.0 so it stays non-negative,
// weight 0.7) plus a multi_match over title^2 and abstract (weight 0.3).
func (e *Elastic) HybridSearch(ctx context.Context, query string, vector []float32, k int) ([]model.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.searchTimeout)
	defer cancel()

	body := map[string]interface{}{
		"size":    k,
		"_source": []string{"uuid", "title", "abstract"},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{
						"script_score": map[string]interface{}{
							"query": map[string]interface{}{"match_all": map[string]interface{}{}},
							"script": map[string]interface{}{
								"source": "cosineSimilarity(params.query_vector, 'embedding') + 1.0",
								"params": map[string]interface{}{"query_vector": vector},
							},
							"boost": 0.7,
						},
					},
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":  query,
							"fields": []string{"title^2", "abstract"},
							"type":   "best_fields",
							"boost":  0.3,
						},
					},
				},
			},
		},
	}

	hits, err := e.search(ctx, body)
	if err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, model.SearchResult{
			Document:       hit.doc,
			RelevanceScore: round3(hit.score),
		})
	}
	return results, nil
}

// VectorSearch ranks by cosine similarity only, skipping the textual clause.
func (e *Elastic) VectorSearch(ctx context.Context, vector []float32, k int) ([]model.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, e.fastTimeout)
	defer cancel()

	body := map[string]interface{}{
		"size":    k,
		"_source": []string{"uuid", "title", "abstract"},
		"query": map[string]interface{}{
			"script_score": map[string]interface{}{
				"query": map[string]interface{}{"match_all": map[string]interface{}{}},
				"script": map[string]interface{}{
					"source": "cosineSimilarity(params.query_vector, 'embedding') + 1.0",
					"params": map[string]interface{}{"query_vector": vector},
				},
			},
		},
	}

	hits, err := e.search(ctx, body)
	if err != nil {
		return nil, err
	}

	docs := make([]model.Document, 0, len(hits))
	for _, hit := range hits {
		docs = append(docs, hit.doc)
	}
	return docs, nil
}

type scoredHit struct {
	doc   model.Document
	score float64
}

func (e *Elastic) search(ctx context.Context, body map[string]interface{}) ([]scoredHit, error) {
	payload, _ := json.Marshal(body)
	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  bytes.NewReader(payload),
	}

	resp, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, fmt.Errorf("search error: %s", resp.String())
	}

	var decoded struct {
		Hits struct {
			Hits []struct {
				Score  float64        `json:"_score"`
				Source model.Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]scoredHit, 0, len(decoded.Hits.Hits))
	for _, hit := range decoded.Hits.Hits {
		hits = append(hits, scoredHit{doc: hit.Source, score: hit.Score})
	}
	return hits, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
