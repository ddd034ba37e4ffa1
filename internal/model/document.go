package model

// Document is one indexed catalog record. The embedding is populated during
// ingestion and stored alongside the text fields; query responses omit it.
type Document struct {
	ID        string    `json:"uuid"`
	Title     string    `json:"title"`
	Abstract  string    `json:"abstract"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// SearchResult is a Document with its blended relevance score, as returned by
// the hybrid query.
type SearchResult struct {
	Document
	RelevanceScore float64 `json:"relevance_score"`
}
