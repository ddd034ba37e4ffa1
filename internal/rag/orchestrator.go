package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/maxcollombin/gn-rag-stack/internal/cache"
	"github.com/maxcollombin/gn-rag-stack/internal/llm"
	"github.com/maxcollombin/gn-rag-stack/internal/model"
)

const (
	maxContextDocs = 5
	abstractLimit  = 300
)

const promptTemplate = `You are an assistant specialised in geospatial data. Answer precisely and concisely.

Available information:
%s

Question: %s

Instructions:
- Answer the question directly
- Use only the information provided above
- Structure the answer in short paragraphs
- State clearly when no information is available
- Stay factual and avoid generalities

Answer:`

// Answer is the outcome of one generation attempt. Degraded means the model
// call failed and Text carries a fallback message instead of an answer; the
// retrieved sources are still valid.
type Answer struct {
	Text     string
	Cached   bool
	Degraded bool
}

// Orchestrator builds a prompt from retrieved documents, calls the
// generative model under a hard timeout and caches cheap results.
type Orchestrator struct {
	generator  llm.LLMClient
	responses  *cache.Responses
	timeout    time.Duration
	cacheBelow time.Duration
	logger     *zap.Logger
}

func NewOrchestrator(generator llm.LLMClient, responses *cache.Responses, timeout, cacheBelow time.Duration, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		generator:  generator,
		responses:  responses,
		timeout:    timeout,
		cacheBelow: cacheBelow,
		logger:     logger,
	}
}

// Answer never returns an error: a failed generation yields a degraded
// answer so the caller can still serve the sources.
func (o *Orchestrator) Answer(ctx context.Context, query string, results []model.SearchResult) Answer {
	key := o.responses.Key(query, contextIDs(results))
	if text, ok := o.responses.Get(key); ok {
		return Answer{Text: text, Cached: true}
	}

	prompt := buildPrompt(query, results)

	genCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	text, err := o.generator.Generate(genCtx, prompt)
	elapsed := time.Since(start)

	if err != nil {
		o.logger.Warn("generation failed, serving sources only", zap.Error(err))
		return Answer{
			Text:     fmt.Sprintf("Answer generation failed (%v); the retrieved sources are listed below.", err),
			Degraded: true,
		}
	}

	// Cache only cheap generations. A pathologically slow answer usually
	// means a degraded upstream, and pinning it would keep serving it after
	// the upstream recovers.
	if elapsed < o.cacheBelow {
		o.responses.Add(key, text)
	}

	o.logger.Debug("generation finished", zap.Duration("elapsed", elapsed))
	return Answer{Text: text}
}

func contextIDs(results []model.SearchResult) []string {
	n := len(results)
	if n > maxContextDocs {
		n = maxContextDocs
	}
	ids := make([]string, 0, n)
	for _, r := range results[:n] {
		ids = append(ids, r.ID)
	}
	return ids
}

func buildPrompt(query string, results []model.SearchResult) string {
	n := len(results)
	if n > maxContextDocs {
		n = maxContextDocs
	}

	sections := make([]string, 0, n)
	for _, r := range results[:n] {
		sections = append(sections, fmt.Sprintf("*%s*\nDescription: %s\nIdentifier: %s",
			r.Title, truncate(r.Abstract, abstractLimit), r.ID))
	}

	return fmt.Sprintf(promptTemplate, strings.Join(sections, "\n\n"), query)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
