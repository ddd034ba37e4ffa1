package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maxcollombin/gn-rag-stack/internal/catalog"
	"github.com/maxcollombin/gn-rag-stack/internal/config"
	"github.com/maxcollombin/gn-rag-stack/internal/llm"
	"github.com/maxcollombin/gn-rag-stack/internal/model"
)

// Source feeds the pipeline one page of raw catalog records at a time.
type Source interface {
	FetchPage(ctx context.Context, offset, size int) (*catalog.Page, error)
}

// Writer is the subset of the index store the pipeline needs.
type Writer interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, doc model.Document) error
}

// Pipeline walks the catalog page by page, embeds every valid record and
// upserts it into the index. A page-level failure aborts the run; a
// record-level failure only skips that record. The inter-page delay keeps
// the load on the shared upstream polite.
type Pipeline struct {
	source   Source
	writer   Writer
	embedder llm.EmbedderClient
	mapping  config.FieldMapping
	pageSize int
	delay    time.Duration
	logger   *zap.Logger
}

func NewPipeline(source Source, writer Writer, embedder llm.EmbedderClient, mapping config.FieldMapping, pageSize int, delay time.Duration, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		source:   source,
		writer:   writer,
		embedder: embedder,
		mapping:  mapping,
		pageSize: pageSize,
		delay:    delay,
		logger:   logger,
	}
}

// Run executes one full ingestion pass and returns the number of documents
// indexed. Each run starts from offset 0; the upsert keyed on the catalog
// identifier makes re-runs overwrite rather than duplicate.
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	logger := p.logger.With(zap.String("run_id", uuid.New().String()))

	if err := p.writer.EnsureIndex(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure index: %w", err)
	}

	indexed := 0
	offset := 0

	for {
		page, err := p.source.FetchPage(ctx, offset, p.pageSize)
		if err != nil {
			// Fail fast at page granularity: the catalog has no SLA and
			// hammering a failing upstream helps nobody. Operators re-run
			// the pipeline.
			return indexed, fmt.Errorf("failed to fetch page at offset %d: %w", offset, err)
		}

		logger.Info("fetched page",
			zap.Int("offset", offset),
			zap.Int("records", len(page.Records)),
			zap.Int("total", page.Total))

		if len(page.Records) == 0 {
			break
		}

		for _, source := range page.Records {
			record := catalog.Extract(source, p.mapping)
			if !record.Valid() {
				logger.Info("skipping record without id or content",
					zap.String("uuid", record.ID))
				continue
			}

			vec, err := p.embedder.Embed(ctx, record.Text())
			if err != nil {
				logger.Warn("skipping record, embedding failed",
					zap.String("uuid", record.ID), zap.Error(err))
				continue
			}

			doc := model.Document{
				ID:        record.ID,
				Title:     record.Title,
				Abstract:  record.Abstract,
				Embedding: vec,
			}
			if err := p.writer.Upsert(ctx, doc); err != nil {
				logger.Warn("skipping record, index write failed",
					zap.String("uuid", record.ID), zap.Error(err))
				continue
			}
			indexed++
		}

		if offset+len(page.Records) >= page.Total {
			break
		}
		offset += p.pageSize

		select {
		case <-ctx.Done():
			return indexed, ctx.Err()
		case <-time.After(p.delay):
		}
	}

	logger.Info("ingestion finished", zap.Int("indexed", indexed))
	return indexed, nil
}
