package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/maxcollombin/gn-rag-stack/internal/catalog"
	"github.com/maxcollombin/gn-rag-stack/internal/config"
	"github.com/maxcollombin/gn-rag-stack/internal/index"
	"github.com/maxcollombin/gn-rag-stack/internal/ingest"
	"github.com/maxcollombin/gn-rag-stack/internal/llm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	template, err := catalog.LoadQueryTemplate(cfg.Catalog.QueryFile)
	if err != nil {
		logger.Fatal("failed to load query template", zap.Error(err))
	}
	source := catalog.NewClient(
		cfg.Catalog.BaseURL,
		cfg.Catalog.SearchEndpoint,
		cfg.Catalog.UserAgent,
		template,
		time.Duration(cfg.Ingestion.TimeoutSeconds)*time.Second,
	)

	store, err := index.NewElastic(index.Options{
		Addresses:         cfg.Elasticsearch.Addresses,
		Username:          cfg.Elasticsearch.Username,
		Password:          cfg.Elasticsearch.Password,
		Index:             cfg.Elasticsearch.Index,
		Dims:              cfg.Elasticsearch.Dims,
		SearchTimeout:     time.Duration(cfg.Elasticsearch.SearchTimeoutSeconds) * time.Second,
		FastSearchTimeout: time.Duration(cfg.Elasticsearch.FastTimeoutSeconds) * time.Second,
	})
	if err != nil {
		logger.Fatal("failed to create index store", zap.Error(err))
	}

	embedder, err := llm.NewEmbedder(cfg.Embedding)
	if err != nil {
		logger.Fatal("failed to create embedder", zap.Error(err))
	}

	pipeline := ingest.NewPipeline(
		source,
		store,
		embedder,
		cfg.Catalog.Fields,
		cfg.Ingestion.BatchSize,
		time.Duration(cfg.Ingestion.RequestDelaySeconds)*time.Second,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	indexed, err := pipeline.Run(ctx)
	if err != nil {
		logger.Error("ingestion aborted", zap.Int("indexed", indexed), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("ingestion complete", zap.Int("indexed", indexed))
}
