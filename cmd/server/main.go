package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/maxcollombin/gn-rag-stack/internal/cache"
	"github.com/maxcollombin/gn-rag-stack/internal/config"
	"github.com/maxcollombin/gn-rag-stack/internal/index"
	"github.com/maxcollombin/gn-rag-stack/internal/llm"
	"github.com/maxcollombin/gn-rag-stack/internal/rag"
	"github.com/maxcollombin/gn-rag-stack/internal/server"
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
	generator, err := llm.NewGenerator(context.Background(), cfg.LLM)
	if err != nil {
		logger.Fatal("failed to create generator", zap.Error(err))
	}

	embeddings, err := cache.NewEmbeddings(embedder, cfg.Cache.EmbeddingCapacity)
	if err != nil {
		logger.Fatal("failed to create embedding cache", zap.Error(err))
	}
	responses, err := cache.NewResponses(cfg.Cache.ResponseCapacity)
	if err != nil {
		logger.Fatal("failed to create response cache", zap.Error(err))
	}

	engine := rag.NewEngine(store, embeddings, logger)
	orchestrator := rag.NewOrchestrator(generator, responses,
		time.Duration(cfg.LLM.TimeoutSeconds)*time.Second,
		time.Duration(cfg.LLM.CacheBelowSeconds)*time.Second,
		logger)

	srv := server.New(engine, orchestrator, embeddings, responses, logger)
	r := srv.SetupRouter()

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	logger.Info("starting query API", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
