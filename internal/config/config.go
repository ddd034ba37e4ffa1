package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port int `toml:"port"`
}

type FieldMapping struct {
	ID       string `toml:"id"`
	Title    string `toml:"title"`
	Abstract string `toml:"abstract"`
}

type CatalogConfig struct {
	BaseURL        string       `toml:"base_url"`
	SearchEndpoint string       `toml:"search_endpoint"`
	UserAgent      string       `toml:"user_agent"`
	QueryFile      string       `toml:"query_file"`
	Fields         FieldMapping `toml:"fields"`
}

type IngestionConfig struct {
	BatchSize           int `toml:"batch_size"`
	RequestDelaySeconds int `toml:"request_delay_seconds"`
	TimeoutSeconds      int `toml:"timeout_seconds"`
}

type ElasticsearchConfig struct {
	Addresses            []string `toml:"addresses"`
	Username             string   `toml:"username"`
	Password             string   `toml:"password"`
	Index                string   `toml:"index"`
	Dims                 int      `toml:"dims"`
	SearchTimeoutSeconds int      `toml:"search_timeout_seconds"`
	FastTimeoutSeconds   int      `toml:"fast_timeout_seconds"`
}

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`

	// Decoding parameters, applied by every generation provider.
	Temperature   float32 `toml:"temperature"`
	TopP          float32 `toml:"top_p"`
	TopK          int     `toml:"top_k"`
	MaxTokens     int     `toml:"max_tokens"`
	RepeatPenalty float32 `toml:"repeat_penalty"`

	TimeoutSeconds    int `toml:"timeout_seconds"`
	CacheBelowSeconds int `toml:"cache_below_seconds"`
}

type EmbeddingConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type CacheConfig struct {
	EmbeddingCapacity int `toml:"embedding_capacity"`
	ResponseCapacity  int `toml:"response_capacity"`
}

type Config struct {
	Server        ServerConfig        `toml:"server"`
	Catalog       CatalogConfig       `toml:"catalog"`
	Ingestion     IngestionConfig     `toml:"ingestion"`
	Elasticsearch ElasticsearchConfig `toml:"elasticsearch"`
	LLM           LLMConfig           `toml:"llm"`
	Embedding     EmbeddingConfig     `toml:"embedding"`
	Cache         CacheConfig         `toml:"cache"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Ingestion.BatchSize == 0 {
		c.Ingestion.BatchSize = 50
	}
	if c.Ingestion.TimeoutSeconds == 0 {
		c.Ingestion.TimeoutSeconds = 30
	}
	if c.Elasticsearch.Index == "" {
		c.Elasticsearch.Index = "geonetwork"
	}
	if c.Elasticsearch.Dims == 0 {
		c.Elasticsearch.Dims = 384
	}
	if c.Elasticsearch.SearchTimeoutSeconds == 0 {
		c.Elasticsearch.SearchTimeoutSeconds = 10
	}
	if c.Elasticsearch.FastTimeoutSeconds == 0 {
		c.Elasticsearch.FastTimeoutSeconds = 5
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 45
	}
	if c.LLM.CacheBelowSeconds == 0 {
		c.LLM.CacheBelowSeconds = 30
	}
	if c.Cache.EmbeddingCapacity == 0 {
		c.Cache.EmbeddingCapacity = 512
	}
	if c.Cache.ResponseCapacity == 0 {
		c.Cache.ResponseCapacity = 256
	}
}

// Environment variables win over TOML values so the same file can be shared
// across deployments.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("CATALOG_BASE_URL"); v != "" {
		c.Catalog.BaseURL = v
	}
	if v := os.Getenv("ELASTICSEARCH_URL"); v != "" {
		c.Elasticsearch.Addresses = []string{v}
	}
	if v := os.Getenv("ELASTICSEARCH_INDEX"); v != "" {
		c.Elasticsearch.Index = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("EMBEDDING_PROVIDER"); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("EMBEDDING_API_KEY"); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv("EMBEDDING_BASE_URL"); v != "" {
		c.Embedding.BaseURL = v
	}
}
