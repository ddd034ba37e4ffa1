package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/maxcollombin/gn-rag-stack/internal/config"
)

// OllamaClient talks to Ollama's native API. The native endpoints are used
// instead of the OpenAI-compatible layer because they expose the full set of
// decoding options (top_k, repeat_penalty).
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	options    ollamaOptions
}

type ollamaOptions struct {
	Temperature   float32 `json:"temperature,omitempty"`
	TopP          float32 `json:"top_p,omitempty"`
	TopK          int     `json:"top_k,omitempty"`
	NumPredict    int     `json:"num_predict,omitempty"`
	RepeatPenalty float32 `json:"repeat_penalty,omitempty"`
}

func NewOllamaClient(cfg config.LLMConfig) *OllamaClient {
	return &OllamaClient{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		options: ollamaOptions{
			Temperature:   cfg.Temperature,
			TopP:          cfg.TopP,
			TopK:          cfg.TopK,
			NumPredict:    cfg.MaxTokens,
			RepeatPenalty: cfg.RepeatPenalty,
		},
	}
}

// NewOllamaEmbedder builds a client used only for embeddings.
func NewOllamaEmbedder(cfg config.EmbeddingConfig) *OllamaClient {
	return &OllamaClient{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
	}
}

func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":   c.model,
		"prompt":  prompt,
		"stream":  false,
		"options": c.options,
	}

	var resp struct {
		Response string `json:"response"`
	}
	if err := c.post(ctx, "/api/generate", reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Response == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return resp.Response, nil
}

func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := map[string]interface{}{
		"model":  c.model,
		"prompt": text,
	}

	var resp struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := c.post(ctx, "/api/embeddings", reqBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding from ollama")
	}
	return resp.Embedding, nil
}

func (c *OllamaClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode ollama response: %w", err)
	}
	return nil
}
