package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/maxcollombin/gn-rag-stack/internal/config"
)

type ClaudeClient struct {
	client *anthropic.Client
	cfg    config.LLMConfig
}

func NewClaudeClient(cfg config.LLMConfig) *ClaudeClient {
	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	return &ClaudeClient{
		client: anthropic.NewClient(cfg.APIKey, opts...),
		cfg:    cfg,
	}
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (string, error) {
	maxTokens := c.cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}

	temperature := c.cfg.Temperature
	topP := c.cfg.TopP
	req := anthropic.MessagesRequest{
		Model: anthropic.Model(c.cfg.Model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens:   maxTokens,
		Temperature: &temperature,
		TopP:        &topP,
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Content) > 0 && resp.Content[0].Text != nil {
		return *resp.Content[0].Text, nil
	}
	return "", fmt.Errorf("no response content")
}
