// Package llm talks to an OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/logging"
	openai "github.com/sashabaranov/go-openai"
)

var ErrEmptyResponse = errors.New("model returned no choices")

// Config selects the endpoint and model.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client issues single-turn chat completions.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	logger  logging.Logger
}

// New builds a Client. httpClient may be nil.
func New(cfg Config, httpClient *http.Client, logger logging.Logger) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}

	return &Client{
		api:     openai.NewClientWithConfig(oc),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger.With("module", "llm"),
	}
}

// Complete sends a system and a user message and returns the first choice.
// With jsonObject set the JSON object response format is requested.
func (c *Client) Complete(ctx context.Context, system, user string, jsonObject bool) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonObject {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	c.logger.Debug(ctx, "chat completion done",
		"model", resp.Model,
		"duration", time.Since(start),
		"total_tokens", resp.Usage.TotalTokens,
	)

	return resp.Choices[0].Message.Content, nil
}
