package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/logging"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
)

const (
	prioritizeSystemPrompt = "You are a task prioritization assistant. Specify priority as 'low', 'medium', or 'high'. Provide a short reason."
	summarizeSystemPrompt  = "You are a helpful assistant that summarizes text concisely."
)

// ChatModel is a single-turn chat completion backend. With jsonObject set the
// model is asked to answer with a JSON object.
type ChatModel interface {
	Complete(ctx context.Context, system, user string, jsonObject bool) (string, error)
}

// PrioritySuggestion is the model's verdict on a task.
type PrioritySuggestion struct {
	Priority models.Priority `json:"priority"`
	Reason   string          `json:"reason"`
}

// AIService forwards prioritize/summarize requests to the language model.
// Responses are checked before they reach the caller.
type AIService struct {
	model  ChatModel
	logger logging.Logger
}

func NewAIService(model ChatModel, logger logging.Logger) *AIService {
	return &AIService{model: model, logger: logger.With("module", "ai")}
}

func (s *AIService) Prioritize(ctx context.Context, title, description string) (*PrioritySuggestion, error) {
	prompt := fmt.Sprintf("Task Title: %s\nDescription: %s\n\nWhat is the priority? Return JSON format: "+
		`{ "priority": "low"|"medium"|"high", "reason": "..." }`, title, description)

	out, err := s.model.Complete(ctx, prioritizeSystemPrompt, prompt, true)
	if err != nil {
		s.logger.Error(ctx, "prioritize request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorUpstream, err)
	}

	var suggestion PrioritySuggestion
	if err := json.Unmarshal([]byte(out), &suggestion); err != nil {
		s.logger.Error(ctx, "prioritize response is not JSON", "error", err)
		return nil, fmt.Errorf("%w: malformed model output: %v", common.ErrorUpstream, err)
	}

	suggestion.Reason = strings.TrimSpace(suggestion.Reason)

	if !suggestion.Priority.Valid() || suggestion.Reason == "" {
		s.logger.Error(ctx, "prioritize response rejected", "priority", suggestion.Priority)
		return nil, fmt.Errorf("%w: unexpected model output", common.ErrorUpstream)
	}

	return &suggestion, nil
}

func (s *AIService) Summarize(ctx context.Context, description string) (string, error) {
	prompt := "Summarize this task description in one sentence:\n\n" + description

	out, err := s.model.Complete(ctx, summarizeSystemPrompt, prompt, false)
	if err != nil {
		s.logger.Error(ctx, "summarize request failed", "error", err)
		return "", fmt.Errorf("%w: %v", common.ErrorUpstream, err)
	}

	summary := strings.TrimSpace(out)
	if summary == "" {
		return "", fmt.Errorf("%w: empty summary", common.ErrorUpstream)
	}
	return summary, nil
}
