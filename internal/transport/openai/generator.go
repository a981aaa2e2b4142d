package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/careline-ai/careline/internal/domain"
	"github.com/careline-ai/careline/internal/metrics"
)

const generationSystemPrompt = "You are a support assistant for a medical equipment company. " +
	"Answer the user's question using only the provided documentation excerpts. " +
	"If the excerpts do not contain the answer, say so briefly."

// Generator synthesizes answers via the chat completions API.
type Generator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewGenerator creates an OpenAI-compatible answer generator.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{
		client:  newClient(cfg),
		model:   cfg.ChatModel,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
}

var _ domain.Generator = (*Generator)(nil)

// Generate implements domain.Generator. The call is bounded by the configured
// per-call timeout; a timeout counts as provider unavailability.
func (g *Generator) Generate(ctx context.Context, question, docContext string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: generationSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Documentation:\n" + docContext + "\n\nQuestion: " + question},
		},
	})
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, g.model, "error").Inc()
		return "", parseAPIError("generation", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, g.model, "error").Inc()
		return "", fmt.Errorf("empty generation response: %w", domain.ErrProviderUnavailable)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(providerName, g.model, "success").Inc()
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
