// Package service implements the site functions behind the HTTP handlers.
package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/zyora-ai/site/internal/llm"
	"github.com/zyora-ai/site/internal/model"
	"github.com/zyora-ai/site/pkg/logger"
	"github.com/zyora-ai/site/pkg/metrics"
	"github.com/zyora-ai/site/pkg/tracing"
)

// TokenCallback is called for each token during streaming.
type TokenCallback func(token string, index int) error

// ChatService streams assistant replies for a visitor conversation.
type ChatService struct {
	llmClient    llm.Client
	systemPrompt string
	maxTokens    int
	logger       *logger.Logger
}

// NewChatService creates a new chat service.
func NewChatService(llmClient llm.Client, systemPrompt string, maxTokens int, log *logger.Logger) *ChatService {
	return &ChatService{
		llmClient:    llmClient,
		systemPrompt: systemPrompt,
		maxTokens:    maxTokens,
		logger:       log,
	}
}

// Model returns the model replies are generated with.
func (s *ChatService) Model() string {
	return s.llmClient.DefaultModel()
}

// Stream generates the assistant reply to messages, calling onToken for
// each token as it arrives. The system prompt is prepended here; callers
// send only the visitor conversation.
func (s *ChatService) Stream(ctx context.Context, messages []model.ChatMessage, onToken TokenCallback) (*llm.CompletionResponse, error) {
	ctx, span := tracing.Tracer("service").Start(ctx, "chat.stream")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", s.llmClient.Name()),
		attribute.String("llm.model", s.Model()),
		attribute.Int("chat.turns", len(messages)),
	)

	start := time.Now()

	resp, err := s.llmClient.CompleteStream(ctx, &llm.CompletionRequest{
		System:    s.systemPrompt,
		Messages:  messages,
		MaxTokens: s.maxTokens,
	}, func(token string, index int) error {
		return onToken(token, index)
	})
	if err != nil {
		status := llm.StatusCode(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "llm stream failed")
		span.SetAttributes(attribute.Int("llm.upstream_status", status))
		if status != 0 {
			metrics.RecordUpstreamError(status)
		}
		metrics.RecordLLMStream(s.Model(), "error", time.Since(start).Seconds(), 0, 0)
		s.logger.Warn("LLM stream failed",
			zap.String("provider", s.llmClient.Name()),
			zap.String("upstream_status", strconv.Itoa(status)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("LLM stream failed: %w", err)
	}

	span.SetAttributes(
		attribute.Int("llm.tokens_in", resp.TokensIn),
		attribute.Int("llm.tokens_out", resp.TokensOut),
	)
	metrics.RecordLLMStream(resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)

	return resp, nil
}
