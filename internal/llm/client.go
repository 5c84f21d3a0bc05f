// Package llm provides the upstream LLM clients the chat function streams
// from.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/zyora-ai/site/internal/model"
)

// StreamCallback is called for each token during streaming.
type StreamCallback func(token string, index int) error

// CompletionRequest represents a completion request. System is sent the
// way each provider expects a system prompt.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []model.ChatMessage
	MaxTokens   int
	Temperature float64
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// CompleteStream sends a streaming completion request.
	CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// DefaultModel is used when a request names no model.
	DefaultModel() string
}

// UpstreamError is a provider call that failed with an HTTP status.
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %v", e.StatusCode, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StatusCode reports the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return 0
}

// IsRateLimited reports whether the upstream rejected the call with 429.
func IsRateLimited(err error) bool {
	return StatusCode(err) == http.StatusTooManyRequests
}

// IsPaymentRequired reports whether the upstream rejected the call with 402.
func IsPaymentRequired(err error) bool {
	return StatusCode(err) == http.StatusPaymentRequired
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// Options configures a provider client.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewClient creates a new LLM client based on provider. The OpenAI provider
// targets any OpenAI-compatible gateway through BaseURL.
func NewClient(provider Provider, opts Options) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(opts)
	case ProviderOpenAI, "":
		return NewOpenAIClient(opts)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}

func estimateTokens(s string) int {
	return len(s) / 4
}
