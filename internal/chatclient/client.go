// Package chatclient calls the site functions the chat widget depends on:
// the streaming chat proxy and the contact email function.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/zyora-ai/site/internal/model"
)

const (
	ChatPath    = "/functions/v1/chat"
	ContactPath = "/functions/v1/send-contact-email"
)

var (
	// ErrRateLimited is returned for HTTP 429 from the chat function.
	ErrRateLimited = errors.New("chat: rate limited")
	// ErrPaymentRequired is returned for HTTP 402 from the chat function.
	ErrPaymentRequired = errors.New("chat: payment required")
	// ErrNoBody is returned when a successful response carries no body.
	ErrNoBody = errors.New("chat: response has no body")
)

// StatusError is any other non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the site functions.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client. The default HTTP client has no timeout so long
// streams are not cut off.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stream posts the conversation and returns the event stream body. The
// caller closes it.
func (c *Client) Stream(ctx context.Context, messages []model.ChatMessage) (io.ReadCloser, error) {
	resp, err := c.post(ctx, ChatPath, &model.ChatRequest{Messages: messages})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return nil, ErrRateLimited
		case http.StatusPaymentRequired:
			return nil, ErrPaymentRequired
		default:
			return nil, statusError(resp)
		}
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, ErrNoBody
	}
	return resp.Body, nil
}

// SubmitContact sends a captured lead.
func (c *Client) SubmitContact(ctx context.Context, req *model.ContactRequest) error {
	resp, err := c.post(ctx, ContactPath, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	var ack model.ContactResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !ack.Success {
		return errors.New("contact submission was not acknowledged")
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, v interface{}) (*http.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("apikey", c.apiKey)
	}
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var errResp model.ErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error != "" {
		return &StatusError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
}
