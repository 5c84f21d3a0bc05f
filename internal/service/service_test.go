package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zyora-ai/site/internal/llm"
	"github.com/zyora-ai/site/internal/model"
	natsclient "github.com/zyora-ai/site/internal/nats"
	"github.com/zyora-ai/site/pkg/logger"
)

type fakeLLM struct {
	tokens []string
	err    error
	req    *llm.CompletionRequest
}

func (f *fakeLLM) Name() string         { return "fake" }
func (f *fakeLLM) DefaultModel() string { return "fake-model" }

func (f *fakeLLM) CompleteStream(ctx context.Context, req *llm.CompletionRequest, cb llm.StreamCallback) (*llm.CompletionResponse, error) {
	f.req = req
	var content string
	for i, tok := range f.tokens {
		if err := cb(tok, i); err != nil {
			return nil, err
		}
		content += tok
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: content, Model: "fake-model"}, nil
}

func TestChatServicePrependsSystemPrompt(t *testing.T) {
	fake := &fakeLLM{tokens: []string{"Hi", " there"}}
	svc := NewChatService(fake, "system prompt", 512, logger.NewNop())

	var got []string
	resp, err := svc.Stream(context.Background(), []model.ChatMessage{
		{Role: model.RoleUser, Content: "hello"},
	}, func(token string, index int) error {
		got = append(got, token)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "Hi there", resp.Content)
	assert.Equal(t, []string{"Hi", " there"}, got)
	assert.Equal(t, "system prompt", fake.req.System)
	assert.Equal(t, 512, fake.req.MaxTokens)
	require.Len(t, fake.req.Messages, 1)
	assert.Equal(t, "fake-model", svc.Model())
}

func TestChatServiceKeepsUpstreamStatus(t *testing.T) {
	fake := &fakeLLM{err: &llm.UpstreamError{StatusCode: http.StatusTooManyRequests, Err: errors.New("slow down")}}
	svc := NewChatService(fake, "", 0, logger.NewNop())

	_, err := svc.Stream(context.Background(), []model.ChatMessage{{Role: model.RoleUser, Content: "hi"}},
		func(string, int) error { return nil })

	require.Error(t, err)
	assert.True(t, llm.IsRateLimited(err))
}

type fakeNotifier struct {
	lead *model.Lead
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, lead *model.Lead) (string, error) {
	f.lead = lead
	if f.err != nil {
		return "", f.err
	}
	return "email-42", nil
}

type fakeStore struct {
	published []*model.Lead
	err       error
	recent    []natsclient.RecordedLead
	limit     int
}

func (f *fakeStore) PublishLead(_ context.Context, lead *model.Lead) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.published = append(f.published, lead)
	return uint64(len(f.published)), nil
}

func (f *fakeStore) RecentLeads(_ context.Context, after uint64, limit int) ([]natsclient.RecordedLead, bool, error) {
	f.limit = limit
	return f.recent, false, nil
}

func contact() *model.ContactRequest {
	return &model.ContactRequest{
		Name:    " Ada ",
		Email:   "ada@example.com",
		Company: "",
		Message: "Automate our CRM",
		Source:  model.SourceChatbot,
	}
}

func TestLeadServiceSubmit(t *testing.T) {
	notifier := &fakeNotifier{}
	store := &fakeStore{}
	svc := NewLeadService(notifier, store, logger.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC) }

	lead, err := svc.Submit(context.Background(), contact())
	require.NoError(t, err)

	assert.Equal(t, "Ada", lead.Name)
	assert.Equal(t, "email-42", lead.EmailID)
	assert.Equal(t, model.SourceChatbot, lead.Source)
	assert.Len(t, lead.ID, 36)
	assert.Equal(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), lead.ReceivedAt)
	assert.Same(t, lead, notifier.lead)
	require.Len(t, store.published, 1)
	assert.Equal(t, lead.ID, store.published[0].ID)
}

func TestLeadServiceRecordsLeadWhenEmailFails(t *testing.T) {
	store := &fakeStore{}
	svc := NewLeadService(&fakeNotifier{err: errors.New("resend down")}, store, logger.NewNop())

	_, err := svc.Submit(context.Background(), contact())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "resend down")
	require.Len(t, store.published, 1)
	assert.Empty(t, store.published[0].EmailID)
}

func TestLeadServiceIgnoresStoreFailure(t *testing.T) {
	svc := NewLeadService(&fakeNotifier{}, &fakeStore{err: errors.New("nats down")}, logger.NewNop())

	lead, err := svc.Submit(context.Background(), contact())
	require.NoError(t, err)
	assert.Equal(t, "email-42", lead.EmailID)
}

func TestLeadServiceWithoutStore(t *testing.T) {
	svc := NewLeadService(&fakeNotifier{}, nil, logger.NewNop())

	_, err := svc.Submit(context.Background(), contact())
	require.NoError(t, err)

	_, _, err = svc.Recent(context.Background(), 0, 10)
	assert.ErrorIs(t, err, ErrLeadLogDisabled)
}

func TestLeadServiceRecentClampsLimit(t *testing.T) {
	store := &fakeStore{recent: []natsclient.RecordedLead{{Sequence: 3}}}
	svc := NewLeadService(&fakeNotifier{}, store, logger.NewNop())

	leads, _, err := svc.Recent(context.Background(), 2, 1000)
	require.NoError(t, err)
	assert.Len(t, leads, 1)
	assert.Equal(t, 100, store.limit)

	_, _, err = svc.Recent(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 50, store.limit)
}
