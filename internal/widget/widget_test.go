package widget

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zyora-ai/site/internal/chatclient"
	"github.com/zyora-ai/site/internal/model"
)

const waitFor = 2 * time.Second

type fakeStreamer struct {
	mu      sync.Mutex
	calls   [][]model.ChatMessage
	body    func() io.ReadCloser
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeStreamer) Stream(ctx context.Context, messages []model.ChatMessage) (io.ReadCloser, error) {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.body(), nil
}

func (f *fakeStreamer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSubmitter struct {
	mu      sync.Mutex
	reqs    []model.ContactRequest
	errs    []error
	started chan struct{}
	release chan struct{}
}

func (f *fakeSubmitter) SubmitContact(ctx context.Context, req *model.ContactRequest) error {
	f.mu.Lock()
	f.reqs = append(f.reqs, *req)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return err
}

func (f *fakeSubmitter) requests() []model.ContactRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ContactRequest(nil), f.reqs...)
}

type recordingSurface struct {
	mu         sync.Mutex
	appended   []DisplayMessage
	updates    []DisplayMessage
	indicators []Indicator
	notices    []Notice
	navigated  []string
}

func (s *recordingSurface) MessageAppended(m DisplayMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appended = append(s.appended, m)
}

func (s *recordingSurface) MessageUpdated(m DisplayMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, m)
}

func (s *recordingSurface) IndicatorChanged(i Indicator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indicators = append(s.indicators, i)
}

func (s *recordingSurface) Notify(n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
}

func (s *recordingSurface) Navigate(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigated = append(s.navigated, path)
}

func (s *recordingSurface) navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigated...)
}

func (s *recordingSurface) events() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appended) + len(s.updates) + len(s.indicators) + len(s.notices) + len(s.navigated)
}

func sseBody(parts ...string) func() io.ReadCloser {
	var b strings.Builder
	for _, p := range parts {
		fmt.Fprintf(&b, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", p)
	}
	b.WriteString("data: [DONE]\n\n")
	stream := b.String()
	return func() io.ReadCloser { return io.NopCloser(strings.NewReader(stream)) }
}

type failingBody struct {
	data string
	err  error
}

func (b *failingBody) Read(p []byte) (int, error) {
	if b.data == "" {
		return 0, b.err
	}
	n := copy(p, b.data)
	b.data = b.data[n:]
	return n, nil
}

func (b *failingBody) Close() error { return nil }

func newTestWidget(chat ChatStreamer, leads LeadSubmitter, surface Surface) *Widget {
	return New(chat, leads, surface, Options{})
}

func lastText(w *Widget) string {
	msgs := w.State().Messages
	return msgs[len(msgs)-1].Text
}

func waitMessages(t *testing.T, w *Widget, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(w.State().Messages) == n }, waitFor, time.Millisecond)
}

func TestNewShowsWelcome(t *testing.T) {
	surface := &recordingSurface{}
	w := newTestWidget(&fakeStreamer{}, &fakeSubmitter{}, surface)
	defer w.Close()

	st := w.State()
	require.Len(t, st.Messages, 1)
	assert.Equal(t, int64(1), st.Messages[0].ID)
	assert.True(t, st.Messages[0].FromAssistant)
	assert.Equal(t, ModeChat, st.Mode)
	assert.True(t, st.QuickActions)
	assert.True(t, st.InputEnabled)
	assert.Len(t, surface.appended, 1)
}

func TestChatExchangeStreamsAndCommitsHistory(t *testing.T) {
	surface := &recordingSurface{}
	chat := &fakeStreamer{body: sseBody("We build ", "custom AI systems.")}
	w := newTestWidget(chat, &fakeSubmitter{}, surface)
	defer w.Close()

	require.True(t, w.HandleSubmit(context.Background(), "What do you do?"))

	st := w.State()
	require.Len(t, st.Messages, 3)
	assert.Equal(t, "What do you do?", st.Messages[1].Text)
	assert.False(t, st.Messages[1].FromAssistant)
	assert.Equal(t, "We build custom AI systems.", st.Messages[2].Text)
	assert.True(t, st.Messages[2].FromAssistant)
	assert.Equal(t, []model.ChatMessage{
		{Role: model.RoleUser, Content: "What do you do?"},
		{Role: model.RoleAssistant, Content: "We build custom AI systems."},
	}, st.History)
	assert.Equal(t, IndicatorIdle, st.Indicator)

	require.NotEmpty(t, surface.updates)
	for i, u := range surface.updates {
		assert.Equal(t, st.Messages[2].ID, u.ID)
		if i > 0 {
			assert.True(t, strings.HasPrefix(u.Text, surface.updates[i-1].Text))
		}
	}
	assert.Contains(t, surface.indicators, IndicatorTyping)

	require.True(t, w.HandleSubmit(context.Background(), "And pricing?"))
	require.Equal(t, 2, chat.callCount())
	assert.Equal(t, []model.ChatMessage{
		{Role: model.RoleUser, Content: "What do you do?"},
		{Role: model.RoleAssistant, Content: "We build custom AI systems."},
		{Role: model.RoleUser, Content: "And pricing?"},
	}, chat.calls[1])
}

func TestBlankInputIsIgnored(t *testing.T) {
	chat := &fakeStreamer{body: sseBody("x")}
	w := newTestWidget(chat, &fakeSubmitter{}, nil)
	defer w.Close()

	assert.False(t, w.HandleSubmit(context.Background(), "   \n"))
	assert.Equal(t, 0, chat.callCount())
	assert.Len(t, w.State().Messages, 1)
}

func TestNavigationDirective(t *testing.T) {
	surface := &recordingSurface{}
	chat := &fakeStreamer{body: sseBody(`Taking you there. {"navigate": "/services"}`)}
	w := newTestWidget(chat, &fakeSubmitter{}, surface)
	defer w.Close()

	require.True(t, w.HandleSubmit(context.Background(), "show services"))

	assert.Equal(t, "Taking you there.", lastText(w))
	assert.Equal(t, "Taking you there.", w.State().History[1].Content)
	require.Eventually(t, func() bool { return len(surface.navigations()) == 1 }, waitFor, time.Millisecond)
	assert.Equal(t, []string{"/services"}, surface.navigations())
}

func TestNavigationToUnknownRouteIsDropped(t *testing.T) {
	surface := &recordingSurface{}
	chat := &fakeStreamer{body: sseBody(`Sure. {"navigate": "/admin"}`)}
	w := newTestWidget(chat, &fakeSubmitter{}, surface)
	defer w.Close()

	require.True(t, w.HandleSubmit(context.Background(), "admin"))

	assert.Equal(t, "Sure.", lastText(w))
	assert.Equal(t, 0, w.tasks.Pending())
	assert.Empty(t, surface.navigations())
}

func TestStartBookingDirective(t *testing.T) {
	chat := &fakeStreamer{body: sseBody(`Happy to set that up. {"action": "start_booking"}`)}
	w := newTestWidget(chat, &fakeSubmitter{}, nil)
	defer w.Close()

	require.True(t, w.HandleQuickAction(context.Background(), "Book a Call"))
	assert.Equal(t, "I'd like to schedule a consultation", w.State().Messages[1].Text)
	assert.Equal(t, "Happy to set that up.", lastText(w))

	waitMessages(t, w, 4)
	st := w.State()
	assert.Equal(t, ModeBooking, st.Mode)
	assert.Equal(t, StepName, st.Step)
	assert.Equal(t, promptStart, lastText(w))
	assert.False(t, st.QuickActions)
}

func startBooking(t *testing.T, w *Widget) int {
	t.Helper()
	w.startBooking(w.bookingGen)
	require.Equal(t, ModeBooking, w.State().Mode)
	return len(w.State().Messages)
}

func step(t *testing.T, w *Widget, n *int, input string) string {
	t.Helper()
	require.True(t, w.HandleSubmit(context.Background(), input), input)
	*n += 2
	waitMessages(t, w, *n)
	return lastText(w)
}

func TestBookingFlowEndToEnd(t *testing.T) {
	surface := &recordingSurface{}
	leads := &fakeSubmitter{}
	w := newTestWidget(&fakeStreamer{}, leads, surface)
	defer w.Close()

	n := startBooking(t, w)

	assert.Contains(t, step(t, w, &n, "Jane Doe"), "email address")
	assert.Equal(t, StepEmail, w.State().Step)

	assert.Equal(t, promptBadEmail, step(t, w, &n, "not-an-email"))
	assert.Equal(t, StepEmail, w.State().Step)

	assert.Equal(t, promptCompany, step(t, w, &n, "jane@x.co"))
	assert.Equal(t, promptMessage, step(t, w, &n, "skip"))
	assert.Equal(t, "", w.State().Draft.Company)

	summary := step(t, w, &n, "Automate onboarding")
	assert.Contains(t, summary, "Company: Not provided")
	assert.Contains(t, summary, "Name: Jane Doe")
	assert.Equal(t, StepConfirm, w.State().Step)

	require.True(t, w.HandleSubmit(context.Background(), "yes"))

	require.Equal(t, []model.ContactRequest{{
		Name:    "Jane Doe",
		Email:   "jane@x.co",
		Company: "",
		Message: "Automate onboarding",
		Source:  model.SourceChatbot,
	}}, leads.requests())

	st := w.State()
	assert.Equal(t, Draft{}, st.Draft)
	assert.Equal(t, StepName, st.Step)
	assert.Equal(t, ModeChat, st.Mode)
	assert.Equal(t, replySubmitted, lastText(w))
	assert.Empty(t, st.History, "booking turns are not sent upstream")
	require.Len(t, surface.notices, 1)
	assert.Equal(t, "Request Submitted", surface.notices[0].Title)
}

func TestBookingDecline(t *testing.T) {
	leads := &fakeSubmitter{}
	w := newTestWidget(&fakeStreamer{}, leads, nil)
	defer w.Close()

	n := startBooking(t, w)
	step(t, w, &n, "Jane Doe")
	step(t, w, &n, "jane@x.co")
	step(t, w, &n, "Acme")
	step(t, w, &n, "Scale support")

	assert.Equal(t, replyDeclined, step(t, w, &n, "no"))

	st := w.State()
	assert.Empty(t, leads.requests())
	assert.Equal(t, ModeChat, st.Mode)
	assert.Equal(t, StepName, st.Step)
	assert.Equal(t, Draft{}, st.Draft)
}

func TestBookingSubmitFailureKeepsDraftForRetry(t *testing.T) {
	leads := &fakeSubmitter{errs: []error{errors.New("smtp down")}}
	w := newTestWidget(&fakeStreamer{}, leads, nil)
	defer w.Close()

	n := startBooking(t, w)
	step(t, w, &n, "Jane Doe")
	step(t, w, &n, "jane@x.co")
	step(t, w, &n, "Acme")
	step(t, w, &n, "Scale support")

	failed := step(t, w, &n, "Yes please")
	assert.Contains(t, failed, DefaultFallbackEmail)

	st := w.State()
	assert.Equal(t, ModeBooking, st.Mode)
	assert.Equal(t, StepConfirm, st.Step)
	assert.Equal(t, "Acme", st.Draft.Company)
	assert.True(t, st.InputEnabled)

	require.True(t, w.HandleSubmit(context.Background(), "YES"))
	assert.Len(t, leads.requests(), 2)
	assert.Equal(t, ModeChat, w.State().Mode)
	assert.Equal(t, replySubmitted, lastText(w))
}

func TestSubmitWhileTypingIsRejected(t *testing.T) {
	chat := &fakeStreamer{
		body:    sseBody("done"),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	w := newTestWidget(chat, &fakeSubmitter{}, nil)
	defer w.Close()

	finished := make(chan bool)
	go func() { finished <- w.HandleSubmit(context.Background(), "first") }()
	<-chat.started

	st := w.State()
	assert.Equal(t, IndicatorTyping, st.Indicator)
	assert.False(t, st.InputEnabled)
	assert.False(t, w.HandleSubmit(context.Background(), "second"))

	close(chat.release)
	assert.True(t, <-finished)
	assert.Equal(t, 1, chat.callCount())
	assert.Len(t, w.State().Messages, 3)
}

func TestSubmitWhileStreamingIsRejected(t *testing.T) {
	pr, pw := io.Pipe()
	chat := &fakeStreamer{body: func() io.ReadCloser { return pr }}
	w := newTestWidget(chat, &fakeSubmitter{}, nil)
	defer w.Close()

	finished := make(chan bool)
	go func() { finished <- w.HandleSubmit(context.Background(), "first") }()

	fmt.Fprint(pw, "data: {\"choices\":[{\"delta\":{\"content\":\"par\"}}]}\n")
	require.Eventually(t, func() bool { return lastText(w) == "par" }, waitFor, time.Millisecond)

	assert.False(t, w.HandleSubmit(context.Background(), "second"))

	fmt.Fprint(pw, "data: {\"choices\":[{\"delta\":{\"content\":\"tial\"}}]}\ndata: [DONE]\n")
	pw.Close()
	assert.True(t, <-finished)
	assert.Equal(t, "partial", lastText(w))
	assert.Equal(t, 1, chat.callCount())
}

func TestSubmitWhileSubmittingIsRejected(t *testing.T) {
	surface := &recordingSurface{}
	leads := &fakeSubmitter{started: make(chan struct{}), release: make(chan struct{})}
	w := newTestWidget(&fakeStreamer{}, leads, surface)
	defer w.Close()

	n := startBooking(t, w)
	step(t, w, &n, "Jane Doe")
	step(t, w, &n, "jane@x.co")
	step(t, w, &n, "skip")
	step(t, w, &n, "Automate onboarding")

	finished := make(chan bool)
	go func() { finished <- w.HandleSubmit(context.Background(), "yes") }()
	<-leads.started

	st := w.State()
	assert.Equal(t, IndicatorSubmitting, st.Indicator)
	assert.Equal(t, StepComplete, st.Step)
	assert.False(t, st.InputEnabled)
	assert.False(t, w.HandleSubmit(context.Background(), "yes"))

	close(leads.release)
	assert.True(t, <-finished)
	assert.Len(t, leads.requests(), 1)
	assert.Contains(t, surface.indicators, IndicatorSubmitting)
}

func TestRateLimitShowsNoticeAndFallback(t *testing.T) {
	surface := &recordingSurface{}
	chat := &fakeStreamer{err: chatclient.ErrRateLimited}
	w := newTestWidget(chat, &fakeSubmitter{}, surface)
	defer w.Close()

	require.True(t, w.HandleSubmit(context.Background(), "hello"))

	st := w.State()
	require.Len(t, st.Messages, 3)
	assert.Contains(t, st.Messages[2].Text, DefaultFallbackEmail)
	assert.Empty(t, st.History)
	assert.Equal(t, IndicatorIdle, st.Indicator)
	require.Len(t, surface.notices, 1)
	assert.Equal(t, "Rate Limited", surface.notices[0].Title)
}

func TestPaymentRequiredNotice(t *testing.T) {
	surface := &recordingSurface{}
	w := newTestWidget(&fakeStreamer{err: chatclient.ErrPaymentRequired}, &fakeSubmitter{}, surface)
	defer w.Close()

	require.True(t, w.HandleSubmit(context.Background(), "hello"))

	require.Len(t, surface.notices, 1)
	assert.Equal(t, "Service Unavailable", surface.notices[0].Title)
}

func TestStreamFailureWithoutTextShowsOneFallback(t *testing.T) {
	chat := &fakeStreamer{body: func() io.ReadCloser {
		return &failingBody{err: errors.New("connection reset")}
	}}
	w := newTestWidget(chat, &fakeSubmitter{}, nil)
	defer w.Close()

	require.True(t, w.HandleSubmit(context.Background(), "hello"))

	msgs := w.State().Messages
	require.Len(t, msgs, 3)
	fallbacks := 0
	for _, m := range msgs {
		if strings.Contains(m.Text, DefaultFallbackEmail) {
			fallbacks++
		}
	}
	assert.Equal(t, 1, fallbacks)
	assert.False(t, w.transcript.Streaming())
}

func TestStreamFailureKeepsPartialText(t *testing.T) {
	chat := &fakeStreamer{body: func() io.ReadCloser {
		return &failingBody{
			data: "data: {\"choices\":[{\"delta\":{\"content\":\"Half an answer\"}}]}\n",
			err:  errors.New("connection reset"),
		}
	}}
	w := newTestWidget(chat, &fakeSubmitter{}, nil)
	defer w.Close()

	require.True(t, w.HandleSubmit(context.Background(), "hello"))

	st := w.State()
	require.Len(t, st.Messages, 3)
	assert.Equal(t, "Half an answer", st.Messages[2].Text)
	assert.Empty(t, st.History)
	assert.True(t, st.InputEnabled)
}

func TestCloseStopsPendingWorkAndSurface(t *testing.T) {
	surface := &recordingSurface{}
	w := New(
		&fakeStreamer{body: sseBody(`Sure. {"navigate": "/about"} {"action": "start_booking"}`)},
		&fakeSubmitter{},
		surface,
		Options{NavigateDelay: time.Hour, BookingStartDelay: time.Hour},
	)

	require.True(t, w.HandleSubmit(context.Background(), "about"))
	assert.Equal(t, 2, w.tasks.Pending())

	w.Close()
	before := surface.events()

	assert.Equal(t, 0, w.tasks.Pending())
	assert.False(t, w.HandleSubmit(context.Background(), "again"))
	w.startBooking(w.bookingGen)
	assert.Equal(t, before, surface.events())
	assert.Equal(t, ModeChat, w.State().Mode)
}

func TestCloseDuringStreamSuppressesUpdates(t *testing.T) {
	surface := &recordingSurface{}
	pr, pw := io.Pipe()
	w := newTestWidget(&fakeStreamer{body: func() io.ReadCloser { return pr }}, &fakeSubmitter{}, surface)

	finished := make(chan bool)
	go func() { finished <- w.HandleSubmit(context.Background(), "hello") }()

	fmt.Fprint(pw, "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n")
	require.Eventually(t, func() bool { return lastText(w) == "Hi" }, waitFor, time.Millisecond)

	w.Close()
	before := surface.events()
	pw.CloseWithError(context.Canceled)

	assert.True(t, <-finished)
	assert.Equal(t, before, surface.events())
}

func TestNewInputCancelsScheduledBookingStart(t *testing.T) {
	surface := &recordingSurface{}
	chat := &fakeStreamer{body: sseBody(`Happy to set that up. {"action": "start_booking"}`)}
	w := New(chat, &fakeSubmitter{}, surface, Options{BookingStartDelay: time.Hour})
	defer w.Close()

	require.True(t, w.HandleSubmit(context.Background(), "book a call"))
	assert.Equal(t, 1, w.tasks.Pending())
	staleGen := w.bookingGen

	chat.body = sseBody("Of course, what would you like to know?")
	require.True(t, w.HandleSubmit(context.Background(), "actually, one question first"))
	assert.Equal(t, 0, w.tasks.Pending())

	// A timer that fired before the new input took the lock must not switch modes.
	w.startBooking(staleGen)

	st := w.State()
	assert.Equal(t, ModeChat, st.Mode)
	assert.Equal(t, "Of course, what would you like to know?", st.Messages[len(st.Messages)-1].Text)
	assert.Len(t, st.History, 4)
}

func TestZeroOptionsUseDefaultsAndImmediatePacing(t *testing.T) {
	chat := &fakeStreamer{body: sseBody(`Let's book it. {"action": "start_booking"}`)}
	w := New(chat, &fakeSubmitter{}, nil, Options{})
	defer w.Close()

	assert.Equal(t, DefaultFallbackEmail, w.opts.FallbackEmail)
	assert.Equal(t, Routes, w.opts.Routes)
	assert.Zero(t, w.opts.BookingStartDelay)

	require.True(t, w.HandleSubmit(context.Background(), "book"))
	require.Eventually(t, func() bool { return w.State().Mode == ModeBooking }, waitFor, time.Millisecond)
}
