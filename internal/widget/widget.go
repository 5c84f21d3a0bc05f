// Package widget is the chat widget core: it routes visitor input either to
// the streaming assistant or to the booking flow, and keeps the transcript
// the front end renders.
package widget

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zyora-ai/site/internal/chatclient"
	"github.com/zyora-ai/site/internal/directive"
	"github.com/zyora-ai/site/internal/model"
	"github.com/zyora-ai/site/internal/sse"
	"github.com/zyora-ai/site/pkg/logger"
)

const (
	welcomeMessage  = "Welcome to Zyora AI Agency. I'm here to help you explore how we build scalable AI systems for modern brands. What brings you here today?"
	fallbackMessage = "I apologize, but I'm having trouble connecting right now. Please try again or contact us directly at %s"

	// DefaultFallbackEmail is the human contact offered when things fail.
	DefaultFallbackEmail = "ZyoraAIAgency@outlook.com"
)

// Mode selects where visitor input goes.
type Mode int

const (
	ModeChat Mode = iota
	ModeBooking
)

func (m Mode) String() string {
	if m == ModeBooking {
		return "booking"
	}
	return "chat"
}

// ChatStreamer opens a streamed assistant reply for the given context.
type ChatStreamer interface {
	Stream(ctx context.Context, messages []model.ChatMessage) (io.ReadCloser, error)
}

// LeadSubmitter delivers a captured lead.
type LeadSubmitter interface {
	SubmitContact(ctx context.Context, req *model.ContactRequest) error
}

// Options tunes pacing and fallbacks. An empty FallbackEmail, Routes or
// Logger takes the default; a zero delay runs that follow-up immediately.
type Options struct {
	FallbackEmail     string
	ReplyDelay        time.Duration
	BookingStartDelay time.Duration
	NavigateDelay     time.Duration
	Routes            []string
	Logger            *logger.Logger
}

// DefaultOptions mirrors the pacing of the site widget.
func DefaultOptions() Options {
	return Options{
		FallbackEmail:     DefaultFallbackEmail,
		ReplyDelay:        800 * time.Millisecond,
		BookingStartDelay: time.Second,
		NavigateDelay:     1500 * time.Millisecond,
		Routes:            Routes,
	}
}

// State is a snapshot of the widget.
type State struct {
	Mode         Mode
	Step         Step
	Draft        Draft
	Indicator    Indicator
	InputEnabled bool
	QuickActions bool
	Messages     []DisplayMessage
	History      []model.ChatMessage
}

// Widget owns one visitor's chat session.
type Widget struct {
	chat    ChatStreamer
	leads   LeadSubmitter
	surface Surface
	log     *logger.Logger
	opts    Options
	tasks   *Scheduler

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	transcript *Transcript
	session    Session
	booking    Booking
	mode       Mode
	typing     bool
	submitting bool
	closed     bool

	// bookingGen invalidates a scheduled booking start once newer input
	// arrives.
	bookingGen  uint64
	bookingTask *Task
}

// New creates a widget and shows the welcome message.
func New(chat ChatStreamer, leads LeadSubmitter, surface Surface, opts Options) *Widget {
	def := DefaultOptions()
	if opts.FallbackEmail == "" {
		opts.FallbackEmail = def.FallbackEmail
	}
	if opts.Routes == nil {
		opts.Routes = def.Routes
	}
	if opts.Logger == nil {
		opts.Logger = logger.Global()
	}
	if surface == nil {
		surface = NopSurface{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Widget{
		chat:       chat,
		leads:      leads,
		surface:    surface,
		log:        opts.Logger.With(zap.String("component", "widget")),
		opts:       opts,
		tasks:      NewScheduler(),
		ctx:        ctx,
		cancel:     cancel,
		transcript: NewTranscript(),
	}

	w.mu.Lock()
	w.appendLocked(welcomeMessage, true)
	w.mu.Unlock()
	return w
}

// HandleSubmit processes one visitor input. It returns false without doing
// anything when the input is blank, another exchange or submission is
// outstanding, or the widget is closed. Otherwise it blocks until the
// exchange or submission finishes; delayed follow-ups run afterwards.
func (w *Widget) HandleSubmit(ctx context.Context, input string) bool {
	if strings.TrimSpace(input) == "" {
		return false
	}

	w.mu.Lock()
	if w.closed || w.busyLocked() {
		w.mu.Unlock()
		return false
	}

	w.cancelBookingStartLocked()
	w.appendLocked(input, false)

	if w.mode == ModeBooking {
		tr := w.booking.Advance(input)
		if !tr.Submit {
			if tr.Declined {
				w.mode = ModeChat
			}
			w.replyLaterLocked(tr.Reply)
			w.mu.Unlock()
			return true
		}

		req := w.booking.Request()
		w.submitting = true
		w.indicatorLocked()
		w.mu.Unlock()

		w.submit(ctx, req)
		return true
	}

	history := w.session.WithUserTurn(input)
	w.typing = true
	w.indicatorLocked()
	w.mu.Unlock()

	w.exchange(ctx, input, history)
	return true
}

// HandleQuickAction submits the prompt behind a quick action label.
func (w *Widget) HandleQuickAction(ctx context.Context, label string) bool {
	for _, qa := range QuickActions {
		if strings.EqualFold(qa.Label, label) {
			return w.HandleSubmit(ctx, qa.Prompt)
		}
	}
	return false
}

// State returns a snapshot.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	return State{
		Mode:         w.mode,
		Step:         w.booking.Step(),
		Draft:        w.booking.Draft(),
		Indicator:    w.indicator(),
		InputEnabled: !w.submitting && !w.typing,
		QuickActions: w.mode == ModeChat && w.transcript.Len() <= 2,
		Messages:     w.transcript.Messages(),
		History:      w.session.History(),
	}
}

// Close tears the widget down. Pending delayed tasks are dropped, the
// in-flight exchange is cancelled and the surface receives no more calls.
func (w *Widget) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.tasks.Stop()
	w.cancel()
}

func (w *Widget) exchange(ctx context.Context, input string, history []model.ChatMessage) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(w.ctx, cancel)
	defer stop()

	body, err := w.chat.Stream(ctx, history)
	if err != nil {
		w.failExchange(err, nil)
		return
	}
	defer body.Close()

	w.mu.Lock()
	target, msg, err := w.transcript.Begin()
	if err != nil {
		w.typing = false
		w.indicatorLocked()
		w.mu.Unlock()
		w.log.Error("cannot open stream target", zap.Error(err))
		return
	}
	if !w.closed {
		w.surface.MessageAppended(msg)
	}
	w.typing = false
	w.indicatorLocked()
	w.mu.Unlock()

	reader := sse.NewReader(func(total string) {
		w.mu.Lock()
		defer w.mu.Unlock()
		if m, ok := target.Set(total); ok && !w.closed {
			w.surface.MessageUpdated(m)
		}
	})

	text, err := reader.Consume(ctx, body)
	if dropped := reader.Dropped(); dropped > 0 {
		w.log.Warn("discarded undecodable stream frames", zap.Int("frames", dropped))
	}
	if err != nil {
		w.failExchange(err, target)
		return
	}

	res := directive.Parse(text)

	w.mu.Lock()
	defer w.mu.Unlock()

	if m, ok := target.Set(res.CleanText); ok && !w.closed {
		w.surface.MessageUpdated(m)
	}
	target.Close()
	if w.closed {
		return
	}

	if res.HasNavigate() {
		if knownRoute(w.opts.Routes, res.Navigate) {
			path := res.Navigate
			w.tasks.After(w.opts.NavigateDelay, func() {
				w.mu.Lock()
				defer w.mu.Unlock()
				if !w.closed {
					w.surface.Navigate(path)
				}
			})
		} else {
			w.log.Warn("ignoring navigation to unknown route", zap.String("path", res.Navigate))
		}
	}

	switch res.Action {
	case "":
	case directive.ActionStartBooking:
		gen := w.bookingGen
		w.bookingTask = w.tasks.After(w.opts.BookingStartDelay, func() { w.startBooking(gen) })
	default:
		w.log.Warn("ignoring unknown action", zap.String("action", res.Action))
	}

	w.session.AppendUserTurn(input)
	w.session.AppendAssistantTurn(res.CleanText)
}

func (w *Widget) failExchange(err error, target *StreamTarget) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.typing = false
	if target != nil {
		defer target.Close()
	}
	if w.closed {
		return
	}
	w.indicatorLocked()

	switch {
	case errors.Is(err, chatclient.ErrRateLimited):
		w.notifyLocked(Notice{
			Level:       NoticeWarning,
			Title:       "Rate Limited",
			Description: "Too many requests. Please wait a moment and try again.",
		})
	case errors.Is(err, chatclient.ErrPaymentRequired):
		w.notifyLocked(Notice{
			Level:       NoticeWarning,
			Title:       "Service Unavailable",
			Description: "AI service temporarily unavailable.",
		})
	}

	w.log.Warn("chat exchange failed", zap.Error(err))

	fallback := fmt.Sprintf(fallbackMessage, w.opts.FallbackEmail)
	switch {
	case target == nil:
		w.appendLocked(fallback, true)
	case target.Text() == "":
		if m, ok := target.Set(fallback); ok {
			w.surface.MessageUpdated(m)
		}
	}
}

func (w *Widget) submit(ctx context.Context, req *model.ContactRequest) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(w.ctx, cancel)
	defer stop()

	err := w.leads.SubmitContact(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.submitting = false
	if w.closed {
		return
	}
	w.indicatorLocked()

	if err != nil {
		w.log.Error("lead submission failed", zap.Error(err))
		w.booking.SubmitFailed()
		w.replyLaterLocked(fmt.Sprintf(replyFailed, w.opts.FallbackEmail))
		return
	}

	w.appendLocked(replySubmitted, true)
	w.notifyLocked(Notice{
		Level:       NoticeInfo,
		Title:       "Request Submitted",
		Description: "We'll contact you within 24 hours.",
	})
	w.booking.Submitted()
	w.mode = ModeChat
}

func (w *Widget) startBooking(gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || gen != w.bookingGen {
		return
	}
	w.bookingTask = nil
	w.mode = ModeBooking
	w.booking.Reset()
	w.appendLocked(promptStart, true)
}

// cancelBookingStartLocked drops a booking switch scheduled by an earlier
// reply. The generation check covers a timer that already fired and is
// waiting for the lock.
func (w *Widget) cancelBookingStartLocked() {
	w.bookingGen++
	if w.bookingTask != nil {
		w.bookingTask.Cancel()
		w.bookingTask = nil
	}
}

func (w *Widget) replyLaterLocked(text string) {
	if text == "" {
		return
	}
	w.tasks.After(w.opts.ReplyDelay, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if !w.closed {
			w.appendLocked(text, true)
		}
	})
}

func (w *Widget) appendLocked(text string, fromAssistant bool) {
	m := w.transcript.Append(text, fromAssistant)
	if !w.closed {
		w.surface.MessageAppended(m)
	}
}

func (w *Widget) notifyLocked(n Notice) {
	if !w.closed {
		w.surface.Notify(n)
	}
}

func (w *Widget) busyLocked() bool {
	return w.submitting || w.typing || w.transcript.Streaming()
}

func (w *Widget) indicator() Indicator {
	switch {
	case w.submitting:
		return IndicatorSubmitting
	case w.typing:
		return IndicatorTyping
	default:
		return IndicatorIdle
	}
}

func (w *Widget) indicatorLocked() {
	if !w.closed {
		w.surface.IndicatorChanged(w.indicator())
	}
}
