package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zyora-ai/site/internal/llm"
	"github.com/zyora-ai/site/internal/middleware"
	"github.com/zyora-ai/site/internal/model"
	"github.com/zyora-ai/site/internal/service"
	"github.com/zyora-ai/site/pkg/logger"
	"github.com/zyora-ai/site/pkg/metrics"
)

const (
	msgRateLimited     = "Rate limits exceeded, please try again later."
	msgPaymentRequired = "Payment required, please add credits."
	msgGatewayError    = "AI gateway error"
)

// ChatHandler proxies visitor conversations to the LLM gateway as an
// OpenAI-style event stream.
type ChatHandler struct {
	chatService *service.ChatService
	logger      *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatSvc *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatSvc,
		logger:      log,
	}
}

// Chat handles POST /functions/v1/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger.WithRequest(middleware.GetCorrelationID(ctx), "chat")

	var req model.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessages(req.Messages); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	stream := &chunkWriter{
		w:       w,
		flusher: flusher,
		id:      "chatcmpl-" + uuid.NewString(),
		model:   h.chatService.Model(),
		created: time.Now().Unix(),
	}

	_, err := h.chatService.Stream(ctx, req.Messages, func(token string, index int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return stream.token(token)
	})
	if err != nil {
		if stream.started {
			// Headers are gone; ending without [DONE] tells the client the
			// reply is incomplete.
			log.Warn("chat stream interrupted", zap.Error(err))
			return
		}
		if ctx.Err() != nil {
			log.Info("client disconnected before first token")
			return
		}
		switch {
		case llm.IsRateLimited(err):
			writeError(w, http.StatusTooManyRequests, msgRateLimited)
		case llm.IsPaymentRequired(err):
			writeError(w, http.StatusPaymentRequired, msgPaymentRequired)
		default:
			log.Error("AI gateway error", zap.Int("upstream_status", llm.StatusCode(err)), zap.Error(err))
			writeError(w, http.StatusInternalServerError, msgGatewayError)
		}
		return
	}

	stream.done()
}

// chunkWriter writes chat completion chunks, sending the stream headers
// with the first frame so errors before it can still use a JSON status.
type chunkWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	id      string
	model   string
	created int64
	started bool
}

func (c *chunkWriter) start() {
	if c.started {
		return
	}
	c.started = true
	c.w.Header().Set("Content-Type", "text/event-stream")
	c.w.Header().Set("Cache-Control", "no-cache")
	c.w.Header().Set("Connection", "keep-alive")
	c.w.Header().Set("X-Accel-Buffering", "no")
	c.w.WriteHeader(http.StatusOK)
}

func (c *chunkWriter) token(token string) error {
	c.start()
	data, err := json.Marshal(model.NewContentChunk(c.id, c.model, c.created, token))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.w, "data: %s\n\n", data); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}

func (c *chunkWriter) done() {
	c.start()
	fmt.Fprint(c.w, "data: [DONE]\n\n")
	c.flusher.Flush()
}
