package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"streamchat/config"
	"streamchat/model"
	"streamchat/provider"
	"streamchat/sse"
	"streamchat/validate"
)

// healthPingTimeout bounds the provider round trip made by /health?ping=1.
const healthPingTimeout = 5 * time.Second

// chatRequest defers decoding of the messages so the validator sees the raw
// JSON and can report shape errors in check order.
type chatRequest struct {
	Messages json.RawMessage `json:"messages"`
}

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "Request body must be a JSON object")
		return
	}

	result := validate.Request(req.Messages)
	if !result.OK() {
		s.logger.Printf("CHAT_REJECTED | request_id=%s kind=%s index=%d error=%q",
			RequestIDFrom(r.Context()), result.Err.Kind, result.Err.Index, result.Err.Message)
		writeError(w, http.StatusBadRequest, result.Err.Message)
		return
	}

	if _, ok := w.(http.Flusher); !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	sse.SetHeaders(w.Header())
	w.WriteHeader(http.StatusOK)

	s.streamReply(r.Context(), sse.NewEncoder(w), result.Messages)
}

// streamReply makes exactly one provider call and forwards each fragment as a
// text chunk. It always ends the stream with a single done or error chunk.
func (s *Server) streamReply(ctx context.Context, enc *sse.Encoder, messages []model.ChatMessage) {
	requestID := RequestIDFrom(ctx)

	defer func() {
		if p := recover(); p != nil {
			s.logger.Printf("PROVIDER_PANIC | request_id=%s error=%v", requestID, p)
			if !enc.Terminated() {
				_ = enc.Error("Internal server error")
			}
		}
	}()

	fragments := 0
	err := s.provider.Stream(ctx, model.ToTurns(messages), func(fragment string) error {
		fragments++
		return enc.Text(fragment)
	})

	if err != nil {
		s.logger.Printf("CHAT_FAILED | request_id=%s fragments=%d error=%v", requestID, fragments, err)
		if werr := enc.Error(err.Error()); werr != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[Server] could not deliver error chunk: %v", werr)
		}
		return
	}

	if werr := enc.Done(); werr != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Server] could not deliver done chunk: %v", werr)
	}
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Server] request %s streamed %d fragments", requestID, fragments)
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model"`
	Error    string `json:"error,omitempty"`
}

// handleHealth handles GET /health. With ?ping=1 the provider is contacted
// and a failure is reported as 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Provider: s.cfg.ProviderName,
		Model:    s.provider.GetModel(),
	}

	if r.URL.Query().Get("ping") == "1" {
		if err := provider.Check(r.Context(), s.provider, healthPingTimeout); err != nil {
			resp.Status = "unavailable"
			resp.Error = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
