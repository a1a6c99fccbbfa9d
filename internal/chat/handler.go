package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// maxRequestBody bounds the accepted request body.
const maxRequestBody = 64 << 10

// Request is the body of POST /api/chat.
type Request struct {
	Message string `json:"message"`
}

// Response is a successful reply.
type Response struct {
	Reply     string `json:"reply"`
	ReplyHTML string `json:"reply_html"`
}

// ErrorBody is the payload of a failed request.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure.
type ErrorDetail struct {
	Message        string `json:"message"`
	Type           string `json:"type"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

// Handler serves POST /api/chat.
type Handler struct {
	completer Completer
	renderer  *Renderer
	logger    *slog.Logger
}

// NewHandler creates a [Handler].
func NewHandler(completer Completer, renderer *Renderer, logger *slog.Logger) *Handler {
	if renderer == nil {
		renderer = NewRenderer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{completer: completer, renderer: renderer, logger: logger}
}

// ServeHTTP implements [http.Handler].
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: ErrorDetail{
			Message: "invalid request body",
			Type:    "invalid_request",
		}})
		return
	}

	if h.completer == nil {
		h.fail(w, ErrMissingCredentials)
		return
	}

	reply, err := h.completer.Complete(r.Context(), req.Message)
	if err != nil {
		h.fail(w, err)
		return
	}

	html, err := h.renderer.Render(reply)
	if err != nil {
		// the plain reply is still useful
		h.logger.Warn("chat reply render failed", "error", err)
		html = ""
	}

	writeJSON(w, http.StatusOK, Response{Reply: reply, ReplyHTML: html})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	detail := ErrorDetail{Message: err.Error(), Type: "internal_error"}
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, ErrMissingCredentials):
		detail.Type = "missing_credentials"
	default:
		if code, ok := upstreamStatus(err); ok {
			detail.Type = "upstream_error"
			detail.UpstreamStatus = code
			status = http.StatusBadGateway
		}
	}

	h.logger.Error("chat proxy error", "error", err, "type", detail.Type)
	writeJSON(w, status, ErrorBody{Error: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
