package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jpalmerr/tcup/internal/request"
)

// forwardedHeaders are copied from the browser request to the backend.
// Cookies are not: the ones the browser sends here belong to the dashboard.
var forwardedHeaders = []string{"Accept", "Content-Type", "Authorization"}

// handleProxy forwards /api/backend/* to the ops backend. The request is
// registered with the client's pending registry, so the client's next
// navigation cancels it.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	clientID := ClientID(r.Context())

	var body []byte
	if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		body = b
	}

	header := make(http.Header)
	for _, k := range forwardedHeaders {
		if v := r.Header.Values(k); len(v) > 0 {
			header[k] = v
		}
	}

	path := "/" + chi.URLParam(r, "*")
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	resp := s.backend.Do(r.Context(), s.pending.Client(clientID), r.Method, path, header, body)

	switch {
	case errors.Is(resp.Error, request.ErrUnauthorized):
		s.writeUnauthorized(w)
		return
	case errors.Is(resp.Error, request.ErrTimeout):
		s.logger.Warn("backend request timed out", "path", path, "client_id", clientID)
		writeError(w, http.StatusGatewayTimeout, "timeout")
		return
	case errors.Is(resp.Error, request.ErrCanceled):
		if r.Context().Err() != nil {
			// browser went away
			return
		}
		writeError(w, http.StatusServiceUnavailable, "canceled")
		return
	case resp.Error != nil:
		s.logger.Error("backend request failed", "path", path, "error", resp.Error)
		writeError(w, http.StatusBadGateway, "backend unavailable")
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		s.logger.Error("failed to write proxy response", "error", err)
	}
}
