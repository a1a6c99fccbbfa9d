package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jpalmerr/tcup/internal/router"
)

// ClientCookie names the cookie identifying a browser client.
const ClientCookie = "tcup_client"

const clientCookieMaxAge = 365 * 24 * 60 * 60

type ctxKey int

const clientIDKey ctxKey = iota

// ClientID returns the client id stored in ctx by the server.
func ClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey).(string)
	return id
}

// identifyClient reads the client cookie, issuing a fresh id when it is
// missing or malformed.
func (s *Server) identifyClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(ClientCookie); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ClientCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   clientCookieMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIDKey, id)))
	})
}

// logRequests logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// unauthorizedBody tells the browser to go to the login page.
type unauthorizedBody struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect"`
}

func (s *Server) writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, unauthorizedBody{
		Error:    "unauthorized",
		Redirect: s.policy.LoginPath(),
	})
}

// requireSession rejects API calls of clients without the login flag.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nav := router.Navigation{Context: r.Context(), ClientID: ClientID(r.Context())}
		if !s.policy.Authenticated(nav) {
			s.writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
