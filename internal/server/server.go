package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jpalmerr/tcup/internal/configstore"
	"github.com/jpalmerr/tcup/internal/feed"
	"github.com/jpalmerr/tcup/internal/pending"
	"github.com/jpalmerr/tcup/internal/request"
	"github.com/jpalmerr/tcup/internal/router"
	"github.com/jpalmerr/tcup/internal/session"
)

const (
	// sseWriteTimeout bounds a single SSE write. Must not exceed the
	// shutdown grace period.
	sseWriteTimeout = 5 * time.Second

	// sseKeepAlive is the interval between comment lines on an idle stream.
	sseKeepAlive = 25 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "tCup 智能运维"

	// maxBodySize bounds request bodies accepted by the API and the proxy.
	maxBodySize = 1 << 20
)

// Config wires the server to its collaborators.
type Config struct {
	Navigator *router.Navigator
	Policy    *router.Policy
	Flags     *session.Flags
	Users     *session.Users
	Configs   *configstore.Store
	Feed      feed.Feed
	Backend   *request.Client
	Pending   *pending.Pool

	// Assets holds the dashboard templates under assets/. May be nil.
	Assets fs.FS

	Port   int
	Title  string
	Logger *slog.Logger
}

// Server handles HTTP requests for the dashboard and its API.
type Server struct {
	nav     *router.Navigator
	policy  *router.Policy
	flags   *session.Flags
	users   *session.Users
	configs *configstore.Store
	feed    feed.Feed
	backend *request.Client
	pending *pending.Pool

	pages  *template.Template
	port   int
	title  string
	logger *slog.Logger

	httpServer *http.Server
	addr       net.Addr
}

// New creates a [Server]. It fails if the dashboard templates cannot be
// parsed.
func New(cfg Config) (*Server, error) {
	if cfg.Navigator == nil || cfg.Policy == nil {
		return nil, errors.New("server: navigator and policy are required")
	}
	if cfg.Flags == nil || cfg.Configs == nil || cfg.Feed == nil || cfg.Pending == nil {
		return nil, errors.New("server: flags, configs, feed and pending pool are required")
	}

	s := &Server{
		nav:     cfg.Navigator,
		policy:  cfg.Policy,
		flags:   cfg.Flags,
		users:   cfg.Users,
		configs: cfg.Configs,
		feed:    cfg.Feed,
		backend: cfg.Backend,
		pending: cfg.Pending,
		port:    cfg.Port,
		title:   cfg.Title,
		logger:  cfg.Logger,
	}
	if s.title == "" {
		s.title = defaultTitle
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.users == nil {
		s.users = session.NewUsers(nil)
	}
	if s.backend == nil {
		s.backend = request.NewClient("")
	}

	if cfg.Assets != nil {
		pages, err := template.New("").Funcs(templateFuncs).ParseFS(cfg.Assets, "assets/*.html")
		if err != nil {
			return nil, fmt.Errorf("server: parse templates: %w", err)
		}
		s.pages = pages
	}
	return s, nil
}

// Handler builds the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.identifyClient)

	r.Get("/healthz", s.handleHealth)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Get("/routes", s.handleRoutes)

		// the config view is public, so is its API
		r.Get("/configs", s.handleListConfigs)
		r.Post("/configs", s.handleCreateConfig)
		r.Put("/configs/{id}", s.handleUpdateConfig)
		r.Delete("/configs/{id}", s.handleDeleteConfig)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/realtime", s.handleRealtime)
			r.Get("/realtime/sse", s.handleSSE)
		})

		r.HandleFunc("/backend/*", s.handleProxy)
	})

	r.Get("/*", s.handlePage)
	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}
	s.addr = ln.Addr()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context,
		// so long-running handlers like SSE end on shutdown.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	return s.addr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.nav.Table().Routes())
}
