package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"videolens/internal/analysis"
	"videolens/internal/config"
	"videolens/internal/logging"
	"videolens/internal/notifications"
)

//go:embed web
var webFS embed.FS

const shutdownTimeout = 10 * time.Second

// Analyzer runs one analysis request. *analysis.Analyzer satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error)
}

// Server is the HTTP presentation layer.
type Server struct {
	cfg      *config.Config
	analyzer Analyzer
	notifier notifications.Service
	logger   *slog.Logger
	handler  http.Handler
}

// Option customizes a Server.
type Option func(*Server)

// WithNotifier sets the notification service used for completions and failures.
func WithNotifier(notifier notifications.Service) Option {
	return func(s *Server) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New builds the router over analyzer.
func New(cfg *config.Config, analyzer Analyzer, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("api: config required")
	}
	if analyzer == nil {
		return nil, errors.New("api: analyzer required")
	}
	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		notifier: notifications.NewService(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "api-server")

	page, err := fs.Sub(webFS, "web")
	if err != nil {
		return nil, fmt.Errorf("api: load embedded page: %w", err)
	}

	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(api chi.Router) {
		api.Get("/models", s.handleModels)
		api.Get("/defaults", s.handleDefaults)
		api.With(middleware.NoCache, s.bodyLimit(cfg.MaxUploadBytes())).Post("/analyze", s.handleAnalyze)
	})
	r.Handle("/*", http.FileServer(http.FS(page)))

	s.handler = r
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on the configured bind address until ctx is done,
// then shuts down gracefully. ready, when non-nil, receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, ready func(addr string)) error {
	listener, err := net.Listen("tcp", s.cfg.Server.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	addr := listener.Addr().String()
	s.logger.Info("api server listening", logging.String("address", addr))
	if ready != nil {
		ready(addr)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("api server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api serve: %w", err)
	}
	return nil
}
