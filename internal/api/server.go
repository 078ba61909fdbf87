// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apihandler "github.com/newthinker/swingdesk/internal/api/handler/api"
	"github.com/newthinker/swingdesk/internal/api/handler/web"
	"github.com/newthinker/swingdesk/internal/api/job"
	"github.com/newthinker/swingdesk/internal/api/middleware"
	"github.com/newthinker/swingdesk/internal/api/response"
	"github.com/newthinker/swingdesk/internal/app"
	"github.com/newthinker/swingdesk/internal/metrics"
	"github.com/newthinker/swingdesk/internal/storage/signal"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for SwingDesk
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	jobs       *job.Store
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	TemplatesDir string
	APIKey       string
	MetricsPath  string
	JobTTL       time.Duration
	MaxJobs      int
}

// Dependencies holds the services the routes are served from.
type Dependencies struct {
	App         *app.App
	SignalStore signal.Store
	Metrics     *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.App == nil {
		return nil, fmt.Errorf("app is required")
	}
	if deps.SignalStore == nil {
		deps.SignalStore = deps.App.Signals()
	}

	mux := http.NewServeMux()

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}
	handler = metrics.LoggingMiddleware(logger, "/api/health", metricsPath(cfg))(handler)

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 3 * time.Minute, // the top25 page screens inline
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
		jobs:   job.NewStore(cfg.MaxJobs, cfg.JobTTL),
	}

	if err := s.setupRoutes(cfg, deps); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) error {
	// Web UI routes
	webHandler, err := web.NewHandler(cfg.TemplatesDir, deps.App, deps.SignalStore, s.logger)
	if err != nil {
		return fmt.Errorf("creating web handler: %w", err)
	}

	s.mux.HandleFunc("GET /{$}", webHandler.Dashboard)
	s.mux.HandleFunc("GET /symbols/{ticker}", webHandler.SymbolDetail)
	s.mux.HandleFunc("GET /dividends", webHandler.Dividends)
	s.mux.HandleFunc("GET /portfolio", webHandler.Portfolio)
	s.mux.HandleFunc("GET /portfolio/{ticker}", webHandler.Projection)
	s.mux.HandleFunc("GET /top25", webHandler.Top25)
	s.mux.HandleFunc("GET /signals", webHandler.Signals)
	s.mux.HandleFunc("GET /education", webHandler.Education)
	s.mux.HandleFunc("GET /legal", webHandler.Legal)
	s.mux.HandleFunc("POST /watchlists/{kind}", webHandler.AddTicker)
	s.mux.HandleFunc("POST /watchlists/{kind}/{ticker}/delete", webHandler.RemoveTicker)

	// JSON API, behind the API key when one is configured
	auth := middleware.APIKeyAuth(cfg.APIKey)
	route := func(pattern string, h http.HandlerFunc) {
		s.mux.Handle(pattern, auth(h))
	}

	watchlists := apihandler.NewWatchlistHandler(deps.App)
	route("GET /api/v1/watchlists/{kind}", watchlists.List)
	route("POST /api/v1/watchlists/{kind}", watchlists.Add)
	route("DELETE /api/v1/watchlists/{kind}/{ticker}", watchlists.Remove)

	analysis := apihandler.NewAnalysisHandler(deps.App)
	route("GET /api/v1/swing", analysis.Swing)
	route("GET /api/v1/symbols/{ticker}/analysis", analysis.Symbol)
	route("GET /api/v1/symbols/{ticker}/indicators", analysis.Indicators)

	backtests := apihandler.NewBacktestHandler(deps.App)
	route("GET /api/v1/symbols/{ticker}/backtest", backtests.Run)

	portfolio := apihandler.NewPortfolioHandler(deps.App)
	route("GET /api/v1/dividends", portfolio.Dividends)
	route("GET /api/v1/portfolio/{ticker}/projection", portfolio.Projection)

	screen := apihandler.NewScreenHandler(s.jobs, deps.App)
	if deps.Metrics != nil {
		screen.SetMetrics(deps.Metrics)
	}
	route("POST /api/v1/screen", screen.Create)
	route("GET /api/v1/jobs/{id}", screen.Status)

	signals := apihandler.NewSignalsHandler(deps.SignalStore)
	route("GET /api/v1/signals", signals.List)
	route("GET /api/v1/signals/{id}", signals.GetByID)

	s.mux.HandleFunc("GET /api/health", s.handleHealth(deps.App))

	if deps.Metrics != nil {
		s.mux.Handle("GET "+metricsPath(cfg), promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	return nil
}

func metricsPath(cfg Config) string {
	if cfg.MetricsPath == "" {
		return "/metrics"
	}
	return cfg.MetricsPath
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"stats":  a.Stats(),
		})
	}
}
