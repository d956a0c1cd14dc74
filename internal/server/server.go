package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"vol-scanner/internal/config"
	"vol-scanner/internal/provider"
	"vol-scanner/internal/scan"
)

// ScanSummary is the /api/scan response payload.
type ScanSummary struct {
	AsOfDate string           `json:"asof_date"`
	Window   int              `json:"window"`
	Top      int              `json:"top"`
	Count    int              `json:"count"`
	Ranked   []scan.ScoreEntry `json:"ranked"`
}

// TickerFailure names a ticker that failed a bulk job and why.
type TickerFailure struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// BackfillSummary is the /api/backfill response payload.
type BackfillSummary struct {
	AsOfDate string          `json:"asof_date"`
	Windows  []int           `json:"windows"`
	Done     int             `json:"done"`
	Total    int             `json:"total"`
	Failed   []TickerFailure `json:"failed"`
}

// Backend is the application surface the HTTP API exposes.
type Backend interface {
	ScanUniverse(ctx context.Context, window, top, limit int) (ScanSummary, error)
	BackfillRealized(ctx context.Context, limit int) (BackfillSummary, error)
	RefreshUniverse(ctx context.Context) (int, error)
	ListUniverse(ctx context.Context, limit int) ([]string, error)
	StockQuote(ctx context.Context, ticker string) (provider.StockQuote, error)
}

// Server hosts the JSON API around a Backend.
type Server struct {
	echo    *echo.Echo
	cfg     config.ServerConfig
	backend Backend
	logger  zerolog.Logger
}

// New constructs the HTTP server and registers all routes.
func New(backend Backend, cfg config.ServerConfig, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:    e,
		cfg:     cfg,
		backend: backend,
		logger:  logger.With().Str("component", "http").Logger(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.echo.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/scan", s.handleScan)
	api.GET("/universe", s.handleUniverse)
	api.POST("/universe/refresh", s.handleUniverseRefresh)
	api.POST("/backfill", s.handleBackfill)
	api.GET("/stocks/price", s.handleStockPrice)

	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		srv := &http.Server{
			Addr:         s.cfg.ListenAddr,
			ReadTimeout:  s.cfg.ReadTimeout,
			WriteTimeout: s.cfg.WriteTimeout,
		}
		s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("http server listening")
		if err := s.echo.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.cfg.ShutdownTimeout > 0 {
		return s.cfg.ShutdownTimeout
	}
	return 10 * time.Second
}
