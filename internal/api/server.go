// Package api exposes fetch, search and completion events over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"WikiFetch/internal/broadcast"
	"WikiFetch/internal/domain"
	"WikiFetch/internal/ports"
	"WikiFetch/internal/usecase"
)

const (
	shutdownTimeout   = 10 * time.Second
	heartbeatInterval = 15 * time.Second
	eventBuffer       = 16
)

// Fetcher is the part of the fetch pipeline the server drives.
type Fetcher interface {
	Fetch(ctx context.Context, title domain.Title, progress ports.ProgressFunc) *usecase.Future
	Lookup(ctx context.Context, title domain.Title) (domain.Article, bool, error)
}

// Deps wires the server to the application.
type Deps struct {
	Fetcher  Fetcher
	Searcher ports.Searcher
	Bus      *broadcast.Bus
	Logger   *slog.Logger
}

// Server serves the HTTP API. Concurrent requests for the same article
// share one pipeline fetch.
type Server struct {
	echo     *echo.Echo
	fetcher  Fetcher
	searcher ports.Searcher
	bus      *broadcast.Bus
	logger   *slog.Logger
	inflight singleflight.Group

	heartbeat time.Duration
}

// NewServer registers routes and middleware.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		echo:      echo.New(),
		fetcher:   deps.Fetcher,
		searcher:  deps.Searcher,
		bus:       deps.Bus,
		logger:    logger,
		heartbeat: heartbeatInterval,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				logger.Info("request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				logger.Warn("request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	g := e.Group("/api")
	g.GET("/articles/:site/:title", s.handleFetch)
	g.GET("/articles/:site/:title/cached", s.handleCached)
	g.GET("/search/:site", s.handleSearch)
	g.GET("/events", s.handleEvents)

	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run listens on addr until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening", "addr", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		s.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
