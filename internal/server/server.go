// Package server is counseld, the development backend serving the chat REST
// interface over SQLite.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/matheus3301/counsel/internal/auth"
	"github.com/matheus3301/counsel/internal/metrics"
	"github.com/matheus3301/counsel/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server owns the HTTP listener of counseld.
type Server struct {
	echo     *echo.Echo
	http     *http.Server
	listener net.Listener
	logger   *zap.Logger
}

// Deps are the collaborators of the HTTP server.
type Deps struct {
	DB       *store.DB
	Signer   *auth.Signer
	Handlers *ChatHandlers
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

// NewServer binds listen and wires the routes. Use "127.0.0.1:0" for an
// ephemeral port.
func NewServer(listen string, d Deps) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(observe(metrics.NewHTTP(d.Registry)))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	chat := e.Group("/api/chat", requireAuth(d.Signer), trackActivity(d.DB, d.Logger))
	d.Handlers.register(chat)

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", listen, err)
	}

	return &Server{
		echo:     e,
		http:     &http.Server{Handler: e, ReadHeaderTimeout: 10 * time.Second},
		listener: ln,
		logger:   d.Logger,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Handler exposes the routes for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves requests. Blocks until stopped.
func (s *Server) Start() error {
	s.logger.Info("http server starting", zap.String("addr", s.Addr()))
	err := s.http.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop performs a graceful shutdown bounded by ctx.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("http server stopping")
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown", zap.Error(err))
	}
}
