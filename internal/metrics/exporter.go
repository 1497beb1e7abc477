package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Exporter serves a registry on GET /metrics. The chat client uses it when a
// metrics address is configured; counseld mounts /metrics on its own router.
type Exporter struct {
	http     *http.Server
	listener net.Listener
	logger   *zap.Logger
}

// NewExporter binds listen. Use "127.0.0.1:0" for an ephemeral port.
func NewExporter(listen string, reg *prometheus.Registry, logger *zap.Logger) (*Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", listen, err)
	}
	return &Exporter{
		http:     &http.Server{Handler: e, ReadHeaderTimeout: 10 * time.Second},
		listener: ln,
		logger:   logger,
	}, nil
}

// Addr returns the bound address.
func (x *Exporter) Addr() string {
	return x.listener.Addr().String()
}

// Start serves in the background until Stop.
func (x *Exporter) Start() {
	go func() {
		x.logger.Info("metrics exporter starting", zap.String("addr", x.Addr()))
		if err := x.http.Serve(x.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			x.logger.Error("metrics exporter", zap.Error(err))
		}
	}()
}

// Stop shuts the exporter down, bounded by ctx.
func (x *Exporter) Stop(ctx context.Context) {
	if err := x.http.Shutdown(ctx); err != nil {
		x.logger.Warn("metrics exporter shutdown", zap.Error(err))
	}
}
