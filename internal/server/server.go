// Package server assembles the HTTP API and runs it until its context ends.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/octobees/bedriftssok/internal/config"
	"github.com/octobees/bedriftssok/internal/discovery"
	"github.com/octobees/bedriftssok/internal/handler"
	"github.com/octobees/bedriftssok/internal/logger"
	middlewarepkg "github.com/octobees/bedriftssok/internal/middleware"
	"github.com/octobees/bedriftssok/internal/registry"
	"github.com/octobees/bedriftssok/internal/router"
	"github.com/octobees/bedriftssok/internal/service"
)

const shutdownTimeout = 10 * time.Second

// New wires the discovery pipeline, registry client and handlers into an echo
// instance with its own metrics registry.
func New(cfg *config.Config, log *zap.Logger) *echo.Echo {
	log = logger.OrNop(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pipeline := discovery.New(cfg.Discovery,
		discovery.WithLogger(log.Named("discovery")),
		discovery.WithMetrics(discovery.NewMetrics(reg)),
	)
	registryClient := registry.New(cfg.Registry, registry.WithLogger(log.Named("registry")))
	companies := service.NewCompaniesService(registryClient, pipeline, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(log)

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(log.Named("http")))
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, reg, router.Handlers{
		Phone:  handler.NewPhoneHandler(pipeline, log),
		Search: handler.NewSearchHandler(companies, log),
		Export: handler.NewExportHandler(log),
	})
	return e
}

// Run serves e on port until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, e *echo.Echo, port string, log *zap.Logger) error {
	log = logger.OrNop(log)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + port)
	}()
	log.Info("server listening", zap.String("port", port))

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
