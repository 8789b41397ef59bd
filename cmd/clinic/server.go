package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/ehr/clinic/internal/domain/admission"
	"github.com/ehr/clinic/internal/domain/registry"
	"github.com/ehr/clinic/internal/domain/scheduling"
	"github.com/ehr/clinic/internal/platform/db"
	"github.com/ehr/clinic/internal/platform/middleware"
	"github.com/ehr/clinic/internal/platform/reporting"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func newServer(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(a.logger)

	// Global middleware
	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(requestTimeout))

	apiV1 := e.Group("/api/v1")
	registry.NewHandler(a.services.Registry).RegisterRoutes(apiV1)
	scheduling.NewHandler(a.services.Scheduling).RegisterRoutes(apiV1)
	admission.NewHandler(a.services.Admission).RegisterRoutes(apiV1)
	reporting.NewHandler(a.services.Reports).RegisterRoutes(apiV1)

	e.GET("/health", db.HealthHandler(a.cfg.Storage, a.health, a.healthDetails))
	if a.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(a.metrics.Handler()))
	}
	return e
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, a *app) error {
	e := newServer(a)
	addr := ":" + a.cfg.Port

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info().Msg("server stopped")
	return nil
}
