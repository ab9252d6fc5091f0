package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jaennil/heatmap_tiles/internal/compositor"
	v1 "github.com/jaennil/heatmap_tiles/internal/infrastructure/http/v1"
	"github.com/jaennil/heatmap_tiles/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/heatmap_tiles/internal/repository/upstream"
	"github.com/jaennil/heatmap_tiles/internal/usecase"
	"github.com/jaennil/heatmap_tiles/pkg/config"
	"github.com/jaennil/heatmap_tiles/pkg/http_server"
	"github.com/jaennil/heatmap_tiles/pkg/logger"
	"github.com/jaennil/heatmap_tiles/pkg/telemetry"
)

const (
	baseSourceName    = "base"
	overlaySourceName = "overlay"
)

// Run serves tiles until SIGINT/SIGTERM or a fatal server error.
func Run(cfg *config.Config) error {
	l := logger.NewZapLogger(cfg.Logger)
	defer l.Sync()

	// Credentials render as [REDACTED].
	l.Info("starting heatmap tiles service", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(ctx, telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			Exporter:       cfg.Telemetry.Exporter,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
			SampleRatio:    cfg.Telemetry.SampleRatio,
		}, l)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(shutdownCtx); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
		l.Info("telemetry initialized", "service", cfg.Telemetry.ServiceName)
	}

	comp, err := compositor.New(compositor.Options{
		Resampler:      cfg.Compositor.Resampler,
		PNGCompression: cfg.Compositor.PNGCompression,
		MaxDimension:   cfg.Compositor.MaxDimension,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize compositor: %w", err)
	}

	// Per-fetch deadlines come from Source.Timeout; the client itself is
	// unbounded so that the request context stays in charge.
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 32,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	baseFetcher := upstream.NewFetcher(upstream.Source{
		Name:        baseSourceName,
		URL:         upstream.URLTemplate{Pattern: cfg.Upstream.Base.URLTemplate},
		Policy:      upstream.DegradeToPlaceholder,
		Timeout:     cfg.Upstream.Timeout,
		UserAgent:   cfg.Upstream.UserAgent,
		Placeholder: compositor.Placeholder,
	}, httpClient, l)

	overlayFetcher := upstream.NewFetcher(upstream.Source{
		Name: overlaySourceName,
		URL: upstream.URLTemplate{
			Pattern:     cfg.Upstream.Overlay.URLTemplate,
			Activity:    cfg.Upstream.Overlay.Activity,
			Color:       cfg.Upstream.Overlay.Color,
			Credentials: cfg.Upstream.Overlay.Credentials,
		},
		Policy:    upstream.PropagateFailure,
		Timeout:   cfg.Upstream.Timeout,
		UserAgent: cfg.Upstream.UserAgent,
	}, httpClient, l)

	compositeUseCase := usecase.NewCompositeUseCase(baseFetcher, overlayFetcher, comp, l)

	h := handler.NewHandler(validator.New(), compositeUseCase)
	router := v1.NewRouter(h, l, cfg.Telemetry.Enabled)

	server := http_server.NewServer(cfg.HTTP.Server, router, l)

	serveErr := make(chan error, 1)
	go func() {
		l.Info("starting http server", "port", cfg.HTTP.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	stop()

	l.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error("server forced to shutdown", "error", err)
	}

	l.Info("server stopped")
	return nil
}
