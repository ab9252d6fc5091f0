package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jaennil/heatmap_tiles/internal/model"
	"github.com/jaennil/heatmap_tiles/pkg/logger"
	"github.com/jaennil/heatmap_tiles/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrOverlayNotFound means the heatmap provider could not serve the tile.
	ErrOverlayNotFound = errors.New("overlay imagery not found")
	// ErrRenderFailed covers every other failure while producing a composite.
	ErrRenderFailed = errors.New("failed to render composite tile")
)

type TileFetcher interface {
	Fetch(ctx context.Context, c model.TileCoordinate) (model.RawImage, error)
}

type ImageCompositor interface {
	Compose(base, overlay model.RawImage) (model.RawImage, error)
}

type CompositeUseCase struct {
	base       TileFetcher
	overlay    TileFetcher
	compositor ImageCompositor
	logger     logger.Logger
}

func NewCompositeUseCase(base, overlay TileFetcher, compositor ImageCompositor, l logger.Logger) *CompositeUseCase {
	return &CompositeUseCase{
		base:       base,
		overlay:    overlay,
		compositor: compositor,
		logger:     l,
	}
}

// Render fetches both layers concurrently and blends the overlay onto the
// base. An overlay failure cancels the base fetch and yields
// ErrOverlayNotFound. The base fetcher is expected to degrade on its own.
func (uc *CompositeUseCase) Render(ctx context.Context, c model.TileCoordinate) (model.CompositeResult, error) {
	start := time.Now()
	defer func() {
		metrics.CompositeLatency.Observe(time.Since(start).Seconds())
	}()

	var base, overlay model.RawImage

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		img, err := uc.base.Fetch(gctx, c)
		if err != nil {
			return fmt.Errorf("base: %w", err)
		}
		base = img
		return nil
	})
	g.Go(func() error {
		img, err := uc.overlay.Fetch(gctx, c)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOverlayNotFound, err)
		}
		overlay = img
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrOverlayNotFound) {
			metrics.CompositeRequests.WithLabelValues(metrics.ResultOverlayLost).Inc()
			uc.logger.Warn("overlay unavailable, discarding base", "tile", c.String(), "error", err)
			return model.CompositeResult{}, err
		}
		metrics.CompositeRequests.WithLabelValues(metrics.ResultInternalFail).Inc()
		uc.logger.Error("fetch failed", "tile", c.String(), "error", err)
		return model.CompositeResult{}, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}

	out, err := uc.compositor.Compose(base, overlay)
	if err != nil {
		metrics.CompositeRequests.WithLabelValues(metrics.ResultInternalFail).Inc()
		uc.logger.Error("failed to compose tile",
			"tile", c.String(),
			"base_source", base.Source,
			"base_size", len(base.Data),
			"overlay_size", len(overlay.Data),
			"error", err,
		)
		return model.CompositeResult{}, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}

	metrics.CompositeRequests.WithLabelValues(metrics.ResultOK).Inc()
	uc.logger.Debug("composed tile",
		"tile", c.String(),
		"size", len(out.Data),
		"base_degraded", base.Placeholder,
		"duration", time.Since(start),
	)

	return model.CompositeResult{
		Data:         out.Data,
		ContentType:  model.ContentTypePNG,
		BaseDegraded: base.Placeholder,
	}, nil
}
