// Package upstream fetches raw tiles from third-party tile providers.
//
// Both providers go through the same Fetcher; what differs is the Criticality
// of the source. A DegradeToPlaceholder source never fails: it swaps a broken
// response for a transparent tile. A PropagateFailure source returns a
// *FetchError matching ErrUnavailable.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jaennil/heatmap_tiles/internal/compositor"
	"github.com/jaennil/heatmap_tiles/internal/model"
	"github.com/jaennil/heatmap_tiles/pkg/logger"
	"github.com/jaennil/heatmap_tiles/pkg/metrics"
	"github.com/jaennil/heatmap_tiles/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// maxTileBytes caps how much of an upstream body is read.
const maxTileBytes = 16 << 20

type Criticality int

const (
	DegradeToPlaceholder Criticality = iota
	PropagateFailure
)

func (c Criticality) String() string {
	switch c {
	case DegradeToPlaceholder:
		return "degrade-to-placeholder"
	case PropagateFailure:
		return "propagate-failure"
	default:
		return fmt.Sprintf("criticality(%d)", int(c))
	}
}

type Source struct {
	Name      string
	URL       URLTemplate
	Policy    Criticality
	Timeout   time.Duration
	UserAgent string
	// Placeholder supplies the substitute image for DegradeToPlaceholder
	// sources. Defaults to compositor.Placeholder.
	Placeholder func() model.RawImage
}

type Fetcher struct {
	src        Source
	httpClient *http.Client
	logger     logger.Logger
}

func NewFetcher(src Source, httpClient *http.Client, l logger.Logger) *Fetcher {
	if src.Placeholder == nil {
		src.Placeholder = compositor.Placeholder
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{
		src:        src,
		httpClient: httpClient,
		logger:     l,
	}
}

// Fetch performs a single GET for the tile. It never retries.
func (f *Fetcher) Fetch(ctx context.Context, c model.TileCoordinate) (model.RawImage, error) {
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "upstream.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("upstream.source", f.src.Name),
			attribute.String("upstream.policy", f.src.Policy.String()),
			attribute.String("tile", c.String()),
		),
	)
	defer span.End()

	start := time.Now()
	data, fetchErr := f.get(ctx, c)
	duration := time.Since(start)
	metrics.UpstreamLatency.WithLabelValues(f.src.Name).Observe(duration.Seconds())

	if fetchErr == nil {
		metrics.UpstreamRequests.WithLabelValues(f.src.Name, metrics.OutcomeOK).Inc()
		span.SetAttributes(semconv.HTTPResponseStatusCode(http.StatusOK))
		span.SetStatus(codes.Ok, "")
		f.logger.Debug("fetched upstream tile",
			"source", f.src.Name,
			"tile", c.String(),
			"size", len(data),
			"duration", duration,
		)
		return model.RawImage{Data: data, Source: f.src.Name}, nil
	}

	// The caller going away is not an upstream fault.
	abandoned := ctx.Err() != nil
	outcome := outcomeOf(fetchErr, abandoned)
	metrics.UpstreamRequests.WithLabelValues(f.src.Name, outcome).Inc()

	if fetchErr.StatusCode != 0 {
		span.SetAttributes(semconv.HTTPResponseStatusCode(fetchErr.StatusCode))
	}
	span.RecordError(fetchErr)
	span.SetStatus(codes.Error, fetchErr.Error())

	fields := []any{
		"source", f.src.Name,
		"policy", f.src.Policy.String(),
		"tile", c.String(),
		"z", c.Zoom,
		"x", c.X,
		"y", c.Y,
		"status", fetchErr.StatusCode,
		"status_text", fetchErr.Status,
		"url", f.src.URL.Redacted(c),
		"duration", duration,
		"error", fetchErr,
	}

	switch f.src.Policy {
	case DegradeToPlaceholder:
		if abandoned {
			f.logger.Debug("upstream fetch abandoned, using placeholder", fields...)
		} else {
			f.logger.Error("upstream fetch failed, using placeholder", fields...)
		}
		metrics.PlaceholderSubstitutions.WithLabelValues(f.src.Name).Inc()
		return f.src.Placeholder(), nil
	default:
		if abandoned {
			f.logger.Warn("upstream fetch abandoned", fields...)
		} else {
			f.logger.Error("upstream fetch failed", fields...)
		}
		return model.RawImage{}, fetchErr
	}
}

func (f *Fetcher) get(ctx context.Context, c model.TileCoordinate) ([]byte, *FetchError) {
	fail := func(err error) *FetchError {
		return &FetchError{
			Source: f.src.Name,
			Tile:   c,
			Err:    err,
		}
	}

	if f.src.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.src.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.src.URL.Build(c), nil)
	if err != nil {
		// The parse error echoes the signed URL, so only the redacted form is kept.
		return nil, fail(fmt.Errorf("failed to create request for %s", f.src.URL.Redacted(c)))
	}
	req.Header.Set("Accept", "image/png,image/*;q=0.8")
	if f.src.UserAgent != "" {
		req.Header.Set("User-Agent", f.src.UserAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fail(fmt.Errorf("failed to fetch tile: %w", stripURL(err)))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		fe := fail(fmt.Errorf("upstream returned status %d", resp.StatusCode))
		fe.StatusCode = resp.StatusCode
		fe.Status = reasonPhrase(resp)
		return nil, fe
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBytes+1))
	if err != nil {
		return nil, fail(fmt.Errorf("failed to read tile data: %w", err))
	}
	if len(data) > maxTileBytes {
		return nil, fail(fmt.Errorf("tile exceeds %d bytes", maxTileBytes))
	}
	if len(data) == 0 {
		return nil, fail(errEmptyBody)
	}

	return data, nil
}

// reasonPhrase returns the upstream's own status text, e.g. "Not Found" from
// "404 Not Found", falling back to the standard text when none was sent.
func reasonPhrase(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}

// stripURL drops the *url.Error wrapper, whose message carries the full
// request URL including signed query parameters.
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

func outcomeOf(fe *FetchError, abandoned bool) string {
	switch {
	case abandoned:
		return metrics.OutcomeCancelled
	case fe.StatusCode != 0:
		return metrics.OutcomeHTTPError
	case errors.Is(fe.Err, errEmptyBody):
		return metrics.OutcomeEmptyBody
	default:
		return metrics.OutcomeNetwork
	}
}
