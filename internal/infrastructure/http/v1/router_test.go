package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/heatmap_tiles/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/heatmap_tiles/internal/model"
	"github.com/jaennil/heatmap_tiles/internal/usecase"
	"github.com/jaennil/heatmap_tiles/pkg/logger"
)

type stubRenderer struct {
	renderFn func(ctx context.Context, c model.TileCoordinate) (model.CompositeResult, error)
	lastTile model.TileCoordinate
	calls    int
}

func (s *stubRenderer) Render(ctx context.Context, c model.TileCoordinate) (model.CompositeResult, error) {
	s.calls++
	s.lastTile = c
	return s.renderFn(ctx, c)
}

func newTestRouter(r handler.TileRenderer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewHandler(validator.New(), r)
	return NewRouter(h, logger.NewNoOp(), false)
}

func do(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestTile_Success(t *testing.T) {
	png := []byte("\x89PNG fake composite")
	stub := &stubRenderer{renderFn: func(ctx context.Context, c model.TileCoordinate) (model.CompositeResult, error) {
		return model.CompositeResult{Data: png, ContentType: model.ContentTypePNG}, nil
	}}

	rec := do(newTestRouter(stub), "/a/5/10/12")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %s", ct)
	}
	if rec.Body.String() != string(png) {
		t.Fatalf("body mismatch")
	}
	if rec.Header().Get("X-Base-Imagery") != "" {
		t.Fatalf("unexpected degraded header")
	}
	want := model.TileCoordinate{Region: "a", Zoom: 5, X: 10, Y: 12}
	if stub.lastTile != want {
		t.Fatalf("tile = %+v, want %+v", stub.lastTile, want)
	}
}

func TestTile_DegradedBaseHeader(t *testing.T) {
	stub := &stubRenderer{renderFn: func(ctx context.Context, c model.TileCoordinate) (model.CompositeResult, error) {
		return model.CompositeResult{Data: []byte("png"), ContentType: model.ContentTypePNG, BaseDegraded: true}, nil
	}}

	rec := do(newTestRouter(stub), "/b/3/1/2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Base-Imagery") != "degraded" {
		t.Fatalf("missing degraded header")
	}
}

func TestTile_OverlayNotFound(t *testing.T) {
	stub := &stubRenderer{renderFn: func(ctx context.Context, c model.TileCoordinate) (model.CompositeResult, error) {
		return model.CompositeResult{}, fmt.Errorf("%w: overlay 404", usecase.ErrOverlayNotFound)
	}}

	rec := do(newTestRouter(stub), "/a/5/10/12")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if rec.Body.String() != "Strava imagery not found" {
		t.Fatalf("body = %q", rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("content type = %s", rec.Header().Get("Content-Type"))
	}
}

func TestTile_InternalError(t *testing.T) {
	for _, err := range []error{
		fmt.Errorf("%w: decode", usecase.ErrRenderFailed),
		errors.New("something unclassified"),
	} {
		stub := &stubRenderer{renderFn: func(ctx context.Context, c model.TileCoordinate) (model.CompositeResult, error) {
			return model.CompositeResult{}, err
		}}

		rec := do(newTestRouter(stub), "/a/5/10/12")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		if rec.Body.String() != "Something went wrong" {
			t.Fatalf("body = %q", rec.Body.String())
		}
	}
}

func TestTile_PanicIsInternalError(t *testing.T) {
	stub := &stubRenderer{renderFn: func(ctx context.Context, c model.TileCoordinate) (model.CompositeResult, error) {
		panic("boom")
	}}

	rec := do(newTestRouter(stub), "/a/5/10/12")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if rec.Body.String() != "Something went wrong" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestTile_BadRequest(t *testing.T) {
	paths := []string{
		"/a/five/10/12",
		"/a/5/ten/12",
		"/a/5/10/twelve",
		"/a/-1/0/0",
		"/a/5/-3/12",
		"/a/30/0/0",
		"/a/1/5/0",
		"/a-b/5/10/12",
		"/a.evil.com/5/10/12",
		"/regionnamethatisfartoolongtobeashard/5/10/12",
	}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			stub := &stubRenderer{renderFn: func(ctx context.Context, c model.TileCoordinate) (model.CompositeResult, error) {
				return model.CompositeResult{}, nil
			}}

			rec := do(newTestRouter(stub), p)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if stub.calls != 0 {
				t.Fatal("renderer called for invalid coordinate")
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	rec := do(newTestRouter(&stubRenderer{}), "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(newTestRouter(&stubRenderer{}), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatal("metrics body does not look like a Prometheus exposition")
	}
}
