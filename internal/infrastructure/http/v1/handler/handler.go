package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/heatmap_tiles/internal/model"
)

// TileRenderer produces a composite tile for a coordinate.
type TileRenderer interface {
	Render(ctx context.Context, c model.TileCoordinate) (model.CompositeResult, error)
}

type Handler struct {
	validate     *validator.Validate
	tileRenderer TileRenderer
}

func NewHandler(v *validator.Validate, r TileRenderer) *Handler {
	return &Handler{
		validate:     v,
		tileRenderer: r,
	}
}

func (h *Handler) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
