package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/heatmap_tiles/internal/model"
	"github.com/jaennil/heatmap_tiles/internal/usecase"
	"github.com/jaennil/heatmap_tiles/pkg/logger"
)

// tileRequest checks request shape only. Zoom range and grid bounds belong
// to model.NewTileCoordinate.
type tileRequest struct {
	Region string `validate:"required,alphanum,max=32"`
	Zoom   int
	X      int
	Y      int
}

func (h *Handler) Tile(c *gin.Context) {
	l := loggerFrom(c)

	region := c.Param("region")
	strZ := c.Param("zoom")
	strX := c.Param("x")
	strY := c.Param("y")

	z, err := strconv.Atoi(strZ)
	if err != nil {
		l.Warn("invalid zoom parameter", "zoom", strZ, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "zoom should be integer",
		})
		return
	}

	x, err := strconv.Atoi(strX)
	if err != nil {
		l.Warn("invalid x parameter", "x", strX, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "x should be integer",
		})
		return
	}

	y, err := strconv.Atoi(strY)
	if err != nil {
		l.Warn("invalid y parameter", "y", strY, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "y should be integer",
		})
		return
	}

	req := tileRequest{Region: region, Zoom: z, X: x, Y: y}
	if err := h.validate.Struct(req); err != nil {
		l.Warn("invalid tile request", "region", region, "z", z, "x", x, "y", y, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	coord, err := model.NewTileCoordinate(req.Region, req.Zoom, req.X, req.Y)
	if err != nil {
		l.Warn("tile outside grid", "region", region, "z", z, "x", x, "y", y, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	l.Info("tile request", "tile", coord.String())

	res, err := h.tileRenderer.Render(c.Request.Context(), coord)
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, usecase.ErrOverlayNotFound) {
			c.String(http.StatusNotFound, overlayNotFoundText)
			return
		}
		l.Error("failed to render tile", "tile", coord.String(), "error", err)
		c.String(http.StatusInternalServerError, internalServerErrorText)
		return
	}

	if res.BaseDegraded {
		c.Header("X-Base-Imagery", "degraded")
	}
	c.Data(http.StatusOK, res.ContentType, res.Data)
}

// Recover is a gin.RecoveryFunc answering panics with the generic 500 body.
func (h *Handler) Recover(c *gin.Context, recovered any) {
	loggerFrom(c).Error("panic while handling request", "path", c.Request.URL.Path, "panic", recovered)
	c.String(http.StatusInternalServerError, internalServerErrorText)
	c.Abort()
}

func loggerFrom(c *gin.Context) logger.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(logger.Logger); ok {
			return l
		}
	}
	return logger.FromContext(c.Request.Context())
}
