package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/heatmap_tiles/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/heatmap_tiles/pkg/logger"
	"github.com/jaennil/heatmap_tiles/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(handler *handler.Handler, l logger.Logger, telemetryEnabled bool) *gin.Engine {
	r := gin.New()

	r.Use(ginZapLogger(l))
	r.Use(gin.CustomRecovery(handler.Recover))

	if telemetryEnabled {
		r.Use(telemetry.GinMiddleware())
	}

	r.GET("/healthz", handler.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/:region/:zoom/:x/:y", handler.Tile)

	return r
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("logger", l)

		if c.Request.URL.Path == "/healthz" {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		latency := time.Since(start)

		l.Info("request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
		)
	}
}
