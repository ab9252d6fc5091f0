package http_server

import (
	"net/http"

	"github.com/jaennil/heatmap_tiles/pkg/config"
	"github.com/jaennil/heatmap_tiles/pkg/logger"
)

func NewServer(cfg config.Server, handler http.Handler, l logger.Logger) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      withLogger(l, handler),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// withLogger makes the logger reachable via logger.FromContext while keeping
// the request's own context, so a client disconnect still cancels upstream
// calls.
func withLogger(l logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(logger.WithLogger(r.Context(), l)))
	})
}
