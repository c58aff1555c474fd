// Package server exposes the current property batch over HTTP and refreshes
// it on a schedule.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"propgen/internal/metrics"
)

// NewRouter wires the Gin engine with required routes and middlewares.
func NewRouter(h *Handler, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "records": h.data.Len()})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/api")
	api.GET("/properties", h.List)
	api.GET("/properties/summary", h.Summary)
	api.GET("/properties/undervalued", h.Undervalued)
	api.GET("/properties/:id", h.Get)
	api.POST("/properties/regenerate", h.TriggerRegenerate)
	api.GET("/usng/:usng/properties", h.ByGrid)
	api.GET("/property-types", h.Types)

	logger.Info("router initialized")
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
