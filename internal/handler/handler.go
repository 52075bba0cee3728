// Package handler exposes the monitoring web surface: health, metrics,
// circuit breaker and rate limiter snapshots, and cache controls.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"whitebit-mcp/internal/breaker"
	"whitebit-mcp/internal/cache"
	"whitebit-mcp/internal/monitoring"
	"whitebit-mcp/internal/ratelimit"
)

type Handler struct {
	tracer   trace.Tracer
	metrics  *monitoring.Metrics
	breakers *breaker.Registry
	limiter  *ratelimit.Limiter
	caches   *cache.Registry
	health   *monitoring.Health
}

func New(
	tracer trace.Tracer,
	metrics *monitoring.Metrics,
	breakers *breaker.Registry,
	limiter *ratelimit.Limiter,
	caches *cache.Registry,
	health *monitoring.Health,
) *Handler {
	return &Handler{
		tracer:   tracer,
		metrics:  metrics,
		breakers: breakers,
		limiter:  limiter,
		caches:   caches,
		health:   health,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics", h.Metrics)
	r.GET("/circuit-breakers", h.CircuitBreakers)
	r.GET("/rate-limits", h.RateLimits)
	r.GET("/cache", h.CacheStats)
	r.POST("/reset-metrics", h.ResetMetrics)
	r.POST("/circuit-breakers/:name/reset", h.ResetCircuitBreaker)
	r.POST("/cache/:name/clear", h.ClearCache)
}

// Root godoc
// @Summary      Service overview
// @Description  Lists the monitoring endpoints this server exposes
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       / [get]
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "whitebit-mcp",
		"endpoints": []string{
			"GET /health",
			"GET /metrics",
			"GET /circuit-breakers",
			"GET /rate-limits",
			"GET /cache",
			"POST /reset-metrics",
			"POST /circuit-breakers/:name/reset",
			"POST /cache/:name/clear",
		},
	})
}

// Health godoc
// @Summary      Health check
// @Description  Runs the registered dependency checks and reports aggregate status
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  monitoring.Report
// @Failure      503  {object}  monitoring.Report
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "health checks unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.health")
	defer span.End()

	report := h.health.Run(ctx)
	status := http.StatusOK
	if report.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
