package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// Metrics godoc
// @Summary      Request metrics
// @Description  Returns per-endpoint request counts, error rates, and latency stats
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  monitoring.Summary
// @Failure      503  {object}  map[string]string
// @Router       /metrics [get]
func (h *Handler) Metrics(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics unavailable"})
		return
	}

	_, span := h.tracer.Start(c.Request.Context(), "handler.metrics")
	defer span.End()

	c.JSON(http.StatusOK, h.metrics.Summary())
}

// ResetMetrics godoc
// @Summary      Reset request metrics
// @Description  Clears all collected per-endpoint counters and latency samples
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /reset-metrics [post]
func (h *Handler) ResetMetrics(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics unavailable"})
		return
	}

	_, span := h.tracer.Start(c.Request.Context(), "handler.reset-metrics")
	defer span.End()

	h.metrics.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CircuitBreakers godoc
// @Summary      Circuit breaker states
// @Description  Returns a snapshot of every upstream circuit breaker
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /circuit-breakers [get]
func (h *Handler) CircuitBreakers(c *gin.Context) {
	if h.breakers == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "circuit breakers unavailable"})
		return
	}

	_, span := h.tracer.Start(c.Request.Context(), "handler.circuit-breakers")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{"circuit_breakers": h.breakers.Snapshots()})
}

// ResetCircuitBreaker godoc
// @Summary      Reset one circuit breaker
// @Description  Closes the named breaker and zeroes its counters
// @Tags         monitoring
// @Produce      json
// @Param        name  path  string  true  "Breaker name"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /circuit-breakers/{name}/reset [post]
func (h *Handler) ResetCircuitBreaker(c *gin.Context) {
	if h.breakers == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "circuit breakers unavailable"})
		return
	}

	_, span := h.tracer.Start(c.Request.Context(), "handler.reset-circuit-breaker")
	defer span.End()

	name := strings.TrimSpace(c.Param("name"))
	span.SetAttributes(attribute.String("breaker", name))

	if err := h.breakers.Reset(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "breaker": name})
}

// RateLimits godoc
// @Summary      Rate limiter states
// @Description  Returns a snapshot of every named rate limit rule
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /rate-limits [get]
func (h *Handler) RateLimits(c *gin.Context) {
	if h.limiter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rate limiter unavailable"})
		return
	}

	_, span := h.tracer.Start(c.Request.Context(), "handler.rate-limits")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{"rate_limits": h.limiter.Snapshots()})
}

// CacheStats godoc
// @Summary      Cache statistics
// @Description  Returns entry counts for every named cache
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /cache [get]
func (h *Handler) CacheStats(c *gin.Context) {
	if h.caches == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "caches unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.cache-stats")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{"caches": h.caches.Stats(ctx)})
}

// ClearCache godoc
// @Summary      Clear one cache
// @Description  Drops all entries from the named cache
// @Tags         monitoring
// @Produce      json
// @Param        name  path  string  true  "Cache name"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /cache/{name}/clear [post]
func (h *Handler) ClearCache(c *gin.Context) {
	if h.caches == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "caches unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.clear-cache")
	defer span.End()

	name := strings.TrimSpace(c.Param("name"))
	span.SetAttributes(attribute.String("cache", name))

	if err := h.caches.Clear(ctx, name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "cache": name})
}
