package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ppiankov/ignoromenot/internal/worker"
	"go.uber.org/zap"
)

// RateLimit rejects clients that exceed their token bucket with 429
func RateLimit(limiter *worker.Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		client := c.ClientIP()
		if !limiter.Allow(client) {
			logger.Debug("rate limited", zap.String("client", client), zap.String("path", c.FullPath()))
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// RequestLogger logs each request at debug level, and server errors at error level
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("client", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
			return
		}
		logger.Debug("request", fields...)
	}
}
