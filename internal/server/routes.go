package server

import (
	"github.com/gin-gonic/gin"
	"github.com/ppiankov/ignoromenot/internal/pipeline"
	"github.com/ppiankov/ignoromenot/internal/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRoutes registers every endpoint on router
func SetupRoutes(router *gin.Engine, session *pipeline.Session, limiter *worker.Limiter, logger *zap.Logger) {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.Use(RateLimit(limiter, logger))
	{
		v1.GET("/bounds", GetBounds(session))
		v1.POST("/filter", ApplyFilter(session, logger))
		v1.GET("/snapshot", GetSnapshot(session))

		proteins := v1.Group("/proteins")
		{
			proteins.GET("/:id/mentions", GetProteinMentions(session))
			proteins.GET("/:id/mentions.tsv", ExportProteinMentions(session))
		}

		v1.GET("/export/proteins.csv", ExportProteins(session))
	}
}
