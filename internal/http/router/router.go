package router

import (
	"github.com/gin-gonic/gin"

	"pullwatch.app/pullwatch/internal/http/handler/webhook"
	"pullwatch.app/pullwatch/internal/service"
)

func SetupRoutes(router *gin.Engine, ingest service.IngestService) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	githubHandler := webhook.NewGitHubWebhookHandler(ingest)
	GitHubRouter(router.Group("/webhooks"), githubHandler)
}
