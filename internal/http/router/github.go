package router

import (
	"github.com/gin-gonic/gin"

	"pullwatch.app/pullwatch/internal/http/handler/webhook"
)

func GitHubRouter(rg *gin.RouterGroup, h *webhook.GitHubWebhookHandler) {
	rg.POST("/github", h.HandleEvent)
}
