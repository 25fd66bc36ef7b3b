package webhook

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"pullwatch.app/pullwatch/internal/service"
)

type GitHubWebhookHandler struct {
	ingest service.IngestService
}

func NewGitHubWebhookHandler(ingest service.IngestService) *GitHubWebhookHandler {
	return &GitHubWebhookHandler{ingest: ingest}
}

// HandleEvent ingests one GitHub webhook delivery. The event type
// discriminator lives in the X-GitHub-Event header, the body is the
// raw webhook JSON.
func (h *GitHubWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	eventType := c.GetHeader("X-GitHub-Event")
	if eventType == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "missing X-GitHub-Event header",
			"error":   "missing event type",
		})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "failed to read request body",
			"error":   err.Error(),
		})
		return
	}

	record, err := h.ingest.Ingest(ctx, eventType, body)
	if err != nil {
		if service.IsClientError(err) {
			slog.WarnContext(ctx, "rejected webhook delivery",
				"error", err,
				"event_type", eventType)
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Error processing webhook",
				"error":   err.Error(),
			})
			return
		}

		slog.ErrorContext(ctx, "failed to process webhook",
			"error", err,
			"event_type", eventType)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Error processing webhook",
			"error":   err.Error(),
		})
		return
	}

	slog.InfoContext(ctx, "webhook processed",
		"event_type", eventType,
		"record_id", record.ID,
		"action", record.Action,
		"repository", record.Repository)

	c.JSON(http.StatusOK, gin.H{
		"message":    "Successfully processed GitHub webhook",
		"event_type": eventType,
		"id":         record.ID,
	})
}
