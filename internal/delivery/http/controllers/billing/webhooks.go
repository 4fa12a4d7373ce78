package billing

import (
	"DormBiz/internal/delivery/http/controllers"
	"DormBiz/internal/service/billing"
	"DormBiz/pkg/logger"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

type WebhookService interface {
	HandleWebhook(ctx context.Context, provider string, payload []byte, header http.Header) (billing.Outcome, error)
}

type WebhookHandler struct {
	log     logger.Log
	service WebhookService
	maxBody int64
}

func NewWebhookHandler(l logger.Log, s WebhookService, maxBody int64) *WebhookHandler {
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &WebhookHandler{log: l, service: s, maxBody: maxBody}
}

// Receive verifies the raw body of a payment provider callback. Every
// authentic delivery is acknowledged with 200 so providers stop retrying.
func (h *WebhookHandler) Receive(c *gin.Context) {
	provider := c.Param("provider")

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		controllers.BadRequest(c, err)
		return
	}

	outcome, err := h.service.HandleWebhook(c.Request.Context(), provider, payload, c.Request.Header)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcome": outcome})
}
