package handler

import (
	"io"
	"net/http"

	"woosync/internal/adapter/http/dto"
	"woosync/internal/core/domain"
	"woosync/internal/core/ports"
	"woosync/pkg/apperror"
	"woosync/pkg/response"

	"github.com/gin-gonic/gin"
)

// HeaderSignature carries the HMAC-SHA256 signature the remote store
// computes over the raw request body.
const HeaderSignature = "X-WC-Webhook-Signature"

// WebhookHandler receives inbound deliveries from remote stores.
type WebhookHandler struct {
	ingestSvc ports.IngestService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(ingestSvc ports.IngestService) *WebhookHandler {
	return &WebhookHandler{ingestSvc: ingestSvc}
}

// Receive handles POST /webhook/:token. The token is the only
// authentication for unsigned endpoints, so unknown tokens answer 404
// without revealing whether an endpoint exists but is inactive.
//
// Terminal outcomes answer 2xx so the remote store stops redelivering;
// only infrastructure failures answer 5xx, inviting a retry.
func (h *WebhookHandler) Receive(c *gin.Context) {
	token := c.Param("token")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("cannot read request body"))
		return
	}

	log, err := h.ingestSvc.Ingest(c.Request.Context(), token, body, c.GetHeader(HeaderSignature))
	if err != nil {
		response.Error(c, err)
		return
	}

	ack := dto.DeliveryAck{
		Outcome: string(log.Outcome),
		Message: log.Message,
	}
	if log.OrderID != nil {
		ack.OrderID = log.OrderID.String()
	}

	if log.Outcome == domain.DeliveryRejected {
		code := http.StatusBadRequest
		if log.Message == domain.RejectInvalidSignature {
			code = http.StatusUnauthorized
		}
		c.JSON(code, ack)
		return
	}
	c.JSON(http.StatusOK, ack)
}
