// internal/handlers/billing/billing_handler.go
package billing

import (
	"io"
	"net/http"

	"lexinsight-service/internal/domain/billing"
	"lexinsight-service/internal/middleware"
	xerrors "lexinsight-service/internal/pkg/errors"
	"lexinsight-service/internal/pkg/response"
	service "lexinsight-service/internal/service/billing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Stripe recommends tolerating payloads up to 64KB.
const maxWebhookBody = 65536

type BillingHandler struct {
	billingService *service.BillingService
	logger         *zap.Logger
}

func NewBillingHandler(billingService *service.BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		logger:         logger,
	}
}

// CreateCheckout opens a payment gateway checkout session. An empty
// plan buys a single report credit; monthly/annual start a
// subscription.
func (h *BillingHandler) CreateCheckout(c *gin.Context) {
	accountID := middleware.MustGetAccountID(c)

	var req billing.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.billingService.CreateCheckout(c.Request.Context(), accountID, &req)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to create checkout session", err)
		return
	}

	response.Success(c, http.StatusOK, "checkout session created", result)
}

// Webhook receives payment gateway event deliveries. Unverified
// payloads are rejected; verified events for unknown customers or of
// unknown kinds are acknowledged so the gateway stops retrying them.
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to read payload", err)
		return
	}

	ev, err := h.billingService.ParseWebhookEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("rejected webhook delivery", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "invalid webhook payload", nil)
		return
	}

	if err := h.billingService.ApplyEvent(c.Request.Context(), ev); err != nil {
		if xerrors.Is(err, xerrors.ErrVersionConflict) {
			// Let the gateway redeliver once the contention clears.
			response.Error(c, http.StatusConflict, "event application conflicted, retry", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to apply event", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
