package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ztas-io/analytics-api/internal/dto"
	"github.com/ztas-io/analytics-api/internal/service"
	"go.uber.org/zap"
)

// maxWebhookBody bounds how much of a webhook payload gets read.
const maxWebhookBody = int64(65536)

// BillingHandler handles checkout, portal and webhook traffic.
type BillingHandler struct {
	billingService service.BillingService
	logger         *zap.Logger
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billingService service.BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		logger:         logger,
	}
}

// Checkout starts a subscription checkout session.
// @Summary Create a checkout session
// @Tags billing
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/stripe/checkout [post]
func (h *BillingHandler) Checkout(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		unauthorized(c, "User ID not found in context")
		return
	}

	url, err := h.billingService.Checkout(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, service.ErrAlreadySubscribed) {
			h.logger.Error("checkout failed", zap.String("user_id", id), zap.Error(err))
		}
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Portal opens the customer portal for subscription management.
// @Summary Create a billing portal session
// @Tags billing
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/stripe/portal [post]
func (h *BillingHandler) Portal(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		unauthorized(c, "User ID not found in context")
		return
	}

	url, err := h.billingService.Portal(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, service.ErrNoSubscription) {
			h.logger.Error("portal failed", zap.String("user_id", id), zap.Error(err))
		}
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Webhook receives subscription lifecycle events. Processing failures are
// reported to the provider, which owns the retry schedule.
// @Summary Stripe webhook
// @Tags billing
// @Accept json
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/stripe/webhook [post]
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "Could not read payload", nil)
		return
	}

	err = h.billingService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			h.logger.Warn("webhook signature rejected", zap.Error(err))
			badRequest(c, "Signature verification failed", nil)
			return
		}
		h.logger.Error("webhook processing failed", zap.Error(err))
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}
