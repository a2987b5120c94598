package handlers

import (
	"errors"
	"io"
	"net/http"

	apierrors "github.com/geofoncier/api/internal/errors"
	"github.com/geofoncier/api/internal/middleware"
	"github.com/geofoncier/api/internal/services"
	"github.com/gin-gonic/gin"
)

// signatureHeader carries the gateway's HMAC signature over the raw
// webhook body.
const signatureHeader = "X-Gateway-Signature"

// PaymentHandler handles subscription and payment-gateway HTTP requests.
type PaymentHandler struct {
	service services.SubscriptionService
}

// NewPaymentHandler creates a new PaymentHandler instance.
func NewPaymentHandler(service services.SubscriptionService) *PaymentHandler {
	return &PaymentHandler{
		service: service,
	}
}

// CreateSubscription handles POST /api/v1/subscriptions.
// Opens a pending subscription; payment completes out of band and lands
// back here through the webhook.
func (h *PaymentHandler) CreateSubscription(c *gin.Context) {
	var req services.CreateSubscriptionInput
	if !bindJSON(c, &req) {
		return
	}
	if req.UserID == "" {
		req.UserID = c.GetHeader(userIDHeader)
	}

	sub, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOwnerRequired),
			errors.Is(err, services.ErrUnknownPlan),
			errors.Is(err, services.ErrUnknownPeriod),
			errors.Is(err, services.ErrAreaRequired):
			apierrors.BadRequest(c, err.Error(), nil)
		default:
			apierrors.InternalServerError(c, "Failed to create subscription", err)
		}
		return
	}

	c.JSON(http.StatusCreated, sub)
}

// SubscriptionHistory handles GET /api/v1/subscriptions.
func (h *PaymentHandler) SubscriptionHistory(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		userID = c.GetHeader(userIDHeader)
	}

	history, err := h.service.HistoryByUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrOwnerRequired) {
			apierrors.BadRequest(c, "A userId is required, as a query parameter or the X-User-ID header", nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to load subscription history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": history, "count": len(history)})
}

// SubscriptionStatus handles GET /api/v1/subscriptions/status.
func (h *PaymentHandler) SubscriptionStatus(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		userID = c.GetHeader(userIDHeader)
	}
	if userID == "" {
		apierrors.BadRequest(c, "A userId is required, as a query parameter or the X-User-ID header", nil)
		return
	}

	active, err := h.service.HasActive(c.Request.Context(), userID)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to check subscription status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": userID, "active": active})
}

// Webhook handles POST /api/v1/payments/webhook.
// The raw body is read before any parsing so the signature covers the
// exact bytes the gateway sent. A signature mismatch is a hard 401.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	log := middleware.GetLogger(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apierrors.BadRequest(c, "Failed to read webhook body", nil)
		return
	}

	err = h.service.HandleWebhook(c.Request.Context(), body, c.GetHeader(signatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSignature):
			apierrors.Unauthorized(c, "Webhook signature verification failed")
		case errors.Is(err, services.ErrSubscriptionNotFound):
			apierrors.NotFound(c, err.Error())
		default:
			if log != nil {
				log.Error("Webhook processing failed", err, nil)
			}
			apierrors.InternalServerError(c, "Failed to process webhook", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}
