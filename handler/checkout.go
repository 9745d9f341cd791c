package handler

import (
	"net/http"

	"github.com/colin330smith/callbot-ai-sub000/middleware"
	"github.com/colin330smith/callbot-ai-sub000/model"
	"github.com/colin330smith/callbot-ai-sub000/pkg/logger"
	"github.com/colin330smith/callbot-ai-sub000/service"
	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	stripe *service.StripeService
}

func NewCheckoutHandler(stripe *service.StripeService) *CheckoutHandler {
	return &CheckoutHandler{stripe: stripe}
}

type CheckoutRequest struct {
	Tier     string `json:"tier" binding:"required"`
	IsAnnual bool   `json:"isAnnual"`
}

// Create starts a hosted checkout session for a paid tier upgrade.
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !model.ValidTier(req.Tier) || req.Tier == model.TierFree {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tier"})
		return
	}

	userID := middleware.GetUserID(c)
	email := middleware.GetEmail(c)

	url, err := h.stripe.CreateCheckoutSession(c.Request.Context(), userID, email, req.Tier, req.IsAnnual)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to create checkout session", "error", err, "tier", req.Tier, "annual", req.IsAnnual)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start checkout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
