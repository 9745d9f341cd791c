package handler

import (
	"net/http"

	"github.com/colin330smith/callbot-ai-sub000/middleware"
	"github.com/colin330smith/callbot-ai-sub000/pkg/logger"
	"github.com/colin330smith/callbot-ai-sub000/store"
	"github.com/gin-gonic/gin"
)

// AccountHandler exposes the signed-in user's identity and plan.
type AccountHandler struct {
	subscriptions store.SubscriptionRepository
}

func NewAccountHandler(subs store.SubscriptionRepository) *AccountHandler {
	return &AccountHandler{subscriptions: subs}
}

// Me returns the current user and their subscription, creating the
// free-tier row on first sight.
func (h *AccountHandler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)
	email := middleware.GetEmail(c)

	sub, err := h.subscriptions.EnsureForUser(c.Request.Context(), userID, email)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to load subscription", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"email":        email,
		"subscription": sub,
	})
}
