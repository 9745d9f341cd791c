package handler

import (
	"net/http"

	"github.com/colin330smith/callbot-ai-sub000/pkg/logger"
	"github.com/colin330smith/callbot-ai-sub000/service"
	"github.com/gin-gonic/gin"
)

// NurtureHandler exposes the drip sweep to an external scheduler. The
// in-process cron job calls the service directly; this endpoint exists
// for deployments where a platform scheduler owns the cadence.
type NurtureHandler struct {
	nurture *service.NurtureService
	email   *service.EmailService
	secret  string
}

func NewNurtureHandler(nurture *service.NurtureService, email *service.EmailService, secret string) *NurtureHandler {
	return &NurtureHandler{
		nurture: nurture,
		email:   email,
		secret:  secret,
	}
}

// Run handles GET /api/nurture-emails. When a secret is configured the
// caller must present it as a bearer token.
func (h *NurtureHandler) Run(c *gin.Context) {
	ctx := c.Request.Context()

	if h.secret != "" && c.GetHeader("Authorization") != "Bearer "+h.secret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if !h.email.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Email not configured"})
		return
	}

	result, err := h.nurture.Run(ctx)
	if err != nil {
		logger.Error(ctx, "nurture sweep failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Nurture sweep failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"emailsSent":     result.EmailsSent,
		"leadsProcessed": result.LeadsProcessed,
	})
}
