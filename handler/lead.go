package handler

import (
	"net/http"
	"strings"

	"github.com/colin330smith/callbot-ai-sub000/model"
	"github.com/colin330smith/callbot-ai-sub000/pkg/logger"
	"github.com/colin330smith/callbot-ai-sub000/service"
	"github.com/colin330smith/callbot-ai-sub000/store"
	"github.com/gin-gonic/gin"
)

// LeadHandler captures prospect emails from the preview funnel.
type LeadHandler struct {
	leads store.LeadRepository
	email *service.EmailService
}

func NewLeadHandler(leads store.LeadRepository, email *service.EmailService) *LeadHandler {
	return &LeadHandler{
		leads: leads,
		email: email,
	}
}

type CaptureLeadRequest struct {
	Email     string `json:"email" binding:"required"`
	RiskScore int    `json:"riskScore,omitempty"`
	Source    string `json:"source,omitempty"`
}

// Capture stores the lead and sends a welcome email. Email delivery is
// best effort; the lead itself must never be lost to a mail outage.
func (h *LeadHandler) Capture(c *gin.Context) {
	ctx := c.Request.Context()

	var req CaptureLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !strings.Contains(email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}

	lead := &model.Lead{
		Email:     email,
		RiskScore: req.RiskScore,
		Source:    req.Source,
	}
	if err := h.leads.Create(ctx, lead); err != nil {
		logger.Error(ctx, "failed to store lead", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save"})
		return
	}

	if err := h.email.SendWelcome(ctx, email); err != nil {
		logger.Warn(ctx, "failed to send welcome email", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
