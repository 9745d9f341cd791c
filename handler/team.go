package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/colin330smith/callbot-ai-sub000/middleware"
	"github.com/colin330smith/callbot-ai-sub000/model"
	"github.com/colin330smith/callbot-ai-sub000/pkg/logger"
	"github.com/colin330smith/callbot-ai-sub000/service"
	"github.com/colin330smith/callbot-ai-sub000/store"
	"github.com/gin-gonic/gin"
)

// TeamHandler manages shared team accounts for team/business tiers.
type TeamHandler struct {
	teams         store.TeamRepository
	subscriptions store.SubscriptionRepository
	email         *service.EmailService
}

func NewTeamHandler(teams store.TeamRepository, subs store.SubscriptionRepository, email *service.EmailService) *TeamHandler {
	return &TeamHandler{
		teams:         teams,
		subscriptions: subs,
		email:         email,
	}
}

// List returns the caller's invited team members.
func (h *TeamHandler) List(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	members, err := h.teams.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list team members", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load team"})
		return
	}
	if members == nil {
		members = []model.TeamMember{}
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

type InviteRequest struct {
	Email string `json:"email" binding:"required"`
	Role  string `json:"role,omitempty"`
}

// Invite adds a member up to the tier's member cap and emails them.
func (h *TeamHandler) Invite(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := middleware.GetUserID(c)

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	memberEmail := strings.TrimSpace(strings.ToLower(req.Email))
	if !strings.Contains(memberEmail, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}

	switch req.Role {
	case "", model.RoleAdmin, model.RoleMember, model.RoleViewer:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	sub, err := h.subscriptions.GetByUserID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Team features require a Team or Business plan"})
			return
		}
		logger.Error(ctx, "failed to load subscription", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	limits := model.LimitsForTier(sub.Tier)
	if limits.TeamMembers == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "Team features require a Team or Business plan"})
		return
	}

	count, err := h.teams.CountByOwner(ctx, ownerID)
	if err != nil {
		logger.Error(ctx, "failed to count team members", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count >= limits.TeamMembers {
		c.JSON(http.StatusForbidden, gin.H{"error": "Team member limit reached for your plan"})
		return
	}

	member := &model.TeamMember{
		OwnerID:     ownerID,
		MemberEmail: memberEmail,
		Role:        req.Role,
	}
	if err := h.teams.Invite(ctx, member); err != nil {
		if errors.Is(err, store.ErrDuplicateMember) {
			c.JSON(http.StatusConflict, gin.H{"error": "This email is already on your team"})
			return
		}
		logger.Error(ctx, "failed to invite team member", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to invite member"})
		return
	}

	if err := h.email.SendTeamInvite(ctx, memberEmail, middleware.GetEmail(c)); err != nil {
		logger.Warn(ctx, "failed to send invite email", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"member": member})
}

// Remove deletes an invitation.
func (h *TeamHandler) Remove(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	memberID := c.Param("memberId")

	if err := h.teams.Remove(c.Request.Context(), memberID, ownerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
			return
		}
		logger.Error(c.Request.Context(), "failed to remove team member", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}
