package handler

import (
	"net/http"
	"strings"

	"github.com/colin330smith/callbot-ai-sub000/middleware"
	"github.com/colin330smith/callbot-ai-sub000/model"
	"github.com/colin330smith/callbot-ai-sub000/pkg/logger"
	"github.com/colin330smith/callbot-ai-sub000/store"
	"github.com/gin-gonic/gin"
)

type ServiceRequestHandler struct {
	requests store.ServiceRequestRepository
}

func NewServiceRequestHandler(requests store.ServiceRequestRepository) *ServiceRequestHandler {
	return &ServiceRequestHandler{requests: requests}
}

type serviceRequestInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Company     string `json:"company"`
	Phone       string `json:"phone"`
	Message     string `json:"message"`
	ServiceType string `json:"serviceType"`
}

// Create handles POST /api/service-request. Signed-in callers get the
// request attached to their account; anonymous submissions are kept too.
func (h *ServiceRequestHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var input serviceRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Name == "" || input.Email == "" || input.ServiceType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, email and service type are required"})
		return
	}
	if !strings.Contains(input.Email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}
	if !model.ValidServiceType(input.ServiceType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid service type"})
		return
	}

	req := &model.ServiceRequest{
		UserID:      middleware.GetUserID(c),
		Name:        input.Name,
		Email:       input.Email,
		Company:     strings.TrimSpace(input.Company),
		Phone:       strings.TrimSpace(input.Phone),
		Message:     strings.TrimSpace(input.Message),
		ServiceType: input.ServiceType,
	}
	if err := h.requests.Create(ctx, req); err != nil {
		logger.Error(ctx, "failed to save service request", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit request"})
		return
	}

	logger.Info(ctx, "service request received",
		"serviceType", req.ServiceType,
		"hasAccount", req.UserID != "")
	c.JSON(http.StatusOK, gin.H{"success": true})
}
