package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/colin330smith/callbot-ai-sub000/middleware"
	"github.com/colin330smith/callbot-ai-sub000/model"
	"github.com/colin330smith/callbot-ai-sub000/pkg/logger"
	"github.com/colin330smith/callbot-ai-sub000/service"
	"github.com/colin330smith/callbot-ai-sub000/store"
	"github.com/gin-gonic/gin"
)

// MinContractTextLength rejects pasted snippets too short to analyze.
const MinContractTextLength = 100

type AnalyzeHandler struct {
	analyzer      *service.Analyzer
	subscriptions store.SubscriptionRepository
	contracts     store.ContractRepository
}

func NewAnalyzeHandler(analyzer *service.Analyzer, subs store.SubscriptionRepository, contracts store.ContractRepository) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer:      analyzer,
		subscriptions: subs,
		contracts:     contracts,
	}
}

type AnalyzeRequest struct {
	ContractText string `json:"contractText"`
	Preview      bool   `json:"preview"`
	Filename     string `json:"filename,omitempty"`
	GCName       string `json:"gcName,omitempty"`
	ProjectName  string `json:"projectName,omitempty"`
	StorageKey   string `json:"storageKey,omitempty"`
}

// Analyze runs a contract risk analysis. Preview mode is free and
// unauthenticated; full mode requires auth and one quota slot.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.ContractText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No contract text provided"})
		return
	}
	if len(req.ContractText) < MinContractTextLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Contract text is too short to analyze"})
		return
	}

	if req.Preview {
		analysis, err := h.analyzer.Preview(ctx, req.ContractText)
		if err != nil {
			respondAnalysisError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":        true,
			"analysis":       analysis,
			"preview":        true,
			"processingTime": time.Since(start).Milliseconds(),
		})
		return
	}

	// Full mode. Reject before any upstream call when unauthenticated.
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":        "Sign in to run a full analysis",
			"requiresAuth": true,
		})
		return
	}

	if _, err := h.subscriptions.EnsureForUser(ctx, userID, middleware.GetEmail(c)); err != nil {
		logger.Error(ctx, "failed to ensure subscription", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	usage, err := h.subscriptions.ReserveUsage(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrQuotaExceeded) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":         "Monthly contract limit reached. Upgrade your plan to analyze more contracts.",
				"quotaExceeded": true,
			})
			return
		}
		logger.Error(ctx, "quota reservation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	analysis, err := h.analyzer.Full(ctx, req.ContractText)
	if err != nil {
		// Give the reserved slot back; the user got nothing for it.
		if releaseErr := h.subscriptions.ReleaseUsage(ctx, userID); releaseErr != nil {
			logger.Error(ctx, "failed to release quota slot", "error", releaseErr)
		}
		respondAnalysisError(c, err)
		return
	}

	contract := &model.Contract{
		UserID:           userID,
		Filename:         req.Filename,
		GCName:           req.GCName,
		ProjectName:      req.ProjectName,
		StorageKey:       req.StorageKey,
		RiskScore:        analysis.RiskScore,
		Recommendation:   analysis.Recommendation,
		ExecutiveSummary: analysis.ExecutiveSummary,
		Analysis:         analysis,
	}
	if contract.Filename == "" {
		contract.Filename = "pasted-contract.txt"
	}

	response := gin.H{
		"success":        true,
		"analysis":       analysis,
		"preview":        false,
		"processingTime": time.Since(start).Milliseconds(),
		"usage":          usage,
	}

	// A failed save is logged but the user still gets their analysis.
	if err := h.contracts.Create(ctx, contract); err != nil {
		logger.Error(ctx, "failed to persist contract", "error", err, "filename", contract.Filename)
	} else {
		response["contractId"] = contract.ID
	}

	c.JSON(http.StatusOK, response)
}

// respondAnalysisError maps upstream and parse failures to a generic
// retryable message. The specifics stay in server-side logs only.
func respondAnalysisError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	switch {
	case errors.Is(err, service.ErrUpstreamRateLimited):
		logger.Error(ctx, "upstream rate limited", "error", err)
	case errors.Is(err, service.ErrUpstreamUnavailable):
		logger.Error(ctx, "upstream unavailable", "error", err)
	case errors.Is(err, service.ErrParse):
		logger.Error(ctx, "analysis parse failure", "error", err)
	default:
		logger.Error(ctx, "analysis failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed. Please try again."})
		return
	}

	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error": "Analysis service is busy. Please try again in a moment.",
	})
}
