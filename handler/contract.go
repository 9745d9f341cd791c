package handler

import (
	"errors"
	"net/http"

	"github.com/colin330smith/callbot-ai-sub000/middleware"
	"github.com/colin330smith/callbot-ai-sub000/pkg/logger"
	"github.com/colin330smith/callbot-ai-sub000/service"
	"github.com/colin330smith/callbot-ai-sub000/store"
	"github.com/gin-gonic/gin"
)

// ContractHandler serves the saved-report vault.
type ContractHandler struct {
	contracts store.ContractRepository
	vault     *service.VaultService // nil when archival is disabled
}

func NewContractHandler(contracts store.ContractRepository, vault *service.VaultService) *ContractHandler {
	return &ContractHandler{
		contracts: contracts,
		vault:     vault,
	}
}

// List returns the caller's saved reports without analysis bodies.
func (h *ContractHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	contracts, err := h.contracts.ListByUser(c.Request.Context(), userID, 50, 0)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list contracts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load contracts"})
		return
	}

	result := make([]gin.H, len(contracts))
	for i, contract := range contracts {
		result[i] = gin.H{
			"id":                contract.ID,
			"filename":          contract.Filename,
			"gc_name":           contract.GCName,
			"project_name":      contract.ProjectName,
			"risk_score":        contract.RiskScore,
			"recommendation":    contract.Recommendation,
			"executive_summary": contract.ExecutiveSummary,
			"created_at":        contract.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	c.JSON(http.StatusOK, gin.H{"contracts": result})
}

// Get returns one saved report with its full analysis. When the original
// upload was archived, a time-limited download URL is included.
func (h *ContractHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id := c.Param("id")

	contract, err := h.contracts.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
			return
		}
		logger.Error(c.Request.Context(), "failed to load contract", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load contract"})
		return
	}

	response := gin.H{"contract": contract}

	if contract.StorageKey != "" && h.vault != nil {
		if url, err := h.vault.PresignedURL(c.Request.Context(), contract.StorageKey); err == nil {
			response["download_url"] = url
		} else {
			logger.Warn(c.Request.Context(), "failed to presign download", "error", err)
		}
	}

	c.JSON(http.StatusOK, response)
}

// Delete removes a saved report and, best effort, its archived original.
func (h *ContractHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id := c.Param("id")

	contract, err := h.contracts.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
			return
		}
		logger.Error(c.Request.Context(), "failed to load contract", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete contract"})
		return
	}

	if err := h.contracts.Delete(c.Request.Context(), id, userID); err != nil {
		logger.Error(c.Request.Context(), "failed to delete contract", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete contract"})
		return
	}

	if contract.StorageKey != "" && h.vault != nil {
		if err := h.vault.Delete(c.Request.Context(), contract.StorageKey); err != nil {
			logger.Warn(c.Request.Context(), "failed to delete archived original", "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contract deleted"})
}
