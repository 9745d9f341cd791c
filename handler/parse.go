package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/colin330smith/callbot-ai-sub000/middleware"
	"github.com/colin330smith/callbot-ai-sub000/pkg/logger"
	"github.com/colin330smith/callbot-ai-sub000/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ParseHandler turns an uploaded contract document into plain text.
type ParseHandler struct {
	extractor *service.Extractor
	vault     *service.VaultService // nil when archival is disabled
}

func NewParseHandler(extractor *service.Extractor, vault *service.VaultService) *ParseHandler {
	return &ParseHandler{
		extractor: extractor,
		vault:     vault,
	}
}

// Parse handles POST /api/parse-document. The single file field is named
// "file"; PDF, DOCX, DOC and TXT are accepted up to 10 MiB.
func (h *ParseHandler) Parse(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if header.Size > service.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large. Maximum size is 10 MB."})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, service.MaxFileSize+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}

	extraction, err := h.extractor.Extract(ctx, data, header.Filename)
	if err != nil {
		respondExtractionError(c, err)
		return
	}

	response := gin.H{
		"success":        true,
		"text":           extraction.Text,
		"fileName":       header.Filename,
		"fileSize":       extraction.ByteSize,
		"characterCount": extraction.CharacterCount,
		"wordCount":      extraction.WordCount,
		"processingTime": time.Since(start).Milliseconds(),
	}

	// Signed-in users get the original archived for their vault.
	if userID := middleware.GetUserID(c); userID != "" && h.vault != nil {
		key := fmt.Sprintf("%s/%s/%s", userID, uuid.NewString(), header.Filename)
		contentType := header.Header.Get("Content-Type")

		if err := h.vault.Archive(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
			logger.Warn(ctx, "failed to archive original", "error", err, "filename", header.Filename)
		} else {
			response["storageKey"] = key
		}
	}

	c.JSON(http.StatusOK, response)
}

// respondExtractionError maps each extraction failure to its own message
// so users can tell a scanned PDF from an oversized file.
func respondExtractionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large. Maximum size is 10 MB."})
	case errors.Is(err, service.ErrFileEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": "The uploaded file is empty."})
	case errors.Is(err, service.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type. Please upload PDF, DOCX, or TXT."})
	case errors.Is(err, service.ErrUnreadable):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read this document. It may be corrupt or password protected."})
	case errors.Is(err, service.ErrTextTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not extract enough text from this document. Try a different file."})
	default:
		logger.Error(c.Request.Context(), "document extraction failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse document"})
	}
}
