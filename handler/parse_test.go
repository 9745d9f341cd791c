package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/colin330smith/callbot-ai-sub000/service"
	"github.com/gin-gonic/gin"
)

func parseRouter(h *ParseHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/parse-document", h.Parse)
	return router
}

func uploadFile(router *gin.Engine, filename string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, _ := writer.CreateFormFile("file", filename)
	part.Write(content)
	writer.Close()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/parse-document", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.ServeHTTP(w, req)
	return w
}

func TestParseTextFile(t *testing.T) {
	h := NewParseHandler(service.NewExtractor(), nil)
	router := parseRouter(h)

	content := []byte(strings.Repeat("Retainage of ten percent shall be withheld from each progress payment. ", 4))
	w := uploadFile(router, "subcontract.txt", content)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success        bool   `json:"success"`
		Text           string `json:"text"`
		FileName       string `json:"fileName"`
		CharacterCount int    `json:"characterCount"`
		WordCount      int    `json:"wordCount"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !resp.Success {
		t.Error("Expected success true")
	}
	if resp.FileName != "subcontract.txt" {
		t.Errorf("Expected fileName subcontract.txt, got %s", resp.FileName)
	}
	if resp.CharacterCount == 0 || resp.WordCount == 0 {
		t.Errorf("Expected non-zero counts, got %d chars %d words", resp.CharacterCount, resp.WordCount)
	}
	if !strings.Contains(resp.Text, "Retainage") {
		t.Errorf("Expected extracted text, got %q", resp.Text)
	}
}

func TestParseNoFile(t *testing.T) {
	h := NewParseHandler(service.NewExtractor(), nil)
	router := parseRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/parse-document", strings.NewReader(""))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestParseUnsupportedType(t *testing.T) {
	h := NewParseHandler(service.NewExtractor(), nil)
	router := parseRouter(h)

	w := uploadFile(router, "contract.xlsx", []byte(strings.Repeat("data ", 50)))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Unsupported file type") {
		t.Errorf("Expected unsupported type message, got %s", w.Body.String())
	}
}

func TestParseTextTooShort(t *testing.T) {
	h := NewParseHandler(service.NewExtractor(), nil)
	router := parseRouter(h)

	w := uploadFile(router, "stub.txt", []byte("just a heading"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "enough text") {
		t.Errorf("Expected short-text message, got %s", w.Body.String())
	}
}

func TestParseCorruptDocument(t *testing.T) {
	h := NewParseHandler(service.NewExtractor(), nil)
	router := parseRouter(h)

	w := uploadFile(router, "contract.docx", []byte(strings.Repeat("not a zip archive ", 20)))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Could not read") {
		t.Errorf("Expected unreadable message, got %s", w.Body.String())
	}
}
