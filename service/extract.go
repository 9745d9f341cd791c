package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/colin330smith/callbot-ai-sub000/pkg/logger"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Extraction bounds.
const (
	MaxFileSize   = 10 << 20 // 10 MiB
	MinTextLength = 100
	MaxTextLength = 200000
)

// Extraction failure taxonomy. Each maps to a distinct user-facing
// message in the handler layer; none are interchangeable.
var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrFileEmpty       = errors.New("file is empty")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrUnreadable      = errors.New("document could not be read")
	ErrTextTooShort    = errors.New("not enough text extracted")
)

// Extraction is the normalized plain text pulled from one upload. It is
// transient and never persisted.
type Extraction struct {
	Text           string
	Filename       string
	ByteSize       int64
	CharacterCount int
	WordCount      int
}

// Extractor converts uploaded contract documents into plain text.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpace   = regexp.MustCompile(`[ \t]+`)
)

// Extract validates size bounds, dispatches by extension and normalizes
// the result. Unsupported extensions are a hard rejection, never a
// best-effort guess.
func (e *Extractor) Extract(ctx context.Context, data []byte, filename string) (*Extraction, error) {
	if len(data) == 0 {
		return nil, ErrFileEmpty
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(data))
	}

	var text string
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err = extractPDF(ctx, data)
	case ".docx", ".doc":
		text, err = extractDocx(data)
	case ".txt":
		text, err = extractPlain(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}

	text = normalizeText(text)

	if len(text) < MinTextLength {
		// Usually a scanned or image-only PDF.
		return nil, fmt.Errorf("%w: got %d characters", ErrTextTooShort, len(text))
	}
	if len(text) > MaxTextLength {
		logger.Warn(ctx, "extracted text truncated",
			"filename", filename,
			"characters", len(text),
			"limit", MaxTextLength,
		)
		text = truncateToRune(text, MaxTextLength)
	}

	return &Extraction{
		Text:           text,
		Filename:       filename,
		ByteSize:       int64(len(data)),
		CharacterCount: len(text),
		WordCount:      len(strings.Fields(text)),
	}, nil
}

func extractPDF(ctx context.Context, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var parts []string
	totalPages := reader.NumPage()

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// One unreadable page does not fail the document.
			continue
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

func extractDocx(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer doc.Close()

	return stripDocxMarkup(doc.Editable().GetContent()), nil
}

// stripDocxMarkup flattens document.xml to plain text, keeping paragraph
// breaks as newlines.
func stripDocxMarkup(content string) string {
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = strings.ReplaceAll(content, "<w:tab/>", "\t")
	content = strings.ReplaceAll(content, "<w:br/>", "\n")

	var b strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func extractPlain(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrUnreadable)
	}
	return string(data), nil
}

func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = multiSpace.ReplaceAllString(text, " ")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// truncateToRune cuts s to at most limit bytes, backing up so a
// multibyte character is never split. Contracts with section signs or
// accented party names would otherwise end in an invalid byte.
func truncateToRune(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
