package infrastructure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/nguyenthenguyen/docx"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"go.uber.org/zap"
)

const maxRawTextBytes = 10000

// DocumentExtractor resolves a resume URL to plain text. PDF is the native
// format; DOCX and TXT get best-effort handling, anything else is returned
// as truncated raw bytes. Callers treat an empty result as "extraction
// failed" and apply their own fallback.
type DocumentExtractor struct {
	client *http.Client
	logger *zap.Logger
}

func NewDocumentExtractor(logger *zap.Logger) *DocumentExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentExtractor{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

func (e *DocumentExtractor) ExtractText(ctx context.Context, resumeURL string) (string, error) {
	data, err := e.fetch(ctx, resumeURL)
	if err != nil {
		return "", err
	}

	switch ext := fileExtension(resumeURL); ext {
	case "pdf":
		return e.extractPDFText(data)
	case "docx":
		return e.extractDocxText(data)
	case "txt":
		return strings.TrimSpace(string(data)), nil
	default:
		// Unknown formats may yield garbled text; the caller decides
		// whether the result is usable.
		e.logger.Debug("unknown resume format, returning raw bytes",
			zap.String("extension", ext),
			zap.Int("bytes", len(data)),
		)
		if len(data) > maxRawTextBytes {
			data = data[:maxRawTextBytes]
		}
		return strings.TrimSpace(string(data)), nil
	}
}

func (e *DocumentExtractor) fetch(ctx context.Context, resumeURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resumeURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build resume request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch resume: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch resume: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read resume body: %w", err)
	}
	return data, nil
}

func (e *DocumentExtractor) extractPDFText(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("read PDF: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("get page count: %w", err)
	}
	if numPages == 0 {
		return "", nil
	}

	var textBuilder strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			e.logger.Warn("skipping unreadable PDF page", zap.Int("page", i), zap.Error(err))
			continue
		}

		ex, err := extractor.New(page)
		if err != nil {
			e.logger.Warn("skipping unreadable PDF page", zap.Int("page", i), zap.Error(err))
			continue
		}

		pageText, err := ex.ExtractText()
		if err != nil {
			e.logger.Warn("skipping unreadable PDF page", zap.Int("page", i), zap.Error(err))
			continue
		}

		if pageText != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n\n")
		}
	}

	return strings.TrimSpace(textBuilder.String()), nil
}

func (e *DocumentExtractor) extractDocxText(data []byte) (string, error) {
	reader, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read DOCX: %w", err)
	}
	defer reader.Close()

	content := reader.Editable().GetContent()
	return strings.TrimSpace(stripXMLTags(content)), nil
}

// stripXMLTags flattens document XML into whitespace-separated text.
func stripXMLTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func fileExtension(resumeURL string) string {
	parsed, err := url.Parse(resumeURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(parsed.Path), "."))
}
