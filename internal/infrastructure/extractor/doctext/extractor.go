package doctext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
	"github.com/crelogic/lease-abstractor/internal/core/ports"
)

// Scanned PDFs often yield a few stray characters of "text"; below this the
// extraction collaborator's own document understanding does better with the
// raw bytes.
const minUsableTextChars = 100

// Extractor turns a stored lease document into extraction-ready content:
// locally decoded text when possible, the raw (mime, payload) pair otherwise.
type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.LeaseDocument) (domain.DocumentContent, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return domain.DocumentContent{}, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return domain.DocumentContent{}, fmt.Errorf("read source document: %w", err)
	}
	if len(raw) == 0 {
		return domain.DocumentContent{}, domain.WrapError(domain.ErrInvalidInput, "extract document content",
			fmt.Errorf("document %s is empty", doc.Name))
	}

	switch {
	case doc.MimeType == "application/pdf":
		if text, err := pdfText(raw); err == nil && len(text) >= minUsableTextChars {
			return domain.DocumentContent{Text: text}, nil
		}
		return domain.DocumentContent{MimeType: doc.MimeType, Payload: raw}, nil

	case strings.HasPrefix(doc.MimeType, "image/"):
		return domain.DocumentContent{MimeType: doc.MimeType, Payload: raw}, nil

	default:
		if !utf8.Valid(raw) {
			return domain.DocumentContent{MimeType: doc.MimeType, Payload: raw}, nil
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			return domain.DocumentContent{}, domain.WrapError(domain.ErrInvalidInput, "extract document content",
				fmt.Errorf("document %s contains no text", doc.Name))
		}
		return domain.DocumentContent{Text: text}, nil
	}
}

func pdfText(raw []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	textReader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
