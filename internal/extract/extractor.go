package extract

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"quiz-reviewer/internal/domain"
)

// Extractor turns an uploaded document into plain text.
type Extractor interface {
	Extract(ctx context.Context, name string, r io.Reader) (string, error)
}

// DefaultMaxBytes bounds how much of a document is read.
const DefaultMaxBytes = 8 << 20

// TextExtractor accepts plain-text documents only. Word-processor and PDF
// containers are recognized and rejected with domain.ErrUnsupportedInput.
type TextExtractor struct {
	maxBytes int64
}

func NewTextExtractor(maxBytes int64) *TextExtractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &TextExtractor{maxBytes: maxBytes}
}

func (e *TextExtractor) Extract(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")); ext {
	case "", "txt", "text":
	case "docx", "pdf":
		return "", fmt.Errorf("%w: %s documents must be converted to text first", domain.ErrUnsupportedInput, ext)
	default:
		return "", fmt.Errorf("%w: file format %q, use TXT", domain.ErrUnsupportedInput, ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, e.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > e.maxBytes {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrUnsupportedInput, name, e.maxBytes)
	}
	if len(data) == 0 {
		return "", nil
	}

	mtype := mimetype.Detect(data)
	if !isText(mtype) {
		return "", fmt.Errorf("%w: %s looks like %s", domain.ErrUnsupportedInput, name, mtype.String())
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
