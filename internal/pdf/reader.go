// Package pdf turns voter-roll documents into plain text. The native
// decoder reads the text layer with ledongthuc/pdf after a relaxed pdfcpu
// structure check; the command decoder shells out to pdftotext.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNoText is returned when a document decodes but has no text layer.
var ErrNoText = errors.New("no text content could be extracted from PDF")

// Decoder converts a document's raw bytes into its text. path is used for
// diagnostics and by decoders that need the file on disk.
type Decoder interface {
	Decode(ctx context.Context, path string, data []byte) (string, error)
}

// TextDecoder extracts the embedded text layer page by page.
type TextDecoder struct {
	maxTextSize int
	validate    bool
	logger      *slog.Logger
}

// NewTextDecoder creates a decoder that pre-validates documents with pdfcpu
// in relaxed mode and caps the returned text at 10MB.
func NewTextDecoder(logger *slog.Logger) *TextDecoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextDecoder{
		maxTextSize: 10 * 1024 * 1024,
		validate:    true,
		logger:      logger,
	}
}

// WithoutValidation skips the pdfcpu structure check.
func (d *TextDecoder) WithoutValidation() *TextDecoder {
	d.validate = false
	return d
}

// Decode implements Decoder. Parser panics on malformed input are returned
// as errors.
func (d *TextDecoder) Decode(ctx context.Context, path string, data []byte) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty document: %s", path)
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf parser panic on %s: %v", path, r)
		}
	}()

	if d.validate {
		pages, err := PageCount(data)
		if err != nil {
			return "", err
		}
		d.logger.Debug("pdf structure ok", "path", path, "pages", pages)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	text, err = d.extractTextContent(ctx, path, reader)
	if err != nil {
		return "", fmt.Errorf("failed to extract text content: %w", err)
	}
	return text, nil
}

// extractTextContent joins page texts with a newline. Pages that fail to
// decode are logged and skipped.
func (d *TextDecoder) extractTextContent(ctx context.Context, path string, reader *pdf.Reader) (string, error) {
	var builder strings.Builder
	total := reader.NumPage()

	for pageNum := 1; pageNum <= total; pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			d.logger.Debug("page text failed", "path", path, "page", pageNum, "error", err)
			continue
		}

		if builder.Len()+len(content) > d.maxTextSize {
			if remaining := d.maxTextSize - builder.Len(); remaining > 0 {
				builder.WriteString(content[:remaining])
			}
			d.logger.Warn("text truncated", "path", path, "page", pageNum, "limit", d.maxTextSize)
			break
		}

		builder.WriteString(content)
		if pageNum < total {
			builder.WriteByte('\n')
		}
	}

	text := builder.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// PageCount reads the document with pdfcpu in relaxed validation mode and
// returns its page count.
func PageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("invalid PDF structure: %w", err)
	}
	return n, nil
}
