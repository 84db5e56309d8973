package document

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/card-statement-ledger/internal/domain/statement"
	"github.com/ledongthuc/pdf"
)

// TextExtractor turns a document into ordered per-page text
type TextExtractor interface {
	ExtractPages(ctx context.Context, data []byte, password string) ([]string, error)
}

// PDFTextExtractor reads password-protected PDF statements
type PDFTextExtractor struct {
	logger *slog.Logger
}

func NewPDFTextExtractor(logger *slog.Logger) *PDFTextExtractor {
	return &PDFTextExtractor{logger: logger}
}

// ExtractPages returns one string per page with the page's text items joined by single
// spaces. Every failure, including a wrong password, wraps statement.ErrDocumentUnreadable.
func (e *PDFTextExtractor) ExtractPages(ctx context.Context, data []byte, password string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: pdf library crashed: %v", statement.ErrDocumentUnreadable, r)
		}
	}()

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", statement.ErrDocumentUnreadable)
	}

	r, err := pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), passwordOnce(password))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", statement.ErrDocumentUnreadable, err)
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("%w: document has no pages", statement.ErrDocumentUnreadable)
	}

	pages = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := pageText(page)
		if err != nil {
			e.logger.Warn("Failed to read page text", "page", i, "error", err)
			continue
		}
		pages = append(pages, text)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no readable pages", statement.ErrDocumentUnreadable)
	}

	e.logger.Debug("Document text extracted", "pages", len(pages), "total_pages", numPages)
	return pages, nil
}

// passwordOnce returns the password on the first call and "" afterwards, which tells the
// reader to give up instead of retrying forever.
func passwordOnce(password string) func() string {
	used := false
	return func() string {
		if used {
			return ""
		}
		used = true
		return password
	}
}

func pageText(page pdf.Page) (string, error) {
	rows, err := page.GetTextByRow()
	if err == nil {
		return flattenRows(rows), nil
	}

	fonts := make(map[string]*pdf.Font)
	for _, name := range page.Fonts() {
		f := page.Font(name)
		fonts[name] = &f
	}
	text, plainErr := page.GetPlainText(fonts)
	if plainErr != nil {
		return "", fmt.Errorf("rows: %v, plain text: %w", err, plainErr)
	}
	return strings.Join(strings.Fields(text), " "), nil
}

// flattenRows joins every text item of every row with single spaces
func flattenRows(rows pdf.Rows) string {
	var parts []string
	for _, row := range rows {
		for _, word := range row.Content {
			if s := strings.TrimSpace(word.S); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, " ")
}
