package document

import (
	"context"
	"log/slog"

	"github.com/card-statement-ledger/internal/domain/card"
	"github.com/card-statement-ledger/internal/domain/statement"
	"github.com/card-statement-ledger/internal/extraction"
)

// StatementReader unlocks a card's statement document and extracts its contents
type StatementReader struct {
	text      TextExtractor
	extractor *extraction.Extractor
	logger    *slog.Logger
}

func NewStatementReader(text TextExtractor, extractor *extraction.Extractor, logger *slog.Logger) *StatementReader {
	return &StatementReader{
		text:      text,
		extractor: extractor,
		logger:    logger,
	}
}

// ReadStatement opens the document with the card's password and runs format
// detection and extraction over the joined page text.
func (r *StatementReader) ReadStatement(ctx context.Context, c *card.Card, data []byte) (*statement.Extraction, error) {
	password, err := c.DocumentPassword()
	if err != nil {
		return nil, err
	}

	pages, err := r.text.ExtractPages(ctx, data, password)
	if err != nil {
		r.logger.Warn("Failed to read statement document", "card_id", c.ID.String(), "error", err)
		return nil, err
	}

	result, err := r.extractor.DetectAndExtract(extraction.JoinPages(pages))
	if err != nil {
		r.logger.Info("Statement format not recognized", "card_id", c.ID.String(), "pages", len(pages), "error", err)
		return nil, err
	}

	r.logger.Debug("Statement extracted",
		"card_id", c.ID.String(),
		"format", result.Format.String(),
		"pages", len(pages),
		"transactions", len(result.Transactions),
		"skipped_rows", result.SkippedRows,
	)
	return result, nil
}
