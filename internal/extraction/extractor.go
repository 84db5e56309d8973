package extraction

import (
	"log/slog"
	"strings"

	"github.com/card-statement-ledger/internal/domain/statement"
)

// Non-breaking and figure spaces show up in PDF text and break \s matching
var whitespaceReplacer = strings.NewReplacer("\u00a0", " ", "\u2007", " ", "\u202f", " ", "\t", " ")

// Extractor detects a document's format and applies its rules
type Extractor struct {
	registry *Registry
	logger   *slog.Logger
}

func NewExtractor(registry *Registry, logger *slog.Logger) *Extractor {
	return &Extractor{
		registry: registry,
		logger:   logger,
	}
}

// JoinPages concatenates page texts in order, one page per line
func JoinPages(pages []string) string {
	return strings.Join(pages, "\n")
}

// DetectAndExtract detects the format of text and extracts the header and
// transactions. It never fails on missing header fields or rows.
func (e *Extractor) DetectAndExtract(text string) (*statement.Extraction, error) {
	text = whitespaceReplacer.Replace(text)

	rules, err := e.registry.Detect(text)
	if err != nil {
		e.logger.Debug("Format detection failed", "error", err)
		return nil, err
	}

	return e.extract(rules, text), nil
}

func (e *Extractor) extract(rules *FormatRuleSet, text string) *statement.Extraction {
	header, headerSpans := rules.ExtractHeader(text)
	extraction := &statement.Extraction{
		Format:       rules.Format(),
		Header:       header,
		Transactions: []statement.TransactionRecord{},
	}

	region, ok := rules.Region(text)
	if !ok {
		e.logger.Debug("Transaction section anchor not found", "format", rules.Format())
		return extraction
	}

	for _, raw := range rules.ExtractRows(text, region, headerSpans) {
		record, err := normalizeRow(raw)
		if err != nil {
			extraction.SkippedRows++
			e.logger.Info("Skipping transaction row",
				"format", rules.Format(),
				"date", raw.Date,
				"description", raw.Description,
				"source_currency", raw.SourceCurrency,
				"settlement_currency", raw.SettlementCurrency,
				"error", err)
			continue
		}
		extraction.Transactions = append(extraction.Transactions, record)
	}

	e.logger.Debug("Statement extracted",
		"format", extraction.Format,
		"transactions", len(extraction.Transactions),
		"skipped_rows", extraction.SkippedRows,
		"has_statement_date", extraction.Header.StatementDate != nil)

	return extraction
}

func normalizeRow(raw RawRow) (statement.TransactionRecord, error) {
	date, err := ParseRowDate(raw.Date)
	if err != nil {
		return statement.TransactionRecord{}, err
	}
	sourceCurrency, err := ParseCurrency(raw.SourceCurrency)
	if err != nil {
		return statement.TransactionRecord{}, err
	}
	sourceAmount, err := ParseAmount(raw.SourceAmount)
	if err != nil {
		return statement.TransactionRecord{}, err
	}
	settlementCurrency, err := ParseCurrency(raw.SettlementCurrency)
	if err != nil {
		return statement.TransactionRecord{}, err
	}
	settlementAmount, err := ParseAmount(raw.SettlementAmount)
	if err != nil {
		return statement.TransactionRecord{}, err
	}

	return statement.TransactionRecord{
		RawDate:            raw.Date,
		Date:               date,
		Description:        raw.Description,
		SourceCurrency:     sourceCurrency,
		SourceAmount:       sourceAmount,
		SettlementCurrency: settlementCurrency,
		SettlementAmount:   settlementAmount,
	}, nil
}
