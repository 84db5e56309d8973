package extraction

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/card-statement-ledger/internal/domain/statement"
)

// HeaderField names a statement-level field a format may declare
type HeaderField string

const (
	FieldTotalOutstanding HeaderField = "total_outstanding"
	FieldStatementDate    HeaderField = "statement_date"
	FieldClosingBalance   HeaderField = "closing_balance"
)

// Row grammar capture-group contract
const (
	GroupDate               = "date"
	GroupDescription        = "description"
	GroupSourceCurrency     = "source_currency"
	GroupSourceAmount       = "source_amount"
	GroupSettlementCurrency = "settlement_currency"
	GroupSettlementAmount   = "settlement_amount"
)

// Header field capture-group contracts
const (
	GroupAmount = "amount"
	GroupDay    = "day"
	GroupMonth  = "month"
	GroupYear   = "year"
)

var (
	rowGroups    = []string{GroupDate, GroupDescription, GroupSourceCurrency, GroupSourceAmount, GroupSettlementCurrency, GroupSettlementAmount}
	amountGroups = []string{GroupAmount}
	dateGroups   = []string{GroupDay, GroupMonth, GroupYear}
)

// FieldRule binds a header field to the production that captures it
type FieldRule struct {
	Field      HeaderField
	Production *Production
}

// RawRow holds the captured text of one transaction row before normalization
type RawRow struct {
	Date               string
	Description        string
	SourceCurrency     string
	SourceAmount       string
	SettlementCurrency string
	SettlementAmount   string
}

// FormatRuleSet is the declarative description of one statement layout
type FormatRuleSet struct {
	format      statement.FormatID
	keyword     string
	fingerprint *regexp.Regexp
	fields      []FieldRule
	anchor      *Anchor
	row         *Production
}

// NewFormatRuleSet validates the production contracts and builds a rule set.
// A nil anchor means rows are matched across the whole document.
func NewFormatRuleSet(format statement.FormatID, keyword string, anchor *Anchor, row *Production, fields ...FieldRule) (*FormatRuleSet, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("rule set: unknown format %q", format)
	}
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("rule set %s: fingerprint keyword is required", format)
	}
	if row == nil || !sameGroups(row.Groups(), rowGroups) {
		return nil, fmt.Errorf("rule set %s: row production must capture %v", format, rowGroups)
	}

	seen := make(map[HeaderField]bool, len(fields))
	for _, f := range fields {
		if seen[f.Field] {
			return nil, fmt.Errorf("rule set %s: header field %s declared twice", format, f.Field)
		}
		seen[f.Field] = true

		want := amountGroups
		if f.Field == FieldStatementDate {
			want = dateGroups
		}
		if f.Production == nil || !sameGroups(f.Production.Groups(), want) {
			return nil, fmt.Errorf("rule set %s: header field %s must capture %v", format, f.Field, want)
		}
	}

	return &FormatRuleSet{
		format:      format,
		keyword:     keyword,
		fingerprint: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`),
		fields:      append([]FieldRule(nil), fields...),
		anchor:      anchor,
		row:         row,
	}, nil
}

func (r *FormatRuleSet) Format() statement.FormatID {
	return r.format
}

func (r *FormatRuleSet) Keyword() string {
	return r.keyword
}

// Anchored reports whether rows are only read after a section anchor
func (r *FormatRuleSet) Anchored() bool {
	return r.anchor != nil
}

// Matches reports whether text carries the format's fingerprint as a whole word
func (r *FormatRuleSet) Matches(text string) bool {
	return r.fingerprint.MatchString(text)
}

// ExtractHeader runs every declared header production once over text.
// Fields that do not match, or that fail to normalize, stay absent.
// The spans of all header matches are returned so row extraction can skip them.
func (r *FormatRuleSet) ExtractHeader(text string) (statement.Header, []Span) {
	var header statement.Header
	var spans []Span
	for _, f := range r.fields {
		m, ok := f.Production.Find(text)
		if !ok {
			continue
		}
		spans = append(spans, m.Span)

		switch f.Field {
		case FieldStatementDate:
			if date, err := ParseDateParts(m.Get(GroupDay), m.Get(GroupMonth), m.Get(GroupYear)); err == nil {
				header.StatementDate = &date
			}
		case FieldTotalOutstanding:
			if amount, err := ParseAmount(m.Get(GroupAmount)); err == nil {
				header.TotalOutstanding = &amount
			}
		case FieldClosingBalance:
			if amount, err := ParseAmount(m.Get(GroupAmount)); err == nil {
				header.ClosingBalance = &amount
			}
		}
	}
	return header, spans
}

// Region returns the part of text that holds transaction rows.
// Unanchored formats use the whole text; anchored formats without an anchor match yield false.
func (r *FormatRuleSet) Region(text string) (Span, bool) {
	if r.anchor == nil {
		return Span{Start: 0, End: len(text)}, true
	}
	return r.anchor.Locate(text)
}

// ExtractRows applies the row grammar inside region of text and returns captures in
// document order. A match whose date lies inside one of the header spans was started
// by a header value, so scanning resumes after that header match.
func (r *FormatRuleSet) ExtractRows(text string, region Span, header []Span) []RawRow {
	window := text[:region.End]
	rows := []RawRow{}
	for pos := region.Start; pos < region.End; {
		m, ok := r.row.FindFrom(window, pos)
		if !ok {
			break
		}
		date, _ := m.GroupSpan(GroupDate)
		if h, inside := spanContaining(header, date.Start); inside {
			pos = max(h.End, date.End)
			continue
		}

		rows = append(rows, RawRow{
			Date:               m.Get(GroupDate),
			Description:        strings.TrimSpace(m.Get(GroupDescription)),
			SourceCurrency:     m.Get(GroupSourceCurrency),
			SourceAmount:       m.Get(GroupSourceAmount),
			SettlementCurrency: m.Get(GroupSettlementCurrency),
			SettlementAmount:   m.Get(GroupSettlementAmount),
		})
		pos = m.Span.End
	}
	return rows
}

func spanContaining(spans []Span, offset int) (Span, bool) {
	for _, s := range spans {
		if s.Contains(offset) {
			return s, true
		}
	}
	return Span{}, false
}

func sameGroups(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
