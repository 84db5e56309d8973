package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRuleSet_ExtractRows(t *testing.T) {
	rules := MTBRules()

	tests := []struct {
		name      string
		text      string
		header    func(text string) []Span
		wantDates []string
		wantDescs []string
	}{
		{
			name:      "date inside description is kept",
			text:      "05-Jan-2024 EMI 01-Jan-2024 INSTALMENT BDT 150.00 BDT 150.00",
			wantDates: []string{"05-Jan-2024"},
			wantDescs: []string{"EMI 01-Jan-2024 INSTALMENT"},
		},
		{
			name: "match started by a header value resumes after it",
			text: "Statement Date: 31-Jan-2024 Total Outstanding: 1,234.50 05-Jan-2024 Coffee Shop BDT 150.00 BDT 150.00",
			header: func(text string) []Span {
				_, spans := rules.ExtractHeader(text)
				return spans
			},
			wantDates: []string{"05-Jan-2024"},
			wantDescs: []string{"Coffee Shop"},
		},
		{
			name:      "without header spans the first date starts the row",
			text:      "Statement Date: 31-Jan-2024 Total Outstanding: 1,234.50 05-Jan-2024 Coffee Shop BDT 150.00 BDT 150.00",
			wantDates: []string{"31-Jan-2024"},
			wantDescs: []string{"Total Outstanding: 1,234.50 05-Jan-2024 Coffee Shop"},
		},
		{
			name:      "no rows",
			text:      "nothing to see",
			wantDates: []string{},
			wantDescs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var header []Span
			if tt.header != nil {
				header = tt.header(tt.text)
			}

			rows := rules.ExtractRows(tt.text, Span{Start: 0, End: len(tt.text)}, header)
			require.Len(t, rows, len(tt.wantDates))
			for i, row := range rows {
				assert.Equal(t, tt.wantDates[i], row.Date)
				assert.Equal(t, tt.wantDescs[i], row.Description)
			}
		})
	}
}

func TestFormatRuleSet_ExtractRowsStaysInRegion(t *testing.T) {
	text := "01-Feb-2024 Annual Fee BDT 500.00 BDT 500.00 | 10-Feb-2024 Uber Ride BDT 350.50 BDT 350.50"
	start := strings.Index(text, "|")

	rows := EBLRules().ExtractRows(text, Span{Start: start, End: len(text)}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "10-Feb-2024", rows[0].Date)
	assert.Equal(t, "Uber Ride", rows[0].Description)
	assert.Equal(t, "BDT", rows[0].SourceCurrency)
	assert.Equal(t, "350.50", rows[0].SettlementAmount)
}

func TestFormatRuleSet_ExtractHeaderSpans(t *testing.T) {
	text := "Total Outstanding: 1,234.50 Statement Date: 31-Jan-2024"

	header, spans := MTBRules().ExtractHeader(text)
	require.NotNil(t, header.TotalOutstanding)
	require.NotNil(t, header.StatementDate)
	require.Len(t, spans, 2)
	assert.Equal(t, "Total Outstanding: 1,234.50", spans[0].Slice(text))
	assert.Equal(t, "Statement Date: 31-Jan-2024", spans[1].Slice(text))
}
