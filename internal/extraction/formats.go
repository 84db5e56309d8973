package extraction

import "github.com/card-statement-ledger/internal/domain/statement"

var (
	totalOutstandingProduction = MustProduction("total_outstanding",
		`(?i)Total\s+Outstanding\s*:?\s*([0-9,]+\.[0-9]{2})`,
		GroupAmount)

	closingBalanceProduction = MustProduction("closing_balance",
		`(?i)Closing\s+Balance\s*:?\s*([0-9,]+\.[0-9]{2})`,
		GroupAmount)

	// Accepts "Statement Date: 31-Jan-2024", "Statement Date 31 January, 2024" and "Statement Date: 31/01/2024"
	statementDateProduction = MustProduction("statement_date",
		`(?i)Statement\s+Date\s*:?\s*(\d{1,2})[\s/-]+([A-Za-z]{3,9}|\d{1,2})[\s/,-]+(\d{4})`,
		GroupDay, GroupMonth, GroupYear)

	// DD-Mon-YYYY <description> <CCY> <amount> <CCY> <amount>
	transactionRowProduction = MustProduction("transaction_row",
		`(\d{2}-[A-Za-z]{3}-\d{4})\s+(.+?)\s+([A-Z]{3})\s+([\d,]+\.\d{2})\s+([A-Z]{3})\s+([\d,]+\.\d{2})`,
		rowGroups...)

	eblSectionAnchor = NewAnchor(MustProduction("ebl_transaction_section",
		`(?is)Transactional\s+Details.*?Card\s+#`), RegionAfterAnchor)
)

func standardHeaderFields() []FieldRule {
	return []FieldRule{
		{Field: FieldTotalOutstanding, Production: totalOutstandingProduction},
		{Field: FieldStatementDate, Production: statementDateProduction},
		{Field: FieldClosingBalance, Production: closingBalanceProduction},
	}
}

// EBLRules describes Eastern Bank statements. Rows are only read after the
// "Transactional Details ... Card #" heading.
func EBLRules() *FormatRuleSet {
	return mustRuleSet(NewFormatRuleSet(statement.FormatEBL, "EBL", eblSectionAnchor, transactionRowProduction, standardHeaderFields()...))
}

// MTBRules describes Mutual Trust Bank statements. Rows are read across the whole document.
func MTBRules() *FormatRuleSet {
	return mustRuleSet(NewFormatRuleSet(statement.FormatMTB, "MTB", nil, transactionRowProduction, standardHeaderFields()...))
}

func mustRuleSet(r *FormatRuleSet, err error) *FormatRuleSet {
	if err != nil {
		panic(err)
	}
	return r
}
