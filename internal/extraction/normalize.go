package extraction

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrUnknownCurrency = errors.New("unknown currency code")
)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// ParseAmount converts a printed amount such as "12,345.67" to a decimal.
// Commas are thousands separators and "." is the decimal point.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return d, nil
}

// ParseCurrency validates an ISO 4217 code and returns it upper-cased
func ParseCurrency(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if money.GetCurrency(normalized) == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return normalized, nil
}

// ParseDateParts builds a UTC calendar date from a day, month and year triplet.
// The month may be an English name, an abbreviation, or a number from 1 to 12.
func ParseDateParts(day, month, year string) (time.Time, error) {
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: day %q", ErrInvalidDate, day)
	}
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y < 1000 {
		return time.Time{}, fmt.Errorf("%w: year %q", ErrInvalidDate, year)
	}
	m, err := parseMonth(month)
	if err != nil {
		return time.Time{}, err
	}

	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	// time.Date rolls 31-Feb over into March
	if t.Day() != d || t.Month() != m || t.Year() != y {
		return time.Time{}, fmt.Errorf("%w: %s-%s-%s does not exist", ErrInvalidDate, day, month, year)
	}
	return t, nil
}

// ParseRowDate parses the DD-Mon-YYYY dates printed on transaction rows
func ParseRowDate(raw string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return ParseDateParts(parts[0], parts[1], parts[2])
}

func parseMonth(raw string) (time.Month, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if m, ok := months[key]; ok {
		return m, nil
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= 12 {
		return time.Month(n), nil
	}
	return 0, fmt.Errorf("%w: month %q", ErrInvalidDate, raw)
}
