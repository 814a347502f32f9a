package legacyimport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Recognized legacy type labels. Matching is exact, no case folding.
const (
	labelIncome  = "Pemasukan"
	labelExpense = "Pengeluaran"
)

var (
	ErrMalformedDate   = errors.New("malformed date")
	ErrMalformedAmount = errors.New("malformed amount")
	ErrUnknownType     = errors.New("unknown transaction type")
	ErrUnknownCategory = errors.New("unknown category")
)

// CalendarDate is a pure year/month/day triple. The legacy importer this
// replaces built a time.Time at local midnight and formatted it through UTC,
// which shifted dates by a day in western timezones; keeping the components
// as plain integers removes the problem entirely.
type CalendarDate struct {
	Year  int
	Month int
	Day   int
}

func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d CalendarDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *CalendarDate) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	var err error
	if d.Year, err = strconv.Atoi(parts[0]); err != nil {
		return fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	if d.Month, err = strconv.Atoi(parts[1]); err != nil {
		return fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	if d.Day, err = strconv.Atoi(parts[2]); err != nil {
		return fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return nil
}

// ParseDate interprets a legacy d/m/yyyy date. Components are plain base-10
// integers with no leading-zero requirement ("2/12/2025").
func ParseDate(input string) (CalendarDate, error) {
	parts := strings.Split(input, "/")
	if len(parts) != 3 {
		return CalendarDate{}, fmt.Errorf("%w: %q is not d/m/yyyy", ErrMalformedDate, input)
	}

	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return CalendarDate{}, fmt.Errorf("%w: day %q is not a number", ErrMalformedDate, parts[0])
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return CalendarDate{}, fmt.Errorf("%w: month %q is not a number", ErrMalformedDate, parts[1])
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return CalendarDate{}, fmt.Errorf("%w: year %q is not a number", ErrMalformedDate, parts[2])
	}

	return CalendarDate{Year: year, Month: month, Day: day}, nil
}

// ParseAmount normalizes a legacy amount. Numeric values pass through.
// Strings are stripped of the "Rp" prefix and of every '.' and ',' before
// parsing: legacy sheets use '.' as a thousands separator ("Rp 150.000" is
// 150000 rupiah). A genuine decimal like "12.50" therefore becomes 1250;
// amounts in the legacy format are whole rupiah, so the source data never
// contains one.
func ParseAmount(input Amount) (decimal.Decimal, error) {
	if !input.Defined {
		return decimal.Zero, fmt.Errorf("%w: amount is missing", ErrMalformedAmount)
	}

	if input.Numeric {
		if input.Value.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: amount %s is negative", ErrMalformedAmount, input.Value)
		}
		return input.Value, nil
	}

	cleaned := strings.ReplaceAll(input.Text, "Rp", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: %q has no digits", ErrMalformedAmount, input.Text)
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not numeric", ErrMalformedAmount, input.Text)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount %q is negative", ErrMalformedAmount, input.Text)
	}
	return value, nil
}

// ParseType maps a legacy type label to a transaction type. Only the two
// exact tokens are recognized.
func ParseType(label string) (TransactionType, error) {
	switch label {
	case labelIncome:
		return TypeIncome, nil
	case labelExpense:
		return TypeExpense, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, label)
	}
}
