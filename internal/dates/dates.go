// Package dates provides year-month tokens used to place periods on a timeline.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinYear is the earliest year accepted for any period boundary
const MinYear = 1950

// YearMonth is a calendar month without a day component
type YearMonth struct {
	Year  int
	Month int
}

// New builds a YearMonth, normalizing month overflow into the year
func New(year, month int) YearMonth {
	return YearMonth{}.withIndex(year*12 + month - 1)
}

// FromTime returns the year-month of t
func FromTime(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// Today returns the current year-month in local time
func Today() YearMonth {
	return FromTime(time.Now())
}

// Parse accepts "YYYY-MM" or a bare "YYYY" (which maps to January)
func Parse(s string) (YearMonth, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return YearMonth{}, &ParseError{Input: s, Message: "empty date"}
	}

	parts := strings.Split(s, "-")
	if len(parts) > 2 {
		return YearMonth{}, &ParseError{Input: s, Message: "expected YYYY-MM"}
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return YearMonth{}, &ParseError{Input: s, Message: "invalid year", Cause: err}
	}

	month := 1
	if len(parts) == 2 {
		month, err = strconv.Atoi(parts[1])
		if err != nil {
			return YearMonth{}, &ParseError{Input: s, Message: "invalid month", Cause: err}
		}
		if month < 1 || month > 12 {
			return YearMonth{}, &ParseError{Input: s, Message: fmt.Sprintf("month %d out of range", month)}
		}
	}

	return YearMonth{Year: year, Month: month}, nil
}

// MustParse is Parse for literals in tests and tables
func MustParse(s string) YearMonth {
	ym, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return ym
}

// String formats as YYYY-MM
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// MarshalText encodes ym as YYYY-MM so JSON and YAML carry plain strings
func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

// UnmarshalText decodes YYYY-MM or YYYY
func (ym *YearMonth) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

// IsZero reports whether ym was never set
func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

func (ym YearMonth) index() int {
	return ym.Year*12 + ym.Month - 1
}

func (YearMonth) withIndex(i int) YearMonth {
	return YearMonth{Year: i / 12, Month: i%12 + 1}
}

// Compare returns -1, 0 or 1
func (ym YearMonth) Compare(other YearMonth) int {
	a, b := ym.index(), other.index()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Before reports whether ym is strictly earlier than other
func (ym YearMonth) Before(other YearMonth) bool { return ym.Compare(other) < 0 }

// After reports whether ym is strictly later than other
func (ym YearMonth) After(other YearMonth) bool { return ym.Compare(other) > 0 }

// AddMonths shifts ym by n months; n may be negative
func (ym YearMonth) AddMonths(n int) YearMonth {
	return ym.withIndex(ym.index() + n)
}

// AddYears shifts ym by n years
func (ym YearMonth) AddYears(n int) YearMonth {
	return ym.AddMonths(n * 12)
}

// MonthsUntil returns the number of months from ym to other (negative if other is earlier)
func (ym YearMonth) MonthsUntil(other YearMonth) int {
	return other.index() - ym.index()
}

// Valid reports whether ym is a well-formed month between MinYear and today
func (ym YearMonth) Valid(today YearMonth) bool {
	if ym.Month < 1 || ym.Month > 12 {
		return false
	}
	if ym.Year < MinYear {
		return false
	}
	return !ym.After(today)
}

// Min returns the earlier of a and b
func Min(a, b YearMonth) YearMonth {
	if a.Before(b) {
		return a
	}
	return b
}

// Max returns the later of a and b
func Max(a, b YearMonth) YearMonth {
	if a.After(b) {
		return a
	}
	return b
}

// Years converts a month count to fractional years
func Years(months int) float64 {
	return float64(months) / 12.0
}
