package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tartampluch/go-birthday-tracker/internal/config"
)

// Date is a calendar date with no time-of-day and no location.
// Birthdays are defined by the local calendar date of the person, not an absolute
// instant, so all day arithmetic in this package runs on Date values.
//
// A zero Year means the year is unknown (vCard "--MM-DD" birthdays).
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date without normalization. Use ValidMonthDay to check it.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf strips the time-of-day from t, in t's own location.
// If it is June 15th in Tokyo, it is June 15th, even if it is still June 14th in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero Date, the sentinel for "no date".
func (d Date) IsZero() bool {
	return d == Date{}
}

// YearKnown reports whether the year component carries information.
func (d Date) YearKnown() bool {
	return d.Year != 0
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	if !d.YearKnown() {
		return fmt.Sprintf(config.DateFormatNoYear, int(d.Month), d.Day)
	}
	return d.Time().Format(config.DateFormatFullDash)
}

// MarshalText renders the date in the same layout ParseDate accepts.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DaysBetween returns the number of calendar days from "from" to "to".
// Both ends sit at midnight UTC, so DST shifts never produce partial days.
func DaysBetween(from, to Date) int {
	return int(to.Time().Sub(from.Time()).Hours() / 24)
}

// ValidMonthDay reports whether (month, day) exists in at least one year.
// Feb 29 is valid; Feb 30 and Apr 31 are not.
func ValidMonthDay(month time.Month, day int) bool {
	if month < time.January || month > time.December || day < 1 {
		return false
	}
	return day <= daysIn(config.DefaultLeapYear, month)
}

// ValidDate reports whether d is a real calendar date (any year for year-unknown dates).
func ValidDate(d Date) bool {
	if !ValidMonthDay(d.Month, d.Day) {
		return false
	}
	if d.YearKnown() {
		return d.Day <= daysIn(d.Year, d.Month)
	}
	return true
}

// ParseDate reads a stored or imported birth date.
// Out-of-range dates such as 2023-02-30 are rejected rather than rolled over.
func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)

	formatsWithYear := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
	}
	for _, f := range formatsWithYear {
		if t, err := time.Parse(f, value); err == nil {
			return DateOf(t), nil
		}
	}

	// Truncated dates (Year unknown), vCard specific.
	// Year 0 is a leap year for time.Parse, so --02-29 is accepted.
	formatsWithoutYear := []string{config.DateFormatNoYearD, config.DateFormatNoYearB}
	for _, f := range formatsWithoutYear {
		if t, err := time.Parse(f, value); err == nil {
			if !ValidMonthDay(t.Month(), t.Day()) {
				return Date{}, errors.New(config.ErrDateRange)
			}
			return Date{Month: t.Month(), Day: t.Day()}, nil
		}
	}

	return Date{}, fmt.Errorf("%s: %q", config.ErrDateParse, value)
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
