package engine

import (
	"fmt"
	"time"
)

// InvalidDays is returned by the day-count functions when the birthday's
// month/day pair is not a real calendar day.
const InvalidDays = -1

// OccurrenceIn returns the date on which a (month, day) birthday falls in year.
// Feb 29 is clamped to Feb 28 in common years. Returns the zero Date for an
// invalid month/day pair.
func OccurrenceIn(year int, month time.Month, day int) Date {
	if !ValidMonthDay(month, day) {
		return Date{}
	}
	if last := daysIn(year, month); day > last {
		day = last
	}
	return Date{Year: year, Month: month, Day: day}
}

// NextOccurrence returns the first occurrence of the birthday on or after now.
// A birthday falling today counts as the next occurrence.
func NextOccurrence(month time.Month, day int, now Date) Date {
	mustBeToday(now)

	candidate := OccurrenceIn(now.Year, month, day)
	if candidate.IsZero() {
		return Date{}
	}
	if candidate.Before(now) {
		// Birthday has already passed this year, next one is next year.
		candidate = OccurrenceIn(now.Year+1, month, day)
	}
	return candidate
}

// LastOccurrence returns the most recent occurrence of the birthday on or before now.
func LastOccurrence(month time.Month, day int, now Date) Date {
	mustBeToday(now)

	candidate := OccurrenceIn(now.Year, month, day)
	if candidate.IsZero() {
		return Date{}
	}
	if candidate.After(now) {
		candidate = OccurrenceIn(now.Year-1, month, day)
	}
	return candidate
}

// DaysUntil counts calendar days from now to the next occurrence. Never negative
// for a valid month/day; InvalidDays otherwise.
func DaysUntil(month time.Month, day int, now Date) int {
	next := NextOccurrence(month, day, now)
	if next.IsZero() {
		return InvalidDays
	}
	return DaysBetween(now, next)
}

// DaysSince counts calendar days elapsed since the last occurrence. Zero on the day itself.
func DaysSince(month time.Month, day int, now Date) int {
	last := LastOccurrence(month, day, now)
	if last.IsZero() {
		return InvalidDays
	}
	return DaysBetween(last, now)
}

// TurningAge returns the age reached at the next occurrence of the birthday.
// Returns 0 when the birth year is unknown, the date is not valid or the birth
// lies after the next occurrence.
func TurningAge(birth Date, now Date) int {
	if !birth.YearKnown() || !ValidDate(birth) {
		return 0
	}
	next := NextOccurrence(birth.Month, birth.Day, now)
	if next.IsZero() || next.Year < birth.Year {
		return 0
	}
	return next.Year - birth.Year
}

// mustBeToday enforces the "now is a real date" contract.
// A malformed reference date is a programming error, not a data irregularity.
func mustBeToday(now Date) {
	if !now.YearKnown() || !ValidDate(now) {
		panic(fmt.Sprintf("engine: reference date %+v is not a calendar date", now))
	}
}
