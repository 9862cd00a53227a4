package engine

import (
	"fmt"

	"github.com/tartampluch/go-birthday-tracker/internal/config"
)

// Category is a grouping bucket for display.
type Category string

const (
	CategoryToday     Category = "today"
	CategoryUpcoming  Category = "upcoming"
	CategoryRecent    Category = "recent"
	CategoryThisMonth Category = "this-month"
	CategoryOther     Category = "other"

	// CategoryInvalid marks records whose date could not be parsed.
	CategoryInvalid Category = "invalid"
)

// Categories lists every category a filter may ask for.
func Categories() []Category {
	return []Category{
		CategoryToday,
		CategoryUpcoming,
		CategoryRecent,
		CategoryThisMonth,
		CategoryOther,
		CategoryInvalid,
	}
}

// ParseCategory validates a category name coming from a flag or a query string.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%s: %q", config.ErrUnknownCategory, s)
}

// Windows holds the caller-chosen day thresholds used for classification.
// There is no implicit default: a zero window only matches day 0.
type Windows struct {
	Upcoming int `json:"upcoming"`
	Recent   int `json:"recent"`
}

// IsToday reports whether the birthday occurs on the reference date.
func IsToday(e Enriched) bool {
	return e.Valid && e.DaysUntil == 0
}

// IsUpcomingWithin reports whether the next occurrence is at most n days away, today included.
func IsUpcomingWithin(e Enriched, n int) bool {
	return e.Valid && e.DaysUntil >= 0 && e.DaysUntil <= n
}

// IsRecentWithin reports whether the last occurrence was 1 to n days ago.
// Today is excluded; it belongs to IsToday.
func IsRecentWithin(e Enriched, n int) bool {
	return e.Valid && e.DaysSince > 0 && e.DaysSince <= n
}

// IsThisMonth reports whether the birth month is the reference month, regardless of day.
func IsThisMonth(e Enriched, now Date) bool {
	return e.Valid && e.Birth.Month == now.Month
}

// Classify picks the display bucket: today, then upcoming, then recent, else other.
func Classify(e Enriched, w Windows) Category {
	switch {
	case !e.Valid:
		return CategoryInvalid
	case IsToday(e):
		return CategoryToday
	case IsUpcomingWithin(e, w.Upcoming):
		return CategoryUpcoming
	case IsRecentWithin(e, w.Recent):
		return CategoryRecent
	default:
		return CategoryOther
	}
}

// Matches is the predicate behind category filtering. Unlike Classify it does not
// rank buckets: a birthday today is also "upcoming" within any window, and
// "this-month" overlaps every other bucket.
func Matches(e Enriched, c Category, now Date, w Windows) bool {
	switch c {
	case CategoryToday:
		return IsToday(e)
	case CategoryUpcoming:
		return IsUpcomingWithin(e, w.Upcoming)
	case CategoryRecent:
		return IsRecentWithin(e, w.Recent)
	case CategoryThisMonth:
		return IsThisMonth(e, now)
	case CategoryInvalid:
		return !e.Valid
	case CategoryOther:
		return Classify(e, w) == CategoryOther
	default:
		return false
	}
}
