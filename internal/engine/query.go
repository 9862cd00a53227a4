package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the ordering applied by SortBy.
type SortKey string

const (
	SortName     SortKey = "name"
	SortDate     SortKey = "date"
	SortUpcoming SortKey = "upcoming"

	// SortRecent orders by stored birth date, newest first. It is unrelated to
	// the "recent" category, which is about birthdays that just passed.
	SortRecent SortKey = "recent"

	// SortAdded orders by creation time, most recently added first.
	SortAdded SortKey = "added"
)

// defaultTag is used where the caller has no language preference.
var defaultTag = language.English

// SortKeys lists the supported sort keys.
func SortKeys() []SortKey {
	return []SortKey{SortName, SortDate, SortUpcoming, SortRecent, SortAdded}
}

// ParseSortKey validates a sort key coming from a flag or a query string.
func ParseSortKey(s string) (SortKey, error) {
	for _, k := range SortKeys() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%s: %q", config.ErrUnknownSort, s)
}

// FilterBySearch keeps records whose name, notes or relationship contains term,
// ignoring case. An empty term keeps everything.
func FilterBySearch(es []Enriched, term string) []Enriched {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return slices.Clone(es)
	}
	return filter(es, func(e Enriched) bool {
		for _, field := range []string{e.Name, e.Notes, e.Relationship} {
			if strings.Contains(strings.ToLower(field), term) {
				return true
			}
		}
		return false
	})
}

// FilterByCategory keeps records matching the category predicate. An empty
// category keeps everything.
func FilterByCategory(es []Enriched, c Category, now Date, w Windows) []Enriched {
	if c == "" {
		return slices.Clone(es)
	}
	return filter(es, func(e Enriched) bool {
		return Matches(e, c, now, w)
	})
}

// FilterByRelationshipSet keeps records whose relationship is in allowed.
// An empty set means no filtering.
func FilterByRelationshipSet(es []Enriched, allowed []string) []Enriched {
	if len(allowed) == 0 {
		return slices.Clone(es)
	}
	return filter(es, func(e Enriched) bool {
		return slices.Contains(allowed, e.Relationship)
	})
}

// SortBy returns a sorted copy of es. The sort is stable and invalid records
// always go last. An unknown key keeps input order. Name comparison follows the
// collation rules of tag, ignoring case.
func SortBy(es []Enriched, key SortKey, tag language.Tag) []Enriched {
	out := slices.Clone(es)

	var cmp func(a, b Enriched) int
	switch key {
	case SortName:
		// A Collator is not safe for concurrent use; one per call keeps SortBy pure.
		col := collate.New(tag, collate.IgnoreCase)
		cmp = func(a, b Enriched) int {
			return col.CompareString(a.Name, b.Name)
		}
	case SortDate:
		cmp = func(a, b Enriched) int {
			if c := cmpInt(int(a.Birth.Month), int(b.Birth.Month)); c != 0 {
				return c
			}
			return cmpInt(a.Birth.Day, b.Birth.Day)
		}
	case SortUpcoming:
		cmp = func(a, b Enriched) int {
			if c := cmpInt(a.DaysUntil, b.DaysUntil); c != 0 {
				return c
			}
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortRecent:
		cmp = func(a, b Enriched) int {
			return b.Birth.Compare(a.Birth)
		}
	case SortAdded:
		cmp = func(a, b Enriched) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		}
	default:
		return out
	}

	slices.SortStableFunc(out, func(a, b Enriched) int {
		switch {
		case a.Valid && !b.Valid:
			return -1
		case !a.Valid && b.Valid:
			return 1
		case !a.Valid && !b.Valid:
			return 0
		}
		return cmp(a, b)
	})
	return out
}

// Query bundles the filters and the sort key of a listing.
type Query struct {
	Search        string
	Category      Category
	Relationships []string
	Sort          SortKey
	Windows       Windows
	Language      language.Tag
}

// Apply enriches the records relative to now, applies every filter, then sorts.
// Filters commute; the sort always runs last.
func (q Query) Apply(rs []BirthdayRecord, now Date) []Enriched {
	es := EnrichAll(rs, now, q.Windows)
	es = FilterBySearch(es, q.Search)
	es = FilterByRelationshipSet(es, q.Relationships)
	es = FilterByCategory(es, q.Category, now, q.Windows)
	return SortBy(es, q.Sort, q.Language)
}

func filter(es []Enriched, keep func(Enriched) bool) []Enriched {
	out := make([]Enriched, 0, len(es))
	for _, e := range es {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
