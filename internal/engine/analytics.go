package engine

import "slices"

// Stats is the aggregate view behind the analytics screen.
type Stats struct {
	Total          int            `json:"total"`
	Invalid        int            `json:"invalid"`
	Today          int            `json:"today"`
	Week           int            `json:"week"`
	Month          int            `json:"month"`
	ByMonth        [12]int        `json:"byMonth"`
	ByZodiac       map[Sign]int   `json:"byZodiac"`
	ByRelationship map[string]int `json:"byRelationship"`

	// AverageAge is the mean turning age over records with a known birth year.
	AverageAge float64 `json:"averageAge"`

	Next []Enriched `json:"next"`
}

// Summarize aggregates enriched records. Week and Month count birthdays at most
// weekDays and monthDays away; Next holds at most top records ordered by DaysUntil.
func Summarize(es []Enriched, weekDays, monthDays, top int) Stats {
	s := Stats{
		Total:          len(es),
		ByZodiac:       make(map[Sign]int),
		ByRelationship: make(map[string]int),
	}

	var ageSum, ageCount int
	valid := make([]Enriched, 0, len(es))
	for _, e := range es {
		if !e.Valid {
			s.Invalid++
			continue
		}
		valid = append(valid, e)

		if IsToday(e) {
			s.Today++
		}
		if IsUpcomingWithin(e, weekDays) {
			s.Week++
		}
		if IsUpcomingWithin(e, monthDays) {
			s.Month++
		}
		s.ByMonth[e.Birth.Month-1]++
		s.ByZodiac[e.Zodiac]++
		if e.Relationship != "" {
			s.ByRelationship[e.Relationship]++
		}
		if e.Birth.YearKnown() {
			ageSum += e.TurningAge
			ageCount++
		}
	}

	if ageCount > 0 {
		s.AverageAge = float64(ageSum) / float64(ageCount)
	}

	next := SortBy(valid, SortUpcoming, defaultTag)
	if top >= 0 && len(next) > top {
		next = next[:top]
	}
	s.Next = slices.Clip(next)
	return s
}
