package engine

// Enrich derives countdown, age, zodiac and category for one record.
// A record whose date cannot be parsed comes back with Valid=false, zero dates,
// InvalidDays counts, SignUnknown and CategoryInvalid.
func Enrich(r BirthdayRecord, now Date, w Windows) Enriched {
	mustBeToday(now)

	e := Enriched{
		BirthdayRecord: r,
		DaysUntil:      InvalidDays,
		DaysSince:      InvalidDays,
		Zodiac:         SignUnknown,
		Category:       CategoryInvalid,
	}

	birth, err := ParseDate(r.Date)
	if err != nil || !ValidDate(birth) {
		return e
	}

	e.Birth = birth
	e.Valid = true
	e.NextOccurrence = NextOccurrence(birth.Month, birth.Day, now)
	e.LastOccurrence = LastOccurrence(birth.Month, birth.Day, now)
	e.DaysUntil = DaysBetween(now, e.NextOccurrence)
	e.DaysSince = DaysBetween(e.LastOccurrence, now)
	e.TurningAge = TurningAge(birth, now)
	e.Zodiac = ZodiacSign(birth.Month, birth.Day)
	e.Category = Classify(e, w)
	return e
}

// EnrichAll enriches every record, preserving input order. Invalid records stay
// in the output so callers can decide whether to hide or flag them.
func EnrichAll(rs []BirthdayRecord, now Date, w Windows) []Enriched {
	out := make([]Enriched, len(rs))
	for i, r := range rs {
		out[i] = Enrich(r, now, w)
	}
	return out
}
