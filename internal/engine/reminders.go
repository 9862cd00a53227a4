package engine

// DueReminders returns the records whose reminder fires on the reference date:
// notifications are enabled and the birthday is exactly NotifyBeforeDays away.
// A lead time of 0 fires on the day itself. Results are ordered by DaysUntil.
func DueReminders(es []Enriched) []Enriched {
	due := filter(es, func(e Enriched) bool {
		return e.Valid && e.NotificationsEnabled && e.DaysUntil == e.NotifyBeforeDays
	})
	return SortBy(due, SortUpcoming, defaultTag)
}
