package calendar

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/tartampluch/go-birthday-tracker/internal/engine"
)

// SummaryFunc renders an event title. age is the age reached in the event's year;
// yearKnown is false when the birth year is missing, in which case age is 0.
type SummaryFunc func(name string, age int, yearKnown bool) string

// Generator turns enriched birthdays into an iCalendar feed.
type Generator struct {
	// FormatSummary allows the caller to inject localized strings.
	FormatSummary SummaryFunc
}

// namespace seeds every event UID so that identifiers survive refreshes.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(config.UIDNamespace))

// Build generates one all-day event per record for the previous, current and
// next year relative to now. Invalid records are skipped. When nothing is
// emitted the result is still a valid, empty VCALENDAR.
func (g *Generator) Build(es []engine.Enriched, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()

	// Set standard iCalendar headers
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986: Suggest a refresh interval
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	today := engine.DateOf(now)
	stats := struct{ total, skipped, today int }{len(es), 0, 0}

	for _, e := range es {
		if !e.Valid {
			stats.skipped++
			slog.Debug(config.MsgSkippedRecord,
				config.LogKeyComponent, config.CompCalendar,
				config.LogKeyID, e.ID,
				config.LogKeyValue, e.Date)
			continue
		}
		if engine.IsToday(e) {
			stats.today++
			slog.Debug(config.MsgBdayToday,
				config.LogKeyComponent, config.CompCalendar,
				config.LogKeyName, e.Name,
				config.LogKeyDOB, e.Date)
		}

		for _, ev := range g.createEvents(e, today) {
			ev.Props.Set(dtStampProp)
			cal.Children = append(cal.Children, ev.Component)
		}
	}

	slog.Info(config.MsgGenSuccess,
		config.LogKeyComponent, config.CompCalendar,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyTotal, stats.total),
			slog.Int(config.LogKeyInvalid, stats.skipped),
			slog.Int(config.LogKeyToday, stats.today),
		),
	)

	// An encoder rejects a calendar without components; clients expect a valid feed.
	if len(cal.Children) == 0 {
		return []byte(config.StubVCalendar), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// UID returns the stable identifier of a record's events. Records without a
// backend id (fresh vCard imports) are keyed by name and birth date.
func UID(e engine.Enriched) string {
	key := e.ID
	if key == "" {
		key = fmt.Sprintf(config.FormatHashInput, e.Name, e.Birth.String(), config.UIDNamespace)
	}
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

// createEvents generates events for today.Year-1, today.Year and today.Year+1,
// never before the birth year.
func (g *Generator) createEvents(e engine.Enriched, today engine.Date) []*ical.Event {
	uidBase := UID(e)
	yearKnown := e.Birth.YearKnown()

	var events []*ical.Event
	for _, y := range []int{today.Year - 1, today.Year, today.Year + 1} {
		if yearKnown && y < e.Birth.Year {
			continue
		}

		age := 0
		if yearKnown {
			age = y - e.Birth.Year
		}
		summary := g.summary(e.Name, age, yearKnown)

		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, uidBase, y, config.ICalDomain))
		event.Props.SetText(config.PropSummary, summary)
		if e.Relationship != "" {
			event.Props.SetText(config.PropCategories, e.Relationship)
		}

		// Feb 29 lands on Feb 28 in common years, like the countdowns.
		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(engine.OccurrenceIn(y, e.Birth.Month, e.Birth.Day).Time())
		event.Props.Set(dtStartProp)

		if e.NotificationsEnabled {
			addAlarm(event, Trigger(e.NotifyBeforeDays), summary)
		}

		events = append(events, event)
	}
	return events
}

func (g *Generator) summary(name string, age int, yearKnown bool) string {
	if g.FormatSummary != nil {
		return g.FormatSummary(name, age, yearKnown)
	}
	switch {
	case !yearKnown:
		return fmt.Sprintf(config.FallbackSummary, name)
	case age == 0:
		return fmt.Sprintf(config.FallbackSummaryBirth, name)
	default:
		return fmt.Sprintf(config.FallbackSummaryAge, name, age)
	}
}

// Trigger converts a reminder lead time into an ISO 8601 alarm trigger.
func Trigger(daysBefore int) string {
	if daysBefore <= 0 {
		return config.TriggerOnTheDay
	}
	return fmt.Sprintf(config.FormatTriggerBefore, daysBefore)
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set trigger manually to avoid "VALUE=TEXT" param
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}
