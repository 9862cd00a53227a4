package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/tartampluch/go-birthday-tracker/internal/engine"
	"github.com/tartampluch/go-birthday-tracker/internal/i18n"
)

const (
	tabMinWidth = 0
	tabWidth    = 4
	tabPadding  = 2
	tabPadChar  = ' '
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, tabMinWidth, tabWidth, tabPadding, tabPadChar, 0)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%s: %w", config.ErrWriteOutput, err)
	}
	return nil
}

// printTable renders one row per birthday with translated headers.
func printTable(w io.Writer, tr *i18n.Translator, es []engine.Enriched) error {
	if len(es) == 0 {
		_, err := fmt.Fprintln(w, tr.Msg(config.TKeyNoResults))
		return err
	}

	tw := newTabWriter(w)
	fmt.Fprintf(tw, "ID\t%s\t%s\t%s\t%s\t%s\t%s\n",
		tr.Msg(config.TKeyColName),
		tr.Msg(config.TKeyColDate),
		tr.Msg(config.TKeyColDays),
		tr.Msg(config.TKeyColAge),
		tr.Msg(config.TKeyColZodiac),
		tr.Msg(config.TKeyColCategory),
	)
	for _, e := range es {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.Name,
			displayDate(tr, e),
			displayDays(tr, e),
			tr.Age(e),
			tr.Zodiac(e.Zodiac),
			tr.Category(e.Category),
		)
	}
	return tw.Flush()
}

// printDetail renders a single birthday as label/value lines.
func printDetail(w io.Writer, tr *i18n.Translator, e engine.Enriched) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "ID\t%s\n", e.ID)
	fmt.Fprintf(tw, "%s\t%s\n", tr.Msg(config.TKeyColName), e.Name)
	fmt.Fprintf(tw, "%s\t%s\n", tr.Msg(config.TKeyColDate), displayDate(tr, e))
	fmt.Fprintf(tw, "%s\t%s\n", tr.Msg(config.TKeyColDays), displayDays(tr, e))
	fmt.Fprintf(tw, "%s\t%s\n", tr.Msg(config.TKeyColAge), tr.Age(e))
	fmt.Fprintf(tw, "%s\t%s\n", tr.Msg(config.TKeyColZodiac), tr.Zodiac(e.Zodiac))
	fmt.Fprintf(tw, "%s\t%s\n", tr.Msg(config.TKeyColCategory), tr.Category(e.Category))
	if e.Relationship != "" {
		fmt.Fprintf(tw, "Relationship\t%s\n", e.Relationship)
	}
	if e.Notes != "" {
		fmt.Fprintf(tw, "Notes\t%s\n", e.Notes)
	}
	return tw.Flush()
}

func printStats(w io.Writer, tr *i18n.Translator, s engine.Stats) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "%s\t%d\n", tr.Msg(config.TKeyStatsTotal), s.Total)
	fmt.Fprintf(tw, "%s\t%d\n", tr.Msg(config.TKeyStatsToday), s.Today)
	fmt.Fprintf(tw, "%s\t%d\n", tr.Msg(config.TKeyStatsWeek), s.Week)
	fmt.Fprintf(tw, "%s\t%d\n", tr.Msg(config.TKeyStatsMonth), s.Month)
	fmt.Fprintf(tw, "%s\t%d\n", tr.Msg(config.TKeyStatsInvalid), s.Invalid)
	fmt.Fprintf(tw, "%s\t%.1f\n", tr.Msg(config.TKeyStatsAvgAge), s.AverageAge)

	fmt.Fprintf(tw, "\n%s\n", tr.Msg(config.TKeyStatsByMonth))
	for i, n := range s.ByMonth {
		fmt.Fprintf(tw, "  %s\t%d\n", time.Month(i+1), n)
	}

	fmt.Fprintf(tw, "\n%s\n", tr.Msg(config.TKeyStatsByZodiac))
	for _, sign := range engine.Signs() {
		if n := s.ByZodiac[sign]; n > 0 {
			fmt.Fprintf(tw, "  %s\t%d\n", tr.Zodiac(sign), n)
		}
	}

	if len(s.ByRelationship) > 0 {
		fmt.Fprintf(tw, "\n%s\n", tr.Msg(config.TKeyStatsByRel))
		for _, rel := range slices.Sorted(maps.Keys(s.ByRelationship)) {
			fmt.Fprintf(tw, "  %s\t%d\n", rel, s.ByRelationship[rel])
		}
	}

	if len(s.Next) > 0 {
		fmt.Fprintf(tw, "\n%s\n", tr.Msg(config.TKeyStatsNext))
		for _, e := range s.Next {
			fmt.Fprintf(tw, "  %s\t%s\t%d\n", e.Name, tr.Date(e.NextOccurrence), e.DaysUntil)
		}
	}
	return tw.Flush()
}

func printNotifications(w io.Writer, ns []engine.NotificationRecord) error {
	tw := newTabWriter(w)
	for _, n := range ns {
		mark := " "
		if !n.IsRead {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			mark,
			n.ID,
			n.Type,
			n.CreatedAt.Local().Format(time.DateTime),
			n.Message,
		)
	}
	return tw.Flush()
}

// displayDate shows the stored value verbatim when it could not be parsed.
func displayDate(tr *i18n.Translator, e engine.Enriched) string {
	if !e.Valid {
		return e.Date
	}
	return tr.Date(e.Birth)
}

func displayDays(tr *i18n.Translator, e engine.Enriched) string {
	if !e.Valid {
		return tr.Msg(config.TKeyAgeUnknown)
	}
	return strconv.Itoa(e.DaysUntil)
}
