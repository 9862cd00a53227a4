package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/tartampluch/go-birthday-tracker/internal/engine"
	"github.com/tartampluch/go-birthday-tracker/internal/i18n"
)

type errorBody struct {
	Error string `json:"error"`
}

type healthBody struct {
	Status   string    `json:"status"`
	Ready    bool      `json:"ready"`
	Records  int       `json:"records"`
	LoadedAt time.Time `json:"loadedAt,omitzero"`
}

// Reminder is one birthday due for a reminder today, with its localized text.
type Reminder struct {
	engine.Enriched
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// handleRefresh schedules a reload and returns before it completes.
func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	if s.OnRefresh == nil {
		writeError(w, http.StatusNotImplemented, errors.New(config.ErrNoRefresher))
		return
	}
	s.OnRefresh()
	writeJSON(w, http.StatusAccepted, healthBody{Status: config.HTTPMsgRefreshing, Ready: s.snap.Load() != nil})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := healthBody{Status: config.HTTPMsgOK}
	if item := s.snap.Load(); item != nil {
		body.Ready = true
		body.Records = len(item.records)
		body.LoadedAt = item.loadedAt
	}
	writeJSON(w, http.StatusOK, body)
}

// handleList serves the filtered and sorted listing.
//
//	q             free-text search over name, notes and relationship
//	category      today, upcoming, recent, this-month, other or invalid
//	relationship  repeatable; any of the given relationships
//	sort          name, date, upcoming (default), recent or added
//	window        upcoming window in days (default 30)
//	recent        recent window in days (default 7)
//	lang          collation language for the name sort
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	item := s.snap.Load()
	if item == nil {
		notReady(w)
		return
	}

	q, err := s.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, q.Apply(item.records, engine.Today(s.Clock)))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	item := s.snap.Load()
	if item == nil {
		notReady(w)
		return
	}

	id := chi.URLParam(r, config.URLParamID)
	windows, err := parseWindows(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	for _, rec := range item.records {
		if rec.ID == id {
			writeJSON(w, http.StatusOK, engine.Enrich(rec, engine.Today(s.Clock), windows))
			return
		}
	}
	writeError(w, http.StatusNotFound, errors.New(config.HTTPMsgNotFound))
}

func (s *Server) handleAnalytics(w http.ResponseWriter, _ *http.Request) {
	item := s.snap.Load()
	if item == nil {
		notReady(w)
		return
	}

	es := engine.EnrichAll(item.records, engine.Today(s.Clock), defaultWindows())
	writeJSON(w, http.StatusOK, engine.Summarize(es, config.WindowWeek, config.WindowMonth, config.TopUpcoming))
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	item := s.snap.Load()
	if item == nil {
		notReady(w)
		return
	}

	tr := s.translator(r.URL.Query().Get(config.QueryParamLang))
	es := engine.EnrichAll(item.records, engine.Today(s.Clock), defaultWindows())

	due := engine.DueReminders(es)
	out := make([]Reminder, 0, len(due))
	for _, e := range due {
		out = append(out, Reminder{Enriched: e, Message: tr.Reminder(e.Name, e.DaysUntil)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) parseQuery(r *http.Request) (engine.Query, error) {
	values := r.URL.Query()

	q := engine.Query{
		Search:        values.Get(config.QueryParamSearch),
		Relationships: values[config.QueryParamRelationship],
		Sort:          engine.SortUpcoming,
		Language:      s.translator(values.Get(config.QueryParamLang)).Tag(),
	}

	if v := values.Get(config.QueryParamSort); v != "" {
		key, err := engine.ParseSortKey(v)
		if err != nil {
			return engine.Query{}, err
		}
		q.Sort = key
	}

	if v := values.Get(config.QueryParamCategory); v != "" {
		c, err := engine.ParseCategory(v)
		if err != nil {
			return engine.Query{}, err
		}
		q.Category = c
	}

	windows, err := parseWindows(r)
	if err != nil {
		return engine.Query{}, err
	}
	q.Windows = windows
	return q, nil
}

func defaultWindows() engine.Windows {
	return engine.Windows{Upcoming: config.WindowMonth, Recent: config.WindowWeek}
}

func parseWindows(r *http.Request) (engine.Windows, error) {
	w := defaultWindows()
	values := r.URL.Query()
	for param, dst := range map[string]*int{
		config.QueryParamWindow: &w.Upcoming,
		config.QueryParamRecent: &w.Recent,
	} {
		v := values.Get(param)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return engine.Windows{}, fmt.Errorf("%s: %s=%q", config.ErrBadWindow, param, v)
		}
		*dst = n
	}
	return w, nil
}

// translator returns the server's translator, or a fresh one when the request
// asks for a language explicitly.
func (s *Server) translator(lang string) *i18n.Translator {
	if lang == "" && s.Translator != nil {
		return s.Translator
	}
	return i18n.New(lang)
}
