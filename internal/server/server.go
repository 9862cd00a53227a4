package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/tartampluch/go-birthday-tracker/internal/calendar"
	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/tartampluch/go-birthday-tracker/internal/engine"
	"github.com/tartampluch/go-birthday-tracker/internal/i18n"
)

// snapshot is one loaded set of records with the calendar rendered from it.
type snapshot struct {
	records      []engine.BirthdayRecord
	ics          []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
	loadedAt     time.Time
}

// Server exposes the calendar feed and read-only JSON views over the records.
type Server struct {
	Port       string
	Clock      engine.Clock
	Calendar   *calendar.Generator
	Translator *i18n.Translator

	// OnRefresh asks the data source for an immediate reload. POST /api/refresh
	// answers 501 while it is nil.
	OnRefresh func()

	// snap is read on every request and replaced on every refresh; readers see
	// either the old or the new snapshot, never a mix.
	snap atomic.Pointer[snapshot]
}

// New creates a server whose calendar titles and sort order follow tr.
func New(port string, clock engine.Clock, tr *i18n.Translator) *Server {
	return &Server{
		Port:       port,
		Clock:      clock,
		Calendar:   &calendar.Generator{FormatSummary: tr.Summary},
		Translator: tr,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)
	r.Use(chimw.GetHead)

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		allow := config.AllowedMethods
		if req.URL.Path == config.RouteAPI+config.RouteRefresh {
			allow = config.AllowedRefresh
		}
		w.Header().Set(config.HeaderAllow, allow)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
	})

	r.Get(config.RouteHealth, s.handleHealth)
	r.Get(config.RouteCalendar, s.handleCalendar)
	r.Route(config.RouteAPI, func(api chi.Router) {
		api.Get(config.RouteBirthdays, s.handleList)
		api.Get(config.RouteBirthday, s.handleGet)
		api.Get(config.RouteAnalytics, s.handleAnalytics)
		api.Get(config.RouteReminders, s.handleReminders)
		api.Post(config.RouteRefresh, s.handleRefresh)
	})
	return r
}

// Start serves on the loopback interface and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := config.ValidatePort(s.Port); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Router(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Update replaces the served records and re-renders the calendar feed.
// The caller's slice is copied.
func (s *Server) Update(records []engine.BirthdayRecord) error {
	now := s.Clock.Now()
	records = slices.Clone(records)

	es := engine.EnrichAll(records, engine.DateOf(now), engine.Windows{})
	ics, err := s.Calendar.Build(es, now)
	if err != nil {
		return err
	}

	hash := sha256.Sum256(ics)
	item := &snapshot{
		records:      records,
		ics:          ics,
		etag:         fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:])),
		lastModified: now.UTC().Format(http.TimeFormat),
		loadedAt:     now,
	}
	s.snap.Store(item)

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyCount, len(records),
		config.LogKeySizeBytes, len(ics),
		config.LogKeyETag, item.etag,
	)
	return nil
}

// handleCalendar serves the ICS content with HTTP caching support.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	item := s.snap.Load()
	if item == nil {
		notReady(w)
		return
	}

	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		clientTime, errC := time.Parse(http.TimeFormat, since)
		serverTime, errS := time.Parse(http.TimeFormat, item.lastModified)
		if errC == nil && errS == nil && !serverTime.After(clientTime) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.ics)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}

func notReady(w http.ResponseWriter) {
	w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
	http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
}

// requestLogger writes one debug line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug(config.MsgHTTPRequest,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyMethod, r.Method,
			config.LogKeyPath, r.URL.Path,
			config.LogKeyStatus, ww.Status(),
			config.LogKeyDuration, time.Since(start).Milliseconds(),
		)
	})
}
