package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-birthday-tracker/internal/api"
	"github.com/tartampluch/go-birthday-tracker/internal/auth"
	"github.com/tartampluch/go-birthday-tracker/internal/cache"
	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/tartampluch/go-birthday-tracker/internal/engine"
	"github.com/tartampluch/go-birthday-tracker/internal/i18n"
	"github.com/tartampluch/go-birthday-tracker/internal/source"
)

// app holds what every command shares: settings, streams, the translator and
// lazily opened resources.
type app struct {
	clock        engine.Clock
	stdin        io.Reader
	stdout       io.Writer
	stderr       io.Writer
	tokens       *auth.TokenStore
	loadSettings func() (config.Settings, error)

	// Global flags.
	debug   bool
	offline bool
	lang    string
	user    string

	settings config.Settings
	tr       *i18n.Translator
	store    *cache.Store
	closers  []io.Closer
}

func newApp() *app {
	return &app{
		clock:        engine.RealClock{},
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		tokens:       auth.NewTokenStore(),
		loadSettings: config.LoadSettings,
	}
}

// setup loads settings, applies global flag overrides and configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	s, err := a.loadSettings()
	if err != nil {
		return err
	}
	if a.lang != "" {
		s.Language = a.lang
	}
	if a.user != "" {
		s.User = a.user
	}
	a.settings = s

	level := slog.LevelWarn
	if cmd.Name() == cmdServe {
		level = slog.LevelInfo
	}
	if c := setupLogging(a.stderr, s.DataDir, level, a.debug); c != nil {
		a.closers = append(a.closers, c)
	}
	logStartupInfo()

	a.tr = i18n.New(s.Language)

	slog.Debug(config.MsgSettingsLoaded,
		config.LogKeyComponent, config.CompCLI,
		config.LogKeyMode, s.SourceMode,
		config.LogKeyLang, a.tr.Tag().String(),
		config.LogKeyUser, s.User,
	)
	return nil
}

// close releases resources in reverse opening order.
func (a *app) close() {
	for _, c := range slices.Backward(a.closers) {
		_ = c.Close()
	}
	a.closers = nil
	a.store = nil
}

func (a *app) today() engine.Date {
	return engine.Today(a.clock)
}

func (a *app) cache() (*cache.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := cache.Open(a.settings.DataDir)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store)
	return store, nil
}

func (a *app) requireUser() (string, error) {
	if a.settings.User == "" {
		return "", errors.New(config.ErrUserRequired)
	}
	return a.settings.User, nil
}

func (a *app) client() (*api.Client, error) {
	return api.NewClient(a.settings.APIURL, a.settings.User, a.tokens)
}

// source builds the record source selected by settings and --offline.
func (a *app) source() (source.Source, error) {
	store, err := a.cache()
	if err != nil {
		return nil, err
	}
	deps := source.Deps{User: a.settings.User, Cache: store, Clock: a.clock, Secrets: a.tokens}

	mode := a.settings.SourceMode
	if (mode == config.SourceModeAPI || mode == "") && !a.offline {
		client, err := a.client()
		if err != nil {
			return nil, err
		}
		deps.Backend = client
	}
	return source.New(a.settings, a.offline, deps)
}

// vcardPassword returns the stored password of the vCard user, or "" when
// there is none.
func (a *app) vcardPassword() string {
	user := a.settings.VCardUser
	if user == "" {
		return ""
	}
	pass, err := a.tokens.Secret(user)
	if err != nil {
		slog.Warn(config.MsgSecretMissing,
			config.LogKeyComponent, config.CompCLI,
			config.LogKeyUser, user,
			config.LogKeyError, err,
		)
		return ""
	}
	return pass
}

func (a *app) records(ctx context.Context) ([]engine.BirthdayRecord, error) {
	src, err := a.source()
	if err != nil {
		return nil, err
	}
	return src.Load(ctx)
}
