// Package source loads birthday records from the backend, a vCard address book
// or the offline cache, and keeps the local service fed with fresh data.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tartampluch/go-birthday-tracker/internal/cache"
	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/tartampluch/go-birthday-tracker/internal/engine"
	"github.com/tartampluch/go-birthday-tracker/internal/vcard"
	"golang.org/x/sync/errgroup"
)

// Source produces the full list of records on every call.
type Source interface {
	Load(ctx context.Context) ([]engine.BirthdayRecord, error)
}

// Backend is the subset of the API client used to read records.
type Backend interface {
	ListBirthdays(ctx context.Context) ([]engine.BirthdayRecord, error)
	ListNotifications(ctx context.Context) ([]engine.NotificationRecord, error)
}

// Cache stores JSON documents with their fetch time.
type Cache interface {
	Put(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string, dst any) (time.Time, error)
}

// SecretSource returns the vCard server password of a user.
type SecretSource interface {
	Secret(user string) (string, error)
}

// Snapshot is everything the backend knows about the user at one point in time.
type Snapshot struct {
	Birthdays     []engine.BirthdayRecord
	Notifications []engine.NotificationRecord
	FetchedAt     time.Time

	// Stale is set when the backend was unreachable and the data comes from the cache.
	Stale bool
}

// -----------------------------------------------------------------------------
// Backend
// -----------------------------------------------------------------------------

// APISource reads from the backend and writes every successful response to the
// cache. When the backend fails, the last cached copy is served instead.
type APISource struct {
	Backend Backend
	Cache   Cache
	Clock   engine.Clock
	User    string // scopes the cache entries
}

// Load returns the user's birthdays.
func (s *APISource) Load(ctx context.Context) ([]engine.BirthdayRecord, error) {
	records, _, _, err := fetchThrough(ctx, s.Cache, s.now, CacheKey(config.CacheKeyBirthdays, s.User), s.Backend.ListBirthdays)
	return records, err
}

// Sync fetches birthdays and notifications concurrently.
func (s *APISource) Sync(ctx context.Context) (Snapshot, error) {
	var (
		snap           Snapshot
		bAt, nAt       time.Time
		bStale, nStale bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Birthdays, bAt, bStale, err = fetchThrough(gctx, s.Cache, s.now, CacheKey(config.CacheKeyBirthdays, s.User), s.Backend.ListBirthdays)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Notifications, nAt, nStale, err = fetchThrough(gctx, s.Cache, s.now, CacheKey(config.CacheKeyNotifications, s.User), s.Backend.ListNotifications)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	snap.Stale = bStale || nStale
	snap.FetchedAt = bAt
	if nAt.Before(bAt) {
		snap.FetchedAt = nAt
	}
	return snap, nil
}

// CacheKey scopes a cache entry of the given kind to one user.
func CacheKey(kind, user string) string {
	if user == "" {
		return kind
	}
	return kind + config.CacheKeySep + user
}

func (s *APISource) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

// fetchThrough calls fetch and caches the result under key. On failure it falls
// back to the cached copy, reporting it as stale with its original fetch time.
func fetchThrough[T any](
	ctx context.Context,
	c Cache,
	now func() time.Time,
	key string,
	fetch func(context.Context) (T, error),
) (T, time.Time, bool, error) {
	log := slog.With(config.LogKeyComponent, config.CompSource, config.LogKeyKey, key)

	var zero T
	fresh, err := fetch(ctx)
	if err == nil {
		if c != nil {
			if perr := c.Put(ctx, key, fresh); perr != nil {
				log.Warn(config.ErrCacheWrite, config.LogKeyError, perr)
			}
		}
		return fresh, now().UTC(), false, nil
	}

	if c == nil || ctx.Err() != nil {
		return zero, time.Time{}, false, fmt.Errorf("%s: %w", config.ErrSourceLoad, err)
	}

	var cached T
	fetchedAt, cerr := c.Get(ctx, key, &cached)
	if cerr != nil {
		return zero, time.Time{}, false, fmt.Errorf("%s: %w", config.ErrSourceLoad, err)
	}

	log.Warn(config.MsgCacheFallback,
		config.LogKeyError, err,
		config.LogKeyFetchedAt, fetchedAt,
	)
	return cached, fetchedAt, true, nil
}

// -----------------------------------------------------------------------------
// Cache only
// -----------------------------------------------------------------------------

// CacheSource serves the last cached backend response without any network access.
type CacheSource struct {
	Cache Cache
	User  string
}

// Load returns the cached birthdays, or an error wrapping cache.ErrMiss.
func (s *CacheSource) Load(ctx context.Context) ([]engine.BirthdayRecord, error) {
	var records []engine.BirthdayRecord
	fetchedAt, err := s.Cache.Get(ctx, CacheKey(config.CacheKeyBirthdays, s.User), &records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrSourceLoad, err)
	}
	slog.Debug(config.MsgCacheFallback,
		config.LogKeyComponent, config.CompSource,
		config.LogKeyFetchedAt, fetchedAt,
		config.LogKeyCount, len(records),
	)
	return records, nil
}

// Notifications returns the cached notifications. A missing entry is an empty list.
func (s *CacheSource) Notifications(ctx context.Context) ([]engine.NotificationRecord, error) {
	var ns []engine.NotificationRecord
	if _, err := s.Cache.Get(ctx, CacheKey(config.CacheKeyNotifications, s.User), &ns); err != nil && !errors.Is(err, cache.ErrMiss) {
		return nil, fmt.Errorf("%s: %w", config.ErrSourceLoad, err)
	}
	return ns, nil
}

// -----------------------------------------------------------------------------
// vCard
// -----------------------------------------------------------------------------

// VCardSource reads a local .vcf file, or downloads one when Path is empty.
// Cards without a usable birthday are dropped; they are logged by the importer.
type VCardSource struct {
	Importer *vcard.Importer
	Path     string
	URL      string
	User     string
	Secrets  SecretSource
}

// Load imports the address book.
func (s *VCardSource) Load(ctx context.Context) ([]engine.BirthdayRecord, error) {
	var (
		records []engine.BirthdayRecord
		err     error
	)
	if s.Path != "" {
		records, _, err = s.Importer.ImportFile(ctx, s.Path)
	} else {
		records, _, err = s.Importer.ImportURL(ctx, s.URL, s.User, s.password())
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrSourceLoad, err)
	}
	return records, nil
}

func (s *VCardSource) password() string {
	if s.User == "" || s.Secrets == nil {
		return ""
	}
	pass, err := s.Secrets.Secret(s.User)
	if err != nil {
		slog.Debug(config.MsgSecretMissing,
			config.LogKeyComponent, config.CompSource,
			config.LogKeyUser, s.User,
			config.LogKeyError, err,
		)
		return ""
	}
	return pass
}

// -----------------------------------------------------------------------------
// Selection
// -----------------------------------------------------------------------------

// Deps are the collaborators a source may need.
type Deps struct {
	User     string // backend user, scopes the cache
	Backend  Backend
	Cache    Cache
	Clock    engine.Clock
	Importer *vcard.Importer
	Secrets  SecretSource
}

// New picks the source named by settings.SourceMode. offline forces the cache
// for the backend mode.
func New(settings config.Settings, offline bool, d Deps) (Source, error) {
	switch settings.SourceMode {
	case config.SourceModeAPI, "":
		if offline {
			return &CacheSource{Cache: d.Cache, User: d.User}, nil
		}
		return &APISource{Backend: d.Backend, Cache: d.Cache, Clock: d.Clock, User: d.User}, nil
	case config.SourceModeCache:
		return &CacheSource{Cache: d.Cache, User: d.User}, nil
	case config.SourceModeVCard:
		importer := d.Importer
		if importer == nil {
			importer = vcard.NewImporter()
		}
		return &VCardSource{
			Importer: importer,
			Path:     settings.VCardPath,
			URL:      settings.VCardURL,
			User:     settings.VCardUser,
			Secrets:  d.Secrets,
		}, nil
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrModeUnsupport, settings.SourceMode)
	}
}
