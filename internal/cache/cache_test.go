package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/tartampluch/go-birthday-tracker/internal/engine"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(config.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutGet(t *testing.T) {
	s := openMemory(t)
	stamp := time.Date(2024, time.June, 15, 8, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return stamp }

	records := []engine.BirthdayRecord{
		{ID: "1", Name: "Alice", Date: "1990-06-20", NotifyBeforeDays: 7, NotificationsEnabled: true},
		{ID: "2", Name: "Bob", Date: "--02-29"},
	}
	require.NoError(t, s.Put(context.Background(), config.CacheKeyBirthdays, records))

	var got []engine.BirthdayRecord
	fetchedAt, err := s.Get(context.Background(), config.CacheKeyBirthdays, &got)

	require.NoError(t, err)
	assert.Equal(t, records, got)
	assert.Equal(t, stamp, fetchedAt)
}

func TestStore_LastWriteWins(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	first := time.Date(2024, time.June, 15, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return first }
	require.NoError(t, s.Put(ctx, config.CacheKeyNotifications, []engine.NotificationRecord{{ID: "old"}}))

	second := first.Add(time.Hour)
	s.now = func() time.Time { return second }
	require.NoError(t, s.Put(ctx, config.CacheKeyNotifications, []engine.NotificationRecord{{ID: "new"}}))

	var got []engine.NotificationRecord
	fetchedAt, err := s.Get(ctx, config.CacheKeyNotifications, &got)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, second, fetchedAt)
}

func TestStore_MissAndDelete(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	var dst []engine.BirthdayRecord
	_, err := s.Get(ctx, config.CacheKeyBirthdays, &dst)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Put(ctx, config.CacheKeyBirthdays, []engine.BirthdayRecord{}))
	require.NoError(t, s.Delete(ctx, config.CacheKeyBirthdays))
	_, err = s.Get(ctx, config.CacheKeyBirthdays, &dst)
	assert.ErrorIs(t, err, ErrMiss)

	assert.NoError(t, s.Delete(ctx, "never-stored"))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, config.CacheKeyBirthdays, []engine.BirthdayRecord{{ID: "1", Name: "Alice"}}))
	require.NoError(t, s.Close())

	// Re-opening runs migrations again; they must be idempotent.
	s, err = Open(dir)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	var got []engine.BirthdayRecord
	_, err = s.Get(ctx, config.CacheKeyBirthdays, &got)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got[0].Name)

	var versions int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&versions))
	assert.Equal(t, 1, versions)
}

func TestStore_UnencodableValue(t *testing.T) {
	s := openMemory(t)

	err := s.Put(context.Background(), "bad", make(chan int))

	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrCacheWrite)
}

func TestParseMigrationVersion(t *testing.T) {
	v, err := parseMigrationVersion("001_entries.sql")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = parseMigrationVersion("entries.sql")
	assert.Error(t, err)
	_, err = parseMigrationVersion("abc_entries.sql")
	assert.Error(t, err)
}
