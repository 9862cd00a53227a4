package vcard_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/tartampluch/go-birthday-tracker/internal/engine"
	"github.com/tartampluch/go-birthday-tracker/internal/vcard"
)

// MockFetcher simulates the network layer using testify/mock.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url, user, pass string) (io.ReadCloser, error) {
	args := m.Called(ctx, url, user, pass)
	if r := args.Get(0); r != nil {
		return r.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

var importTime = time.Date(2025, time.January, 1, 10, 0, 0, 0, time.UTC)

const mixedBook = `BEGIN:VCARD
VERSION:4.0
FN:John Doe
BDAY:19900620
NOTE:Likes chess
CATEGORIES:friend,chess club
END:VCARD
BEGIN:VCARD
VERSION:3.0
N:Curie;Marie;;;
BDAY:--11-07
PHOTO:https://example.com/marie.png
END:VCARD
BEGIN:VCARD
VERSION:3.0
FN:No Birthday
END:VCARD
BEGIN:VCARD
VERSION:3.0
FN:Bad Date
BDAY:2023-02-30
END:VCARD
BEGIN:VCARD
VERSION:3.0
UID:urn:uuid:1234
BDAY:2000-02-29
END:VCARD
`

func TestImport_MapsCards(t *testing.T) {
	imp := &vcard.Importer{Clock: MockClock{CurrentTime: importTime}}

	records, skipped, err := imp.Import(context.Background(), strings.NewReader(mixedBook))
	require.NoError(t, err)

	require.Len(t, records, 3)
	require.Len(t, skipped, 2)

	john := records[0]
	assert.Equal(t, "John Doe", john.Name)
	assert.Equal(t, "1990-06-20", john.Date, "dates are normalized to the stored layout")
	assert.Equal(t, "Likes chess", john.Notes)
	assert.Equal(t, "friend", john.Relationship)
	assert.Equal(t, importTime, john.CreatedAt)
	assert.Equal(t, config.DefaultNotifyBeforeDays, john.NotifyBeforeDays)
	assert.True(t, john.NotificationsEnabled)
	assert.NotEmpty(t, john.ID)

	marie := records[1]
	assert.Equal(t, "Marie Curie", marie.Name, "N is used when FN is missing")
	assert.Equal(t, "--11-07", marie.Date)
	assert.Equal(t, "https://example.com/marie.png", marie.ImageRef)

	leap := records[2]
	assert.Equal(t, config.FallbackName, leap.Name)
	assert.Equal(t, "2000-02-29", leap.Date)

	var cardErr *vcard.CardError
	require.ErrorAs(t, skipped[0], &cardErr)
	assert.Equal(t, 3, cardErr.Index)
	assert.Equal(t, "No Birthday", cardErr.Name)
	assert.Contains(t, skipped[0].Error(), config.ErrVCardNoBirthday)

	require.ErrorAs(t, skipped[1], &cardErr)
	assert.Equal(t, "Bad Date", cardErr.Name)
}

func TestImport_DeterministicIDs(t *testing.T) {
	imp := &vcard.Importer{Clock: MockClock{CurrentTime: importTime}}

	first, _, _ := imp.Import(context.Background(), strings.NewReader(mixedBook))
	second, _, _ := imp.Import(context.Background(), strings.NewReader(mixedBook))

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
	assert.NotEqual(t, first[0].ID, first[1].ID)
}

func TestImport_RecordsAreValidForTheEngine(t *testing.T) {
	imp := &vcard.Importer{Clock: MockClock{CurrentTime: importTime}}
	records, _, _ := imp.Import(context.Background(), strings.NewReader(mixedBook))

	for _, e := range engine.EnrichAll(records, engine.DateOf(importTime), engine.Windows{}) {
		assert.True(t, e.Valid, "imported record %q must enrich cleanly", e.Name)
	}
}

func TestImport_EmptyStream(t *testing.T) {
	records, skipped, err := (&vcard.Importer{}).Import(context.Background(), strings.NewReader(""))
	require.NoError(t, err)

	assert.Empty(t, records)
	assert.Empty(t, skipped)
}

func TestImport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, _, _ := (&vcard.Importer{}).Import(ctx, strings.NewReader(mixedBook))

	assert.Empty(t, records)
}

// failingReader delivers prefix, then fails on every read like a dropped connection.
type failingReader struct {
	prefix *strings.Reader
	err    error
	reads  int
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.prefix.Len() > 0 {
		return f.prefix.Read(p)
	}
	f.reads++
	return 0, f.err
}

func TestImport_StopsOnReadError(t *testing.T) {
	resetErr := errors.New("connection reset by peer")
	r := &failingReader{
		prefix: strings.NewReader("BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Ada\r\nBDAY:1815-12-10\r\nEND:VCARD\r\n"),
		err:    resetErr,
	}
	imp := &vcard.Importer{Clock: MockClock{CurrentTime: importTime}}

	records, skipped, err := imp.Import(context.Background(), r)

	require.Error(t, err)
	assert.ErrorIs(t, err, resetErr)
	assert.Contains(t, err.Error(), config.ErrVCardRead)
	require.Len(t, records, 1, "cards read before the failure are kept")
	assert.Equal(t, "Ada", records[0].Name)
	assert.Empty(t, skipped, "a broken stream is not a malformed card")
	assert.LessOrEqual(t, r.reads, 2)
}

func TestImportURL_BrokenBody(t *testing.T) {
	resetErr := errors.New("connection reset by peer")
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(io.NopCloser(&failingReader{prefix: strings.NewReader(mixedBook), err: resetErr}), nil)

	records, _, err := (&vcard.Importer{Fetcher: fetcher}).ImportURL(context.Background(), "https://dav.example.com/book", "", "")

	assert.ErrorIs(t, err, resetErr)
	assert.Empty(t, records)
}

func TestImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts"+config.ExtVCF)
	require.NoError(t, os.WriteFile(path, []byte(mixedBook), config.FilePermUserRW))

	imp := &vcard.Importer{Clock: MockClock{CurrentTime: importTime}}

	records, skipped, err := imp.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Len(t, skipped, 2)

	_, _, err = imp.ImportFile(context.Background(), "")
	assert.EqualError(t, err, config.ErrLocalPathEmpty)

	_, _, err = imp.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.vcf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImportURL(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, "https://dav.example.com/book", "me", "pw").
		Return(io.NopCloser(strings.NewReader(mixedBook)), nil)

	imp := &vcard.Importer{Clock: MockClock{CurrentTime: importTime}, Fetcher: fetcher}

	records, _, err := imp.ImportURL(context.Background(), "https://dav.example.com/book", "me", "pw")

	require.NoError(t, err)
	assert.Len(t, records, 3)
	fetcher.AssertExpectations(t)
}

func TestImportURL_Errors(t *testing.T) {
	networkErr := errors.New("network unreachable")
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, networkErr)

	imp := &vcard.Importer{Fetcher: fetcher}

	_, _, err := imp.ImportURL(context.Background(), "https://dav.example.com/book", "", "")
	assert.ErrorIs(t, err, networkErr)

	_, _, err = imp.ImportURL(context.Background(), "", "", "")
	assert.EqualError(t, err, config.ErrWebURLEmpty)

	_, _, err = (&vcard.Importer{}).ImportURL(context.Background(), "https://x", "", "")
	assert.EqualError(t, err, config.ErrFetcherMissing)
}
