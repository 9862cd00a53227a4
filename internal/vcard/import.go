// Package vcard converts address books into birthday records.
package vcard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	govcard "github.com/emersion/go-vcard"
	"github.com/google/uuid"
	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/tartampluch/go-birthday-tracker/internal/engine"
)

// namespace seeds record ids so that re-importing the same card is idempotent.
var namespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte(config.UIDNamespace))

// CardError reports a card that could not be turned into a record.
type CardError struct {
	Index int // position of the card in the stream, starting at 1
	Name  string
	Err   error
}

func (e *CardError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("card %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("card %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *CardError) Unwrap() error { return e.Err }

// Importer reads vCards from a local file, a remote URL or any stream.
type Importer struct {
	Clock   engine.Clock
	Fetcher Fetcher
}

// NewImporter returns an Importer using the real clock and an HTTP fetcher.
func NewImporter() *Importer {
	return &Importer{Clock: engine.RealClock{}, Fetcher: NewHTTPFetcher()}
}

// ImportFile opens path and imports it.
func (i *Importer) ImportFile(ctx context.Context, path string) ([]engine.BirthdayRecord, []error, error) {
	if path == "" {
		return nil, nil, errors.New(config.ErrLocalPathEmpty)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", config.ErrVCardOpen, err)
	}
	defer func() { _ = f.Close() }()

	records, skipped, err := i.Import(ctx, f)
	if err != nil {
		return nil, skipped, err
	}
	return records, skipped, ctx.Err()
}

// ImportURL downloads the address book and imports it.
func (i *Importer) ImportURL(ctx context.Context, url, user, pass string) ([]engine.BirthdayRecord, []error, error) {
	if url == "" {
		return nil, nil, errors.New(config.ErrWebURLEmpty)
	}
	if i.Fetcher == nil {
		return nil, nil, errors.New(config.ErrFetcherMissing)
	}
	rc, err := i.Fetcher.Fetch(ctx, url, user, pass)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", config.ErrVCardOpen, err)
	}
	defer func() { _ = rc.Close() }()

	records, skipped, err := i.Import(ctx, rc)
	if err != nil {
		return nil, skipped, err
	}
	return records, skipped, ctx.Err()
}

// Import decodes every card of r. Cards without a usable birthday are skipped
// and reported in the second return value; decoding continues past malformed
// cards to recover as much data as possible. A failure of r itself stops the
// import and is returned with the records decoded so far.
func (i *Importer) Import(ctx context.Context, r io.Reader) ([]engine.BirthdayRecord, []error, error) {
	log := slog.With(config.LogKeyComponent, config.CompVCard)

	var (
		records []engine.BirthdayRecord
		skipped []error
	)
	createdAt := i.now().UTC()
	src := &readErrRecorder{r: r}
	decoder := govcard.NewDecoder(src)

	for index := 1; ; index++ {
		if ctx.Err() != nil {
			break
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if src.err != nil {
				log.Error(config.ErrVCardRead, config.LogKeyError, src.err)
				return records, skipped, fmt.Errorf("%s: %w", config.ErrVCardRead, src.err)
			}
			log.Warn(config.MsgSkippedCard, config.LogKeyError, err)
			skipped = append(skipped, &CardError{Index: index, Err: err})
			if errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			continue
		}

		record, err := toRecord(card)
		if err != nil {
			log.Debug(config.MsgSkippedDate,
				config.LogKeyName, record.Name,
				config.LogKeyValue, record.Date)
			skipped = append(skipped, &CardError{Index: index, Name: record.Name, Err: err})
			continue
		}
		record.CreatedAt = createdAt
		records = append(records, record)
	}

	log.Info(config.MsgImportDone,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyFound, len(records)),
			slog.Int(config.LogKeyInvalid, len(skipped)),
		),
	)
	return records, skipped, nil
}

// readErrRecorder keeps the first error of the underlying reader, so that a
// broken stream can be told apart from a malformed card.
type readErrRecorder struct {
	r   io.Reader
	err error
}

func (rr *readErrRecorder) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && rr.err == nil {
		rr.err = err
	}
	return n, err
}

func (i *Importer) now() time.Time {
	if i.Clock == nil {
		return time.Now()
	}
	return i.Clock.Now()
}

// toRecord maps one card. The partially filled record is returned alongside
// an error so that the caller can log which card failed.
func toRecord(card govcard.Card) (engine.BirthdayRecord, error) {
	record := engine.BirthdayRecord{
		Name:                 cardName(card),
		NotifyBeforeDays:     config.DefaultNotifyBeforeDays,
		NotificationsEnabled: config.DefaultNotifications,
	}

	bday := card.Get(govcard.FieldBirthday)
	if bday == nil || strings.TrimSpace(bday.Value) == "" {
		return record, errors.New(config.ErrVCardNoBirthday)
	}
	record.Date = bday.Value

	birth, err := engine.ParseDate(bday.Value)
	if err != nil {
		return record, err
	}
	record.Date = birth.String()

	record.Notes = strings.TrimSpace(card.Value(govcard.FieldNote))
	if categories := card.Categories(); len(categories) > 0 {
		record.Relationship = strings.TrimSpace(categories[0])
	}
	if photo := card.Value(govcard.FieldPhoto); strings.HasPrefix(photo, config.PhotoSchemePrefix) {
		record.ImageRef = photo
	}

	key := card.Value(govcard.FieldUID)
	if key == "" {
		key = fmt.Sprintf(config.FormatHashInput, record.Name, record.Date, config.UIDNamespace)
	}
	record.ID = uuid.NewSHA1(namespace, []byte(key)).String()
	return record, nil
}

// cardName applies FN > N > fallback.
func cardName(card govcard.Card) string {
	if fn := strings.TrimSpace(card.Value(govcard.FieldFormattedName)); fn != "" {
		return fn
	}
	if n := card.Name(); n != nil {
		full := strings.TrimSpace(strings.Join([]string{n.GivenName, n.FamilyName}, " "))
		if full != "" {
			return full
		}
	}
	return config.FallbackName
}
