package validation_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/tartampluch/go-birthday-tracker/internal/engine"
	"github.com/tartampluch/go-birthday-tracker/internal/validation"
)

type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

func newValidator(t *testing.T) *validation.Validator {
	t.Helper()
	v, err := validation.New(MockClock{CurrentTime: time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	return v
}

func validRecord() engine.BirthdayRecord {
	return engine.BirthdayRecord{
		Name:                 "Alice",
		Date:                 "1990-06-20",
		Relationship:         "friend",
		NotifyBeforeDays:     7,
		NotificationsEnabled: true,
	}
}

func TestValidate_Valid(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Validate(validRecord()))

	r := validRecord()
	r.Date = "--02-29"
	assert.NoError(t, v.Validate(r), "year-unknown leap day is accepted")

	r = validRecord()
	r.Date = "2024-06-15"
	assert.NoError(t, v.Validate(r), "born today is not in the future")

	for _, n := range config.NotifyBeforeDaysOptions {
		r = validRecord()
		r.NotifyBeforeDays = n
		assert.NoError(t, v.Validate(r), "notify %d", n)
	}
}

func TestValidate_FieldErrors(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name   string
		mutate func(*engine.BirthdayRecord)
		field  string
	}{
		{"missing name", func(r *engine.BirthdayRecord) { r.Name = "" }, "name"},
		{"name too long", func(r *engine.BirthdayRecord) { r.Name = strings.Repeat("a", 201) }, "name"},
		{"missing date", func(r *engine.BirthdayRecord) { r.Date = "" }, "date"},
		{"out of range date", func(r *engine.BirthdayRecord) { r.Date = "2023-02-30" }, "date"},
		{"garbage date", func(r *engine.BirthdayRecord) { r.Date = "yesterday" }, "date"},
		{"future date", func(r *engine.BirthdayRecord) { r.Date = "2024-06-16" }, "date"},
		{"notify outside the set", func(r *engine.BirthdayRecord) { r.NotifyBeforeDays = 2 }, "notifyBeforeDays"},
		{"negative notify", func(r *engine.BirthdayRecord) { r.NotifyBeforeDays = -1 }, "notifyBeforeDays"},
		{"notes too long", func(r *engine.BirthdayRecord) { r.Notes = strings.Repeat("n", 2001) }, "notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)

			err := v.Validate(r)

			var verr *validation.Error
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Len(t, verr.Fields, 1)
			assert.Contains(t, err.Error(), config.ErrValidation)
		})
	}
}

func TestValidate_MultipleFieldsSortedMessage(t *testing.T) {
	v := newValidator(t)

	err := v.Validate(engine.BirthdayRecord{NotifyBeforeDays: 5})

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["name"])
	assert.Equal(t, "is required", verr.Fields["date"])
	assert.Contains(t, verr.Fields["notifyBeforeDays"], "must be one of")

	msg := err.Error()
	assert.Less(t, strings.Index(msg, "date"), strings.Index(msg, "name"))
}
