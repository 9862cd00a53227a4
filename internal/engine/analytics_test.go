package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	es := EnrichAll(sampleRecords(), refDate, Windows{Upcoming: 7, Recent: 7})

	s := Summarize(es, 7, 30, 2)

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 1, s.Invalid)
	assert.Equal(t, 1, s.Today)
	assert.Equal(t, 2, s.Week)
	assert.Equal(t, 2, s.Month)

	assert.Equal(t, 3, s.ByMonth[time.June-1])
	assert.Equal(t, 1, s.ByMonth[time.December-1])
	assert.Equal(t, 0, s.ByMonth[time.February-1], "invalid dates are not counted")

	assert.Equal(t, 3, s.ByZodiac[SignGemini])
	assert.Equal(t, 1, s.ByZodiac[SignCapricorn])
	assert.NotContains(t, s.ByZodiac, SignUnknown)

	assert.Equal(t, map[string]int{"friend": 1, "Friend": 1, "family": 1, "colleague": 1}, s.ByRelationship)

	// Turning ages: Zoe 29, Amy 37, amy 23. Émile has no birth year.
	assert.InDelta(t, float64(29+37+23)/3, s.AverageAge, 0.0001)

	require.Len(t, s.Next, 2)
	assert.Equal(t, []string{"Émile", "Zoe"}, names(s.Next))
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, 7, 30, 5)

	assert.Zero(t, s.Total)
	assert.Zero(t, s.AverageAge)
	assert.Empty(t, s.Next)
	assert.NotNil(t, s.ByZodiac)
	assert.NotNil(t, s.ByRelationship)
}

func TestDueReminders(t *testing.T) {
	rs := []BirthdayRecord{
		{Name: "Week ahead", Date: "1990-06-22", NotificationsEnabled: true, NotifyBeforeDays: 7},
		{Name: "On the day", Date: "1990-06-15", NotificationsEnabled: true, NotifyBeforeDays: 0},
		{Name: "Muted", Date: "1990-06-15", NotificationsEnabled: false, NotifyBeforeDays: 0},
		{Name: "Too early", Date: "1990-06-25", NotificationsEnabled: true, NotifyBeforeDays: 7},
		{Name: "Broken", Date: "1990-02-30", NotificationsEnabled: true, NotifyBeforeDays: 0},
	}

	due := DueReminders(EnrichAll(rs, refDate, Windows{}))

	assert.Equal(t, []string{"On the day", "Week ahead"}, names(due))
}

func TestUnreadCount(t *testing.T) {
	ns := []NotificationRecord{
		{ID: "1", Type: NotificationBirthday},
		{ID: "2", Type: NotificationSystem, IsRead: true},
		{ID: "3", Type: NotificationReminder},
	}

	assert.Equal(t, 2, UnreadCount(ns))
	assert.Equal(t, 0, UnreadCount(nil))
}

type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

func TestToday(t *testing.T) {
	clock := MockClock{CurrentTime: time.Date(2024, time.June, 15, 23, 59, 0, 0, time.UTC)}

	assert.Equal(t, refDate, Today(clock))
	assert.False(t, Today(RealClock{}).IsZero())
}
