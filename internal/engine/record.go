package engine

import "time"

// BirthdayRecord is one tracked person, in the JSON shape of the backend API.
// The ID is assigned by the backend and never changes once created.
type BirthdayRecord struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"required,max=200"`

	// Date is kept raw: a malformed value from the backend must not abort a whole
	// listing, so it is parsed during enrichment and flagged there.
	Date string `json:"date" validate:"required,birthdate"`

	Relationship         string    `json:"relationship,omitempty" validate:"max=100"`
	Notes                string    `json:"notes,omitempty" validate:"max=2000"`
	ImageRef             string    `json:"imageRef,omitempty"`
	NotifyBeforeDays     int       `json:"notifyBeforeDays" validate:"notify"`
	NotificationsEnabled bool      `json:"notificationsEnabled"`
	CreatedAt            time.Time `json:"createdAt,omitzero"`
}

// Enriched is a record plus the fields derived from it relative to a reference date.
// It is recomputed on every read and never persisted.
type Enriched struct {
	BirthdayRecord

	Birth          Date     `json:"birth"`
	Valid          bool     `json:"valid"`
	NextOccurrence Date     `json:"nextOccurrence"`
	LastOccurrence Date     `json:"lastOccurrence"`
	DaysUntil      int      `json:"daysUntil"`
	DaysSince      int      `json:"daysSince"`
	TurningAge     int      `json:"turningAge"`
	Zodiac         Sign     `json:"zodiacSign"`
	Category       Category `json:"category"`
}

// NotificationType classifies a backend notification.
type NotificationType string

const (
	NotificationBirthday NotificationType = "birthday"
	NotificationReminder NotificationType = "reminder"
	NotificationSystem   NotificationType = "system"
	NotificationUpdate   NotificationType = "update"
)

// NotificationRecord is opaque pass-through data from the backend.
type NotificationRecord struct {
	ID         string           `json:"id"`
	Message    string           `json:"message"`
	Type       NotificationType `json:"type"`
	IsRead     bool             `json:"isRead"`
	CreatedAt  time.Time        `json:"createdAt"`
	BirthdayID string           `json:"birthdayId,omitempty"`
}

// UnreadCount returns how many notifications have not been read yet.
func UnreadCount(ns []NotificationRecord) int {
	n := 0
	for _, x := range ns {
		if !x.IsRead {
			n++
		}
	}
	return n
}
