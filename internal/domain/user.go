package domain

import "time"

// User is a Telegram account known to the app. The ID is assigned by
// Telegram; rows are created on first card creation or first authenticated
// request and never deleted.
type User struct {
	ID        int64
	Username  string
	FirstName string
	CreatedAt time.Time // UTC
}

// Settings holds per-user notification preferences.
type Settings struct {
	UserID               int64
	NotificationsEnabled bool
	ReminderTime         string // informational only, not used for gating
	Timezone             string
}

// DefaultReminderTime is stored for new users; reminders fire on any
// scheduler tick regardless of this value.
const DefaultReminderTime = "any time"
