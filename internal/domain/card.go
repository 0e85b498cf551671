package domain

import "time"

// Card is a flashcard owned by exactly one user. Front and back are
// immutable once created; deleting a card cascades its sessions.
type Card struct {
	ID        int64
	UserID    int64
	Front     string
	Back      string
	CreatedAt time.Time // UTC

	// NextReviewAt is the due date from the card's latest session.
	// Nil for a card that has never been studied.
	NextReviewAt *time.Time
}

// New reports whether the card has never been studied.
func (c Card) New() bool { return c.NextReviewAt == nil }

// StudySession is one append-only review event for a card. The latest
// session by insertion order (max ID) is the card's current schedule state;
// sessions are never mutated or deleted.
type StudySession struct {
	ID           int64
	CardID       int64
	UserID       int64
	Quality      int // 1..5
	IntervalDays int
	EaseFactor   float64
	NextReviewAt time.Time
	StudiedAt    time.Time // UTC
}

// UserStats are the read-only aggregate counts shown in the mini app.
type UserStats struct {
	TotalCards int `json:"total_cards"`
	DueToday   int `json:"due_today"`
	NewCards   int `json:"new_cards"`
}

// ReminderCandidate is a user the reminder selector picked, with the card
// counts that justify the reminder.
type ReminderCandidate struct {
	UserID   int64
	DueCount int
	NewCount int
}
