package store

import (
	"context"
	"time"

	"github.com/mkdmitry/flashka/internal/domain"
)

// Repo defines storage operations for users, cards, review history and the
// reminder idempotence log.
type Repo interface {
	// EnsureUser inserts the user (and default settings) if missing.
	EnsureUser(ctx context.Context, userID int64, username, firstName string) error

	// User returns the stored account, or ErrNotFound if never seen.
	User(ctx context.Context, userID int64) (domain.User, error)

	// CreateCard inserts a card for the user, creating the user row first
	// if needed. Front/back are trimmed; empty text is a validation error.
	CreateCard(ctx context.Context, userID int64, front, back string) (int64, error)

	// RecordReview appends a study session computed from the card's latest
	// schedule state and the given quality rating.
	RecordReview(ctx context.Context, userID, cardID int64, quality int, today time.Time) (domain.StudySession, error)

	// DueCards returns up to limit cards to study: due cards ordered by
	// next review date ascending, then never-studied cards. Half the limit
	// is reserved for new cards.
	DueCards(ctx context.Context, userID int64, today time.Time, limit int) ([]domain.Card, error)

	// Cards returns all of the user's cards with their current schedule
	// state, for the snapshot export.
	Cards(ctx context.Context, userID int64) ([]domain.Card, error)

	// UserStats returns aggregate card counts for the user.
	UserStats(ctx context.Context, userID int64, today time.Time) (domain.UserStats, error)

	// Settings returns the user's notification preferences, defaults if unset.
	Settings(ctx context.Context, userID int64) (domain.Settings, error)
	SetNotificationsEnabled(ctx context.Context, userID int64, enabled bool) error

	// ReminderCandidates returns enabled users that have at least one due
	// or new card today, with their counts.
	ReminderCandidates(ctx context.Context, today time.Time) ([]domain.ReminderCandidate, error)

	// ClaimReminder atomically records "notified today" for the user and
	// reports whether this call won the claim. A second claim for the same
	// (user, day) returns false.
	ClaimReminder(ctx context.Context, userID int64, today time.Time) (bool, error)
	WasNotified(ctx context.Context, userID int64, today time.Time) (bool, error)

	Close() error
}
