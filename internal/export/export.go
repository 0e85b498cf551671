// Package export builds the per-user JSON snapshot served as a download by
// the mini-app API. Snapshots are generated on demand, never written to disk.
package export

import (
	"time"

	"github.com/mkdmitry/flashka/internal/domain"
)

// Snapshot is the downloadable view of a user's deck.
type Snapshot struct {
	UserID      int64            `json:"user_id"`
	Username    string           `json:"username,omitempty"`
	FirstName   string           `json:"first_name,omitempty"`
	MemberSince string           `json:"member_since"`
	GeneratedAt string           `json:"generated_at"`
	Stats       domain.UserStats `json:"stats"`
	Cards       []CardRecord     `json:"cards"`
}

// CardRecord is one card in the snapshot.
type CardRecord struct {
	ID           int64  `json:"id"`
	Front        string `json:"front"`
	Back         string `json:"back"`
	CreatedAt    string `json:"created_at"`
	New          bool   `json:"new"`
	NextReviewAt string `json:"next_review_date,omitempty"`
}

// Build assembles a snapshot of the user's account, stats and cards.
func Build(user domain.User, stats domain.UserStats, cards []domain.Card, now time.Time) Snapshot {
	records := make([]CardRecord, 0, len(cards))
	for _, c := range cards {
		rec := CardRecord{
			ID:        c.ID,
			Front:     c.Front,
			Back:      c.Back,
			CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
			New:       c.New(),
		}
		if c.NextReviewAt != nil {
			rec.NextReviewAt = c.NextReviewAt.Format("2006-01-02")
		}
		records = append(records, rec)
	}
	return Snapshot{
		UserID:      user.ID,
		Username:    user.Username,
		FirstName:   user.FirstName,
		MemberSince: user.CreatedAt.UTC().Format(time.RFC3339),
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Stats:       stats,
		Cards:       records,
	}
}
