package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdmitry/flashka/internal/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestCreateCard_Validation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateCard(ctx, 1, "  ", "кот")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = repo.CreateCard(ctx, 1, "cat", "\t\n")
	assert.ErrorIs(t, err, domain.ErrValidation)

	id, err := repo.CreateCard(ctx, 1, "  cat  ", " кот ")
	require.NoError(t, err)
	assert.Positive(t, id)
}

func TestUser_ReadBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.User(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.EnsureUser(ctx, 7, "mkd", "Dmitry"))

	u, err := repo.User(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, "mkd", u.Username)
	assert.Equal(t, "Dmitry", u.FirstName)
	assert.False(t, u.CreatedAt.IsZero())

	// A repeat ensure keeps the original identity fields.
	require.NoError(t, repo.EnsureUser(ctx, 7, "other", "Someone"))
	u, err = repo.User(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "mkd", u.Username)
}

func TestCreateCard_EnsuresUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateCard(ctx, 42, "front", "back")
	require.NoError(t, err)

	s, err := repo.Settings(ctx, 42)
	require.NoError(t, err)
	assert.True(t, s.NotificationsEnabled)
	assert.Equal(t, domain.DefaultReminderTime, s.ReminderTime)
}

func TestRecordReview_EndToEnd(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	today := time.Now().UTC()

	cardID, err := repo.CreateCard(ctx, 1, "cat", "кот")
	require.NoError(t, err)

	// First review at quality 4 starts from the defaults: 6 days, ease stays 2.5.
	first, err := repo.RecordReview(ctx, 1, cardID, 4, today)
	require.NoError(t, err)
	assert.Equal(t, 6, first.IntervalDays)
	assert.InDelta(t, 2.5, first.EaseFactor, 1e-9)
	wantNext := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 6)
	assert.True(t, first.NextReviewAt.Equal(wantNext), "next = %v, want %v", first.NextReviewAt, wantNext)

	// Second review moves 6 -> 16.
	second, err := repo.RecordReview(ctx, 1, cardID, 4, today)
	require.NoError(t, err)
	assert.Equal(t, 16, second.IntervalDays)
	assert.Greater(t, second.ID, first.ID, "sessions are append-only")
}

func TestRecordReview_Errors(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	today := time.Now().UTC()

	cardID, err := repo.CreateCard(ctx, 1, "cat", "кот")
	require.NoError(t, err)

	_, err = repo.RecordReview(ctx, 1, cardID+100, 4, today)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// A card owned by another user is not visible to the caller.
	_, err = repo.RecordReview(ctx, 2, cardID, 4, today)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, q := range []int{0, 6} {
		_, err = repo.RecordReview(ctx, 1, cardID, q, today)
		assert.ErrorIs(t, err, domain.ErrValidation, "quality %d", q)
	}
}

func TestDueCards_NewAndDueClassification(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	today := time.Now().UTC()

	newID, err := repo.CreateCard(ctx, 1, "new", "card")
	require.NoError(t, err)

	dueID, err := repo.CreateCard(ctx, 1, "due", "card")
	require.NoError(t, err)
	// A failed review dated ten days ago puts the card one day after that,
	// i.e. overdue today.
	_, err = repo.RecordReview(ctx, 1, dueID, 1, today.AddDate(0, 0, -10))
	require.NoError(t, err)

	futureID, err := repo.CreateCard(ctx, 1, "future", "card")
	require.NoError(t, err)
	_, err = repo.RecordReview(ctx, 1, futureID, 4, today)
	require.NoError(t, err)

	cards, err := repo.DueCards(ctx, 1, today, 10)
	require.NoError(t, err)
	require.Len(t, cards, 2)

	assert.Equal(t, dueID, cards[0].ID)
	assert.False(t, cards[0].New())
	assert.Equal(t, newID, cards[1].ID)
	assert.True(t, cards[1].New())
}

func TestDueCards_LimitAndOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	today := time.Now().UTC()

	// Five overdue cards with distinct due dates, most overdue last created.
	var ids []int64
	for i := 0; i < 5; i++ {
		id, err := repo.CreateCard(ctx, 1, "q", "a")
		require.NoError(t, err)
		_, err = repo.RecordReview(ctx, 1, id, 1, today.AddDate(0, 0, -2-i))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	cards, err := repo.DueCards(ctx, 1, today, 4)
	require.NoError(t, err)
	// Budget: 2 slots reserved for new cards even though none exist; the
	// remaining 2 go to due cards, earliest due date first.
	require.Len(t, cards, 2)
	assert.Equal(t, ids[4], cards[0].ID)
	assert.Equal(t, ids[3], cards[1].ID)

	for i := 1; i < len(cards); i++ {
		assert.False(t, cards[i].NextReviewAt.Before(*cards[i-1].NextReviewAt),
			"due cards must be sorted ascending by next review date")
	}
}

func TestDueCards_NeverExceedsLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	today := time.Now().UTC()

	for i := 0; i < 8; i++ {
		_, err := repo.CreateCard(ctx, 1, "q", "a")
		require.NoError(t, err)
	}

	cards, err := repo.DueCards(ctx, 1, today, 5)
	require.NoError(t, err)
	// All cards are new; only the reserved half of the budget is used.
	assert.Len(t, cards, 2)

	cards, err = repo.DueCards(ctx, 1, today, 0)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestUserStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	today := time.Now().UTC()

	_, err := repo.CreateCard(ctx, 1, "new", "card")
	require.NoError(t, err)

	dueID, err := repo.CreateCard(ctx, 1, "due", "card")
	require.NoError(t, err)
	_, err = repo.RecordReview(ctx, 1, dueID, 1, today.AddDate(0, 0, -5))
	require.NoError(t, err)

	futureID, err := repo.CreateCard(ctx, 1, "future", "card")
	require.NoError(t, err)
	_, err = repo.RecordReview(ctx, 1, futureID, 5, today)
	require.NoError(t, err)

	st, err := repo.UserStats(ctx, 1, today)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStats{TotalCards: 3, DueToday: 1, NewCards: 1}, st)
}

func TestClaimReminder_Idempotence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	today := time.Now().UTC()

	claimed, err := repo.ClaimReminder(ctx, 1, today)
	require.NoError(t, err)
	assert.True(t, claimed, "first claim of the day wins")

	claimed, err = repo.ClaimReminder(ctx, 1, today)
	require.NoError(t, err)
	assert.False(t, claimed, "second claim of the same day loses")

	notified, err := repo.WasNotified(ctx, 1, today)
	require.NoError(t, err)
	assert.True(t, notified)

	notified, err = repo.WasNotified(ctx, 1, today.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, notified, "a different date is a fresh slot")

	claimed, err = repo.ClaimReminder(ctx, 2, today)
	require.NoError(t, err)
	assert.True(t, claimed, "claims are per user")
}

func TestReminderCandidates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	today := time.Now().UTC()

	// User 1: one new card, notifications on.
	_, err := repo.CreateCard(ctx, 1, "q", "a")
	require.NoError(t, err)

	// User 2: has a card but notifications off.
	_, err = repo.CreateCard(ctx, 2, "q", "a")
	require.NoError(t, err)
	require.NoError(t, repo.SetNotificationsEnabled(ctx, 2, false))

	// User 3: only a card scheduled in the future, nothing to study.
	futureID, err := repo.CreateCard(ctx, 3, "q", "a")
	require.NoError(t, err)
	_, err = repo.RecordReview(ctx, 3, futureID, 5, today)
	require.NoError(t, err)

	// User 4: no cards at all.
	require.NoError(t, repo.EnsureUser(ctx, 4, "idle", ""))

	got, err := repo.ReminderCandidates(ctx, today)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.ReminderCandidate{UserID: 1, DueCount: 0, NewCount: 1}, got[0])
}
