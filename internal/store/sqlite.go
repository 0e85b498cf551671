package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/mkdmitry/flashka/internal/domain"
	"github.com/mkdmitry/flashka/internal/srs"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// EnsureUser inserts the user row and its default settings if they do not
// exist yet. Existing rows are left untouched.
func (r *SQLiteRepo) EnsureUser(ctx context.Context, userID int64, username, firstName string) error {
	now := time.Now().UTC().Unix()
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, first_name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		userID, username, firstName, now,
	); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, notifications_enabled, study_reminder_time, timezone)
		VALUES (?, 1, ?, 'UTC')
		ON CONFLICT(user_id) DO NOTHING`,
		userID, domain.DefaultReminderTime,
	)
	return err
}

// User reads the stored account back.
func (r *SQLiteRepo) User(ctx context.Context, userID int64) (domain.User, error) {
	var (
		u         domain.User
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, username, first_name, created_at
		FROM users
		WHERE user_id = ?`,
		userID,
	).Scan(&u.ID, &u.Username, &u.FirstName, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, fmt.Errorf("%w: user %d", domain.ErrNotFound, userID)
	}
	if err != nil {
		return domain.User{}, err
	}
	u.CreatedAt = unixToTime(createdAt)
	return u, nil
}

// CreateCard inserts a new card after trimming its texts.
func (r *SQLiteRepo) CreateCard(ctx context.Context, userID int64, front, back string) (int64, error) {
	front = strings.TrimSpace(front)
	back = strings.TrimSpace(back)
	if front == "" || back == "" {
		return 0, fmt.Errorf("%w: card front and back must be non-empty", domain.ErrValidation)
	}

	if err := r.EnsureUser(ctx, userID, "", ""); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO cards (user_id, front, back, created_at)
		VALUES (?, ?, ?, ?)`,
		userID, front, back, time.Now().UTC().Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecordReview loads the card's latest session (or SM-2 defaults if it has
// none), computes the next schedule and appends a new session row.
func (r *SQLiteRepo) RecordReview(ctx context.Context, userID, cardID int64, quality int, today time.Time) (domain.StudySession, error) {
	var owner int64
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM cards WHERE id = ?`, cardID,
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != userID) {
		return domain.StudySession{}, fmt.Errorf("%w: card %d", domain.ErrNotFound, cardID)
	}
	if err != nil {
		return domain.StudySession{}, err
	}

	intervalDays := srs.DefaultIntervalDays
	easeFactor := srs.DefaultEaseFactor
	// Latest session by insertion order, not timestamp.
	err = r.db.QueryRowContext(ctx, `
		SELECT interval_days, ease_factor
		FROM study_sessions
		WHERE card_id = ?
		ORDER BY id DESC
		LIMIT 1`,
		cardID,
	).Scan(&intervalDays, &easeFactor)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.StudySession{}, err
	}

	sched, err := srs.Compute(quality, intervalDays, easeFactor)
	if err != nil {
		return domain.StudySession{}, err
	}

	next := midnightUTC(today).AddDate(0, 0, sched.IntervalDays)
	studiedAt := time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO study_sessions (card_id, user_id, quality, interval_days, ease_factor, next_review_date, studied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cardID, userID, quality, sched.IntervalDays, sched.EaseFactor, dateStr(next), studiedAt.Unix(),
	)
	if err != nil {
		return domain.StudySession{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.StudySession{}, err
	}

	return domain.StudySession{
		ID:           id,
		CardID:       cardID,
		UserID:       userID,
		Quality:      quality,
		IntervalDays: sched.IntervalDays,
		EaseFactor:   sched.EaseFactor,
		NextReviewAt: next,
		StudiedAt:    studiedAt,
	}, nil
}

// DueCards returns the study queue: due cards soonest first, then new cards
// oldest first. Half of limit is reserved for new cards; when fewer new
// cards exist the freed slots are not backfilled with extra due cards.
func (r *SQLiteRepo) DueCards(ctx context.Context, userID int64, today time.Time, limit int) ([]domain.Card, error) {
	if limit <= 0 {
		return nil, nil
	}
	newBudget := limit / 2
	dueBudget := limit - newBudget

	cards := make([]domain.Card, 0, limit)

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.front, c.back, c.created_at, s.next_review_date
		FROM cards c
		JOIN study_sessions s ON s.card_id = c.id
		WHERE c.user_id = ?
		  AND s.id = (SELECT MAX(id) FROM study_sessions WHERE card_id = c.id)
		  AND s.next_review_date <= ?
		ORDER BY s.next_review_date ASC, c.id ASC
		LIMIT ?`,
		userID, dateStr(today), dueBudget,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c         domain.Card
			createdAt int64
			nextDate  string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Front, &c.Back, &createdAt, &nextDate); err != nil {
			return nil, err
		}
		c.CreatedAt = unixToTime(createdAt)
		next, err := parseDate(nextDate)
		if err != nil {
			return nil, fmt.Errorf("card %d: bad next_review_date %q: %w", c.ID, nextDate, err)
		}
		c.NextReviewAt = &next
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if newBudget == 0 {
		return cards, nil
	}

	newRows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.front, c.back, c.created_at
		FROM cards c
		LEFT JOIN study_sessions s ON s.card_id = c.id
		WHERE c.user_id = ? AND s.id IS NULL
		ORDER BY c.created_at ASC, c.id ASC
		LIMIT ?`,
		userID, newBudget,
	)
	if err != nil {
		return nil, err
	}
	defer newRows.Close()

	for newRows.Next() {
		var (
			c         domain.Card
			createdAt int64
		)
		if err := newRows.Scan(&c.ID, &c.UserID, &c.Front, &c.Back, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt = unixToTime(createdAt)
		cards = append(cards, c)
	}
	if err := newRows.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

// Cards returns every card the user owns, oldest first, each with the due
// date from its latest session (nil when never studied).
func (r *SQLiteRepo) Cards(ctx context.Context, userID int64) ([]domain.Card, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.front, c.back, c.created_at, s.next_review_date
		FROM cards c
		LEFT JOIN study_sessions s
		  ON s.card_id = c.id
		 AND s.id = (SELECT MAX(id) FROM study_sessions WHERE card_id = c.id)
		WHERE c.user_id = ?
		ORDER BY c.id ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Card
	for rows.Next() {
		var (
			c         domain.Card
			createdAt int64
			nextDate  sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Front, &c.Back, &createdAt, &nextDate); err != nil {
			return nil, err
		}
		c.CreatedAt = unixToTime(createdAt)
		if nextDate.Valid {
			next, err := parseDate(nextDate.String)
			if err != nil {
				return nil, fmt.Errorf("card %d: bad next_review_date %q: %w", c.ID, nextDate.String, err)
			}
			c.NextReviewAt = &next
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UserStats returns the aggregate card counts for the user.
func (r *SQLiteRepo) UserStats(ctx context.Context, userID int64, today time.Time) (domain.UserStats, error) {
	var st domain.UserStats

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cards WHERE user_id = ?`, userID,
	).Scan(&st.TotalCards); err != nil {
		return st, err
	}

	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM cards c
		JOIN study_sessions s ON s.card_id = c.id
		WHERE c.user_id = ?
		  AND s.id = (SELECT MAX(id) FROM study_sessions WHERE card_id = c.id)
		  AND s.next_review_date <= ?`,
		userID, dateStr(today),
	).Scan(&st.DueToday); err != nil {
		return st, err
	}

	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM cards c
		LEFT JOIN study_sessions s ON s.card_id = c.id
		WHERE c.user_id = ? AND s.id IS NULL`,
		userID,
	).Scan(&st.NewCards); err != nil {
		return st, err
	}

	return st, nil
}

// Settings returns the user's preferences; users without a settings row get
// the defaults (notifications on).
func (r *SQLiteRepo) Settings(ctx context.Context, userID int64) (domain.Settings, error) {
	s := domain.Settings{
		UserID:               userID,
		NotificationsEnabled: true,
		ReminderTime:         domain.DefaultReminderTime,
		Timezone:             "UTC",
	}
	var enabled int
	err := r.db.QueryRowContext(ctx, `
		SELECT notifications_enabled, study_reminder_time, timezone
		FROM user_settings
		WHERE user_id = ?`,
		userID,
	).Scan(&enabled, &s.ReminderTime, &s.Timezone)
	if errors.Is(err, sql.ErrNoRows) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	s.NotificationsEnabled = enabled != 0
	return s, nil
}

// SetNotificationsEnabled toggles reminder delivery for the user.
func (r *SQLiteRepo) SetNotificationsEnabled(ctx context.Context, userID int64, enabled bool) error {
	if err := r.EnsureUser(ctx, userID, "", ""); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_settings
		SET notifications_enabled = ?
		WHERE user_id = ?`,
		boolToInt(enabled), userID,
	)
	return err
}

// ReminderCandidates returns users with notifications enabled that have at
// least one card due today or never studied, with their counts.
func (r *SQLiteRepo) ReminderCandidates(ctx context.Context, today time.Time) ([]domain.ReminderCandidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT u.user_id
		FROM users u
		LEFT JOIN user_settings us ON us.user_id = u.user_id
		JOIN cards c ON c.user_id = u.user_id
		WHERE COALESCE(us.notifications_enabled, 1) = 1`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []domain.ReminderCandidate
	for _, id := range ids {
		st, err := r.UserStats(ctx, id, today)
		if err != nil {
			return nil, err
		}
		if st.DueToday == 0 && st.NewCards == 0 {
			continue
		}
		out = append(out, domain.ReminderCandidate{
			UserID:   id,
			DueCount: st.DueToday,
			NewCount: st.NewCards,
		})
	}
	return out, nil
}

// ClaimReminder records "notified today" for the user. The insert is the
// atomic check-and-set: only the caller whose insert lands owns the claim.
func (r *SQLiteRepo) ClaimReminder(ctx context.Context, userID int64, today time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (reminder_date, user_id, sent_at)
		VALUES (?, ?, ?)
		ON CONFLICT(reminder_date, user_id) DO NOTHING`,
		dateStr(today), userID, time.Now().UTC().Unix(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// WasNotified reports whether a reminder was already recorded for the user
// on the given day.
func (r *SQLiteRepo) WasNotified(ctx context.Context, userID int64, today time.Time) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM reminders WHERE reminder_date = ? AND user_id = ?
		)`,
		dateStr(today), userID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists != 0, nil
}
