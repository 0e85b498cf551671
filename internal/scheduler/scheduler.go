package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mkdmitry/flashka/internal/domain"
	"github.com/mkdmitry/flashka/internal/store"
)

// Notifier is the boundary to the messaging transport. telegram.Router
// implements it; reminder buttons are the transport's concern.
type Notifier interface {
	Send(userID int64, text string) error
}

// Options tune the background loop. Zero values fall back to defaults.
type Options struct {
	Interval  time.Duration // time between ticks
	SendDelay time.Duration // pause between messages to one user
	CardLimit int           // concrete cards per reminder
}

const (
	defaultInterval  = time.Hour
	defaultSendDelay = 200 * time.Millisecond
	defaultCardLimit = 5
)

// Scheduler periodically finds users with due or new cards and dispatches
// reminders through the Notifier. Ticks never overlap and a failed tick
// never stops the loop.
type Scheduler struct {
	repo      store.Repo
	log       *zap.Logger
	notifier  Notifier
	interval  time.Duration
	sendDelay time.Duration
	cardLimit int
}

// New creates a Scheduler with the given options.
func New(repo store.Repo, log *zap.Logger, notifier Notifier, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.SendDelay <= 0 {
		opts.SendDelay = defaultSendDelay
	}
	if opts.CardLimit <= 0 {
		opts.CardLimit = defaultCardLimit
	}
	return &Scheduler{
		repo:      repo,
		log:       log,
		notifier:  notifier,
		interval:  opts.Interval,
		sendDelay: opts.SendDelay,
		cardLimit: opts.CardLimit,
	}
}

// Run starts the loop until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("scheduler running", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.safeTick(ctx, time.Now().UTC())
		}
	}
}

// safeTick runs one cycle and degrades any panic to a logged error so the
// loop survives to the next tick.
func (s *Scheduler) safeTick(ctx context.Context, now time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("tick panicked", zap.Any("panic", rec))
		}
	}()
	s.tick(ctx, now)
}

// tick performs one cycle: select candidates, claim today's slot, notify.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	candidates, err := s.repo.ReminderCandidates(ctx, now)
	if err != nil {
		s.log.Error("reminder candidates query failed", zap.Error(err))
		return
	}
	if len(candidates) == 0 {
		s.log.Debug("no users need reminders")
		return
	}
	s.log.Info("users needing reminders", zap.Int("count", len(candidates)))

	for _, cand := range candidates {
		// Re-checked defensively; the candidate query already filters.
		if cand.DueCount == 0 && cand.NewCount == 0 {
			continue
		}

		claimed, err := s.repo.ClaimReminder(ctx, cand.UserID, now)
		if err != nil {
			s.log.Error("claim failed", zap.Error(err), zap.Int64("userID", cand.UserID))
			continue
		}
		if !claimed {
			// Already notified today (or another tick won the claim).
			continue
		}

		if err := s.notify(ctx, cand, now); err != nil {
			s.log.Error("reminder failed", zap.Error(err), zap.Int64("userID", cand.UserID))
			continue
		}
		s.log.Info("reminder sent",
			zap.Int64("userID", cand.UserID),
			zap.Int("due", cand.DueCount),
			zap.Int("new", cand.NewCount),
		)
	}
}

// notify sends one message per concrete card (up to cardLimit), or a single
// aggregate message when no concrete cards resolve.
func (s *Scheduler) notify(ctx context.Context, cand domain.ReminderCandidate, now time.Time) error {
	cards, err := s.repo.DueCards(ctx, cand.UserID, now, s.cardLimit)
	if err != nil {
		s.log.Warn("due cards lookup failed, falling back to summary",
			zap.Error(err), zap.Int64("userID", cand.UserID))
		cards = nil
	}

	if len(cards) == 0 {
		return s.notifier.Send(cand.UserID, summaryText(cand))
	}

	var sendErr error
	for i, c := range cards {
		if i > 0 {
			// Space out sends to respect transport rate limits.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.sendDelay):
			}
		}
		if err := s.notifier.Send(cand.UserID, cardText(c)); err != nil {
			s.log.Error("send failed", zap.Error(err),
				zap.Int64("userID", cand.UserID), zap.Int64("cardID", c.ID))
			sendErr = err
		}
	}
	return sendErr
}

// cardText is the reminder for one concrete card.
func cardText(c domain.Card) string {
	if c.New() {
		return fmt.Sprintf("✨ New card to learn:\n\n%s", c.Front)
	}
	return fmt.Sprintf("📚 Time to review:\n\n%s", c.Front)
}

// summaryText is the aggregate fallback reminder.
func summaryText(cand domain.ReminderCandidate) string {
	var counts string
	switch {
	case cand.DueCount > 0 && cand.NewCount > 0:
		counts = fmt.Sprintf("📚 %d to review • ✨ %d new", cand.DueCount, cand.NewCount)
	case cand.DueCount > 0:
		counts = fmt.Sprintf("📚 %d cards to review", cand.DueCount)
	default:
		counts = fmt.Sprintf("✨ %d new cards", cand.NewCount)
	}
	return "🧠 Study time!\n\n" + counts +
		"\n\n💡 Just 5-10 minutes a day keeps the material in long-term memory."
}
