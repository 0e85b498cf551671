package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	_, _ = r.bot.Send(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

// --- Core commands ---

func (r *Router) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	username, firstName := "", ""
	if msg.From != nil {
		username = msg.From.UserName
		firstName = msg.From.FirstName
	}
	if err := r.repo.EnsureUser(ctx, chatID, username, firstName); err != nil {
		r.log.Error("ensure user failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Profile initialization error. Please try again later.")
		return
	}

	out := tgbotapi.NewMessage(chatID, startText)
	if kb, ok := openAppKeyboard(r.appURL); ok {
		out.ReplyMarkup = kb
	} else {
		// Non-https APP_URL cannot be an inline URL button.
		out.ReplyMarkup = getLinkKeyboard()
	}
	if _, err := r.bot.Send(out); err != nil {
		r.log.Error("start reply failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}

func (r *Router) handleGetLink(ctx context.Context, chatID int64, cbID string) {
	_ = r.answerCallback(cbID, "")
	r.sendText(chatID, "🚀 Mini app:\n"+r.appURL+"\n\n💡 Open the link above in your browser.")
}

func (r *Router) handleStats(ctx context.Context, chatID int64) {
	st, err := r.repo.UserStats(ctx, chatID, time.Now().UTC())
	if err != nil {
		r.log.Error("user stats failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Error reading your stats.")
		return
	}
	settings, err := r.repo.Settings(ctx, chatID)
	if err != nil {
		r.log.Error("settings read failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Error reading your settings.")
		return
	}

	enabledText := "✅ Enabled"
	if !settings.NotificationsEnabled {
		enabledText = "⏸ Paused"
	}
	body := fmt.Sprintf("%s\n\n"+statsFmt,
		statsTitle, st.TotalCards, st.DueToday, st.NewCards, enabledText,
	)

	out := tgbotapi.NewMessage(chatID, body)
	out.ReplyMarkup = mainMenuKeyboard(settings.NotificationsEnabled)
	_, _ = r.bot.Send(out)
}

// --- Pause / Resume ---

func (r *Router) handlePause(ctx context.Context, chatID int64) {
	if err := r.repo.SetNotificationsEnabled(ctx, chatID, false); err != nil {
		r.log.Error("pause failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Failed to pause reminders.")
		return
	}
	out := tgbotapi.NewMessage(chatID, "Reminders paused ⏸")
	out.ReplyMarkup = mainMenuKeyboard(false)
	_, _ = r.bot.Send(out)
}

func (r *Router) handleResume(ctx context.Context, chatID int64) {
	if err := r.repo.SetNotificationsEnabled(ctx, chatID, true); err != nil {
		r.log.Error("resume failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Failed to resume reminders.")
		return
	}
	out := tgbotapi.NewMessage(chatID, "Reminders resumed ✅")
	out.ReplyMarkup = mainMenuKeyboard(true)
	_, _ = r.bot.Send(out)
}
