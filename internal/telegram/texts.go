package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UI texts in English
const (
	startText = "👋 I am a flashcard study bot.\n\n" +
		"Create cards in the mini app and rate your recall from 1 to 5. " +
		"I will schedule reviews with spaced repetition and remind you when cards are due."
	statsTitle = "🧾 Your deck:"
	statsFmt   = "• Cards: %d\n• Due today: %d\n• New: %d\n• Reminders: %s\n"
)

// mainMenuKeyboard builds a reply keyboard with a single toggle button:
// if enabled is true -> "/pause", else -> "/resume".
func mainMenuKeyboard(enabled bool) tgbotapi.ReplyKeyboardMarkup {
	toggle := "/pause"
	if !enabled {
		toggle = "/resume"
	}
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/stats"),
			tgbotapi.NewKeyboardButton(toggle),
		),
	)
}

// openAppKeyboard returns an inline keyboard with a URL button opening the
// mini app. Telegram rejects inline URL buttons with plain-http links, so for
// local dev setups the caller falls back to the get_link flow.
func openAppKeyboard(appURL string) (tgbotapi.InlineKeyboardMarkup, bool) {
	if !strings.HasPrefix(appURL, "https://") {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🚀 Open the app", appURL),
		),
	), true
}

// getLinkKeyboard is the fallback for non-https app URLs.
func getLinkKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚀 Get the link", "get_link"),
		),
	)
}
