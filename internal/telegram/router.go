package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/mkdmitry/flashka/internal/store"
)

// Router wires Telegram updates to handlers.
type Router struct {
	bot    *tgbotapi.BotAPI
	log    *zap.Logger
	repo   store.Repo
	appURL string
}

// NewRouter creates a new Telegram router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo store.Repo, appURL string) *Router {
	return &Router{
		bot:    bot,
		log:    log,
		repo:   repo,
		appURL: appURL,
	}
}

// HandleUpdate routes a single update to appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			r.handleStart(ctx, msg)
		case strings.HasPrefix(text, "/stats"):
			r.handleStats(ctx, chatID)
		case strings.HasPrefix(text, "/pause"):
			r.handlePause(ctx, chatID)
		case strings.HasPrefix(text, "/resume"):
			r.handleResume(ctx, chatID)
		case strings.HasPrefix(text, "/health"):
			r.sendText(chatID, "ok: polling active")
		default:
			// Cards are created in the mini app; free-form text is ignored.
		}
		return
	}

	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		chatID := cb.Message.Chat.ID

		switch cb.Data {
		case "get_link":
			r.handleGetLink(ctx, chatID, cb.ID)
		default:
			// Unknown callback — ignore silently
		}
		return
	}
}

// Send delivers a reminder with the open-app button attached. This makes
// Router satisfy scheduler.Notifier.
func (r *Router) Send(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	if kb, ok := openAppKeyboard(r.appURL); ok {
		msg.ReplyMarkup = kb
	}
	_, err := r.bot.Send(msg)
	return err
}
