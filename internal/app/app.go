package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mkdmitry/flashka/internal/api"
	"github.com/mkdmitry/flashka/internal/config"
	"github.com/mkdmitry/flashka/internal/scheduler"
	"github.com/mkdmitry/flashka/internal/store"
	"github.com/mkdmitry/flashka/internal/telegram"
)

// App runs the three services sharing one SQLite database: the mini-app
// HTTP API, the Telegram bot (long polling) and the reminder scheduler.
type App struct {
	cfg config.Config
	log *zap.Logger
	bot *tgbotapi.BotAPI
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	return &App{cfg: cfg, log: log, bot: bot}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting flashka",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("appURL", a.cfg.AppURL),
		zap.Duration("checkInterval", a.cfg.CheckInterval),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	defer func() { _ = repo.Close() }()
	a.log.Info("sqlite ready", zap.String("path", a.cfg.DBPath))

	router := telegram.NewRouter(a.bot, a.log, repo, a.cfg.AppURL)

	sched := scheduler.New(repo, a.log, router, scheduler.Options{
		Interval:  a.cfg.CheckInterval,
		SendDelay: a.cfg.SendDelay,
		CardLimit: a.cfg.ReminderCardLimit,
	})

	apiSrv := api.New(repo, a.log, api.Options{
		BotToken:  a.cfg.BotToken,
		DevMode:   a.cfg.DevMode,
		DevUserID: a.cfg.DevUserID,
	})
	httpSrv := &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      apiSrv.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Long polling requires no webhook to be registered.
	if _, err := a.bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		a.log.Warn("delete webhook failed", zap.Error(err))
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shCtx); err != nil {
			a.log.Warn("http server shutdown error", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		sched.Run(ctx)
		return nil
	})

	g.Go(func() error {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updCh := a.bot.GetUpdatesChan(u)

		for {
			select {
			case <-ctx.Done():
				a.log.Info("shutdown signal received")
				a.bot.StopReceivingUpdates()
				return nil
			case upd := <-updCh:
				router.HandleUpdate(ctx, upd)
			}
		}
	})

	return g.Wait()
}
