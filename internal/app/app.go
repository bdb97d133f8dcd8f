package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/samsonite000/Discord-bot/internal/config"
	"github.com/samsonite000/Discord-bot/internal/scheduler"
	"github.com/samsonite000/Discord-bot/internal/store"
	"github.com/samsonite000/Discord-bot/internal/telegram"
	"github.com/samsonite000/Discord-bot/internal/tracker"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	store   *store.Store
	router  *telegram.Router
	sched   *scheduler.Scheduler
}

// New authenticates against Telegram and sets up the keep-alive HTTP shim.
// A rejected token is fatal here: without a session there is nothing to run.
func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram login failed, check BOT_TOKEN: %w", err)
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting dynasty tracker",
		zap.String("bot", a.bot.Self.UserName),
		zap.Strings("dynasties", a.cfg.Dynasties),
		zap.Strings("users", a.cfg.TrackedUsers),
		zap.String("http", a.cfg.HTTPAddr),
	)

	loc, err := time.LoadLocation(a.cfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	st, err := store.New(a.cfg.Dynasties, a.cfg.TrackedUsers, a.cfg.DataPath, a.log)
	if err != nil {
		a.log.Error("open readiness store failed", zap.Error(err))
		return err
	}
	a.store = st

	gateway := telegram.NewGateway(a.bot, a.cfg.ChatID, a.log)
	trk := tracker.New(tracker.Config{
		Dynasties: a.cfg.Dynasties,
		Users:     a.cfg.TrackedUsers,
		ChatID:    a.cfg.ChatID,
		Weekday:   time.Weekday(a.cfg.ReminderWeekday),
		Hour:      a.cfg.ReminderHour,
	}, st, gateway, gateway, a.log)
	a.router = telegram.NewRouter(a.bot, a.log, trk, gateway, a.cfg.CommandPrefix)
	a.sched = scheduler.New(trk, loc, a.log)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedCtx, cancelSched := context.WithCancel(ctx)
	defer cancelSched()
	go a.sched.Run(schedCtx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()
			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}

			cancelSched()
			if err := a.store.Close(); err != nil {
				a.log.Warn("store close error", zap.Error(err))
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
