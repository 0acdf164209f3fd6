// Command server runs the LicenseChain Telegram bot: the update runner, the
// scheduler and the HTTP server (webhook, health, stats, metrics).
//
// @title       LicenseChain Telegram Bot
// @version     1.0.0
// @description Webhook receiver and operational endpoints of the LicenseChain Telegram bot.
// @BasePath    /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/bot"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/commands"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/config"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
	httpapi "github.com/LicenseChain/LicenseChain-TG-Bot/internal/http"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/http/handlers"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/licenseapi"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/locale"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/observability"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/permissions"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/repo"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/scheduler"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/services"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/sysutil"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/telegram"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "1.0.0"

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := sysutil.NewLogger(os.Stderr, "licensechain-telegram-bot", false)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := sysutil.NewLogger(os.Stdout, cfg.OTEL.ServiceName, cfg.LogPretty)
	sysutil.SetLogLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("bot stopped with error")
	}
	log.Info().Msg("bot stopped")
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	startedAt := time.Now()

	shutdownTracing, err := observability.Setup(ctx, cfg.OTEL, observability.Build{Version: Version, Mode: cfg.Bot.Mode})
	if err != nil {
		return err
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	store := repo.NewStore(db, cfg.Bot.DefaultLocale)
	defer store.Close()

	tr, err := locale.New(cfg.Bot.DefaultLocale, store, log)
	if err != nil {
		return err
	}
	api, err := licenseapi.New(licenseapi.Options{
		BaseURL:    cfg.LicenseAPI.BaseURL,
		APIKey:     cfg.LicenseAPI.APIKey,
		AppVersion: cfg.LicenseAPI.AppVersion,
		Timeout:    cfg.LicenseAPI.Timeout,
	})
	if err != nil {
		return err
	}
	transport, err := telegram.New(cfg.Bot.Token, log)
	if err != nil {
		return err
	}
	me, err := transport.GetMe(ctx)
	if err != nil {
		return err
	}
	bot.TransportUp.Set(1)
	log.Info().Str("bot", me.Username).Str("mode", cfg.Bot.Mode).Str("version", Version).Msg("telegram identity confirmed")

	perms := permissions.NewResolver(cfg.Bot.OwnerID, cfg.Bot.AdminIDs)
	gate := bot.NewStatusGate(domain.StatusOnline)
	statusSvc := services.NewStatusService(store, gate)
	if rec, err := statusSvc.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("stored bot status unreadable, starting online")
	} else {
		log.Info().Str("status", string(rec.Status)).Msg("bot status loaded")
	}

	env := &bot.Env{
		Messenger: transport,
		Licenses:  services.NewLicenseService(api, store, cfg.LicenseAPI.AppName, log),
		Tickets:   services.NewTicketService(store),
		Settings:  services.NewSettingsService(store, tr),
		Users:     services.NewUserService(store, perms),
		Status:    statusSvc,
		Store:     store,
		Locale:    tr,
		Perms:     perms,
		Gate:      gate,
		Host:      sysutil.NewHostCollector(),
		Mode:      cfg.Bot.Mode,
		Version:   Version,
		StartedAt: startedAt,
		Log:       log,
	}

	dedupe, pruner, closeDedupe, err := newDeduper(ctx, cfg, store)
	if err != nil {
		return err
	}
	defer closeDedupe()

	opts := []bot.Option{bot.WithThrottle(bot.NewThrottle(cfg.RateRPS, cfg.RateBurst))}
	if dedupe != nil {
		opts = append(opts, bot.WithDeduper(dedupe))
	}
	dispatcher := bot.NewDispatcher(env, opts...)
	commands.Register(dispatcher)

	runner := bot.NewRunner(dispatcher, cfg.Workers, cfg.QueueSize, cfg.UpdateTimeout, log)
	runner.Start(context.WithoutCancel(ctx))

	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		deps := scheduler.Deps{Stats: store, Transport: transport, Pruner: pruner, DedupeTTL: cfg.UpdateDedupeTTL}
		if sched, err = scheduler.New(deps, log); err != nil {
			return err
		}
		sched.Start()
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, handlers.New(handlers.Deps{
		Updates:       runner,
		Status:        gate,
		Stats:         store,
		DB:            store,
		Identity:      transport,
		Host:          sysutil.NewHostCollector(),
		WebhookSecret: cfg.Bot.WebhookSecret,
		Mode:          cfg.Bot.Mode,
		Version:       Version,
		StartedAt:     startedAt,
	}), cfg)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
	srvErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	var runErr error
	pollCtx, stopPoll := context.WithCancel(ctx)
	defer stopPoll()
	pollDone := make(chan struct{})
	switch cfg.Bot.Mode {
	case config.ModeWebhook:
		close(pollDone)
		if runErr = transport.SetWebhook(ctx, cfg.WebhookEndpoint(), cfg.Bot.WebhookSecret); runErr != nil {
			log.Error().Err(runErr).Msg("webhook registration failed")
			break
		}
		log.Info().Str("path", cfg.Bot.WebhookPath).Msg("webhook registered")
	default:
		if err := transport.DeleteWebhook(ctx); err != nil {
			log.Warn().Err(err).Msg("delete webhook failed")
		}
		go func() {
			defer close(pollDone)
			transport.Poll(pollCtx, cfg.Bot.PollTimeout, func(raw tgbotapi.Update) {
				u, ok := telegram.Normalize(raw)
				if !ok {
					return
				}
				if !runner.Submit(u) {
					log.Warn().Int64("update_id", u.ID).Msg("update queue full, update dropped")
				}
			})
		}()
	}

	if runErr == nil {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutdown signal received")
		case runErr = <-srvErr:
			log.Error().Err(runErr).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown")
	}
	stopPoll()
	select {
	case <-pollDone:
	case <-shutdownCtx.Done():
	}
	if err := runner.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("runner did not drain in time")
	}
	// Workers may still be running after a timeout; Close only waits for
	// usage writes already started and refuses new ones.
	dispatcher.Close()
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("scheduler stop")
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown")
	}
	return runErr
}

// newDeduper picks Redis when REDIS_URL is set and the bot database
// otherwise. The returned pruner is nil for Redis, whose keys expire on
// their own. A zero TTL disables de-duplication.
func newDeduper(ctx context.Context, cfg config.Config, store *repo.Store) (bot.Deduper, scheduler.Pruner, func(), error) {
	noop := func() {}
	if cfg.UpdateDedupeTTL <= 0 {
		return nil, nil, noop, nil
	}
	if cfg.Redis.URL == "" {
		return bot.StoreDeduper{Store: store}, store, noop, nil
	}
	client, err := bot.NewRedisClient(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, noop, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, noop, err
	}
	return bot.NewRedisDeduper(client, cfg.UpdateDedupeTTL), nil, func() { _ = client.Close() }, nil
}
