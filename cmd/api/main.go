package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/MarvinPescos/balancehub/internal/app/migrate"
	"github.com/MarvinPescos/balancehub/internal/email"
	httpx "github.com/MarvinPescos/balancehub/internal/http"
	"github.com/MarvinPescos/balancehub/internal/repository/postgres"
	"github.com/MarvinPescos/balancehub/internal/service/auth"
	"github.com/MarvinPescos/balancehub/internal/service/building"
	"github.com/MarvinPescos/balancehub/internal/service/catfacts"
	"github.com/MarvinPescos/balancehub/internal/service/joke"
	"github.com/MarvinPescos/balancehub/internal/service/oauth"
	"github.com/MarvinPescos/balancehub/internal/service/trivia"
	"github.com/MarvinPescos/balancehub/internal/service/twofactor"
	"github.com/MarvinPescos/balancehub/internal/service/verification"
	"github.com/MarvinPescos/balancehub/pkg/config"
	"github.com/MarvinPescos/balancehub/pkg/crypto"
	"github.com/MarvinPescos/balancehub/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		logger.New("api", slog.LevelInfo).Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var sink io.Writer = os.Stdout
	if path := strings.TrimSpace(cfg.LogFile); path != "" {
		file := logger.FileSink(path)
		defer file.Close()
		sink = io.MultiWriter(os.Stdout, file)
	}
	log := logger.NewWithWriter("api", logger.ParseLevel(cfg.LogLevel), sink)
	for _, warning := range cfg.Warnings() {
		log.Warn("weak configuration", "environment", cfg.Environment, "detail", warning)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			log.Warn("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)

	box, err := crypto.NewSecretBox(cfg.SecretKey)
	if err != nil {
		log.Error("failed to prepare secret box", "error", err)
		os.Exit(1)
	}

	mailer, err := email.New(cfg.Mail, log.With("component", "mailer"))
	if err != nil {
		log.Error("failed to configure mailer", "error", err)
		os.Exit(1)
	}
	templates, err := email.LoadTemplates()
	if err != nil {
		log.Error("failed to load email templates", "error", err)
		os.Exit(1)
	}
	notifier := email.NewNotifier(mailer, templates, cfg)

	var (
		limiter httpx.RateLimiter
		states  oauth.StateStore = oauth.NewMemoryStateStore()
	)
	if url := strings.TrimSpace(cfg.RedisURL); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			log.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, using in-memory fallbacks", "error", err)
		} else {
			limiter = httpx.NewRedisRateLimiter(rdb, log)
			states = oauth.NewRedisStateStore(rdb)
		}
	}
	if limiter == nil {
		limiter = httpx.NewMemoryRateLimiter()
	}

	verifications := verification.New(repo, log, cfg.VerificationExpiry())
	twoFactorSvc := twofactor.New(repo, box, cfg.AppName, log)
	authSvc := auth.New(repo, verifications, twoFactorSvc, notifier, log, cfg)
	oauthSvc := oauth.New(states, repo, repo, box, authSvc, log,
		oauth.NewGoogle(cfg.Google),
		oauth.NewFacebook(cfg.Facebook),
	)
	catFactsSvc := catfacts.New(repo, repo, notifier, cfg.Activities.CatFactAPIURL, cfg.CatFactsKey(), log)

	go verification.NewSweeper(verifications, cfg.VerificationCleanupInterval, log).Run(ctx)
	go catfacts.NewScheduler(catFactsSvc, cfg.Activities.CatFactsSchedule, log).Run(ctx)

	router := httpx.NewRouter(log, cfg, httpx.Services{
		Auth:      authSvc,
		TwoFactor: twoFactorSvc,
		OAuth:     oauthSvc,
		Trivia:    trivia.New(cfg.Activities.OpenTDBURL, log),
		Joke:      joke.New(cfg.Activities.JokeAPIURL, log),
		CatFacts:  catFactsSvc,
		Buildings: building.New(repo, repo, log),
	}, limiter, pool.Ping)
	defer router.Close()

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
			http.MethodOptions, http.MethodHead, http.MethodPatch,
		},
		AllowedHeaders: []string{"*"},
	}).Handler(router)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "env", cfg.Environment)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
