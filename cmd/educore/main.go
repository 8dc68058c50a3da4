package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/vasiliy-maslov/educore/internal/auth"
	"github.com/vasiliy-maslov/educore/internal/cart"
	"github.com/vasiliy-maslov/educore/internal/checkout"
	"github.com/vasiliy-maslov/educore/internal/config"
	"github.com/vasiliy-maslov/educore/internal/course"
	"github.com/vasiliy-maslov/educore/internal/dashboard"
	"github.com/vasiliy-maslov/educore/internal/db"
	"github.com/vasiliy-maslov/educore/internal/enrollment"
	handler "github.com/vasiliy-maslov/educore/internal/handler/http"
	"github.com/vasiliy-maslov/educore/internal/events"
	"github.com/vasiliy-maslov/educore/internal/notification"
	"github.com/vasiliy-maslov/educore/internal/order"
	"github.com/vasiliy-maslov/educore/internal/payment"
	"github.com/vasiliy-maslov/educore/internal/paymentmethod"
	"github.com/vasiliy-maslov/educore/internal/reconcile"
	"github.com/vasiliy-maslov/educore/internal/store"
	"github.com/vasiliy-maslov/educore/internal/user"
)

func setupLogger(cfg config.AppConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", cfg.Name).Logger()
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg.App)
	log.Info().Str("env", cfg.App.Env).Msg("EduCore starting...")

	if cfg.Postgres.ApplyMigrations {
		if err := db.ApplyMigrations(cfg.Postgres); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	sqlDB := sqlx.NewDb(pg.SQLDB(), "pgx")
	defer sqlDB.Close()

	var idem checkout.IdempotencyStore = checkout.NopIdempotencyStore{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis is unreachable, idempotency falls back to the database")
		}
		idem = checkout.NewRedisIdempotencyStore(rdb, cfg.Redis.IdempotencyPendingTTL, cfg.Redis.IdempotencyTTL)
	}

	publisher := events.NewPublisher(cfg.Kafka)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close event publisher")
		}
	}()

	gateway, err := payment.NewGateway(cfg.Payment)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure payment gateway")
	}
	mailer, err := notification.NewSender(cfg.Mail)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure mail sender")
	}

	reads := store.New(pg.Pool)
	uow := store.NewUnitOfWork(pg.Pool)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	courseSvc := course.NewService(reads.Courses)

	router := handler.NewRouter(handler.Services{
		Tokens:      tokens,
		Auth:        auth.NewService(user.NewService(reads.Users), tokens, reads.Activities),
		Courses:     courseSvc,
		Cart:        cart.NewService(reads.Cart, courseSvc),
		Orders:      order.NewService(reads.Orders),
		Enrollments: enrollment.NewService(reads.Enrollments, courseSvc),
		Checkout: checkout.NewService(uow, reads, gateway, mailer, publisher, idem, checkout.Options{
			Currency:      cfg.Payment.Currency,
			TaxRate:       cfg.Payment.Tax(),
			ChargeTimeout: cfg.Payment.ChargeTimeout,
		}),
		PaymentMethods:  paymentmethod.NewService(reads.PaymentMethods, paymentmethod.NewTransactor(pg.Pool)),
		Dashboard:       dashboard.NewService(dashboard.NewRepository(sqlDB), reads.Activities),
		CheckoutLimiter: handler.NewRateLimiter(cfg.RateLimit.CheckoutRPS, cfg.RateLimit.CheckoutBurst, 10*time.Minute),
	})

	sweeper := reconcile.NewSweeper(uow, reads.Orders, cfg.Reconcile.StaleAfter)
	if err := sweeper.Start(cfg.Reconcile.Schedule); err != nil {
		log.Fatal().Err(err).Msg("Failed to start reconcile sweeper")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		sweeper.Stop(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return
	}
	log.Info().Msg("EduCore stopped gracefully")
}
