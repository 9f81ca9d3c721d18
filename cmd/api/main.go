package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freshfold/freshfold-backend/api/routes"
	"github.com/freshfold/freshfold-backend/internal/geo"
	"github.com/freshfold/freshfold-backend/internal/notify"
	"github.com/freshfold/freshfold-backend/internal/offers"
	"github.com/freshfold/freshfold-backend/internal/realtime"
	"github.com/freshfold/freshfold-backend/internal/requests"
	"github.com/freshfold/freshfold-backend/internal/settlement"
	"github.com/freshfold/freshfold-backend/internal/users"
	"github.com/freshfold/freshfold-backend/pkg/config"
	"github.com/freshfold/freshfold-backend/pkg/db"
	"github.com/freshfold/freshfold-backend/pkg/events"
	"github.com/freshfold/freshfold-backend/pkg/logger"
	"github.com/freshfold/freshfold-backend/pkg/metrics"
	"github.com/freshfold/freshfold-backend/pkg/migrate"
	"github.com/freshfold/freshfold-backend/pkg/push"
	"github.com/freshfold/freshfold-backend/pkg/redis"
	"github.com/freshfold/freshfold-backend/pkg/stripe"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := openDatabase(cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var stripeClient *stripe.Client
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = stripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to initialize stripe", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "stripe api key missing, payment capture disabled")
	}

	var pushClient *push.Client
	if cfg.FCM.ProjectID != "" {
		pushClient, err = push.NewClient(context.Background(), cfg.FCM, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to initialize fcm", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "fcm project missing, push delivery disabled")
	}

	dispatchMetrics := metrics.NewDispatchMetrics(prometheus.DefaultRegisterer)
	bus := events.NewBus(logg)
	registry := realtime.NewRegistry()

	userRepo := users.NewRepository(dbClient.DB())
	offerRepo := offers.NewRepository(dbClient.DB())
	requestRepo := requests.NewRepository(dbClient.DB())
	settlementRepo := settlement.NewRepository(dbClient.DB())

	geoService, err := geo.NewService(geo.NewRepository(dbClient.DB()), redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create geo service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(userRepo, redisClient, cfg.Dispatch.LiveLocationTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	settlementService, err := settlement.NewService(settlementRepo, settlement.NewUserWallets(userRepo), settlement.Rates{
		DriverCutPercent:         cfg.Dispatch.DriverCutPercent,
		LaundromatCutPercent:     cfg.Dispatch.LaundromatCutPercent,
		LaundromatSelfCutPercent: cfg.Dispatch.LaundromatSelfCutPercent,
	}, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	var payments settlement.PaymentClient
	if stripeClient != nil {
		payments = settlement.NewPaymentClient(stripeClient)
	}

	requestService, err := requests.NewService(requests.Deps{
		DB:         dbClient,
		Repo:       requestRepo,
		Offers:     offerRepo,
		Users:      userRepo,
		Geo:        geoService,
		Settlement: settlementService,
		Payments:   payments,
		Bus:        bus,
		Metrics:    dispatchMetrics,
		Dispatch:   cfg.Dispatch,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create requests service", err)
		os.Exit(1)
	}

	var pushSender notify.PushSender
	if pushClient != nil {
		pushSender = pushClient
	}
	consumer, err := notify.NewConsumer(registry, userRepo, pushSender, dispatchMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notify consumer", err)
		os.Exit(1)
	}
	bus.Subscribe(consumer.Handle)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, requestService, userService, promhttp.Handler()),
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "error shutting down http server", err)
	}
	if err := bus.Close(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "error draining event bus", err)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func openDatabase(cfg *config.Config, logg *logger.Logger) (*db.Client, error) {
	if cfg.FeatureFlags.UseSQLite {
		logg.Warn(context.Background(), "using embedded sqlite database")
		dsn := ""
		if cfg.DB.Driver == "sqlite" {
			dsn = cfg.DB.DSN
		}
		return db.NewSQLite(dsn)
	}
	return db.New(context.Background(), cfg.DB, logg)
}
