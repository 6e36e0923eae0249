package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/bulkwear-backend/api"
	"github.com/angelmondragon/bulkwear-backend/api/routes"
	"github.com/angelmondragon/bulkwear-backend/internal/payments"
	"github.com/angelmondragon/bulkwear-backend/pkg/config"
	"github.com/angelmondragon/bulkwear-backend/pkg/db"
	"github.com/angelmondragon/bulkwear-backend/pkg/logger"
	"github.com/angelmondragon/bulkwear-backend/pkg/metrics"
	"github.com/angelmondragon/bulkwear-backend/pkg/migrate"
	"github.com/angelmondragon/bulkwear-backend/pkg/redis"
	"github.com/angelmondragon/bulkwear-backend/pkg/square"
	"github.com/angelmondragon/bulkwear-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

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

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(reg)

	gateway, err := buildGateway(ctx, cfg, logg)
	if err != nil {
		return err
	}

	guard, err := redis.NewDeliveryGuard(redisClient, string(gateway.Provider()), cfg.Payments.WebhookDedupe)
	if err != nil {
		return err
	}

	services, err := api.NewServices(cfg, logg, api.Dependencies{
		DB:      dbClient,
		Gateway: gateway,
		Guard:   guard,
		Metrics: paymentMetrics,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
		"provider": gateway.Provider(),
	})

	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, services, routes.Observability{
		Gatherer: reg,
		HTTP:     metrics.NewHTTPMetrics(reg),
	})
	server := api.NewServer(addr, handler)

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildGateway constructs the clients for every provider with credentials and
// returns the one selected by configuration.
func buildGateway(ctx context.Context, cfg *config.Config, logg *logger.Logger) (payments.Gateway, error) {
	var stripeGateway, squareGateway payments.Gateway

	if cfg.Stripe.APIKey != "" {
		client, err := stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return nil, err
		}
		gw, err := payments.NewStripeGateway(client, cfg.Payments.SuccessURL, cfg.Payments.CancelURL)
		if err != nil {
			return nil, err
		}
		stripeGateway = gw
	}

	if cfg.Square.AccessToken != "" {
		client, err := square.NewClient(ctx, cfg.Square, logg)
		if err != nil {
			return nil, err
		}
		gw, err := payments.NewSquareGateway(client)
		if err != nil {
			return nil, err
		}
		squareGateway = gw
	}

	return payments.Select(cfg.Payments, stripeGateway, squareGateway)
}
