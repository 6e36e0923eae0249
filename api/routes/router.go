package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/bulkwear-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/bulkwear-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/bulkwear-backend/api/controllers/orders"
	webhookcontrollers "github.com/angelmondragon/bulkwear-backend/api/controllers/webhooks"
	"github.com/angelmondragon/bulkwear-backend/api/middleware"
	"github.com/angelmondragon/bulkwear-backend/internal/cart"
	"github.com/angelmondragon/bulkwear-backend/internal/catalog"
	"github.com/angelmondragon/bulkwear-backend/internal/checkout"
	"github.com/angelmondragon/bulkwear-backend/internal/orders"
	"github.com/angelmondragon/bulkwear-backend/internal/payments"
	"github.com/angelmondragon/bulkwear-backend/internal/pricing"
	"github.com/angelmondragon/bulkwear-backend/internal/reconciliation"
	"github.com/angelmondragon/bulkwear-backend/pkg/config"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	"github.com/angelmondragon/bulkwear-backend/pkg/logger"
	"github.com/angelmondragon/bulkwear-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/bulkwear-backend/pkg/redis"
)

// RedisStore is the Redis surface used by the HTTP layer.
type RedisStore interface {
	pkgredis.IdempotencyStore
	pkgredis.Pinger
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// StockLedger is the ledger surface exposed over HTTP.
type StockLedger interface {
	controllers.ProductStockReader
	controllers.StockAdmin
}

// Services groups the domain services mounted by the router.
type Services struct {
	Catalog        catalog.Service
	Stock          StockLedger
	Pricing        ordercontrollers.Pricer
	Shipping       *pricing.Estimator
	Cart           cart.Service
	Orders         orders.Service
	Checkout       checkout.Service
	Reconciliation reconciliation.Service
	Payments       payments.Service
}

// Observability carries the metrics registry and HTTP collectors.
type Observability struct {
	Gatherer prometheus.Gatherer
	HTTP     *metrics.HTTPMetrics
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisStore RedisStore,
	svc Services,
	obs Observability,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, obs.HTTP),
		middleware.CORS(cfg.App.AllowedOrigins),
	)

	var (
		limiter     rateLimiter
		idempotency pkgredis.IdempotencyStore
		redisPinger controllers.Pinger
	)
	if redisStore != nil {
		limiter = redisStore
		idempotency = redisStore
		redisPinger = redisStore
	}

	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", cfg.RateLimit.CheckoutWindow, cfg.RateLimit.CheckoutIPLimit)
	verifyPolicy := middleware.NewRateLimitPolicy("verify", cfg.RateLimit.VerifyWindow, cfg.RateLimit.VerifyIPLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})
	if obs.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(obs.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health/live", controllers.HealthLive(cfg))
		r.Get("/health/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))

		// Gateway deliveries carry no caller identity.
		r.Post("/checkout/webhook", webhookcontrollers.PaymentWebhook(svc.Reconciliation, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity(cfg.JWT, cfg.Cart, logg))

			r.Get("/products", controllers.ProductList(svc.Catalog, logg))
			r.Get("/products/{productId}", controllers.ProductDetail(svc.Catalog, logg))
			r.Get("/products/{productId}/stock", controllers.ProductStock(svc.Stock, logg))
			r.Get("/categories", controllers.CategoryList(svc.Catalog, logg))
			r.Get("/stock/live", controllers.LiveStock(svc.Stock, logg))
			r.Post("/shipping/estimate", controllers.ShippingEstimate(svc.Shipping, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(svc.Cart, logg))
				r.Post("/add", cartcontrollers.CartAdd(svc.Cart, logg))
				r.Put("/update", cartcontrollers.CartUpdate(svc.Cart, logg))
				r.Delete("/remove/{productId}", cartcontrollers.CartRemove(svc.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/calculate", ordercontrollers.Calculate(svc.Pricing, logg))
				r.Get("/", ordercontrollers.List(svc.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(svc.Orders, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.With(
					middleware.RateLimit(checkoutPolicy, limiter, logg),
					middleware.Idempotency(idempotency, middleware.CheckoutIdempotencyTTL, logg),
				).Post("/create-session", controllers.CheckoutCreateSession(svc.Checkout, logg))
				r.With(middleware.RateLimit(verifyPolicy, limiter, logg)).Post("/verify", controllers.CheckoutVerify(svc.Reconciliation, logg))
				r.Get("/status/{sessionId}", controllers.CheckoutStatus(svc.Reconciliation, logg))
			})

			r.Get("/payments/transactions", controllers.TransactionList(svc.Payments, logg))
			r.Get("/payments/transactions/{transactionId}", controllers.TransactionDetail(svc.Payments, logg))

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
				r.Put("/orders/{orderId}/status", ordercontrollers.AdminUpdateStatus(svc.Orders, logg))
				r.Put("/products/{productId}/stock", controllers.AdminSetStock(svc.Stock, logg))
				r.Get("/stock/low", controllers.AdminLowStock(svc.Stock, logg))
				r.Get("/stock/shortfalls", controllers.AdminShortfalls(svc.Stock, logg))
			})
		})
	})

	return r
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}
