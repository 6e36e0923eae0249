package api

import (
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/api/routes"
	"github.com/angelmondragon/bulkwear-backend/internal/cart"
	"github.com/angelmondragon/bulkwear-backend/internal/catalog"
	"github.com/angelmondragon/bulkwear-backend/internal/checkout"
	"github.com/angelmondragon/bulkwear-backend/internal/orders"
	"github.com/angelmondragon/bulkwear-backend/internal/payments"
	"github.com/angelmondragon/bulkwear-backend/internal/pricing"
	"github.com/angelmondragon/bulkwear-backend/internal/reconciliation"
	"github.com/angelmondragon/bulkwear-backend/internal/stock"
	"github.com/angelmondragon/bulkwear-backend/pkg/config"
	"github.com/angelmondragon/bulkwear-backend/pkg/db"
	"github.com/angelmondragon/bulkwear-backend/pkg/logger"
	"github.com/angelmondragon/bulkwear-backend/pkg/metrics"
)

// Dependencies are the infrastructure clients the domain services run on.
type Dependencies struct {
	DB      *db.Client
	Gateway payments.Gateway
	Guard   reconciliation.DeliveryGuard
	Metrics *metrics.PaymentMetrics
}

// NewServices wires every domain service over one database connection.
func NewServices(cfg *config.Config, logg *logger.Logger, deps Dependencies) (routes.Services, error) {
	if deps.DB == nil {
		return routes.Services{}, fmt.Errorf("database client required")
	}
	conn := deps.DB.DB()

	catalogRepo := catalog.NewRepository(conn)
	ledger := stock.NewLedger(conn)
	orderRepo := orders.NewRepository(conn)
	transactions := payments.NewTransactionRepository(conn)

	rules, err := pricing.RulesFromConfig(cfg.Pricing)
	if err != nil {
		return routes.Services{}, err
	}
	engine, err := pricing.NewEngine(rules, catalogRepo)
	if err != nil {
		return routes.Services{}, err
	}

	catalogSvc, err := catalog.NewService(catalogRepo)
	if err != nil {
		return routes.Services{}, err
	}

	cartSvc, err := cart.NewService(cart.ServiceParams{
		Repo: cart.NewRepository(conn),
		Tx:   deps.DB,
		Stock: func(tx *gorm.DB) cart.StockReader {
			if tx == nil {
				return ledger
			}
			return ledger.WithTx(tx)
		},
		Products: func(tx *gorm.DB) cart.ProductReader {
			if tx == nil {
				return catalogRepo
			}
			return catalogRepo.WithTx(tx)
		},
		Pricing: engine,
		Logger:  logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	ordersSvc, err := orders.NewService(orderRepo, logg)
	if err != nil {
		return routes.Services{}, err
	}

	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Tx:           deps.DB,
		Cart:         cartSvc,
		Pricing:      engine,
		Stock:        ledger,
		Orders:       orderRepo,
		Transactions: transactions,
		Gateway:      deps.Gateway,
		Metrics:      deps.Metrics,
		Logger:       logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	reconciliationSvc, err := reconciliation.NewService(reconciliation.ServiceParams{
		Tx:           deps.DB,
		Orders:       orderRepo,
		Ledger:       ledger,
		Transactions: transactions,
		Carts: func(tx *gorm.DB) reconciliation.CartClearer {
			return cart.NewRepository(tx)
		},
		Gateway:       deps.Gateway,
		Guard:         deps.Guard,
		SigningSecret: cfg.Payments.SigningSecret,
		WebhookSecret: cfg.Payments.WebhookSecret,
		Metrics:       deps.Metrics,
		Logger:        logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	paymentsSvc, err := payments.NewService(transactions)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Catalog:        catalogSvc,
		Stock:          ledger,
		Pricing:        engine,
		Shipping:       pricing.NewEstimator(pricing.DefaultZones, cfg.Pricing.PerKgSurchargeMinor, cfg.Pricing.FreeShippingThresholdMinor),
		Cart:           cartSvc,
		Orders:         ordersSvc,
		Checkout:       checkoutSvc,
		Reconciliation: reconciliationSvc,
		Payments:       paymentsSvc,
	}, nil
}

// NewServer builds the HTTP server with conservative timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
