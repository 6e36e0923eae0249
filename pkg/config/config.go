package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Pricing      PricingConfig
	Cart         CartConfig
	Payments     PaymentsConfig
	Stripe       StripeConfig
	Square       SquareConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if _, err := cfg.Pricing.TaxRateDecimal(); err != nil {
		return nil, err
	}
	if err := cfg.Payments.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string   `envconfig:"BULKWEAR_APP_ENV" required:"true"`
	Port           string   `envconfig:"BULKWEAR_APP_PORT" required:"true"`
	LogLevel       string   `envconfig:"BULKWEAR_LOG_LEVEL" default:"info"`
	LogWarnStack   bool     `envconfig:"BULKWEAR_LOG_WARN_STACK" default:"false"`
	AllowedOrigins []string `envconfig:"BULKWEAR_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BULKWEAR_DB_DSN"`
	Driver string `envconfig:"BULKWEAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BULKWEAR_DB_HOST"`
	LegacyPort     int    `envconfig:"BULKWEAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BULKWEAR_DB_USER"`
	LegacyPassword string `envconfig:"BULKWEAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"BULKWEAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"BULKWEAR_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"BULKWEAR_SQLITE_PATH" default:"bulkwear.db"`

	MaxOpenConns    int           `envconfig:"BULKWEAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BULKWEAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BULKWEAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BULKWEAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BULKWEAR_REDIS_URL"`
	Address      string        `envconfig:"BULKWEAR_REDIS_ADDR"`
	Password     string        `envconfig:"BULKWEAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"BULKWEAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BULKWEAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BULKWEAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BULKWEAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BULKWEAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BULKWEAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the verification settings for bearer tokens minted by the identity provider.
type JWTConfig struct {
	Secret string `envconfig:"BULKWEAR_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"BULKWEAR_JWT_ISSUER" required:"true"`
}

type RateLimitConfig struct {
	CheckoutWindow  time.Duration `envconfig:"BULKWEAR_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutIPLimit int           `envconfig:"BULKWEAR_RATE_LIMIT_CHECKOUT_IP_LIMIT" default:"20"`
	VerifyWindow    time.Duration `envconfig:"BULKWEAR_RATE_LIMIT_VERIFY_WINDOW" default:"1m"`
	VerifyIPLimit   int           `envconfig:"BULKWEAR_RATE_LIMIT_VERIFY_IP_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BULKWEAR_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BULKWEAR_AUTO_MIGRATE" default:"false"`
}

// PricingConfig carries the storefront pricing constants. Amounts are in minor units.
type PricingConfig struct {
	Currency                   string `envconfig:"BULKWEAR_CURRENCY" default:"INR"`
	TaxRate                    string `envconfig:"BULKWEAR_TAX_RATE" default:"0.18"`
	DefaultBulkThreshold       int    `envconfig:"BULKWEAR_BULK_THRESHOLD" default:"15"`
	FreeShippingThresholdMinor int64  `envconfig:"BULKWEAR_FREE_SHIPPING_THRESHOLD" default:"50000"`
	FlatShippingMinor          int64  `envconfig:"BULKWEAR_FLAT_SHIPPING" default:"5000"`
	PerKgSurchargeMinor        int64  `envconfig:"BULKWEAR_SHIPPING_PER_KG" default:"2000"`
}

// TaxRateDecimal parses the configured tax rate.
func (p PricingConfig) TaxRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(p.TaxRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", EnvTaxRate, p.TaxRate, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must be non-negative", EnvTaxRate)
	}
	return rate, nil
}

type CartConfig struct {
	CookieName   string        `envconfig:"BULKWEAR_CART_COOKIE_NAME" default:"session_id"`
	CookieMaxAge time.Duration `envconfig:"BULKWEAR_CART_COOKIE_MAX_AGE" default:"720h"`
	CookieSecure bool          `envconfig:"BULKWEAR_CART_COOKIE_SECURE" default:"false"`
}

// PaymentsConfig selects the checkout gateway and holds the reconciliation secrets.
type PaymentsConfig struct {
	Provider       string        `envconfig:"BULKWEAR_PAYMENTS_PROVIDER" default:"stripe"`
	SigningSecret  string        `envconfig:"BULKWEAR_PAYMENTS_SIGNING_SECRET" required:"true"`
	WebhookSecret  string        `envconfig:"BULKWEAR_PAYMENTS_WEBHOOK_SECRET"`
	WebhookDedupe  time.Duration `envconfig:"BULKWEAR_PAYMENTS_WEBHOOK_DEDUPE_TTL" default:"72h"`
	SuccessURL     string        `envconfig:"BULKWEAR_PAYMENTS_SUCCESS_URL" default:"http://localhost:3000/payment/success?session_id={CHECKOUT_SESSION_ID}"`
	CancelURL      string        `envconfig:"BULKWEAR_PAYMENTS_CANCEL_URL" default:"http://localhost:3000/payment/cancel"`
	ShortfallAlert bool          `envconfig:"BULKWEAR_PAYMENTS_SHORTFALL_ALERT" default:"true"`
}

// NormalizedProvider returns the lower-cased provider name.
func (p PaymentsConfig) NormalizedProvider() string {
	return strings.ToLower(strings.TrimSpace(p.Provider))
}

func (p PaymentsConfig) validate() error {
	switch p.NormalizedProvider() {
	case PaymentProviderStripe, PaymentProviderSquare:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q", EnvPaymentsProvider, PaymentProviderStripe, PaymentProviderSquare)
	}
}

type StripeConfig struct {
	APIKey         string `envconfig:"BULKWEAR_STRIPE_API_KEY"`
	PublishableKey string `envconfig:"BULKWEAR_STRIPE_PUBLISHABLE_KEY"`
	Env            string `envconfig:"BULKWEAR_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SquareConfig struct {
	AccessToken   string `envconfig:"BULKWEAR_SQUARE_ACCESS_TOKEN"`
	ApplicationID string `envconfig:"BULKWEAR_SQUARE_APPLICATION_ID"`
	LocationID    string `envconfig:"BULKWEAR_SQUARE_LOCATION_ID"`
	Env           string `envconfig:"BULKWEAR_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
