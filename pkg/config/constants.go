package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "BULKWEAR"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	PaymentProviderStripe = "stripe"
	PaymentProviderSquare = "square"
)

const (
	EnvAppEnv    = "BULKWEAR_APP_ENV"
	EnvPort      = "BULKWEAR_APP_PORT"
	EnvDBDSN     = "BULKWEAR_DB_DSN"
	EnvDBHost    = "BULKWEAR_DB_HOST"
	EnvDBUser    = "BULKWEAR_DB_USER"
	EnvDBName    = "BULKWEAR_DB_NAME"
	EnvUseSQLite = "BULKWEAR_USE_SQLITE"
	EnvRedisURL  = "BULKWEAR_REDIS_URL"

	EnvJWTSecret = "BULKWEAR_JWT_SECRET"
	EnvJWTIssuer = "BULKWEAR_JWT_ISSUER"

	EnvTaxRate       = "BULKWEAR_TAX_RATE"
	EnvBulkThreshold = "BULKWEAR_BULK_THRESHOLD"

	EnvPaymentsProvider      = "BULKWEAR_PAYMENTS_PROVIDER"
	EnvPaymentsSigningSecret = "BULKWEAR_PAYMENTS_SIGNING_SECRET"
	EnvPaymentsWebhookSecret = "BULKWEAR_PAYMENTS_WEBHOOK_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
