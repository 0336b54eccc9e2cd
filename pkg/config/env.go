package config

// EnvPrefix is empty because every field tag carries its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)

const (
	EnvAppEnv         = "CANTEEN_APP_ENV"
	EnvPort           = "CANTEEN_APP_PORT"
	EnvLogLevel       = "CANTEEN_LOG_LEVEL"
	EnvDBDriver       = "CANTEEN_DB_DRIVER"
	EnvDBDSN          = "CANTEEN_DB_DSN"
	EnvRedisURL       = "CANTEEN_REDIS_URL"
	EnvJWTSecret      = "CANTEEN_JWT_SECRET"
	EnvJWTIssuer      = "CANTEEN_JWT_ISSUER"
	EnvJWTExpMins     = "CANTEEN_JWT_EXPIRATION_MINUTES"
	EnvSuperAdminID   = "CANTEEN_SUPER_ADMIN_ID"
	EnvLedgerTimezone = "CANTEEN_LEDGER_TIMEZONE"
	EnvGeminiAPIKey   = "CANTEEN_GEMINI_API_KEY"
	EnvSendgridAPIKey = "CANTEEN_SENDGRID_API_KEY"
	EnvCORSOrigins    = "CANTEEN_CORS_ALLOWED_ORIGINS"
)
