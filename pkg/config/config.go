package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
	Ledger        LedgerConfig
	Insights      InsightsConfig
	Sendgrid      SendgridConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	if _, err := cfg.Ledger.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CANTEEN_APP_ENV" required:"true"`
	Port         string `envconfig:"CANTEEN_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CANTEEN_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"CANTEEN_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"CANTEEN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver      string `envconfig:"CANTEEN_DB_DRIVER" default:"sqlite"`
	DSN         string `envconfig:"CANTEEN_DB_DSN" default:"file::memory:?cache=shared"`
	AutoMigrate bool   `envconfig:"CANTEEN_DB_AUTO_MIGRATE" default:"true"`

	MaxOpenConns    int           `envconfig:"CANTEEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CANTEEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CANTEEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CANTEEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded SQLite store.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

func (db DBConfig) validate() error {
	switch strings.ToLower(db.Driver) {
	case DBDriverSQLite, DBDriverPostgres:
	default:
		return fmt.Errorf("%s must be one of %q or %q, got %q", EnvDBDriver, DBDriverSQLite, DBDriverPostgres, db.Driver)
	}
	if strings.TrimSpace(db.DSN) == "" {
		return fmt.Errorf("%s is required", EnvDBDSN)
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"CANTEEN_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"CANTEEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CANTEEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CANTEEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CANTEEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CANTEEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CANTEEN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CANTEEN_JWT_ISSUER" default:"canteen-coupons"`
	ExpirationMinutes int    `envconfig:"CANTEEN_JWT_EXPIRATION_MINUTES" default:"480"`
}

// SessionTTL mirrors the access token lifetime so a revoked session and an
// expired token age out together.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CANTEEN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CANTEEN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CANTEEN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CANTEEN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CANTEEN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow  time.Duration `envconfig:"CANTEEN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIDLimit int           `envconfig:"CANTEEN_AUTH_RATE_LIMIT_LOGIN_ID_LIMIT" default:"5"`
	LoginIPLimit int           `envconfig:"CANTEEN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CANTEEN_CORS_ALLOWED_ORIGINS" default:"http://localhost:4200"`
}

type LedgerConfig struct {
	SuperAdminID       string `envconfig:"CANTEEN_SUPER_ADMIN_ID" default:"admin01"`
	SuperAdminPassword string `envconfig:"CANTEEN_SUPER_ADMIN_PASSWORD" default:"superadmin"`
	Timezone           string `envconfig:"CANTEEN_LEDGER_TIMEZONE" default:"UTC"`
	GuestPassDailyMax  int    `envconfig:"CANTEEN_GUEST_PASS_DAILY_LIMIT" default:"5"`
}

// Location resolves the time zone used for calendar day and month boundaries.
func (l LedgerConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(l.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvLedgerTimezone, err)
	}
	return loc, nil
}

type InsightsConfig struct {
	APIKey  string        `envconfig:"CANTEEN_GEMINI_API_KEY"`
	Model   string        `envconfig:"CANTEEN_GEMINI_MODEL" default:"gemini-2.5-flash"`
	BaseURL string        `envconfig:"CANTEEN_GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	Timeout time.Duration `envconfig:"CANTEEN_GEMINI_TIMEOUT" default:"30s"`

	// Questions allowed per account inside RateWindow; 0 disables the cap.
	RateLimit  int64         `envconfig:"CANTEEN_GEMINI_RATE_LIMIT" default:"20"`
	RateWindow time.Duration `envconfig:"CANTEEN_GEMINI_RATE_WINDOW" default:"1m"`
}

// Enabled reports whether an API key was supplied.
func (i InsightsConfig) Enabled() bool {
	return strings.TrimSpace(i.APIKey) != ""
}

type SendgridConfig struct {
	APIKey      string        `envconfig:"CANTEEN_SENDGRID_API_KEY"`
	DefaultFrom string        `envconfig:"CANTEEN_SENDGRID_FROM_EMAIL" default:"canteen@localhost"`
	BaseURL     string        `envconfig:"CANTEEN_SENDGRID_BASE_URL" default:"https://api.sendgrid.com"`
	Timeout     time.Duration `envconfig:"CANTEEN_SENDGRID_TIMEOUT" default:"10s"`
}

func (s SendgridConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != ""
}
