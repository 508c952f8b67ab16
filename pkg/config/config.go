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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Orders       OrdersConfig
	Cron         CronConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Orders.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MEDIMITRA_APP_ENV" required:"true"`
	Port         string `envconfig:"MEDIMITRA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MEDIMITRA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MEDIMITRA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MEDIMITRA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MEDIMITRA_DB_DSN"`
	Driver string `envconfig:"MEDIMITRA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MEDIMITRA_DB_HOST"`
	LegacyPort     int    `envconfig:"MEDIMITRA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MEDIMITRA_DB_USER"`
	LegacyPassword string `envconfig:"MEDIMITRA_DB_PASSWORD"`
	LegacyName     string `envconfig:"MEDIMITRA_DB_NAME"`
	LegacySSLMode  string `envconfig:"MEDIMITRA_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"MEDIMITRA_SQLITE_PATH" default:"medimitra.db"`

	MaxOpenConns    int           `envconfig:"MEDIMITRA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEDIMITRA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEDIMITRA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEDIMITRA_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// statements slower than this are logged at warn; zero disables
	SlowQueryThreshold time.Duration `envconfig:"MEDIMITRA_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEDIMITRA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MEDIMITRA_REDIS_ADDR"`
	Password     string        `envconfig:"MEDIMITRA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEDIMITRA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEDIMITRA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEDIMITRA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEDIMITRA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEDIMITRA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEDIMITRA_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"MEDIMITRA_REDIS_KEY_PREFIX" default:"mm"`

	IdempotencyTTL time.Duration `envconfig:"MEDIMITRA_IDEMPOTENCY_TTL" default:"24h"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MEDIMITRA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MEDIMITRA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MEDIMITRA_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PasswordConfig tunes the argon2id hashing used for stored credentials.
type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MEDIMITRA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MEDIMITRA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MEDIMITRA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MEDIMITRA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MEDIMITRA_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MEDIMITRA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MEDIMITRA_AUTO_MIGRATE" default:"false"`
	// Idempotency toggles the Idempotency-Key replay middleware on order creation.
	Idempotency bool `envconfig:"MEDIMITRA_FEATURE_IDEMPOTENCY" default:"true"`
}

// OrdersConfig carries the pricing and approval constants used when an order is placed.
type OrdersConfig struct {
	TaxRate               float64 `envconfig:"MEDIMITRA_ORDERS_TAX_RATE" default:"0.18"`
	ShippingFee           float64 `envconfig:"MEDIMITRA_ORDERS_SHIPPING_FEE" default:"50"`
	FreeShippingThreshold float64 `envconfig:"MEDIMITRA_ORDERS_FREE_SHIPPING_THRESHOLD" default:"1000"`
	AutoApprovalThreshold float64 `envconfig:"MEDIMITRA_ORDERS_AUTO_APPROVAL_THRESHOLD" default:"500"`
}

func (o OrdersConfig) validate() error {
	if o.TaxRate < 0 || o.TaxRate >= 1 {
		return fmt.Errorf("%s must be within [0,1)", EnvOrdersTaxRate)
	}
	if o.ShippingFee < 0 {
		return fmt.Errorf("%s must be non-negative", EnvOrdersShippingFee)
	}
	if o.FreeShippingThreshold < 0 || o.AutoApprovalThreshold < 0 {
		return fmt.Errorf("order thresholds must be non-negative")
	}
	return nil
}

func (o OrdersConfig) TaxRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(o.TaxRate)
}

func (o OrdersConfig) ShippingFeeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(o.ShippingFee)
}

func (o OrdersConfig) FreeShippingThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(o.FreeShippingThreshold)
}

func (o OrdersConfig) AutoApprovalThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(o.AutoApprovalThreshold)
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"MEDIMITRA_CRON_INTERVAL" default:"1m"`
	LockTTL               time.Duration `envconfig:"MEDIMITRA_CRON_LOCK_TTL" default:"5m"`
	JobTimeout            time.Duration `envconfig:"MEDIMITRA_CRON_JOB_TIMEOUT" default:"2m"`
	ReminderBatchSize     int           `envconfig:"MEDIMITRA_CRON_REMINDER_BATCH_SIZE" default:"100"`
	NotificationRetention time.Duration `envconfig:"MEDIMITRA_CRON_NOTIFICATION_RETENTION" default:"720h"`
	OutboxRetention       time.Duration `envconfig:"MEDIMITRA_CRON_OUTBOX_RETENTION" default:"168h"`
	ExpiryWindowDays      int           `envconfig:"MEDIMITRA_CRON_EXPIRY_WINDOW_DAYS" default:"30"`
	AlertDedupeWindow     time.Duration `envconfig:"MEDIMITRA_CRON_ALERT_DEDUPE_WINDOW" default:"24h"`
	// MetricsAddr exposes /metrics from the worker when set, e.g. ":9090".
	MetricsAddr string `envconfig:"MEDIMITRA_CRON_METRICS_ADDR"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MEDIMITRA_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"MEDIMITRA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MEDIMITRA_GOOGLE_APPLICATION_CREDENTIALS"`
	// host:port of a local Pub/Sub emulator; credentials are ignored when set
	PubSubEmulatorHost string `envconfig:"MEDIMITRA_PUBSUB_EMULATOR_HOST"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"MEDIMITRA_PUBSUB_NOTIFICATION_TOPIC" default:"medimitra-notification-events"`
	NotificationSubscription string `envconfig:"MEDIMITRA_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
	OrdersTopic              string `envconfig:"MEDIMITRA_PUBSUB_ORDERS_TOPIC" default:"medimitra-order-events"`
}

// RateLimitConfig throttles order placement per user and per client IP.
// A zero window disables the limiter.
type RateLimitConfig struct {
	OrderWindow    time.Duration `envconfig:"MEDIMITRA_RATE_LIMIT_ORDER_WINDOW" default:"1m"`
	OrderUserLimit int           `envconfig:"MEDIMITRA_RATE_LIMIT_ORDER_USER" default:"10"`
	OrderIPLimit   int           `envconfig:"MEDIMITRA_RATE_LIMIT_ORDER_IP" default:"30"`

	// Login and registration are unauthenticated, so only the IP limit applies.
	AuthWindow  time.Duration `envconfig:"MEDIMITRA_RATE_LIMIT_AUTH_WINDOW" default:"1m"`
	AuthIPLimit int           `envconfig:"MEDIMITRA_RATE_LIMIT_AUTH_IP" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"MEDIMITRA_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	MaxAgeSeconds  int      `envconfig:"MEDIMITRA_CORS_MAX_AGE" default:"300"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MEDIMITRA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MEDIMITRA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MEDIMITRA_OUTBOX_MAX_ATTEMPTS" default:"10"`

	PublishTimeout time.Duration `envconfig:"MEDIMITRA_OUTBOX_PUBLISH_TIMEOUT" default:"15s"`
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
