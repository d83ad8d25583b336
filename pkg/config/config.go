package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix  = "vendaria"
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Commerce     CommerceConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VENDARIA_APP_ENV" required:"true"`
	Port         string `envconfig:"VENDARIA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"VENDARIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VENDARIA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VENDARIA_DB_DSN"`
	Driver string `envconfig:"VENDARIA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"VENDARIA_DB_HOST"`
	Port     int    `envconfig:"VENDARIA_DB_PORT" default:"5432"`
	User     string `envconfig:"VENDARIA_DB_USER"`
	Password string `envconfig:"VENDARIA_DB_PASSWORD"`
	Name     string `envconfig:"VENDARIA_DB_NAME"`
	SSLMode  string `envconfig:"VENDARIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VENDARIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENDARIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENDARIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENDARIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("database DSN or host/user/name components are required")
	}
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	query := dsn.Query()
	query.Set("sslmode", d.SSLMode)
	dsn.RawQuery = query.Encode()
	d.DSN = dsn.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"VENDARIA_REDIS_URL"`
	Address      string        `envconfig:"VENDARIA_REDIS_ADDR"`
	Password     string        `envconfig:"VENDARIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENDARIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENDARIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENDARIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENDARIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENDARIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENDARIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VENDARIA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VENDARIA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VENDARIA_JWT_EXPIRATION_MINUTES" default:"60"`
}

// FeatureFlagsConfig carries process-wide toggles. SellingEnabled is the
// tenant half of the selling authorization check; the user half is the
// per-user can_sell grant.
type FeatureFlagsConfig struct {
	SellingEnabled bool `envconfig:"VENDARIA_FEATURE_SELLING_ENABLED" default:"true"`
	AutoMigrate    bool `envconfig:"VENDARIA_AUTO_MIGRATE" default:"false"`
}

type CommerceConfig struct {
	DefaultCommissionRate string        `envconfig:"VENDARIA_DEFAULT_COMMISSION_RATE" default:"0.05"`
	IdempotencyTTL        time.Duration `envconfig:"VENDARIA_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

type PubSubConfig struct {
	ProjectID      string `envconfig:"VENDARIA_PUBSUB_PROJECT_ID"`
	TopicID        string `envconfig:"VENDARIA_PUBSUB_TOPIC_ID" default:"vendaria-domain-events"`
	SubscriptionID string `envconfig:"VENDARIA_PUBSUB_SUBSCRIPTION_ID" default:"vendaria-notifications"`
	EmulatorHost   string `envconfig:"VENDARIA_PUBSUB_EMULATOR_HOST"`
}

type OutboxConfig struct {
	BatchSize    int           `envconfig:"VENDARIA_OUTBOX_BATCH_SIZE" default:"100"`
	PollInterval time.Duration `envconfig:"VENDARIA_OUTBOX_POLL_INTERVAL" default:"2s"`
	MaxAttempts  int           `envconfig:"VENDARIA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"VENDARIA_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"VENDARIA_CRON_LOCK_TTL" default:"55m"`
	// PaymentWindow is how long a crypto order may stay unpaid before the
	// expiry job cancels it.
	PaymentWindow             time.Duration `envconfig:"VENDARIA_CRON_PAYMENT_WINDOW" default:"72h"`
	NotificationRetentionDays int           `envconfig:"VENDARIA_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
	OutboxRetentionDays       int           `envconfig:"VENDARIA_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
}
