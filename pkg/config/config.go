package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	HTTP         HTTPConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Settlement   SettlementConfig
	Trust        TrustConfig
}

// Load reads the environment and reports every invalid section at once.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	err := multierr.Combine(
		cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite),
		cfg.HTTP.validate(),
		cfg.Settlement.validate(),
		cfg.Trust.validate(),
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PACKFINDERZ_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"PACKFINDERZ_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"PACKFINDERZ_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"PACKFINDERZ_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"PACKFINDERZ_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool  { return strings.EqualFold(a.Env, AppEnvDev) }
func (a AppConfig) IsProd() bool { return strings.EqualFold(a.Env, AppEnvProd) }

// HTTPConfig controls the API listener.
type HTTPConfig struct {
	Port              string        `envconfig:"PACKFINDERZ_APP_PORT" default:"8080"`
	ReadHeaderTimeout time.Duration `envconfig:"PACKFINDERZ_HTTP_READ_HEADER_TIMEOUT" default:"10s"`
	ShutdownTimeout   time.Duration `envconfig:"PACKFINDERZ_HTTP_SHUTDOWN_TIMEOUT" default:"20s"`
	IdempotencyTTL    time.Duration `envconfig:"PACKFINDERZ_IDEMPOTENCY_TTL" default:"24h"`
}

func (h HTTPConfig) validate() error {
	var err error
	if strings.TrimSpace(h.Port) == "" {
		err = multierr.Append(err, fmt.Errorf("%s is required", EnvAppPort))
	}
	if h.ShutdownTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvHTTPShutdownTimeout))
	}
	if h.IdempotencyTTL <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvIdempotencyTTL))
	}
	return err
}

type ServiceConfig struct {
	Kind string `envconfig:"PACKFINDERZ_SERVICE_KIND" default:"api"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PACKFINDERZ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PACKFINDERZ_REDIS_ADDR"`
	Password     string        `envconfig:"PACKFINDERZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"PACKFINDERZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PACKFINDERZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PACKFINDERZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PACKFINDERZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PACKFINDERZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PACKFINDERZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PACKFINDERZ_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PACKFINDERZ_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"PACKFINDERZ_GCP_PROJECT_ID" required:"true"`
}

type PubSubConfig struct {
	NotificationTopic string `envconfig:"PACKFINDERZ_PUBSUB_NOTIFICATION_TOPIC" default:"pf-notification-events"`
}

// SettlementConfig tunes payout holding and the release sweep.
type SettlementConfig struct {
	HoldDays        int           `envconfig:"PACKFINDERZ_SETTLEMENT_HOLD_DAYS" default:"3"`
	HistoryCap      int           `envconfig:"PACKFINDERZ_WALLET_HISTORY_CAP" default:"100"`
	ReleaseInterval time.Duration `envconfig:"PACKFINDERZ_PAYOUT_RELEASE_INTERVAL" default:"1h"`
	LockTTL         time.Duration `envconfig:"PACKFINDERZ_CRON_LOCK_TTL" default:"55m"`
}

func (s SettlementConfig) validate() error {
	var err error
	if s.HoldDays < 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be non-negative", EnvSettlementHoldDays))
	}
	if s.HistoryCap <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvWalletHistoryCap))
	}
	if s.ReleaseInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvReleaseInterval))
	}
	if s.LockTTL <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvCronLockTTL))
	}
	return err
}

// TrustConfig holds the return-request blocking thresholds. Zero values fall
// back to the policy defaults.
type TrustConfig struct {
	BuyerWindowMonths  int `envconfig:"PACKFINDERZ_TRUST_BUYER_WINDOW_MONTHS" default:"6"`
	BuyerMaxReturns    int `envconfig:"PACKFINDERZ_TRUST_BUYER_MAX_RETURNS" default:"3"`
	SellerWindowDays   int `envconfig:"PACKFINDERZ_TRUST_SELLER_WINDOW_DAYS" default:"30"`
	SellerBlockReturns int `envconfig:"PACKFINDERZ_TRUST_SELLER_BLOCK_RETURNS" default:"3"`
	RetentionDays      int `envconfig:"PACKFINDERZ_RETURN_REQUEST_RETENTION_DAYS" default:"90"`
}

func (t TrustConfig) validate() error {
	fields := map[string]int{
		EnvTrustBuyerWindow:  t.BuyerWindowMonths,
		EnvTrustBuyerMax:     t.BuyerMaxReturns,
		EnvTrustSellerWindow: t.SellerWindowDays,
		EnvTrustSellerBlock:  t.SellerBlockReturns,
		EnvTrustRetention:    t.RetentionDays,
	}
	var err error
	for _, env := range trustEnvVars {
		if fields[env] < 0 {
			err = multierr.Append(err, fmt.Errorf("%s must be non-negative", env))
		}
	}
	return err
}
