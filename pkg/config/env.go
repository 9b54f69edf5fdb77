package config

// EnvPrefix is handed to envconfig; every field carries an explicit key so the
// prefix only matters for fields without one.
const EnvPrefix = "PACKFINDERZ"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv              = "PACKFINDERZ_APP_ENV"
	EnvAppPort             = "PACKFINDERZ_APP_PORT"
	EnvHTTPShutdownTimeout = "PACKFINDERZ_HTTP_SHUTDOWN_TIMEOUT"
	EnvIdempotencyTTL      = "PACKFINDERZ_IDEMPOTENCY_TTL"
	EnvDBDSN               = "PACKFINDERZ_DB_DSN"
	EnvDBHost              = "PACKFINDERZ_DB_HOST"
	EnvDBUser              = "PACKFINDERZ_DB_USER"
	EnvDBName              = "PACKFINDERZ_DB_NAME"
	EnvRedisURL            = "PACKFINDERZ_REDIS_URL"
	EnvGCPProjectID        = "PACKFINDERZ_GCP_PROJECT_ID"
	EnvUseSQLite           = "PACKFINDERZ_USE_SQLITE"
	EnvSettlementHoldDays  = "PACKFINDERZ_SETTLEMENT_HOLD_DAYS"
	EnvWalletHistoryCap    = "PACKFINDERZ_WALLET_HISTORY_CAP"
	EnvReleaseInterval     = "PACKFINDERZ_PAYOUT_RELEASE_INTERVAL"
	EnvCronLockTTL         = "PACKFINDERZ_CRON_LOCK_TTL"
	EnvTrustBuyerWindow    = "PACKFINDERZ_TRUST_BUYER_WINDOW_MONTHS"
	EnvTrustBuyerMax       = "PACKFINDERZ_TRUST_BUYER_MAX_RETURNS"
	EnvTrustSellerWindow   = "PACKFINDERZ_TRUST_SELLER_WINDOW_DAYS"
	EnvTrustSellerBlock    = "PACKFINDERZ_TRUST_SELLER_BLOCK_RETURNS"
	EnvTrustRetention      = "PACKFINDERZ_RETURN_REQUEST_RETENTION_DAYS"
	EnvCORSAllowedOrigins  = "PACKFINDERZ_CORS_ALLOWED_ORIGINS"
)

var trustEnvVars = []string{
	EnvTrustBuyerWindow,
	EnvTrustBuyerMax,
	EnvTrustSellerWindow,
	EnvTrustSellerBlock,
	EnvTrustRetention,
}
