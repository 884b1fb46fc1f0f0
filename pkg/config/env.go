package config

// EnvPrefix is passed to envconfig; every field carries an explicit MCN_ name.
const EnvPrefix = "MCN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "MCN_APP_ENV"
	EnvAppPort                = "MCN_APP_PORT"
	EnvJWTSecret              = "MCN_JWT_SECRET"
	EnvRedisURL               = "MCN_REDIS_URL"
	EnvCheckoutConfirmLatency = "MCN_CHECKOUT_CONFIRM_LATENCY"
	EnvCheckoutConfirmTimeout = "MCN_CHECKOUT_CONFIRM_TIMEOUT"
	EnvCheckoutRequireBuyer   = "MCN_CHECKOUT_REQUIRE_IDENTIFIED_BUYER"
	EnvCORSAllowedOrigins     = "MCN_CORS_ALLOWED_ORIGINS"
)
