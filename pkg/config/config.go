package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Checkout      CheckoutConfig
	Session       SessionConfig
	Fixtures      FixturesConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MCN_APP_ENV" required:"true"`
	Port         string `envconfig:"MCN_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MCN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MCN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// RedisConfig is optional: without a URL or address the service keeps sessions in memory
// and disables idempotency replay and auth rate limiting.
type RedisConfig struct {
	URL          string        `envconfig:"MCN_REDIS_URL"`
	Address      string        `envconfig:"MCN_REDIS_ADDR"`
	Password     string        `envconfig:"MCN_REDIS_PASSWORD"`
	DB           int           `envconfig:"MCN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MCN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MCN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MCN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MCN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MCN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"MCN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MCN_JWT_ISSUER" default:"mcn-showcase"`
	ExpirationMinutes int    `envconfig:"MCN_JWT_EXPIRATION_MINUTES" default:"720"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MCN_ARGON_MEMORY_KB" default:"19456"`
	ArgonTime        int `envconfig:"MCN_ARGON_TIME" default:"2"`
	ArgonParallelism int `envconfig:"MCN_ARGON_PARALLELISM" default:"1"`
	ArgonSaltLen     int `envconfig:"MCN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MCN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MCN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"MCN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MCN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MCN_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"MCN_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MCN_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CheckoutConfig struct {
	RequireIdentifiedBuyer bool          `envconfig:"MCN_CHECKOUT_REQUIRE_IDENTIFIED_BUYER" default:"true"`
	ConfirmLatency         time.Duration `envconfig:"MCN_CHECKOUT_CONFIRM_LATENCY" default:"1200ms"`
	ConfirmTimeout         time.Duration `envconfig:"MCN_CHECKOUT_CONFIRM_TIMEOUT" default:"10s"`
}

func (c CheckoutConfig) validate() error {
	if c.ConfirmLatency < 0 {
		return fmt.Errorf("%s must not be negative", EnvCheckoutConfirmLatency)
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvCheckoutConfirmTimeout)
	}
	return nil
}

type SessionConfig struct {
	CookieName    string        `envconfig:"MCN_CART_COOKIE_NAME" default:"mcn_cart"`
	CookieSecure  bool          `envconfig:"MCN_CART_COOKIE_SECURE" default:"false"`
	IdleTTL       time.Duration `envconfig:"MCN_CART_IDLE_TTL" default:"2h"`
	SweepInterval time.Duration `envconfig:"MCN_CART_SWEEP_INTERVAL" default:"5m"`
}

// FixturesConfig overrides the embedded JSON fixtures; empty paths keep the embedded data.
type FixturesConfig struct {
	TicketsPath     string `envconfig:"MCN_FIXTURE_TICKETS"`
	MerchandisePath string `envconfig:"MCN_FIXTURE_MERCHANDISE"`
	ArtworksPath    string `envconfig:"MCN_FIXTURE_ARTWORKS"`
	UsersPath       string `envconfig:"MCN_FIXTURE_USERS"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"MCN_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}
