package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	JWT      JWTConfig      `env:",prefix=JWT_"`
	OAuth    OAuthConfig    `env:",prefix=OAUTH_"`
	Stripe   StripeConfig   `env:",prefix=STRIPE_"`
	Security SecurityConfig `env:",prefix="`
	Tracking TrackingConfig `env:",prefix=TRACKING_"`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=analytics"`
	Password string `env:"PASSWORD,default=analytics_password"`
	DBName   string `env:"DB,default=analytics_db"`
	SSLMode  string `env:"SSLMODE,default=disable"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type JWTConfig struct {
	Secret string   `env:"SECRET,required"`
	Expiry Duration `env:"EXPIRY,default=7d"`
}

// OAuthConfig carries the provider credentials for the social-login flows.
// RedirectBase is the externally visible base URL of this deployment; the
// per-provider callback path is appended to it.
type OAuthConfig struct {
	GitHubClientID     string   `env:"GITHUB_CLIENT_ID,default="`
	GitHubClientSecret string   `env:"GITHUB_CLIENT_SECRET,default="`
	GoogleClientID     string   `env:"GOOGLE_CLIENT_ID,default="`
	GoogleClientSecret string   `env:"GOOGLE_CLIENT_SECRET,default="`
	RedirectBase       string   `env:"REDIRECT_BASE,default=http://localhost:8080"`
	StateTTL           Duration `env:"STATE_TTL,default=10m"`
}

type StripeConfig struct {
	SecretKey     string `env:"SECRET_KEY,default="`
	WebhookSecret string `env:"WEBHOOK_SECRET,default="`
	PriceID       string `env:"PRICE_ID,default="`
	FrontendURL   string `env:"FRONTEND_URL,default=http://localhost:3000"`
}

type SecurityConfig struct {
	BCryptCost        int      `env:"BCRYPT_COST,default=10"`
	LoginRateLimit    int      `env:"LOGIN_RATE_LIMIT,default=10"`
	RegisterRateLimit int      `env:"REGISTER_RATE_LIMIT,default=5"`
	VerifyRateLimit   int      `env:"VERIFY_RATE_LIMIT,default=10"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
	ResetTokenExpiry  Duration `env:"RESET_TOKEN_EXPIRY,default=1h"`
	TrialPeriod       Duration `env:"TRIAL_PERIOD,default=14d"`
}

type TrackingConfig struct {
	// StatsRetention bounds how long a daily stats bucket lives in Redis.
	StatsRetention Duration `env:"STATS_RETENTION,default=400d"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// URL returns the PostgreSQL connection URL used by the migration runner.
func (p PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Validate JWT secret length
	if len(config.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	return &config, nil
}
