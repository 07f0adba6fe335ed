// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
// A local .env file, when present, is read first and never overrides real variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Posts backends.
const (
	BackendSQL   = "sql"
	BackendMongo = "mongo"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	Debug       bool   `env:"DEBUG" envDefault:"false"`
	Environment string `env:"ENVIRONMENT,required"`
	AppPort     int    `env:"APP_PORT" envDefault:"8080"`

	// Storage
	DatabaseURL    string `env:"DATABASE_URL,required"`
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	PostsBackend   string `env:"POSTS_BACKEND" envDefault:"sql"`
	MongoURL       string `env:"MONGO_URL" envDefault:"mongodb://localhost:27017"`
	MongoDatabase  string `env:"MONGO_DATABASE" envDefault:"quill"`

	// Cache, rate limiting and chat fan-out (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Pagination caps
	MaxPageSize     int `env:"MAX_PAGE_SIZE" envDefault:"100"`
	DemoMaxPageSize int `env:"DEMO_MAX_PAGE_SIZE" envDefault:"50"`

	// Static credentials and sessions
	APIToken          string        `env:"API_TOKEN" envDefault:"SECRET_API_TOKEN"`
	SecretHeaderValue string        `env:"SECRET_HEADER_VALUE" envDefault:"SECRET_VALUE"`
	CSRFSecret        string        `env:"CSRF_SECRET" envDefault:""`
	TokenTTL          time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	CookieSecure      bool          `env:"COOKIE_SECURE" envDefault:"true"`
	CookieDomain      string        `env:"COOKIE_DOMAIN" envDefault:""`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins   string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:9000"`
	CORSAllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`

	// Request body size limit in bytes (default 10MB, uploads included)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"10485760"`

	// Rate limiting (per client IP)
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     int  `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst   int  `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// Inference and integrations
	ClassifierModelPath string `env:"CLASSIFIER_MODEL_PATH" envDefault:""`
	FaceCascadePath     string `env:"FACE_CASCADE_PATH" envDefault:""`
	EmployeesAPIBaseURL string `env:"EMPLOYEES_API_BASE_URL" envDefault:"https://dummy.restapiexample.com/api/v1/"`

	// Background work and realtime
	TokenPruneSchedule string        `env:"TOKEN_PRUNE_SCHEDULE" envDefault:"0 */15 * * * *"`
	ClockInterval      time.Duration `env:"CLOCK_INTERVAL" envDefault:"10s"`
	FaceQueueSize      int           `env:"FACE_QUEUE_SIZE" envDefault:"10"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.PostsBackend {
	case BackendSQL, BackendMongo:
	default:
		return fmt.Errorf("unsupported POSTS_BACKEND %q", c.PostsBackend)
	}

	if c.IsProduction() && (c.CSRFSecret == "" || c.UsesDevCSRFSecret()) {
		return errors.New("CSRF_SECRET is required in production")
	}

	if c.FaceQueueSize < 1 {
		return fmt.Errorf("FACE_QUEUE_SIZE must be positive, got %d", c.FaceQueueSize)
	}

	return nil
}

// Load reads the optional .env file, parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.CSRFSecret == "" {
		cfg.CSRFSecret = DevCSRFSecret
	}
	return cfg, nil
}

// DevCSRFSecret signs CSRF tokens when CSRF_SECRET is unset outside
// production. It is public, so tokens signed with it can be forged.
const DevCSRFSecret = "__CHANGE_THIS_WITH_YOUR_OWN_SECRET_VALUE__"

// UsesDevCSRFSecret reports whether CSRF tokens are signed with DevCSRFSecret.
func (c *Config) UsesDevCSRFSecret() bool {
	return c.CSRFSecret == DevCSRFSecret
}
