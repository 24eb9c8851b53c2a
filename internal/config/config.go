package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env             string        `env:"APP_ENV" envDefault:"dev"`
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8000"`
	DBDriver        string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL     string        `env:"DATABASE_URL" envDefault:"assessment.db"`
	DBMaxOpenConns  int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	RateLimitPerMin int           `env:"RATE_LIMIT_PER_MIN" envDefault:"120"`
	BcryptCost      int           `env:"BCRYPT_COST" envDefault:"10"`
	CORSOrigins     []string      `env:"CORS_ALLOW_ORIGINS" envSeparator:","`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Production reports whether the service runs in a production environment.
func (a App) Production() bool {
	return a.Env == "production" || a.Env == "prod"
}

// Load reads an optional .env file, then parses the environment.
func Load() (App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return App{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse populates App from the process environment and validates it.
func Parse() (App, error) {
	var cfg App
	if err := env.Parse(&cfg); err != nil {
		return App{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if err := cfg.validate(); err != nil {
		return App{}, err
	}
	return cfg, nil
}

func (a App) validate() error {
	switch a.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", a.DBDriver)
	}
	if strings.TrimSpace(a.DatabaseURL) == "" {
		return errors.New("DATABASE_URL is required")
	}
	if a.RateLimitPerMin <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MIN must be positive, got %d", a.RateLimitPerMin)
	}
	if a.BcryptCost < 4 || a.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST out of range: %d", a.BcryptCost)
	}
	return nil
}
