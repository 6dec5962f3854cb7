package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"flagquiz-api"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres  Postgres
	Redis     Redis
	Security  Security
	Session   Session
	RateLimit RateLimit
	Ranking   Ranking
	CORS      CORS
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// DSN renders the keyword/value connection string understood by pgx.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Redis holds cache + pub/sub configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for signing.
type Security struct {
	SessionSecret string `env:"SESSION_TOKEN_SECRET,notEmpty"`
}

// Session governs quiz-session token freshness.
type Session struct {
	MaxAge    time.Duration `env:"SESSION_MAX_AGE" envDefault:"1h"`
	ClockSkew time.Duration `env:"SESSION_CLOCK_SKEW" envDefault:"5s"`
}

// RateLimit configures the per-client limit on score submissions.
type RateLimit struct {
	Window        time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	MaxRequests   int           `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"10"`
	SweepInterval time.Duration `env:"RATE_LIMIT_SWEEP_INTERVAL" envDefault:"1m"`
}

// Ranking governs leaderboard reads, caching and retention.
type Ranking struct {
	DailyLimit        int           `env:"RANKING_DAILY_LIMIT" envDefault:"100"`
	AllTimeLimit      int           `env:"RANKING_ALL_TIME_LIMIT" envDefault:"5"`
	CacheTTL          time.Duration `env:"RANKING_CACHE_TTL" envDefault:"30s"`
	DayOffset         time.Duration `env:"RANKING_DAY_OFFSET" envDefault:"9h"`
	DailyRetention    time.Duration `env:"RANKING_DAILY_RETENTION" envDefault:"720h"`
	RetentionInterval time.Duration `env:"RANKING_RETENTION_INTERVAL" envDefault:"1h"`
	PubSubChannel     string        `env:"RANKING_PUBSUB_CHANNEL" envDefault:"ranking:updates"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://127.0.0.1:5173"`
	AllowedMethods []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type"`
	MaxAge         int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := LoadInto(cfg); err != nil {
		return nil, err
	}
	if cfg.RateLimit.MaxRequests <= 0 || cfg.RateLimit.Window <= 0 {
		return nil, fmt.Errorf("rate limit must allow at least one request per positive window")
	}
	return cfg, nil
}

// LoadInto parses environment variables into any config group, e.g. Postgres for the migrator.
func LoadInto(v any) error {
	if err := env.ParseWithOptions(v, env.Options{RequiredIfNoDef: true}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
