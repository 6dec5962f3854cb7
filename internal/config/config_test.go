package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("PG_HOST", "localhost")
	t.Setenv("PG_USER", "quiz")
	t.Setenv("PG_PASSWORD", "quiz")
	t.Setenv("PG_DATABASE", "flagquiz")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SESSION_TOKEN_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "flagquiz-api", cfg.Name)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, 5*time.Second, cfg.Session.ClockSkew)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 100, cfg.Ranking.DailyLimit)
	assert.Equal(t, 5, cfg.Ranking.AllTimeLimit)
	assert.Equal(t, 9*time.Hour, cfg.Ranking.DayOffset)
	assert.Equal(t, "test-secret", cfg.Security.SessionSecret)
	assert.Equal(t, []string{"GET", "POST", "OPTIONS"}, cfg.CORS.AllowedMethods)
	assert.Equal(t,
		"host=localhost port=5432 user=quiz password=quiz dbname=flagquiz sslmode=disable",
		cfg.Postgres.DSN())
}

func TestLoad_RequiresSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_TOKEN_SECRET", "")

	_, err := Load(context.Background())
	assert.Error(t, err)
}

func TestLoad_RejectsEmptyRateLimit(t *testing.T) {
	setRequired(t)
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "0")

	_, err := Load(context.Background())
	assert.Error(t, err)
}

func TestLoadInto_PostgresOnly(t *testing.T) {
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_USER", "quiz")
	t.Setenv("PG_PASSWORD", "quiz")
	t.Setenv("PG_DATABASE", "flagquiz")

	var pg Postgres
	require.NoError(t, LoadInto(&pg))
	assert.Equal(t, "db", pg.Host)
	assert.Equal(t, 10, pg.MaxConns)
}
