// Package ratelimit provides a per-client token bucket limiter for HTTP handlers.
package ratelimit

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/time/rate"
)

const unknownClient = "unknown"

// Config defines how many requests a single client may issue per window.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// KeyFunc extracts the client key a request is limited by.
type KeyFunc func(*http.Request) string

// Limiter tracks one token bucket per client key.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
	cfg     Config
	keyFn   KeyFunc
	now     func() time.Time
}

// Option customises a Limiter.
type Option func(*Limiter)

// WithClock overrides the limiter clock.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithKeyFunc overrides client key extraction.
func WithKeyFunc(fn KeyFunc) Option {
	return func(l *Limiter) { l.keyFn = fn }
}

// New constructs a limiter refilling MaxRequests tokens per Window with a burst of MaxRequests.
func New(cfg Config, opts ...Option) *Limiter {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	l := &Limiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(float64(cfg.MaxRequests) / cfg.Window.Seconds()),
		burst:   cfg.MaxRequests,
		cfg:     cfg,
		keyFn:   ClientKey,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow consumes a token for key. When the bucket is empty it reports how long
// until the next token becomes available.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.now()
	bucket := l.bucket(key)

	if bucket.AllowN(now, 1) {
		return true, 0
	}
	r := bucket.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return false, delay
}

// Sweep drops buckets that have refilled completely and returns how many were removed.
func (l *Limiter) Sweep() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, bucket := range l.buckets {
		if bucket.TokensAt(now) >= float64(l.burst) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RunSweeper periodically sweeps idle buckets until ctx is cancelled.
func (l *Limiter) RunSweeper(ctx context.Context, interval time.Duration, logger zerolog.Logger) error {
	if interval <= 0 {
		interval = time.Minute
	}
	logger = logger.With().Str("component", "rate_limit_sweeper").Logger()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				logger.Debug().Int("removed", n).Int("remaining", l.Len()).Msg("idle rate limit buckets swept")
			}
		}
	}
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	return b
}

type limitedResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := l.keyFn(r)
		ok, delay := l.Allow(key)
		if ok {
			next.ServeHTTP(w, r)
			return
		}

		retryAfter := RetryAfterSeconds(delay)
		hlog.FromRequest(r).Warn().
			Str("client", key).
			Str("path", r.URL.Path).
			Int("retry_after", retryAfter).
			Msg("rate limit exceeded")

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.MaxRequests))
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(limitedResponse{
			Error:      "rate_limited",
			Message:    "too many requests, please try again later",
			RetryAfter: retryAfter,
		})
	})
}

// RetryAfterSeconds rounds delay up to whole seconds, never below one.
func RetryAfterSeconds(delay time.Duration) int {
	secs := int(math.Ceil(delay.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// ClientKey identifies the caller from proxy headers: CF-Connecting-IP, then the
// first X-Forwarded-For hop, then X-Real-IP.
func ClientKey(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return unknownClient
}
