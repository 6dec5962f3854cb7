package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 30 * time.Second

// Cache stores board listings in Redis for a short TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ BoardCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(boardType, region, format string, day time.Time) string {
	date := "all"
	if boardType == TypeDaily {
		date = day.Format(time.DateOnly)
	}
	return strings.Join([]string{"ranking", boardType, region, format, date}, ":")
}

func (c *Cache) Get(ctx context.Context, q BoardQuery) ([]Entry, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(q.Type, q.Region, q.Format, q.Day)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

func (c *Cache) Set(ctx context.Context, q BoardQuery, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(q.Type, q.Region, q.Format, q.Day), data, c.ttl).Err()
}

// Invalidate drops the daily board for day and the all-time board of region and format.
func (c *Cache) Invalidate(ctx context.Context, region, format string, day time.Time) error {
	return c.client.Del(ctx,
		cacheKey(TypeDaily, region, format, day),
		cacheKey(TypeAllTime, region, format, day),
	).Err()
}
