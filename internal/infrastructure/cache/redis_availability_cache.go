package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings. It returns nil when Redis is
// unreachable so callers can run without a cache.
func NewRedisClient(ctx context.Context, opts RedisOptions) *redis.Client {
	if opts.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}

// RedisAvailabilityCache stores computed availability per area. Every key
// embeds the area's version counter; InvalidateArea bumps the counter so old
// entries are never read again and expire through their TTL.
type RedisAvailabilityCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRedisAvailabilityCache(client redis.Cmdable, ttl time.Duration, logger zerolog.Logger) *RedisAvailabilityCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisAvailabilityCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "availability-cache").Logger(),
	}
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, key domain.AvailabilityKey) (*domain.Availability, bool) {
	version, err := c.version(ctx, key.AreaID)
	if err != nil {
		c.logger.Warn().Err(err).Msg("availability cache version read failed")
		return nil, false
	}
	raw, err := c.client.Get(ctx, entryKey(key, version)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Msg("availability cache read failed")
		}
		return nil, false
	}
	var a domain.Availability
	if err := json.Unmarshal(raw, &a); err != nil {
		c.logger.Warn().Err(err).Msg("availability cache entry is corrupt")
		return nil, false
	}
	return &a, true
}

func (c *RedisAvailabilityCache) Set(ctx context.Context, key domain.AvailabilityKey, a *domain.Availability) error {
	version, err := c.version(ctx, key.AreaID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal availability: %w", err)
	}
	return c.client.Set(ctx, entryKey(key, version), raw, c.ttl).Err()
}

func (c *RedisAvailabilityCache) InvalidateArea(ctx context.Context, areaID uuid.UUID) error {
	return c.client.Incr(ctx, versionKey(areaID)).Err()
}

func (c *RedisAvailabilityCache) version(ctx context.Context, areaID uuid.UUID) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(areaID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func versionKey(areaID uuid.UUID) string {
	return "availability:" + areaID.String() + ":version"
}

func entryKey(key domain.AvailabilityKey, version int64) string {
	return "availability:" + key.AreaID.String() +
		":v" + strconv.FormatInt(version, 10) +
		":" + key.From.UTC().Format(time.RFC3339) +
		":" + key.To.UTC().Format(time.RFC3339) +
		":s" + strconv.Itoa(key.SlotMinutes)
}
