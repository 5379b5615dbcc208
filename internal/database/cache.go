package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/helppanel/backend/internal/models"
	"github.com/helppanel/backend/pkg/utils"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache stores JSON-encoded API responses with a TTL.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// Cache key formats
const (
	searchResultsKey = "help:search:%s"
	popularTopicsKey = "help:popular:%d"
)

// SearchResultsKey is stable for equivalent parameter sets: tag order and
// query case do not change it.
func SearchResultsKey(params models.SearchParams) string {
	filter := params.Filter()
	tags := append([]string(nil), filter.Tags...)
	sort.Strings(tags)

	raw := strings.Join([]string{
		strings.ToLower(strings.Join(strings.Fields(filter.Query), " ")),
		string(filter.Category),
		strings.Join(tags, ","),
	}, "|")
	return fmt.Sprintf(searchResultsKey, utils.MD5Hash(raw))
}

func PopularTopicsKey(n int) string {
	return fmt.Sprintf(popularTopicsKey, n)
}

// RedisCache is the shared cache used when several replicas run.
type RedisCache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisCache(client *redis.Client, logger *logrus.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		logger: logger,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// MemoryCache keeps entries in process. Values are stored encoded so
// callers never share decoded slices.
type MemoryCache struct {
	cache *gocache.Cache
}

func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, 10*time.Minute),
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	v, ok := c.cache.Get(key)
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(v.([]byte), dest)
}

func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	c.cache.Set(key, data, ttl)
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		c.cache.Delete(k)
	}
	return nil
}

func (c *MemoryCache) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}
