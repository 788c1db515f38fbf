// Package cache is a two-tier TTL cache: an in-process L1 map backed by an
// optional Redis L2 that survives restarts.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/career-roadmap/internal/config"
	"github.com/jonathan/career-roadmap/internal/logger"
)

// Cache stores JSON-encoded values under string keys
type Cache struct {
	mu         sync.Mutex
	l1         map[string]entry
	rdb        *redis.Client // nil when L2 is disabled
	ttl        time.Duration
	maxEntries int
	prefix     string
	log        *logger.Logger
	now        func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Options configures a Cache
type Options struct {
	TTL        time.Duration
	MaxEntries int
	Prefix     string // key namespace used in Redis
}

// New creates an L1-only cache. Use WithRedis to attach an L2.
func New(opts Options, log *logger.Logger) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.Prefix == "" {
		opts.Prefix = "cr"
	}
	return &Cache{
		l1:         make(map[string]entry),
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
		prefix:     opts.Prefix,
		log:        logger.OrNop(log),
		now:        time.Now,
	}
}

// FromConfig builds a cache from configuration, connecting to Redis when a
// URL is set. An unreachable Redis only disables L2.
func FromConfig(ctx context.Context, cfg config.CacheConfig, log *logger.Logger) *Cache {
	c := New(Options{TTL: time.Duration(cfg.TTLMinutes) * time.Minute, MaxEntries: cfg.MaxEntries}, log)
	if cfg.RedisURL == "" {
		return c
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		c.log.Warn("invalid redis URL, L2 cache disabled", "error", err)
		return c
	}
	rdb := redis.NewClient(opts)
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		c.log.Warn("redis unreachable, L2 cache disabled", "addr", opts.Addr, "error", err)
		_ = rdb.Close()
		return c
	}
	c.log.Info("L2 cache connected", "addr", opts.Addr)
	return c.WithRedis(rdb)
}

// WithRedis attaches rdb as the L2 tier
func (c *Cache) WithRedis(rdb *redis.Client) *Cache {
	c.rdb = rdb
	return c
}

// Key builds a deterministic key from parts
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.Join(parts, "|"))))
	return fmt.Sprintf("%x", sum[:12])
}

// Get decodes the cached value for key into dest. It reports false on a
// miss, an expired entry or a value that no longer decodes.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}

	c.mu.Lock()
	e, ok := c.l1[key]
	if ok && !c.now().Before(e.expiresAt) {
		delete(c.l1, key)
		ok = false
	}
	c.mu.Unlock()

	if ok && json.Unmarshal(e.data, dest) == nil {
		c.hits.Add(1)
		return true
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, c.redisKey(key)).Bytes()
		if err == nil && json.Unmarshal(data, dest) == nil {
			c.store(key, data)
			c.hits.Add(1)
			return true
		}
		if err != nil && err != redis.Nil {
			c.log.Debug("L2 cache get failed", "error", err)
		}
	}

	c.misses.Add(1)
	return false
}

// Set stores value under key in both tiers
func (c *Cache) Set(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Debug("cache value not encodable", "error", err)
		return
	}
	c.store(key, data)

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, c.redisKey(key), data, c.ttl).Err(); err != nil {
			c.log.Debug("L2 cache set failed", "error", err)
		}
	}
}

// Len returns the number of L1 entries, expired ones included
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.l1)
}

// Stats returns hit and miss counters
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close releases the Redis connection, if any
func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Cache) redisKey(key string) string {
	return c.prefix + ":" + key
}

func (c *Cache) store(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.l1[key]; !exists {
		c.evictLocked()
	}
	c.l1[key] = entry{data: data, expiresAt: c.now().Add(c.ttl)}
}

// evictLocked makes room for one entry: expired entries go first, then the
// entries closest to expiry.
func (c *Cache) evictLocked() {
	if c.maxEntries <= 0 || len(c.l1) < c.maxEntries {
		return
	}
	now := c.now()
	for k, e := range c.l1 {
		if !now.Before(e.expiresAt) {
			delete(c.l1, k)
		}
	}
	for len(c.l1) >= c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.l1 {
			if oldestKey == "" || e.expiresAt.Before(oldest) {
				oldestKey, oldest = k, e.expiresAt
			}
		}
		delete(c.l1, oldestKey)
	}
}
