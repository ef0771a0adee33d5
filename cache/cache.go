package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Config configures the result cache.
type Config struct {
	// MaxEntries bounds the number of cached results.
	MaxEntries int64 `yaml:"max_entries" mapstructure:"max_entries" validate:"gte=0"`
	// DefaultTTL applies when Set is called with a zero ttl. Zero means entries never expire.
	DefaultTTL time.Duration `yaml:"default_ttl" mapstructure:"default_ttl" validate:"gte=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.MaxEntries <= 0 {
		c.MaxEntries = 10_000
	}
	if c.DefaultTTL == 0 {
		c.DefaultTTL = 5 * time.Minute
	}
}

// Cache is a TTL-keyed result cache. Safe for concurrent use.
type Cache struct {
	store      *ristretto.Cache
	defaultTTL time.Duration
}

// New creates a cache from cfg, applying defaults for unset fields.
func New(cfg Config) (*Cache, error) {
	cfg.ApplyDefaults()
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:            cfg.MaxEntries * 10,
		MaxCost:                cfg.MaxEntries,
		BufferItems:            64,
		IgnoreInternalCost:     true,
		TtlTickerDurationInSec: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: creating store: %w", err)
	}
	return &Cache{store: store, defaultTTL: cfg.DefaultTTL}, nil
}

// Set stores value under key for ttl (zero uses the default TTL). The entry
// is visible to Get as soon as Set returns. It reports whether the entry was
// admitted.
func (c *Cache) Set(key string, value any, ttl time.Duration) bool {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if ttl < 0 {
		return false
	}
	ok := c.store.SetWithTTL(key, value, 1, ttl)
	c.store.Wait()
	return ok
}

// Get returns the cached value for key if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.store.Del(key)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.store.Clear()
}

// Close stops the store's background goroutines. The cache must not be used afterwards.
func (c *Cache) Close() {
	c.store.Close()
}

// Key derives a stable cache key for a tool invocation.
func Key(tool, method string, args []any) string {
	h := sha256.New()
	h.Write([]byte(tool))
	h.Write([]byte{0})
	h.Write([]byte(method))
	h.Write([]byte{0})
	if raw, err := json.Marshal(args); err == nil {
		h.Write(raw)
	} else {
		fmt.Fprintf(h, "%#v", args)
	}
	return tool + "." + method + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}
