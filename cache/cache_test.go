package cache

import (
	"testing"
	"time"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := New(Config{MaxEntries: 100, DefaultTTL: ttl})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestCache_SetGet(t *testing.T) {
	c := newTestCache(t, time.Minute)
	if !c.Set("review:a", "ok", 0) {
		t.Fatal("expected entry to be admitted")
	}
	v, ok := c.Get("review:a")
	if !ok || v != "ok" {
		t.Fatalf("expected cached value, got %v (ok=%v)", v, ok)
	}
}

func TestCache_Miss(t *testing.T) {
	c := newTestCache(t, time.Minute)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss")
	}
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	c := newTestCache(t, time.Minute)
	c.Set("short", 1, 30*time.Millisecond)
	if _, ok := c.Get("short"); !ok {
		t.Fatal("expected hit before expiry")
	}
	time.Sleep(80 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Fatal("expected miss after ttl")
	}
}

func TestCache_NegativeTTLRejected(t *testing.T) {
	c := newTestCache(t, time.Minute)
	if c.Set("k", 1, -time.Second) {
		t.Fatal("expected negative ttl to be rejected")
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := newTestCache(t, time.Minute)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be deleted")
	}
	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be cleared")
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.MaxEntries != 10_000 || cfg.DefaultTTL != 5*time.Minute {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestKey(t *testing.T) {
	a := Key("review", "run", []any{"main.go", 1})
	b := Key("review", "run", []any{"main.go", 1})
	c := Key("review", "run", []any{"main.go", 2})
	d := Key("review", "lint", []any{"main.go", 1})
	if a != b {
		t.Error("expected identical inputs to share a key")
	}
	if a == c || a == d {
		t.Error("expected different inputs to produce different keys")
	}
	unmarshalable := Key("t", "m", []any{func() {}})
	if unmarshalable == "" {
		t.Error("expected fallback key for non-JSON args")
	}
}
