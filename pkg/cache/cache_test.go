package cache

import (
	"context"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "graph:abc", []byte("payload"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	data, hit, err := c.Get(ctx, "graph:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit {
		t.Fatal("expected cache hit")
	}
	if string(data) != "payload" {
		t.Errorf("Get = %q, want payload", data)
	}

	// Missing keys are a miss, not an error
	_, hit, err = c.Get(ctx, "graph:missing")
	if err != nil || hit {
		t.Errorf("Get missing = hit %v, err %v", hit, err)
	}

	if err := c.Delete(ctx, "graph:abc"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	_, hit, _ = c.Get(ctx, "graph:abc")
	if hit {
		t.Error("Get after Delete should miss")
	}

	// Deleting a missing key is fine
	if err := c.Delete(ctx, "graph:abc"); err != nil {
		t.Errorf("Delete missing error: %v", err)
	}
}

func TestFileCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("old"), time.Nanosecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	_, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("expired entry should be a miss")
	}
}

func TestTTLOverride(t *testing.T) {
	ctx := context.Background()
	inner := &recordingCache{}
	c := NewTTLOverride(inner, time.Minute)
	defer c.Close()

	// The stage TTL passed by the caller is replaced with the configured one.
	if err := c.Set(ctx, "key", []byte("v"), TTLArtifact); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if inner.lastTTL != time.Minute {
		t.Errorf("inner ttl = %v, want configured 1m", inner.lastTTL)
	}

	// Reads and deletes pass straight through.
	data, hit, err := c.Get(ctx, "key")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q hit %v err %v", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("Get after Delete should miss")
	}
}

// recordingCache stores a single entry and remembers the TTL it was
// given, so decorator behavior can be asserted directly.
type recordingCache struct {
	key     string
	data    []byte
	lastTTL time.Duration
}

func (c *recordingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key != c.key || c.data == nil {
		return nil, false, nil
	}
	return c.data, true, nil
}

func (c *recordingCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.key, c.data, c.lastTTL = key, data, ttl
	return nil
}

func (c *recordingCache) Delete(ctx context.Context, key string) error {
	if key == c.key {
		c.data = nil
	}
	return nil
}

func (c *recordingCache) Close() error { return nil }

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// GraphKey is content addressed
	gk1 := k.GraphKey([]byte(`{"scenario":"a"}`))
	gk2 := k.GraphKey([]byte(`{"scenario":"b"}`))
	if gk1 == gk2 {
		t.Error("Different outlines should produce different graph keys")
	}
	if gk1[:6] != "graph:" {
		t.Errorf("GraphKey should carry the graph prefix: %s", gk1)
	}

	// LayoutKey should include options in hash
	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Direction: "TB", NodeWidth: 172})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Direction: "LR", NodeWidth: 172})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}

	// RenderKey
	rk1 := k.RenderKey("hash123", "svg")
	rk2 := k.RenderKey("hash123", "png")
	if rk1 == rk2 {
		t.Error("Different formats should produce different render keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "tenant:123:")

	key := scoped.GraphKey([]byte("outline"))
	if len(key) < 12 || key[:11] != "tenant:123:" {
		t.Errorf("ScopedKeyer GraphKey should be prefixed: %s", key)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.RenderKey("hash", "svg")
	if key[:7] != "prefix:" {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}
