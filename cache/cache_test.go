package cache

import (
	"context"
	"testing"

	"github.com/mountfs/mount/block"
)

func TestCachePutGet(t *testing.T) {
	ctx := context.Background()
	c := New()

	b, err := block.EncodeStructured(map[string]interface{}{"a": int64(1)})
	if err != nil {
		t.Fatalf("EncodeStructured: %v", err)
	}

	if err := c.Put(ctx, b); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, ok, err := c.Get(ctx, b.Identifier())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if string(data) != string(b.RawData()) {
		t.Fatalf("cached bytes mismatch")
	}
}

func TestCacheGetMiss(t *testing.T) {
	ctx := context.Background()
	c := New()

	raw, err := block.EncodeRaw([]byte("nope"))
	if err != nil {
		t.Fatalf("EncodeRaw: %v", err)
	}
	_, ok, err := c.Get(ctx, raw.Identifier())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("expected cache miss for an entry never put")
	}
}

func TestCacheDrainAndClear(t *testing.T) {
	ctx := context.Background()
	c := New()

	b1, _ := block.EncodeStructured(map[string]interface{}{"a": int64(1)})
	b2, _ := block.EncodeStructured(map[string]interface{}{"b": int64(2)})
	if err := c.Put(ctx, b1); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Put(ctx, b2); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entries, err := c.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 drained entries, got %d", len(entries))
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	_, ok, err := c.Get(ctx, b1.Identifier())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("expected cache to be empty after Clear")
	}
}
