package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"claims-platform/pkg/metrics"
)

func TestKeyIsDeterministicAndPrefixed(t *testing.T) {
	k1 := Key(CategoryQuery, "46M knee surgery in Pune")
	k2 := Key(CategoryQuery, "46M knee surgery in Pune")
	if k1 != k2 {
		t.Errorf("same content produced different keys: %s vs %s", k1, k2)
	}
	if !strings.HasPrefix(k1, "query_") {
		t.Errorf("key %s missing category prefix", k1)
	}
	if k3 := Key(CategoryDecision, "46M knee surgery in Pune"); k3 == k1 {
		t.Error("different categories produced the same key")
	}
}

func TestManagerHitAndMissStats(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())

	var got string
	hit, err := m.Get(ctx, CategoryDecision, "claim-1", &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if hit {
		t.Error("expected miss on empty cache")
	}

	if err := m.Put(ctx, CategoryDecision, "claim-1", "approved"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	hit, err = m.Get(ctx, CategoryDecision, "claim-1", &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !hit || got != "approved" {
		t.Errorf("hit = %v, got = %q, want approved", hit, got)
	}

	stats := m.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit and 1 miss", stats)
	}
	if stats.HitRate() != 0.5 {
		t.Errorf("hit rate = %v, want 0.5", stats.HitRate())
	}
	if stats.Entries[CategoryDecision] != 1 {
		t.Errorf("entries = %v, want 1 decision entry", stats.Entries)
	}
}

func TestManagerEvictsColdestEntry(t *testing.T) {
	ctx := context.Background()
	m := NewManagerWithLimit(NewMemoryStore(), 2)

	if err := m.Put(ctx, CategoryQuery, "first", 1); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := m.Put(ctx, CategoryQuery, "second", 2); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// 访问 first，使 second 成为最冷条目
	var n int
	if hit, _ := m.Get(ctx, CategoryQuery, "first", &n); !hit {
		t.Fatal("expected hit for first")
	}

	if err := m.Put(ctx, CategoryQuery, "third", 3); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if hit, _ := m.Get(ctx, CategoryQuery, "second", &n); hit {
		t.Error("second should have been evicted")
	}
	if hit, _ := m.Get(ctx, CategoryQuery, "first", &n); !hit {
		t.Error("first should have survived eviction")
	}
	if stats := m.Stats(); stats.Evictions != 1 {
		t.Errorf("evictions = %d, want 1", stats.Evictions)
	}
}

func evictionCounterValue(t *testing.T) float64 {
	t.Helper()
	fams, err := metrics.DefaultRegistry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, f := range fams {
		if f.GetName() == "claims_cache_eviction_total" {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestManagerPerCategoryLimit(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())
	m.Configure(CategoryDecision, 0, 2)

	before := evictionCounterValue(t)

	_ = m.Put(ctx, CategoryDecision, "claim-1", 1)
	_ = m.Put(ctx, CategoryDecision, "claim-2", 2)
	_ = m.Put(ctx, CategoryQuery, "q1", 3)
	_ = m.Put(ctx, CategoryDecision, "claim-3", 4)

	stats := m.Stats()
	if stats.Entries[CategoryDecision] != 2 {
		t.Errorf("decision entries = %d, want 2 after per-category eviction", stats.Entries[CategoryDecision])
	}
	if stats.Entries[CategoryQuery] != 1 {
		t.Errorf("query entries = %d, want 1 (other categories must not be evicted)", stats.Entries[CategoryQuery])
	}
	var n int
	if hit, _ := m.Get(ctx, CategoryDecision, "claim-1", &n); hit {
		t.Error("oldest decision entry should have been evicted")
	}
	if hit, _ := m.Get(ctx, CategoryQuery, "q1", &n); !hit {
		t.Error("query entry should survive decision-category eviction")
	}
	if after := evictionCounterValue(t); after-before < 1 {
		t.Errorf("eviction counter delta = %v, want >= 1", after-before)
	}
}

func TestManagerConfiguredTTLExpires(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())
	m.Configure(CategoryQuery, 10*time.Millisecond, 0)

	if err := m.Put(ctx, CategoryQuery, "short", 1); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	var n int
	if hit, _ := m.Get(ctx, CategoryQuery, "short", &n); hit {
		t.Error("entry should expire per configured category ttl")
	}
}

func TestManagerInvalidateCategory(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())

	_ = m.Put(ctx, CategoryDocument, "policy.pdf", "content")
	_ = m.Put(ctx, CategoryQuery, "q1", "parsed")

	removed, err := m.InvalidateCategory(ctx, CategoryDocument)
	if err != nil {
		t.Fatalf("InvalidateCategory failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	var got string
	if hit, _ := m.Get(ctx, CategoryDocument, "policy.pdf", &got); hit {
		t.Error("document entry should be gone")
	}
	if hit, _ := m.Get(ctx, CategoryQuery, "q1", &got); !hit {
		t.Error("query entry should survive")
	}
}

func TestManagerClearResetsStats(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())

	_ = m.Put(ctx, CategoryReasoning, "chain", "result")
	var got string
	_, _ = m.Get(ctx, CategoryReasoning, "chain", &got)

	if err := m.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	stats := m.Stats()
	if stats.Hits != 0 || stats.Misses != 0 || len(stats.Entries) != 0 {
		t.Errorf("stats not reset: %+v", stats)
	}
}
