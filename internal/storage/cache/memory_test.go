package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreSetGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	type payload struct {
		Status string `json:"status"`
		Amount int    `json:"amount"`
	}

	if err := s.Set(ctx, "k", payload{Status: "approved", Amount: 50000}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got payload
	if err := s.Get(ctx, "k", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != "approved" || got.Amount != 50000 {
		t.Errorf("got %+v", got)
	}
}

func TestMemoryStoreMissAndExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	var got string
	if err := s.Get(ctx, "absent", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss", err)
	}

	if err := s.Set(ctx, "short", "v", time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	// 人为回拨过期时间，触发惰性删除
	s.mu.Lock()
	s.items["short"].expiration = time.Now().Add(-time.Second).Unix()
	s.mu.Unlock()

	if err := s.Get(ctx, "short", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss after expiry", err)
	}
	if ok, _ := s.Exists(ctx, "short"); ok {
		t.Error("expired key should not exist")
	}
}

func TestMemoryStoreDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	_ = s.Set(ctx, "a", 1, 0)
	_ = s.Set(ctx, "b", 2, 0)

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if ok, _ := s.Exists(ctx, "a"); ok {
		t.Error("deleted key still exists")
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if ok, _ := s.Exists(ctx, "b"); ok {
		t.Error("cleared key still exists")
	}
}
