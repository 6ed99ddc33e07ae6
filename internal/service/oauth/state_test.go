package oauth

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStateStoreSingleUse(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()
	if err := store.Save(ctx, "abc", "google", time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, "abc", "google", time.Minute); err == nil {
		t.Fatal("expected duplicate state to fail")
	}
	provider, ok, err := store.Consume(ctx, "abc")
	if err != nil || !ok || provider != "google" {
		t.Fatalf("unexpected consume %q %v %v", provider, ok, err)
	}
	if _, ok, _ := store.Consume(ctx, "abc"); ok {
		t.Fatal("state must not be reusable")
	}
}

func TestMemoryStateStoreExpiry(t *testing.T) {
	store := NewMemoryStateStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	_ = store.Save(context.Background(), "old", "facebook", time.Minute)
	now = now.Add(2 * time.Minute)
	if _, ok, _ := store.Consume(context.Background(), "old"); ok {
		t.Fatal("expected expired state to be rejected")
	}
}
