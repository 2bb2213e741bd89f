package memory

import (
	"context"
	"testing"
)

func TestIdentityStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := NewIdentityStore()

	if _, ok, _ := store.Load(ctx, "clientId"); ok {
		t.Fatalf("expected empty store")
	}

	if err := store.Store(ctx, "clientId", "c-1"); err != nil {
		t.Fatalf("store: %v", err)
	}
	value, ok, err := store.Load(ctx, "clientId")
	if err != nil || !ok || value != "c-1" {
		t.Fatalf("load = %q ok=%v err=%v", value, ok, err)
	}

	if err := store.Store(ctx, "clientId", "c-2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if value, _, _ := store.Load(ctx, "clientId"); value != "c-2" {
		t.Fatalf("expected overwritten value, got %q", value)
	}

	// Storing the empty string deletes.
	if err := store.Store(ctx, "clientId", ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Load(ctx, "clientId"); ok {
		t.Fatalf("expected value removed")
	}
}
