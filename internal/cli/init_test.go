package cli

import (
	"context"
	"testing"
	"time"

	"gastos/internal/config"
	"gastos/internal/core"
)

func TestInitRuntimeSeedsMemoryStore(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{DataBackend: "memory", SeedCategories: true, Timezone: "UTC", Currency: "EUR", ShutdownTimeout: time.Second}

	rt, err := InitRuntime(ctx, nil, cfg)
	if err != nil {
		t.Fatalf("init runtime: %v", err)
	}
	defer rt.Close()

	cats, err := rt.Ledger.ActiveCategories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(cats) != len(core.DefaultCategories()) {
		t.Fatalf("expected seeded categories, got %d", len(cats))
	}
	if rt.Ledger.Location() != time.UTC {
		t.Fatalf("ledger should use configured timezone")
	}
	if rt.Ledger.Currency() != "EUR" {
		t.Fatalf("ledger should use configured currency, got %s", rt.Ledger.Currency())
	}
}

func TestInitRuntimeWithoutSeed(t *testing.T) {
	ctx := context.Background()
	rt, err := InitRuntime(ctx, nil, &config.Config{DataBackend: "memory"})
	if err != nil {
		t.Fatalf("init runtime: %v", err)
	}
	defer rt.Close()
	if cats, _ := rt.Ledger.AllCategories(ctx); len(cats) != 0 {
		t.Fatalf("expected no categories, got %d", len(cats))
	}
}
