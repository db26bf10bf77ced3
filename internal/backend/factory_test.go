package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"gastos/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil || !strings.Contains(err.Error(), "valid: sqlite, memory") {
		t.Fatalf("expected unknown backend error listing the valid types, got %v", err)
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"})
	if err != nil || cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" {
		t.Fatalf("unexpected config %+v err=%v", cfg, err)
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "b.db")}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(ctx, tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("create backend: %v", err)
			}
			defer res.Cleanup()
			if _, err := res.Store.CountCategories(ctx); err != nil {
				t.Fatalf("store not usable: %v", err)
			}
			if tt.config.Type == SQLiteBackend && res.Ping == nil {
				t.Fatalf("sqlite backend should expose a ping")
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 2 || got[0] != "sqlite" || got[1] != "memory" {
		t.Fatalf("unexpected types %v", got)
	}
}
