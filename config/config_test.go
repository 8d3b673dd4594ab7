package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SearchDebounce != 300*time.Millisecond {
		t.Fatalf("SearchDebounce = %v", cfg.SearchDebounce)
	}
	if cfg.TopPicksSize != 5 || cfg.TopPicksPageSize != 100 {
		t.Fatalf("top picks defaults = %d/%d", cfg.TopPicksSize, cfg.TopPicksPageSize)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SEARCH_DEBOUNCE", "150ms")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr() != ":9090" || cfg.StoreDriver != "memory" || cfg.SearchDebounce != 150*time.Millisecond {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	loc, _ := cfg.Location()
	if loc != time.UTC {
		t.Fatalf("Location = %v", loc)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SEARCH_LIMIT", "50")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"STORE_DRIVER", "SEARCH_LIMIT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestAddr(t *testing.T) {
	if got := (Config{Port: "8080"}).Addr(); got != ":8080" {
		t.Fatalf("Addr = %q", got)
	}
}
