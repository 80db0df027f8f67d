package shared_test

import (
	"testing"
	"time"

	"hotel_concierge/internal/shared"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := shared.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPAddr != ":8080" || c.CatalogDriver != shared.DriverFile || c.LedgerDriver != shared.DriverFile {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.CacheTTL() != 900*time.Second {
		t.Fatalf("cache ttl %v", c.CacheTTL())
	}
	if c.NeedsMySQL() {
		t.Fatalf("file drivers should not need mysql")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LEDGER_DRIVER", " MySQL ")
	t.Setenv("BOOKING_RPS", "0.5")
	t.Setenv("IMPORT_WORKERS", "0")
	t.Setenv("CACHE_TTL_SECONDS", "30")

	c, err := shared.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.LedgerDriver != shared.DriverMySQL || !c.NeedsMySQL() {
		t.Fatalf("ledger driver %q", c.LedgerDriver)
	}
	if c.BookingRPS != 0.5 || c.ImportWorkers != 1 || c.CacheTTL() != 30*time.Second {
		t.Fatalf("unexpected: %+v", c)
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("CATALOG_DRIVER", "mongo")
	if _, err := shared.Load(); err == nil {
		t.Fatalf("expected error for unknown catalog driver")
	}

	t.Setenv("CATALOG_DRIVER", "file")
	t.Setenv("REDIS_DB", "two")
	if _, err := shared.Load(); err == nil {
		t.Fatalf("expected parse error for REDIS_DB")
	}
}
