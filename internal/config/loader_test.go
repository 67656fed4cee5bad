package config

import (
	"os"
	"strings"
	"testing"
)

func clearVenueEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VENUE_HTTP_PORT",
		"VENUE_SQLITE_DSN",
		"VENUE_OVERRIDE_TOKEN",
		"VENUE_OVERRIDE_TOKEN_HASH",
		"VENUE_LOCK_WINDOW_DAYS",
	} {
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearVenueEnv(t)
		t.Setenv("VENUE_OVERRIDE_TOKEN", "venue-master-key")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:venueops.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.LockWindowDays != 10 {
			t.Fatalf("expected default lock window of 10 days, got %d", cfg.LockWindowDays)
		}
		if cfg.OverrideToken != "venue-master-key" {
			t.Fatalf("unexpected override token: %q", cfg.OverrideToken)
		}
	})

	t.Run("errors when no override secret is configured", func(t *testing.T) {
		clearVenueEnv(t)

		_, err := Load()
		if err == nil {
			t.Fatal("expected error when the override secret is missing")
		}
		if !strings.Contains(err.Error(), "VENUE_OVERRIDE_TOKEN") {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("rejects supplying both token and hash", func(t *testing.T) {
		clearVenueEnv(t)
		t.Setenv("VENUE_OVERRIDE_TOKEN", "plain")
		t.Setenv("VENUE_OVERRIDE_TOKEN_HASH", "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error when both secret forms are set")
		}
	})

	t.Run("rejects a malformed hash", func(t *testing.T) {
		clearVenueEnv(t)
		t.Setenv("VENUE_OVERRIDE_TOKEN_HASH", "plainly-not-a-hash")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for a malformed hash")
		}
	})

	t.Run("parses numeric fields", func(t *testing.T) {
		clearVenueEnv(t)
		t.Setenv("VENUE_OVERRIDE_TOKEN", "venue-master-key")
		t.Setenv("VENUE_HTTP_PORT", "9090")
		t.Setenv("VENUE_SQLITE_DSN", "file:/tmp/venueops.db")
		t.Setenv("VENUE_LOCK_WINDOW_DAYS", "14")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/venueops.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.LockWindowDays != 14 {
			t.Fatalf("expected lock window of 14 days, got %d", cfg.LockWindowDays)
		}
	})

	t.Run("rejects a non-positive lock window", func(t *testing.T) {
		clearVenueEnv(t)
		t.Setenv("VENUE_OVERRIDE_TOKEN", "venue-master-key")
		t.Setenv("VENUE_LOCK_WINDOW_DAYS", "0")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for a zero lock window")
		}
	})
}
