package store

import (
	"context"
	"testing"

	"github.com/erazemk/premik/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestSettingRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	got, err := GetSetting(ctx, database, "backend_url")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty setting, got %q", got)
	}

	SetSetting(ctx, database, "backend_url", "http://a")
	SetSetting(ctx, database, "backend_url", "http://b")

	got, _ = GetSetting(ctx, database, "backend_url")
	if got != "http://b" {
		t.Errorf("expected 'http://b', got %q", got)
	}
}
