package draft

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erazemk/premik/internal/db"
)

func testSlot(t *testing.T, slot Slot) {
	t.Helper()
	ctx := context.Background()

	if _, err := slot.Load(ctx, "missing"); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}
	if err := slot.Save(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := slot.Save(ctx, "k", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	data, err := slot.Load(ctx, "k")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != `{"a":2}` {
		t.Errorf("expected latest data, got %s", data)
	}
	if err := slot.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := slot.Load(ctx, "k"); !errors.Is(err, ErrNoDraft) {
		t.Errorf("expected ErrNoDraft after delete, got %v", err)
	}
	if err := slot.Delete(ctx, "k"); err != nil {
		t.Errorf("expected deleting a missing draft to succeed, got %v", err)
	}
}

func TestMemorySlot(t *testing.T) {
	testSlot(t, NewMemorySlot())
}

func TestSQLiteSlot(t *testing.T) {
	testSlot(t, &SQLiteSlot{DB: db.NewTestDB(t)})
}

func TestRedisSlot(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	prefix := "premik-test:" + time.Now().Format("150405.000000") + ":"
	testSlot(t, &RedisSlot{Client: client, Prefix: prefix, TTL: time.Minute})
}
