package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/premik/internal/db"
)

func TestDraftSaveAndGet(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	got, err := GetDraft(ctx, database, "slot-1")
	if err != nil {
		t.Fatalf("GetDraft: %v", err)
	}
	if got != nil {
		t.Fatalf("expected empty slot, got %q", got)
	}

	if err := SaveDraft(ctx, database, "slot-1", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if err := SaveDraft(ctx, database, "slot-1", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("SaveDraft overwrite: %v", err)
	}

	got, _ = GetDraft(ctx, database, "slot-1")
	if string(got) != `{"a":2}` {
		t.Errorf("expected overwritten draft, got %q", got)
	}
}

func TestDeleteDraft(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	SaveDraft(ctx, database, "slot-1", []byte("x"))
	if err := DeleteDraft(ctx, database, "slot-1"); err != nil {
		t.Fatalf("DeleteDraft: %v", err)
	}
	if err := DeleteDraft(ctx, database, "slot-1"); err != nil {
		t.Fatalf("DeleteDraft on empty slot: %v", err)
	}

	got, _ := GetDraft(ctx, database, "slot-1")
	if got != nil {
		t.Errorf("expected deleted draft, got %q", got)
	}
}

func TestPurgeDrafts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	SaveDraft(ctx, database, "old", []byte("x"))
	SaveDraft(ctx, database, "new", []byte("y"))
	db.AgeDraft(t, database, "old", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))

	n, err := PurgeDrafts(ctx, database, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PurgeDrafts: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged draft, got %d", n)
	}
	if got, _ := GetDraft(ctx, database, "new"); got == nil {
		t.Error("expected recent draft to survive")
	}
}
