package draft

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/premik/internal/model"
)

func snapshot(remarks string) *model.DraftSnapshot {
	return &model.DraftSnapshot{
		Header:  model.Header{TransferDate: "2026-10-16", TransferBy: "ana"},
		Summary: model.Summary{Remarks: remarks},
		Items: []model.TransferItem{{
			ID:            "A1",
			Kind:          model.KindAsset,
			Display:       "V-001",
			EffectiveDate: "2026-10-16",
			Reasons:       model.Reasons{Flags: map[model.Reason]bool{model.ReasonRelocation: true}},
		}},
	}
}

type failingSlot struct {
	*MemorySlot
	err error
}

func (f *failingSlot) Save(ctx context.Context, key string, data []byte) error {
	return f.err
}

func (f *failingSlot) Load(ctx context.Context, key string) ([]byte, error) {
	return nil, f.err
}

func TestStoreSkipsIdenticalSnapshot(t *testing.T) {
	slot := NewMemorySlot()
	s := NewStore(slot, "k", time.Hour)

	if !s.SchedulePersist(snapshot("x")) {
		t.Fatal("expected first persist to be scheduled")
	}
	if s.SchedulePersist(snapshot("x")) {
		t.Error("expected identical pending snapshot to be skipped")
	}
	s.Flush()

	if s.SchedulePersist(snapshot("x")) {
		t.Error("expected snapshot equal to stored draft to be skipped")
	}
	s.Flush()

	if got := slot.Writes(); got != 1 {
		t.Errorf("expected 1 write, got %d", got)
	}
}

func TestStoreDebouncesToLatest(t *testing.T) {
	slot := NewMemorySlot()
	s := NewStore(slot, "k", time.Hour)

	s.SchedulePersist(snapshot("a"))
	s.SchedulePersist(snapshot("b"))
	s.SchedulePersist(snapshot("c"))
	if !s.Pending() {
		t.Fatal("expected a pending write")
	}
	s.Flush()

	if got := slot.Writes(); got != 1 {
		t.Errorf("expected 1 write, got %d", got)
	}
	snap, ok := s.Restore(context.Background())
	if !ok {
		t.Fatal("expected stored draft")
	}
	if snap.Summary.Remarks != "c" {
		t.Errorf("expected latest snapshot, got %q", snap.Summary.Remarks)
	}
}

func TestStoreWritesAfterDelay(t *testing.T) {
	slot := NewMemorySlot()
	s := NewStore(slot, "k", 10*time.Millisecond)
	s.SchedulePersist(snapshot("x"))

	deadline := time.Now().Add(2 * time.Second)
	for slot.Writes() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("draft never written")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if s.Pending() {
		t.Error("expected nothing pending after write")
	}
}

func TestStoreRestoreSetsBaseline(t *testing.T) {
	slot := NewMemorySlot()
	writer := NewStore(slot, "k", time.Hour)
	writer.SchedulePersist(snapshot("x"))
	writer.Flush()

	reader := NewStore(slot, "k", time.Hour)
	if _, ok := reader.Restore(context.Background()); !ok {
		t.Fatal("expected stored draft")
	}
	if reader.SchedulePersist(snapshot("x")) {
		t.Error("expected restored snapshot not to be written back")
	}
}

func TestStoreRestoreEmpty(t *testing.T) {
	s := NewStore(NewMemorySlot(), "k", time.Hour)
	if snap, ok := s.Restore(context.Background()); ok || snap != nil {
		t.Errorf("expected no draft, got %+v", snap)
	}
}

func TestStoreRestoreUnparseable(t *testing.T) {
	slot := NewMemorySlot()
	slot.Save(context.Background(), "k", []byte("{not json"))

	s := NewStore(slot, "k", time.Hour)
	if _, ok := s.Restore(context.Background()); ok {
		t.Error("expected unparseable draft to be treated as absent")
	}
}

func TestStoreClear(t *testing.T) {
	slot := NewMemorySlot()
	s := NewStore(slot, "k", time.Hour)
	s.SchedulePersist(snapshot("a"))
	s.Flush()
	s.SchedulePersist(snapshot("b"))

	s.Clear(context.Background())

	if s.Pending() {
		t.Error("expected pending write cancelled")
	}
	if _, err := slot.Load(context.Background(), "k"); !errors.Is(err, ErrNoDraft) {
		t.Errorf("expected slot emptied, got %v", err)
	}
	if !s.SchedulePersist(snapshot("a")) {
		t.Error("expected persist after clear to be scheduled again")
	}
	s.Clear(context.Background())
}

func TestStoreSwallowsSlotErrors(t *testing.T) {
	slot := &failingSlot{MemorySlot: NewMemorySlot(), err: errors.New("quota exceeded")}
	s := NewStore(slot, "k", time.Hour)

	s.SchedulePersist(snapshot("a"))
	s.Flush()

	if _, ok := s.Restore(context.Background()); ok {
		t.Error("expected restore to fail quietly")
	}
	if !s.SchedulePersist(snapshot("a")) {
		t.Error("expected failed write to be retried on next persist")
	}
	s.Clear(context.Background())
}
