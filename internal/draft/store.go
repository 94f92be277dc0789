// Package draft persists unsubmitted transfer forms to a durable slot.
//
// Writes are debounced and deduplicated: a persist request whose serialized
// form equals what the slot will hold anyway is dropped. Storage failures are
// logged and never returned to the caller, so drafts are best-effort only.
package draft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/premik/internal/metrics"
	"github.com/erazemk/premik/internal/model"
)

// DefaultDelay is the debounce window for draft writes.
const DefaultDelay = 800 * time.Millisecond

// writeTimeout bounds a single slot operation.
const writeTimeout = 5 * time.Second

// ErrNoDraft is returned by a Slot when nothing is stored under the key.
var ErrNoDraft = errors.New("no draft stored")

// Slot is a durable key-value location for serialized drafts.
type Slot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Store debounces draft writes for a single slot key.
type Store struct {
	slot  Slot
	key   string
	sched *Scheduler

	mu      sync.Mutex
	last    []byte // what the slot holds, as far as we know
	pending []byte // scheduled but not yet written

	writeMu sync.Mutex
}

// NewStore creates a draft store writing to key in slot after delay.
func NewStore(slot Slot, key string, delay time.Duration) *Store {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Store{
		slot:  slot,
		key:   key,
		sched: NewScheduler(delay),
	}
}

// SchedulePersist serializes snap and schedules a debounced write.
// Returns false when the write was skipped because nothing changed.
func (s *Store) SchedulePersist(snap *model.DraftSnapshot) bool {
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Warn("failed to serialize draft", "key", s.key, "error", err)
		return false
	}

	s.mu.Lock()
	expected := s.last
	if s.pending != nil {
		expected = s.pending
	}
	if bytes.Equal(data, expected) {
		s.mu.Unlock()
		metrics.DraftSkippedTotal.Inc()
		return false
	}
	s.pending = data
	s.mu.Unlock()

	s.sched.Schedule(func() { s.write(data) })
	return true
}

// write saves data unless a newer persist superseded it.
func (s *Store) write(data []byte) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	current := bytes.Equal(s.pending, data)
	s.mu.Unlock()
	if !current {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	err := s.slot.Save(ctx, s.key, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if bytes.Equal(s.pending, data) {
		s.pending = nil
	}
	if err != nil {
		metrics.DraftWritesTotal.WithLabelValues("error").Inc()
		slog.Warn("failed to write draft", "key", s.key, "error", err)
		return
	}
	s.last = data
	metrics.DraftWritesTotal.WithLabelValues("ok").Inc()
}

// Flush writes any pending draft immediately.
func (s *Store) Flush() {
	s.sched.Flush()
}

// Pending reports whether a write is scheduled.
func (s *Store) Pending() bool {
	return s.sched.Pending()
}

// Restore reads the stored draft. The boolean is false when the slot is
// empty, unreadable, or holds data that does not parse.
func (s *Store) Restore(ctx context.Context) (*model.DraftSnapshot, bool) {
	data, err := s.slot.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNoDraft) {
			slog.Warn("failed to read draft", "key", s.key, "error", err)
		}
		return nil, false
	}

	var snap model.DraftSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.Warn("discarding unreadable draft", "key", s.key, "error", err)
		return nil, false
	}

	s.mu.Lock()
	if s.pending == nil {
		s.last = data
	}
	s.mu.Unlock()

	return &snap, true
}

// Clear cancels any pending write and removes the stored draft.
func (s *Store) Clear(ctx context.Context) {
	s.sched.Stop()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.pending = nil
	s.last = nil
	s.mu.Unlock()

	if err := s.slot.Delete(ctx, s.key); err != nil && !errors.Is(err, ErrNoDraft) {
		slog.Warn("failed to clear draft", "key", s.key, "error", err)
	}
}
