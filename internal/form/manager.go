package form

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/erazemk/premik/internal/draft"
	"github.com/erazemk/premik/internal/metrics"
)

// DraftKey returns the draft slot key for a console user.
func DraftKey(userID int64) string {
	return "transfer-draft:" + strconv.FormatInt(userID, 10)
}

// UserRecorder records submissions on behalf of one user.
type UserRecorder interface {
	RecordUserSubmission(ctx context.Context, userID int64, remoteID int64, idempotencyKey string, itemCount int, transferDate string) error
}

// Manager keeps one form session per console user.
type Manager struct {
	Slot       draft.Slot
	DraftDelay time.Duration
	Backend    Backend
	Recorder   UserRecorder

	mu       sync.Mutex
	sessions map[int64]*Session
}

type userRecorder struct {
	userID int64
	rec    UserRecorder
}

func (u userRecorder) RecordSubmission(ctx context.Context, remoteID int64, key string, itemCount int, transferDate string) error {
	return u.rec.RecordUserSubmission(ctx, u.userID, remoteID, key, itemCount, transferDate)
}

// Session returns the user's session, creating it and restoring the stored
// draft on first use. The draft is restored before the session becomes
// visible to other requests.
func (m *Manager) Session(ctx context.Context, userID int64, username string) *Session {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	m.mu.Unlock()
	if ok {
		return s
	}

	s = m.newSession(userID, username)
	s.Restore(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[userID]; ok {
		return existing
	}
	m.publishLocked(userID, s)
	return s
}

// Replace starts a fresh session for the user, prefilled from the backend
// when prefillID > 0 and restored from the stored draft otherwise. Any
// pending draft write of the old session is flushed first.
func (m *Manager) Replace(ctx context.Context, userID int64, username string, prefillID int64) (*Session, error) {
	m.mu.Lock()
	old := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if old != nil {
		old.Flush()
	}

	s := m.newSession(userID, username)
	if err := s.Start(ctx, prefillID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishLocked(userID, s)
	return s, nil
}

func (m *Manager) newSession(userID int64, username string) *Session {
	opts := Options{Requestor: username, Backend: m.Backend}
	if m.Slot != nil {
		opts.Drafts = draft.NewStore(m.Slot, DraftKey(userID), m.DraftDelay)
	}
	if m.Recorder != nil {
		opts.Recorder = userRecorder{userID: userID, rec: m.Recorder}
	}
	return NewSession(opts)
}

func (m *Manager) publishLocked(userID int64, s *Session) {
	if m.sessions == nil {
		m.sessions = make(map[int64]*Session)
	}
	m.sessions[userID] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
}

// Drop forgets the user's session after flushing its draft.
func (m *Manager) Drop(userID int64) {
	m.mu.Lock()
	s := m.sessions[userID]
	delete(m.sessions, userID)
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	if s != nil {
		s.Flush()
	}
}

// Close flushes every pending draft.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Flush()
	}
}
