package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/premik/internal/draft"
	"github.com/erazemk/premik/internal/metrics"
	"github.com/erazemk/premik/internal/model"
)

var (
	ErrSubmitting   = errors.New("submission in progress")
	ErrFrozen       = errors.New("request already submitted")
	ErrSubmitFailed = errors.New("submission failed")
	ErrNoBackend    = errors.New("no backend configured")
)

// submitFailedMessage is what users see after a failed submission.
const submitFailedMessage = "Submitting the transfer failed. Please try again."

// Backend is the remote asset API a session submits to.
type Backend interface {
	SubmitTransfer(ctx context.Context, p *model.TransferPayload, files []model.FilePart, idempotencyKey string) (int64, error)
	GetTransfer(ctx context.Context, id int64) (*model.RemoteTransfer, error)
}

// Recorder keeps a local log of successful submissions.
type Recorder interface {
	RecordSubmission(ctx context.Context, remoteID int64, idempotencyKey string, itemCount int, transferDate string) error
}

// Options configures a Session.
type Options struct {
	Requestor string
	Drafts    *draft.Store
	Backend   Backend
	Recorder  Recorder
	Now       func() time.Time
}

// State is a serializable view of a session.
type State struct {
	Request        model.TransferRequest `json:"request"`
	Bulk           bool                  `json:"bulk"`
	Dirty          bool                  `json:"dirty"`
	DraftRestored  bool                  `json:"draft_restored"`
	DraftPending   bool                  `json:"draft_pending"`
	Error          string                `json:"error,omitempty"`
	IdempotencyKey string                `json:"idempotency_key"`
}

// Session is one user's in-progress transfer request.
type Session struct {
	drafts   *draft.Store
	backend  Backend
	recorder Recorder
	now      func() time.Time

	mu             sync.Mutex
	req            model.TransferRequest
	registry       *Registry
	draftRestored  bool
	lastErr        string
	idempotencyKey string
}

// NewSession creates an empty draft request for requestor.
func NewSession(opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Session{
		drafts:   opts.Drafts,
		backend:  opts.Backend,
		recorder: opts.Recorder,
		now:      now,
		registry: NewRegistry(),
	}
	s.reset(opts.Requestor)
	return s
}

// reset puts the session back to an empty draft with defaults.
func (s *Session) reset(requestor string) {
	today := s.now()
	s.req = model.TransferRequest{
		Requestor:   requestor,
		RequestDate: today,
		Status:      model.StatusDraft,
		Header: model.Header{
			TransferDate: today.Format(DateLayout),
			TransferBy:   requestor,
		},
	}
	s.registry.Reset()
	s.registry.SetBulk(true)
	s.draftRestored = false
	s.lastErr = ""
	s.idempotencyKey = uuid.NewString()
}

// Start initializes the session: with prefillID > 0 it loads that request
// from the backend, otherwise it restores the stored draft if one exists.
func (s *Session) Start(ctx context.Context, prefillID int64) error {
	if prefillID > 0 {
		return s.Prefill(ctx, prefillID)
	}
	s.Restore(ctx)
	return nil
}

// Restore hydrates the session from its draft slot. Returns true when a
// draft was found. It does nothing once the request has a server id.
func (s *Session) Restore(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drafts == nil || s.req.ServerID != 0 || s.req.Status != model.StatusDraft {
		return false
	}
	snap, ok := s.drafts.Restore(ctx)
	if !ok {
		return false
	}

	s.req.Header = snap.Header
	s.req.Summary = snap.Summary
	s.req.Owner = snap.Owner
	s.registry.Load(snap.Items)
	s.draftRestored = true
	slog.Info("draft restored", "requestor", s.req.Requestor, "items", len(snap.Items))
	return true
}

// Prefill loads an existing request from the backend for editing. Drafts are
// not persisted for requests that already have a server id.
func (s *Session) Prefill(ctx context.Context, id int64) error {
	if s.backend == nil {
		return ErrNoBackend
	}
	rt, err := s.backend.GetTransfer(ctx, id)
	if err != nil {
		return fmt.Errorf("loading transfer %d: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.req.Status == model.StatusSubmitting {
		return ErrSubmitting
	}
	s.req.ServerID = rt.ID
	s.req.Status = model.StatusDraft
	s.req.Header = model.Header{
		TransferDate: rt.TransferDate,
		TransferBy:   rt.TransferBy,
		CostCenterID: rt.CostCenterID,
		DepartmentID: rt.DepartmentID,
	}
	s.req.Summary = model.Summary{Remarks: rt.Remarks}
	s.req.Owner = model.SelectedOwner{}
	s.registry.Load(itemsFromRemote(rt))
	s.draftRestored = false
	s.lastErr = ""
	return nil
}

// mutate runs fn under the session lock if the request is still editable,
// then schedules a draft write.
func (s *Session) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.req.Status {
	case model.StatusSubmitting:
		return ErrSubmitting
	case model.StatusSubmitted:
		return ErrFrozen
	}
	if err := fn(); err != nil {
		return err
	}
	s.persistLocked()
	return nil
}

// persistLocked schedules a draft write while the request has no server id.
func (s *Session) persistLocked() {
	if s.drafts == nil || s.req.ServerID != 0 || s.req.Status != model.StatusDraft {
		return
	}
	s.drafts.SchedulePersist(s.snapshotLocked())
}

// snapshotLocked builds the draft snapshot. Attachment contents are not
// persisted; only the file reference survives a restore.
func (s *Session) snapshotLocked() *model.DraftSnapshot {
	items := s.registry.Items()
	for i := range items {
		if items[i].Attachment != nil {
			items[i].Attachment.Data = nil
		}
	}
	return &model.DraftSnapshot{
		Header:  s.req.Header,
		Summary: s.req.Summary,
		Owner:   s.req.Owner,
		Items:   items,
	}
}

// SetHeader replaces the request header.
func (s *Session) SetHeader(h model.Header) error {
	if !ValidDate(h.TransferDate) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, h.TransferDate)
	}
	return s.mutate(func() error {
		s.req.Header = h
		return nil
	})
}

// SetSummary replaces the summary fields.
func (s *Session) SetSummary(sum model.Summary) error {
	return s.mutate(func() error {
		s.req.Summary = sum
		return nil
	})
}

// SetOwner selects the supervisor whose items are offered.
func (s *Session) SetOwner(o model.SelectedOwner) error {
	return s.mutate(func() error {
		s.req.Owner = o
		return nil
	})
}

// AddItem adds a candidate, defaulting its effective date to the transfer date.
func (s *Session) AddItem(c model.Candidate) (model.TransferItem, error) {
	var added *model.TransferItem
	err := s.mutate(func() error {
		item, err := s.registry.Add(c, s.req.Header.TransferDate)
		added = item
		return err
	})
	if err != nil {
		return model.TransferItem{}, err
	}
	return *added, nil
}

// RemoveItem removes an item.
func (s *Session) RemoveItem(id string) error {
	return s.mutate(func() error { return s.registry.Remove(id) })
}

// EditField edits a "new" field, propagating from the first item in bulk mode.
func (s *Session) EditField(id, section string, field model.Field, value string) error {
	return s.mutate(func() error { return s.registry.EditField(id, section, field, value) })
}

// EditOwner sets the new owner of an item, propagating like EditField.
func (s *Session) EditOwner(id, owner, ownerName string) error {
	return s.mutate(func() error { return s.registry.EditOwner(id, owner, ownerName) })
}

// ToggleReason sets a reason flag, propagating like EditField.
func (s *Session) ToggleReason(id string, reason model.Reason, checked bool) error {
	return s.mutate(func() error { return s.registry.ToggleReason(id, reason, checked) })
}

// SetReasonText sets the free-text reason fields of an item.
func (s *Session) SetReasonText(id, otherText, comment string) error {
	return s.mutate(func() error { return s.registry.SetReasonText(id, otherText, comment) })
}

// SetEffectiveDate sets an item's effective date.
func (s *Session) SetEffectiveDate(id, date string) error {
	return s.mutate(func() error { return s.registry.SetEffectiveDate(id, date) })
}

// SetReturnToManager sets an item's return-to-manager flag.
func (s *Session) SetReturnToManager(id string, on bool) error {
	return s.mutate(func() error { return s.registry.SetReturnToManager(id, on) })
}

// SetAttachment attaches a file to an item, or removes it when a is nil.
func (s *Session) SetAttachment(id string, a *model.Attachment) error {
	return s.mutate(func() error { return s.registry.SetAttachment(id, a) })
}

// ApplyToAll copies an item's details onto every other item.
func (s *Session) ApplyToAll(id string) error {
	return s.mutate(func() error { return s.registry.ApplyToAll(id) })
}

// SetBulk turns bulk propagation on or off.
func (s *Session) SetBulk(on bool) error {
	return s.mutate(func() error {
		s.registry.SetBulk(on)
		return nil
	})
}

// Validate runs the validation gate on the current items.
func (s *Session) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Validate(s.registry.Items())
}

// Submit validates the request and sends it to the backend. The session is
// unlocked during the network call; concurrent submits get ErrSubmitting.
// On failure the state is kept for retry with the same idempotency key.
func (s *Session) Submit(ctx context.Context) (int64, error) {
	s.mu.Lock()
	switch s.req.Status {
	case model.StatusSubmitting:
		s.mu.Unlock()
		return 0, ErrSubmitting
	case model.StatusSubmitted:
		s.mu.Unlock()
		return 0, ErrFrozen
	}
	if s.backend == nil {
		s.mu.Unlock()
		return 0, ErrNoBackend
	}

	items := s.registry.Items()
	if err := Validate(items); err != nil {
		s.mu.Unlock()
		var verr *ValidationError
		if errors.As(err, &verr) {
			metrics.ValidationFailuresTotal.WithLabelValues(string(verr.Code)).Inc()
		}
		return 0, err
	}

	payload := BuildPayload(s.req.Header, s.req.Summary, items)
	files := FileParts(items)
	key := s.idempotencyKey
	requestor := s.req.Requestor
	s.req.Status = model.StatusSubmitting
	s.lastErr = ""
	s.mu.Unlock()

	remoteID, err := s.backend.SubmitTransfer(ctx, payload, files, key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.req.Status = model.StatusDraft
		s.lastErr = submitFailedMessage
		metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		slog.Error("transfer submission failed", "requestor", requestor, "items", len(items), "error", err)
		return 0, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	s.req.Status = model.StatusSubmitted
	s.req.ServerID = remoteID
	if s.drafts != nil {
		s.drafts.Clear(ctx)
	}
	if s.recorder != nil {
		if err := s.recorder.RecordSubmission(ctx, remoteID, key, len(items), payload.TransferDate); err != nil {
			slog.Warn("failed to record submission", "remote_id", remoteID, "error", err)
		}
	}
	metrics.SubmissionsTotal.WithLabelValues("ok").Inc()
	slog.Info("transfer submitted", "requestor", requestor, "remote_id", remoteID, "items", len(items))
	return remoteID, nil
}

// Discard drops the draft and starts over with an empty request.
func (s *Session) Discard(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.req.Status == model.StatusSubmitting {
		return ErrSubmitting
	}
	if s.drafts != nil {
		s.drafts.Clear(ctx)
	}
	s.reset(s.req.Requestor)
	return nil
}

// Dirty reports whether leaving the form would lose work.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.req.Status != model.StatusSubmitted && s.registry.Dirty()
}

// Status returns the request status.
func (s *Session) Status() model.RequestStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.req.Status
}

// Items returns copies of the current items.
func (s *Session) Items() []model.TransferItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Items()
}

// State returns a snapshot of the session for display.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := s.req
	req.Items = s.registry.Items()
	for i := range req.Items {
		if req.Items[i].Attachment != nil {
			req.Items[i].Attachment.Data = nil
		}
	}
	st := State{
		Request:        req,
		Bulk:           s.registry.Bulk(),
		Dirty:          req.Status != model.StatusSubmitted && s.registry.Dirty(),
		DraftRestored:  s.draftRestored,
		Error:          s.lastErr,
		IdempotencyKey: s.idempotencyKey,
	}
	if s.drafts != nil {
		st.DraftPending = s.drafts.Pending()
	}
	return st
}

// Flush writes a pending draft immediately.
func (s *Session) Flush() {
	if s.drafts != nil {
		s.drafts.Flush()
	}
}
