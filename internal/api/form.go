package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/premik/internal/attachment"
	"github.com/erazemk/premik/internal/form"
	"github.com/erazemk/premik/internal/model"
)

// FormHandler exposes the caller's transfer form session.
type FormHandler struct {
	Sessions *form.Manager
}

type startRequest struct {
	PrefillID int64 `json:"prefill_id"`
}

type headerRequest struct {
	Header  *model.Header        `json:"header"`
	Summary *model.Summary       `json:"summary"`
	Owner   *model.SelectedOwner `json:"selected_owner"`
}

type itemRequest struct {
	EffectiveDate   *string `json:"effective_date"`
	ReturnToManager *bool   `json:"return_to_manager"`
	OtherText       *string `json:"other_text"`
	Comment         *string `json:"comment"`
}

type fieldRequest struct {
	Section   string      `json:"section"`
	Field     model.Field `json:"field"`
	Value     string      `json:"value"`
	OwnerName *string     `json:"owner_name"`
}

type reasonRequest struct {
	Reason  model.Reason `json:"reason"`
	Checked bool         `json:"checked"`
}

type bulkRequest struct {
	Enabled bool `json:"enabled"`
}

type submitResponse struct {
	ID    int64      `json:"id"`
	State form.State `json:"state"`
}

// session returns the caller's form session.
func (h *FormHandler) session(r *http.Request) (*form.Session, bool) {
	claims := GetClaims(r.Context())
	if claims == nil {
		return nil, false
	}
	return h.Sessions.Session(r.Context(), claims.UserID, claims.Username), true
}

// withSession runs fn on the caller's session and answers with its state.
func (h *FormHandler) withSession(w http.ResponseWriter, r *http.Request, fn func(s *form.Session) error) {
	s, ok := h.session(r)
	if !ok {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := fn(s); err != nil {
		formError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, s.State())
}

// formError maps session errors to HTTP responses.
func formError(w http.ResponseWriter, err error) {
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonResponse(w, http.StatusUnprocessableEntity, verr)
	case errors.Is(err, form.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, form.ErrDuplicateItem),
		errors.Is(err, form.ErrSubmitting),
		errors.Is(err, form.ErrFrozen):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, form.ErrInvalidCandidate),
		errors.Is(err, form.ErrInvalidField),
		errors.Is(err, form.ErrInvalidReason),
		errors.Is(err, form.ErrInvalidDate),
		errors.Is(err, attachment.ErrEmpty),
		errors.Is(err, attachment.ErrUnsupported):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, attachment.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, form.ErrSubmitFailed):
		jsonError(w, http.StatusBadGateway, "Submitting the transfer failed. Please try again.")
	case errors.Is(err, form.ErrNoBackend):
		jsonError(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("form operation failed", "error", err)
		jsonError(w, http.StatusBadGateway, "backend request failed")
	}
}

// Get handles GET /api/transfer/form.
func (h *FormHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(*form.Session) error { return nil })
}

// Start handles POST /api/transfer/form. It replaces the caller's session
// with a fresh one, prefilled from the backend when prefill_id is set.
func (h *FormHandler) Start(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req startRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	s, err := h.Sessions.Replace(r.Context(), claims.UserID, claims.Username, req.PrefillID)
	if err != nil {
		formError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, s.State())
}

// Discard handles DELETE /api/transfer/form.
func (h *FormHandler) Discard(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *form.Session) error {
		return s.Discard(r.Context())
	})
}

// UpdateHeader handles PUT /api/transfer/form/header.
func (h *FormHandler) UpdateHeader(w http.ResponseWriter, r *http.Request) {
	var req headerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.withSession(w, r, func(s *form.Session) error {
		if req.Header != nil {
			if err := s.SetHeader(*req.Header); err != nil {
				return err
			}
		}
		if req.Summary != nil {
			if err := s.SetSummary(*req.Summary); err != nil {
				return err
			}
		}
		if req.Owner != nil {
			return s.SetOwner(*req.Owner)
		}
		return nil
	})
}

// AddItem handles POST /api/transfer/form/items.
func (h *FormHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var c model.Candidate
	if err := decodeJSON(r, &c); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, ok := h.session(r)
	if !ok {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	item, err := s.AddItem(c)
	if err != nil {
		formError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// RemoveItem handles DELETE /api/transfer/form/items/{id}.
func (h *FormHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.withSession(w, r, func(s *form.Session) error {
		return s.RemoveItem(id)
	})
}

// UpdateItem handles PUT /api/transfer/form/items/{id}: per-item fields that
// never propagate.
func (h *FormHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.withSession(w, r, func(s *form.Session) error {
		if req.EffectiveDate != nil {
			if err := s.SetEffectiveDate(id, *req.EffectiveDate); err != nil {
				return err
			}
		}
		if req.ReturnToManager != nil {
			if err := s.SetReturnToManager(id, *req.ReturnToManager); err != nil {
				return err
			}
		}
		if req.OtherText != nil || req.Comment != nil {
			current, err := itemByID(s, id)
			if err != nil {
				return err
			}
			other, comment := current.Reasons.OtherText, current.Reasons.Comment
			if req.OtherText != nil {
				other = *req.OtherText
			}
			if req.Comment != nil {
				comment = *req.Comment
			}
			return s.SetReasonText(id, other, comment)
		}
		return nil
	})
}

func itemByID(s *form.Session, id string) (model.TransferItem, error) {
	for _, item := range s.Items() {
		if item.ID == id {
			return item, nil
		}
	}
	return model.TransferItem{}, form.ErrItemNotFound
}

// EditField handles PUT /api/transfer/form/items/{id}/fields.
func (h *FormHandler) EditField(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req fieldRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Section == "" {
		req.Section = model.SectionNew
	}
	h.withSession(w, r, func(s *form.Session) error {
		if req.Field == model.FieldOwner && req.OwnerName != nil && req.Section == model.SectionNew {
			return s.EditOwner(id, req.Value, *req.OwnerName)
		}
		return s.EditField(id, req.Section, req.Field, req.Value)
	})
}

// ToggleReason handles PUT /api/transfer/form/items/{id}/reasons.
func (h *FormHandler) ToggleReason(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req reasonRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.withSession(w, r, func(s *form.Session) error {
		return s.ToggleReason(id, req.Reason, req.Checked)
	})
}

// ApplyToAll handles POST /api/transfer/form/items/{id}/apply.
func (h *FormHandler) ApplyToAll(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.withSession(w, r, func(s *form.Session) error {
		return s.ApplyToAll(id)
	})
}

// SetAttachment handles PUT /api/transfer/form/items/{id}/attachment.
func (h *FormHandler) SetAttachment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, attachment.MaxSize+(1<<20))
	if err := r.ParseMultipartForm(attachment.MaxSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	a, err := attachment.Process(header.Filename, file)
	if err != nil {
		formError(w, err)
		return
	}
	h.withSession(w, r, func(s *form.Session) error {
		return s.SetAttachment(id, a)
	})
}

// RemoveAttachment handles DELETE /api/transfer/form/items/{id}/attachment.
func (h *FormHandler) RemoveAttachment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.withSession(w, r, func(s *form.Session) error {
		return s.SetAttachment(id, nil)
	})
}

// SetBulk handles POST /api/transfer/form/bulk.
func (h *FormHandler) SetBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.withSession(w, r, func(s *form.Session) error {
		return s.SetBulk(req.Enabled)
	})
}

// Validate handles POST /api/transfer/form/validate.
func (h *FormHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *form.Session) error {
		return s.Validate()
	})
}

// Submit handles POST /api/transfer/form/submit.
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(r)
	if !ok {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := s.Submit(r.Context())
	if err != nil {
		formError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, submitResponse{ID: id, State: s.State()})
}
