// Package form implements the transfer form engine: the ordered item
// registry, bulk propagation of edits, validation, payload building and the
// per-user form session that ties them to draft storage and the backend.
package form

import (
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/premik/internal/model"
)

// DateLayout is the format of transfer and effective dates.
const DateLayout = "2006-01-02"

var (
	ErrDuplicateItem    = errors.New("item already added")
	ErrInvalidCandidate = errors.New("invalid candidate")
	ErrItemNotFound     = errors.New("item not found")
	ErrInvalidField     = errors.New("invalid field")
	ErrInvalidReason    = errors.New("invalid reason")
	ErrInvalidDate      = errors.New("invalid date")
)

// Registry is the ordered collection of items in a transfer request.
// It is not safe for concurrent use; Session serializes access.
type Registry struct {
	items []*model.TransferItem
	bulk  bool
}

// NewRegistry creates an empty registry with bulk propagation enabled.
func NewRegistry() *Registry {
	return &Registry{bulk: true}
}

// NewItem normalizes a candidate into a transfer item. The candidate's kind
// decides which identity fields are required.
func NewItem(c model.Candidate, effectiveDate string) (*model.TransferItem, error) {
	if c.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidCandidate)
	}

	item := &model.TransferItem{
		ID:            c.ID,
		Kind:          c.Kind,
		Current:       c.Current,
		Checked:       make(map[model.Field]bool),
		EffectiveDate: effectiveDate,
		Reasons:       model.Reasons{Flags: make(map[model.Reason]bool)},
	}
	if c.Backend != nil {
		b := *c.Backend
		item.Backend = &b
	}

	switch c.Kind {
	case model.KindAsset:
		item.Display = c.RegisterNumber
		if item.Display == "" {
			item.Display = c.SerialNumber
		}
		if item.Display == "" {
			return nil, fmt.Errorf("%w: asset %s has no register or serial number", ErrInvalidCandidate, c.ID)
		}
		item.Name = c.Description
	case model.KindEmployee:
		if c.EmployeeName == "" || c.EmployeeNumber == "" {
			return nil, fmt.Errorf("%w: employee %s needs name and number", ErrInvalidCandidate, c.ID)
		}
		item.Display = c.EmployeeNumber
		item.Name = c.EmployeeName
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidCandidate, c.Kind)
	}

	return item, nil
}

// Add appends a candidate, seeding its effective date with defaultDate.
func (r *Registry) Add(c model.Candidate, defaultDate string) (*model.TransferItem, error) {
	if r.index(c.ID) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateItem, c.ID)
	}
	item, err := NewItem(c, defaultDate)
	if err != nil {
		return nil, err
	}
	r.items = append(r.items, item)
	return cloneItem(item), nil
}

// Remove deletes the item with the given id.
func (r *Registry) Remove(id string) error {
	i := r.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	return nil
}

// Get returns a copy of the item with the given id.
func (r *Registry) Get(id string) (model.TransferItem, bool) {
	i := r.index(id)
	if i < 0 {
		return model.TransferItem{}, false
	}
	return *cloneItem(r.items[i]), true
}

// First returns a copy of the first item.
func (r *Registry) First() (model.TransferItem, bool) {
	if len(r.items) == 0 {
		return model.TransferItem{}, false
	}
	return *cloneItem(r.items[0]), true
}

// Items returns copies of all items in order.
func (r *Registry) Items() []model.TransferItem {
	out := make([]model.TransferItem, len(r.items))
	for i, item := range r.items {
		out[i] = *cloneItem(item)
	}
	return out
}

// Len returns the number of items.
func (r *Registry) Len() int {
	return len(r.items)
}

// Dirty reports whether the registry holds anything worth guarding.
func (r *Registry) Dirty() bool {
	return len(r.items) > 0
}

// Reset removes all items.
func (r *Registry) Reset() {
	r.items = nil
}

// Load replaces the registry contents with items.
func (r *Registry) Load(items []model.TransferItem) {
	r.items = make([]*model.TransferItem, 0, len(items))
	for i := range items {
		item := cloneItem(&items[i])
		if item.Checked == nil {
			item.Checked = make(map[model.Field]bool)
		}
		if item.Reasons.Flags == nil {
			item.Reasons.Flags = make(map[model.Reason]bool)
		}
		r.items = append(r.items, item)
	}
}

func (r *Registry) index(id string) int {
	for i, item := range r.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) find(id string) (*model.TransferItem, error) {
	i := r.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return r.items[i], nil
}

func cloneItem(item *model.TransferItem) *model.TransferItem {
	out := *item
	out.Reasons = item.Reasons.Clone()
	if item.Checked != nil {
		out.Checked = make(map[model.Field]bool, len(item.Checked))
		for k, v := range item.Checked {
			out.Checked[k] = v
		}
	}
	if item.Attachment != nil {
		a := *item.Attachment
		out.Attachment = &a
	}
	if item.Backend != nil {
		b := *item.Backend
		out.Backend = &b
	}
	return &out
}

// ValidDate reports whether s is empty or a YYYY-MM-DD date.
func ValidDate(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
