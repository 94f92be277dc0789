package form

import (
	"fmt"

	"github.com/erazemk/premik/internal/model"
)

// SetBulk turns bulk propagation from the first item on or off.
func (r *Registry) SetBulk(on bool) {
	r.bulk = on
}

// Bulk reports whether bulk propagation is on.
func (r *Registry) Bulk() bool {
	return r.bulk
}

// targets returns the items an edit on id applies to: just that item, or
// every item when bulk mode is on and id is the first one.
func (r *Registry) targets(id string) ([]*model.TransferItem, error) {
	item, err := r.find(id)
	if err != nil {
		return nil, err
	}
	if r.bulk && r.items[0].ID == id {
		return r.items, nil
	}
	return []*model.TransferItem{item}, nil
}

// EditField sets section.field on an item. Only the "new" section is
// editable; current values mirror the source system.
func (r *Registry) EditField(id, section string, field model.Field, value string) error {
	if section != model.SectionNew {
		return fmt.Errorf("%w: section %q is read-only", ErrInvalidField, section)
	}
	if !model.ValidField(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	targets, err := r.targets(id)
	if err != nil {
		return err
	}
	for _, item := range targets {
		setNew(item, field, value)
		if field == model.FieldOwner {
			item.New.OwnerName = ""
		}
	}
	return nil
}

// EditOwner sets the new owner together with its display name.
func (r *Registry) EditOwner(id, owner, ownerName string) error {
	targets, err := r.targets(id)
	if err != nil {
		return err
	}
	for _, item := range targets {
		setNew(item, model.FieldOwner, owner)
		item.New.OwnerName = ownerName
		if owner == "" {
			item.New.OwnerName = ""
		}
	}
	return nil
}

func setNew(item *model.TransferItem, field model.Field, value string) {
	item.New.Set(field, value)
	if item.Checked == nil {
		item.Checked = make(map[model.Field]bool)
	}
	item.Checked[field] = value != ""
}

// ToggleReason sets a reason flag, mirroring it like EditField does.
func (r *Registry) ToggleReason(id string, reason model.Reason, checked bool) error {
	if _, ok := model.ReasonLabels[reason]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidReason, reason)
	}

	targets, err := r.targets(id)
	if err != nil {
		return err
	}
	for _, item := range targets {
		if item.Reasons.Flags == nil {
			item.Reasons.Flags = make(map[model.Reason]bool)
		}
		if checked {
			item.Reasons.Flags[reason] = true
		} else {
			delete(item.Reasons.Flags, reason)
		}
	}
	return nil
}

// SetReasonText sets the free-text reason fields of a single item.
func (r *Registry) SetReasonText(id, otherText, comment string) error {
	item, err := r.find(id)
	if err != nil {
		return err
	}
	item.Reasons.OtherText = otherText
	item.Reasons.Comment = comment
	return nil
}

// SetEffectiveDate sets the effective date of a single item.
func (r *Registry) SetEffectiveDate(id, date string) error {
	if !ValidDate(date) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	item, err := r.find(id)
	if err != nil {
		return err
	}
	item.EffectiveDate = date
	return nil
}

// SetReturnToManager flags an item as surrendered to the asset manager.
func (r *Registry) SetReturnToManager(id string, on bool) error {
	item, err := r.find(id)
	if err != nil {
		return err
	}
	item.ReturnToManager = on
	return nil
}

// SetAttachment replaces the attachment of a single item. A nil attachment
// removes it.
func (r *Registry) SetAttachment(id string, a *model.Attachment) error {
	item, err := r.find(id)
	if err != nil {
		return err
	}
	item.Attachment = a
	return nil
}

// ApplyToAll copies the editable details of one item onto every other item,
// regardless of bulk mode. Attachments stay per item.
func (r *Registry) ApplyToAll(id string) error {
	src, err := r.find(id)
	if err != nil {
		return err
	}
	for _, item := range r.items {
		if item == src {
			continue
		}
		item.New = src.New
		item.Checked = make(map[model.Field]bool, len(src.Checked))
		for k, v := range src.Checked {
			item.Checked[k] = v
		}
		item.Reasons = src.Reasons.Clone()
		item.EffectiveDate = src.EffectiveDate
		item.ReturnToManager = src.ReturnToManager
	}
	return nil
}
