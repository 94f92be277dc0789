package form

import (
	"fmt"

	"github.com/erazemk/premik/internal/model"
)

// ValidationCode identifies why a request cannot be submitted.
type ValidationCode string

// Validation codes, in the order items are checked.
const (
	CodeNoItems               ValidationCode = "no_items"
	CodeMissingEffectiveDate  ValidationCode = "missing_effective_date"
	CodeMissingTransferDetail ValidationCode = "missing_transfer_detail"
	CodeMissingReason         ValidationCode = "missing_reason"
	CodeAttachmentMissing     ValidationCode = "attachment_missing"
)

var validationMessages = map[ValidationCode]string{
	CodeNoItems:               "no items",
	CodeMissingEffectiveDate:  "missing effective date",
	CodeMissingTransferDetail: "missing transfer detail",
	CodeMissingReason:         "missing reason",
	CodeAttachmentMissing:     "attachment must be uploaded again",
}

// ValidationError is the first blocking problem found in a request.
type ValidationError struct {
	ItemID  string         `json:"item_id,omitempty"`
	Display string         `json:"display,omitempty"`
	Code    ValidationCode `json:"code"`
	Message string         `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Display == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Display, e.Message)
}

func newValidationError(item *model.TransferItem, code ValidationCode) *ValidationError {
	e := &ValidationError{Code: code, Message: validationMessages[code]}
	if item != nil {
		e.ItemID = item.ID
		e.Display = item.Display
	}
	return e
}

// Validate checks items in order and returns the first failure, or nil.
// Each item is checked for an effective date, then for a transfer detail
// (a changed "new" field or return to manager), then for a reason flag.
// An attachment restored from a draft keeps only its file name and fails
// until the file is uploaded again.
func Validate(items []model.TransferItem) error {
	if len(items) == 0 {
		return newValidationError(nil, CodeNoItems)
	}

	for i := range items {
		item := &items[i]
		if item.EffectiveDate == "" {
			return newValidationError(item, CodeMissingEffectiveDate)
		}
		if item.New.Empty() && !item.ReturnToManager {
			return newValidationError(item, CodeMissingTransferDetail)
		}
		if !item.Reasons.Any() {
			return newValidationError(item, CodeMissingReason)
		}
		if item.Attachment != nil && len(item.Attachment.Data) == 0 {
			return newValidationError(item, CodeAttachmentMissing)
		}
	}
	return nil
}
