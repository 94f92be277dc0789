package form

import (
	"strconv"
	"strings"

	"github.com/erazemk/premik/internal/model"
)

// BuildPayload converts validated form state into the backend request.
func BuildPayload(h model.Header, s model.Summary, items []model.TransferItem) *model.TransferPayload {
	p := &model.TransferPayload{
		TransferDate: h.TransferDate,
		TransferBy:   h.TransferBy,
		CostCenterID: h.CostCenterID,
		DepartmentID: h.DepartmentID,
		Status:       model.TransferStatusPending,
		Remarks:      s.Remarks,
		Details:      make([]model.PayloadDetail, 0, len(items)),
	}
	for i := range items {
		p.Details = append(p.Details, buildDetail(&items[i]))
	}
	return p
}

func buildDetail(item *model.TransferItem) model.PayloadDetail {
	var backend model.BackendCurrent
	if item.Backend != nil {
		backend = *item.Backend
	}

	d := model.PayloadDetail{
		ItemID:            item.ID,
		Kind:              string(item.Kind),
		Display:           item.Display,
		CurrentOwner:      first(item.Current.Owner, idString(backend.OwnerID)),
		CurrentCostCenter: first(item.Current.CostCenter, idString(backend.CostCenterID)),
		CurrentDepartment: first(item.Current.Department, idString(backend.DepartmentID)),
		CurrentLocation:   first(item.Current.Location, idString(backend.LocationID)),
		Reason:            ReasonText(item),
		EffectiveDate:     item.EffectiveDate,
		ReturnToManager:   item.ReturnToManager,
		Comment:           item.Reasons.Comment,
	}

	d.NewOwner = d.CurrentOwner
	d.NewCostCenter = d.CurrentCostCenter
	d.NewDepartment = d.CurrentDepartment
	d.NewLocation = d.CurrentLocation
	if !item.ReturnToManager {
		d.NewOwner = first(item.New.Owner, d.CurrentOwner)
		d.NewCostCenter = first(item.New.CostCenter, d.CurrentCostCenter)
		d.NewDepartment = first(item.New.Department, d.CurrentDepartment)
		d.NewLocation = first(item.New.Location, d.CurrentLocation)
	}
	return d
}

// ReasonText joins the selected reason labels of an item. A new owner adds
// an implicit ownership label in front.
func ReasonText(item *model.TransferItem) string {
	var labels []string
	if item.New.Owner != "" && !item.ReturnToManager {
		labels = append(labels, model.OwnershipLabel)
	}
	for _, r := range model.ReasonOrder {
		if !item.Reasons.Flags[r] {
			continue
		}
		label := model.ReasonLabels[r]
		if r == model.ReasonOther && item.Reasons.OtherText != "" {
			label += ": " + item.Reasons.OtherText
		}
		labels = append(labels, label)
	}
	return strings.Join(labels, ", ")
}

// FileParts returns one upload per item that carries an attachment.
func FileParts(items []model.TransferItem) []model.FilePart {
	var parts []model.FilePart
	for _, item := range items {
		if item.Attachment == nil || len(item.Attachment.Data) == 0 {
			continue
		}
		parts = append(parts, model.FilePart{
			ItemID:   item.ID,
			Filename: item.Attachment.Filename,
			MIME:     item.Attachment.MIME,
			Data:     item.Attachment.Data,
		})
	}
	return parts
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func idString(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// itemsFromRemote rebuilds form items from a transfer loaded from the backend.
func itemsFromRemote(rt *model.RemoteTransfer) []model.TransferItem {
	items := make([]model.TransferItem, 0, len(rt.Details))
	for _, d := range rt.Details {
		item := model.TransferItem{
			ID:      d.ItemID,
			Kind:    model.ItemKind(d.Kind),
			Display: d.Display,
			Current: model.Attributes{
				Owner:      d.CurrentOwner,
				CostCenter: d.CurrentCostCenter,
				Department: d.CurrentDepartment,
				Location:   d.CurrentLocation,
			},
			Checked:         make(map[model.Field]bool),
			EffectiveDate:   d.EffectiveDate,
			Reasons:         model.Reasons{Flags: make(map[model.Reason]bool), Comment: d.Comment},
			ReturnToManager: d.ReturnToManager,
		}
		if !d.ReturnToManager {
			diff := map[model.Field][2]string{
				model.FieldOwner:      {d.NewOwner, d.CurrentOwner},
				model.FieldCostCenter: {d.NewCostCenter, d.CurrentCostCenter},
				model.FieldDepartment: {d.NewDepartment, d.CurrentDepartment},
				model.FieldLocation:   {d.NewLocation, d.CurrentLocation},
			}
			for f, v := range diff {
				if v[0] != "" && v[0] != v[1] {
					setNew(&item, f, v[0])
				}
			}
		}
		parseReasonText(&item, d.Reason)
		items = append(items, item)
	}
	return items
}

// parseReasonText sets reason flags from a joined label string. The "Other"
// label comes last and its free text runs to the end of the string, so it
// may itself contain commas.
func parseReasonText(item *model.TransferItem, text string) {
	otherLabel := model.ReasonLabels[model.ReasonOther]
	if i := strings.Index(text, otherLabel+": "); i >= 0 && (i == 0 || strings.HasSuffix(text[:i], ", ")) {
		item.Reasons.Flags[model.ReasonOther] = true
		item.Reasons.OtherText = text[i+len(otherLabel)+2:]
		text = strings.TrimSuffix(text[:i], ", ")
	}

	for _, part := range strings.Split(text, ", ") {
		part = strings.TrimSpace(part)
		for r, label := range model.ReasonLabels {
			if part == label {
				item.Reasons.Flags[r] = true
			}
		}
	}
}
