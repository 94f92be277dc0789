package model

import "time"

// ItemKind discriminates what a transfer item moves.
type ItemKind string

// Item kinds.
const (
	KindAsset    ItemKind = "asset"
	KindEmployee ItemKind = "employee"
)

// Valid reports whether k is a known kind.
func (k ItemKind) Valid() bool {
	return k == KindAsset || k == KindEmployee
}

// Field names an editable attribute of the "new" section.
type Field string

// Attribute fields.
const (
	FieldOwner      Field = "owner"
	FieldCostCenter Field = "cost_center"
	FieldDepartment Field = "department"
	FieldLocation   Field = "location"
)

// Fields lists the attribute fields in display order.
var Fields = []Field{FieldOwner, FieldCostCenter, FieldDepartment, FieldLocation}

// Sections of a transfer item that hold attributes.
const (
	SectionCurrent = "current"
	SectionNew     = "new"
)

// Attributes holds the ownership attributes of an item.
type Attributes struct {
	Owner      string `json:"owner,omitempty"`
	OwnerName  string `json:"owner_name,omitempty"`
	CostCenter string `json:"cost_center,omitempty"`
	Department string `json:"department,omitempty"`
	Location   string `json:"location,omitempty"`
}

// Get returns the value of field f.
func (a Attributes) Get(f Field) string {
	switch f {
	case FieldOwner:
		return a.Owner
	case FieldCostCenter:
		return a.CostCenter
	case FieldDepartment:
		return a.Department
	case FieldLocation:
		return a.Location
	}
	return ""
}

// Set assigns value to field f. Unknown fields are ignored.
func (a *Attributes) Set(f Field, value string) {
	switch f {
	case FieldOwner:
		a.Owner = value
	case FieldCostCenter:
		a.CostCenter = value
	case FieldDepartment:
		a.Department = value
	case FieldLocation:
		a.Location = value
	}
}

// Empty reports whether no attribute field is set.
func (a Attributes) Empty() bool {
	for _, f := range Fields {
		if a.Get(f) != "" {
			return false
		}
	}
	return true
}

// ValidField reports whether f names an attribute field.
func ValidField(f Field) bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// Reason is a transfer reason flag.
type Reason string

// Transfer reasons.
const (
	ReasonResignation    Reason = "resignation"
	ReasonReorganization Reason = "reorganization"
	ReasonRelocation     Reason = "relocation"
	ReasonReplacement    Reason = "replacement"
	ReasonProjectEnd     Reason = "project_end"
	ReasonOther          Reason = "other"
)

// ReasonOrder lists reasons in the order their labels are joined.
var ReasonOrder = []Reason{
	ReasonResignation,
	ReasonReorganization,
	ReasonRelocation,
	ReasonReplacement,
	ReasonProjectEnd,
	ReasonOther,
}

// ReasonLabels maps reasons to human-readable labels.
var ReasonLabels = map[Reason]string{
	ReasonResignation:    "Resignation",
	ReasonReorganization: "Reorganization",
	ReasonRelocation:     "Relocation",
	ReasonReplacement:    "Replacement",
	ReasonProjectEnd:     "Project end",
	ReasonOther:          "Other",
}

// OwnershipLabel is prepended to the reason text when a new owner is set.
const OwnershipLabel = "Transfer ownership"

// Reasons holds the reason flags of an item plus its free-text fields.
type Reasons struct {
	Flags     map[Reason]bool `json:"flags,omitempty"`
	OtherText string          `json:"other_text,omitempty"`
	Comment   string          `json:"comment,omitempty"`
}

// Any reports whether at least one reason flag is set. Free text does not count.
func (r Reasons) Any() bool {
	for _, v := range r.Flags {
		if v {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (r Reasons) Clone() Reasons {
	out := Reasons{OtherText: r.OtherText, Comment: r.Comment}
	if r.Flags != nil {
		out.Flags = make(map[Reason]bool, len(r.Flags))
		for k, v := range r.Flags {
			out.Flags[k] = v
		}
	}
	return out
}

// Attachment references a file attached to one item.
type Attachment struct {
	Filename string `json:"filename"`
	MIME     string `json:"mime"`
	Size     int    `json:"size"`
	Data     []byte `json:"data,omitempty"`
}

// TransferItem is one asset or employee being moved in a request.
type TransferItem struct {
	ID              string          `json:"id"`
	Kind            ItemKind        `json:"kind"`
	Display         string          `json:"display"`
	Name            string          `json:"name,omitempty"`
	Current         Attributes      `json:"current"`
	New             Attributes      `json:"new"`
	Checked         map[Field]bool  `json:"checked,omitempty"`
	EffectiveDate   string          `json:"effective_date,omitempty"`
	Reasons         Reasons         `json:"reasons"`
	Attachment      *Attachment     `json:"attachment,omitempty"`
	ReturnToManager bool            `json:"return_to_manager"`
	Backend         *BackendCurrent `json:"backend,omitempty"`
}

// BackendCurrent holds current values as reported by the asset backend.
type BackendCurrent struct {
	OwnerID      int64 `json:"owner_id,omitempty"`
	CostCenterID int64 `json:"costcenter_id,omitempty"`
	DepartmentID int64 `json:"department_id,omitempty"`
	LocationID   int64 `json:"location_id,omitempty"`
}

// Candidate is an item offered by the selection sidebar. Kind must be set
// explicitly by the caller.
type Candidate struct {
	ID             string          `json:"id"`
	Kind           ItemKind        `json:"kind"`
	RegisterNumber string          `json:"register_number,omitempty"`
	SerialNumber   string          `json:"serial_number,omitempty"`
	EmployeeName   string          `json:"employee_name,omitempty"`
	EmployeeNumber string          `json:"employee_number,omitempty"`
	Description    string          `json:"description,omitempty"`
	Current        Attributes      `json:"current"`
	Backend        *BackendCurrent `json:"backend,omitempty"`
}

// RequestStatus is the lifecycle state of a transfer request.
type RequestStatus string

// Request statuses.
const (
	StatusDraft      RequestStatus = "draft"
	StatusSubmitting RequestStatus = "submitting"
	StatusSubmitted  RequestStatus = "submitted"
)

// Header holds the request-level fields of the form.
type Header struct {
	StmtNo       string `json:"stmt_no,omitempty"`
	TransferDate string `json:"transfer_date,omitempty"`
	TransferBy   string `json:"transfer_by,omitempty"`
	CostCenterID string `json:"costcenter_id,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
}

// Summary holds the free-form summary fields of the form.
type Summary struct {
	Remarks string `json:"remarks,omitempty"`
}

// SelectedOwner is the supervisor whose items are offered for selection.
type SelectedOwner struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// TransferRequest is the aggregate owned by a form session.
type TransferRequest struct {
	ServerID    int64          `json:"server_id,omitempty"`
	Requestor   string         `json:"requestor"`
	RequestDate time.Time      `json:"request_date"`
	Status      RequestStatus  `json:"status"`
	Header      Header         `json:"header"`
	Summary     Summary        `json:"summary"`
	Owner       SelectedOwner  `json:"selected_owner"`
	Items       []TransferItem `json:"items"`
}

// DraftSnapshot is the persisted copy of an unsubmitted form.
type DraftSnapshot struct {
	Header  Header         `json:"header"`
	Summary Summary        `json:"summary"`
	Owner   SelectedOwner  `json:"selected_owner"`
	Items   []TransferItem `json:"items"`
}

// Submission is a locally recorded, successfully submitted request.
type Submission struct {
	ID             int64     `json:"id"`
	RemoteID       int64     `json:"remote_id"`
	UserID         *int64    `json:"user_id,omitempty"`
	IdempotencyKey string    `json:"idempotency_key"`
	ItemCount      int       `json:"item_count"`
	TransferDate   string    `json:"transfer_date"`
	SubmittedAt    time.Time `json:"submitted_at"`

	// Joined fields (not always populated).
	Username string `json:"username,omitempty"`
}
