package model

// TransferStatusPending is the transfer_status sent with new requests.
const TransferStatusPending = "pending"

// TransferPayload is the request sent to the asset backend on submit.
type TransferPayload struct {
	TransferDate string          `json:"transfer_date"`
	TransferBy   string          `json:"transfer_by"`
	CostCenterID string          `json:"costcenter_id"`
	DepartmentID string          `json:"department_id"`
	Status       string          `json:"transfer_status"`
	Remarks      string          `json:"remarks,omitempty"`
	Details      []PayloadDetail `json:"details"`
}

// PayloadDetail is one item of a submitted transfer.
type PayloadDetail struct {
	ItemID            string `json:"item_id"`
	Kind              string `json:"kind"`
	Display           string `json:"display"`
	CurrentOwner      string `json:"current_owner"`
	CurrentCostCenter string `json:"current_costcenter"`
	CurrentDepartment string `json:"current_department"`
	CurrentLocation   string `json:"current_location"`
	NewOwner          string `json:"new_owner"`
	NewCostCenter     string `json:"new_costcenter"`
	NewDepartment     string `json:"new_department"`
	NewLocation       string `json:"new_location"`
	Reason            string `json:"reason"`
	EffectiveDate     string `json:"effective_date"`
	ReturnToManager   bool   `json:"return_to_manager"`
	Comment           string `json:"comment,omitempty"`
}

// FilePart is one attachment uploaded alongside a transfer.
type FilePart struct {
	ItemID   string
	Filename string
	MIME     string
	Data     []byte
}

// RemoteTransfer is an existing transfer loaded from the backend.
type RemoteTransfer struct {
	ID           int64           `json:"id"`
	TransferDate string          `json:"transfer_date"`
	TransferBy   string          `json:"transfer_by"`
	CostCenterID string          `json:"costcenter_id"`
	DepartmentID string          `json:"department_id"`
	Status       string          `json:"transfer_status"`
	Remarks      string          `json:"remarks,omitempty"`
	Details      []PayloadDetail `json:"details"`
}
