package model

import "strconv"

// Asset is a candidate asset returned by the backend for a supervisor.
type Asset struct {
	ID             int64  `json:"id"`
	RegisterNumber string `json:"register_number"`
	SerialNumber   string `json:"serial_number,omitempty"`
	Description    string `json:"description,omitempty"`
	OwnerID        int64  `json:"owner_id,omitempty"`
	OwnerName      string `json:"owner_name,omitempty"`
	CostCenterID   int64  `json:"costcenter_id,omitempty"`
	DepartmentID   int64  `json:"department_id,omitempty"`
	LocationID     int64  `json:"location_id,omitempty"`
}

// Employee is a person known to the backend.
type Employee struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	EmployeeNumber string `json:"employee_number"`
	CostCenterID   int64  `json:"costcenter_id,omitempty"`
	DepartmentID   int64  `json:"department_id,omitempty"`
	LocationID     int64  `json:"location_id,omitempty"`
}

// Lookup is a reference list entry (cost center, department, location).
type Lookup struct {
	ID   int64  `json:"id"`
	Code string `json:"code,omitempty"`
	Name string `json:"name"`
}

// Lookup list names.
const (
	LookupCostCenters = "costcenters"
	LookupDepartments = "departments"
	LookupLocations   = "locations"
)

// AssetCandidate converts a backend asset into a selectable candidate.
func AssetCandidate(a Asset) Candidate {
	return Candidate{
		ID:             formatID("A", a.ID),
		Kind:           KindAsset,
		RegisterNumber: a.RegisterNumber,
		SerialNumber:   a.SerialNumber,
		Description:    a.Description,
		Current: Attributes{
			Owner:      formatID("", a.OwnerID),
			OwnerName:  a.OwnerName,
			CostCenter: formatID("", a.CostCenterID),
			Department: formatID("", a.DepartmentID),
			Location:   formatID("", a.LocationID),
		},
		Backend: &BackendCurrent{
			OwnerID:      a.OwnerID,
			CostCenterID: a.CostCenterID,
			DepartmentID: a.DepartmentID,
			LocationID:   a.LocationID,
		},
	}
}

// EmployeeCandidate converts a backend employee into a selectable candidate.
func EmployeeCandidate(e Employee) Candidate {
	return Candidate{
		ID:             formatID("E", e.ID),
		Kind:           KindEmployee,
		EmployeeName:   e.Name,
		EmployeeNumber: e.EmployeeNumber,
		Current: Attributes{
			CostCenter: formatID("", e.CostCenterID),
			Department: formatID("", e.DepartmentID),
			Location:   formatID("", e.LocationID),
		},
		Backend: &BackendCurrent{
			CostCenterID: e.CostCenterID,
			DepartmentID: e.DepartmentID,
			LocationID:   e.LocationID,
		},
	}
}

func formatID(prefix string, id int64) string {
	if id == 0 {
		return ""
	}
	return prefix + strconv.FormatInt(id, 10)
}
