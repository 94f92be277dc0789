package form

import (
	"errors"
	"testing"

	"github.com/erazemk/premik/internal/model"
)

func assetCandidate(id, register string) model.Candidate {
	return model.Candidate{ID: id, Kind: model.KindAsset, RegisterNumber: register}
}

func TestAddItem(t *testing.T) {
	r := NewRegistry()

	item, err := r.Add(assetCandidate("A1", "V-001"), "2026-10-16")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if item.Display != "V-001" {
		t.Errorf("expected display 'V-001', got %q", item.Display)
	}
	if item.EffectiveDate != "2026-10-16" {
		t.Errorf("expected seeded effective date, got %q", item.EffectiveDate)
	}
	if r.Len() != 1 || !r.Dirty() {
		t.Errorf("expected one item and dirty registry, got len=%d dirty=%v", r.Len(), r.Dirty())
	}
}

func TestAddDuplicateRejected(t *testing.T) {
	r := NewRegistry()
	r.Add(assetCandidate("A1", "V-001"), "")

	_, err := r.Add(assetCandidate("A1", "V-001"), "")
	if !errors.Is(err, ErrDuplicateItem) {
		t.Errorf("expected ErrDuplicateItem, got %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 item, got %d", r.Len())
	}
}

func TestAddInvalidCandidates(t *testing.T) {
	tests := []struct {
		name string
		c    model.Candidate
	}{
		{"missing id", model.Candidate{Kind: model.KindAsset, RegisterNumber: "V-1"}},
		{"missing kind", model.Candidate{ID: "X", RegisterNumber: "V-1"}},
		{"asset without identity", model.Candidate{ID: "A", Kind: model.KindAsset}},
		{"employee without number", model.Candidate{ID: "E", Kind: model.KindEmployee, EmployeeName: "Ana"}},
		{"employee without name", model.Candidate{ID: "E", Kind: model.KindEmployee, EmployeeNumber: "123"}},
	}

	for _, tt := range tests {
		r := NewRegistry()
		_, err := r.Add(tt.c, "")
		if !errors.Is(err, ErrInvalidCandidate) {
			t.Errorf("%s: expected ErrInvalidCandidate, got %v", tt.name, err)
		}
		if r.Len() != 0 {
			t.Errorf("%s: expected empty registry, got %d items", tt.name, r.Len())
		}
	}
}

func TestAddKindFromDiscriminant(t *testing.T) {
	r := NewRegistry()

	// Carries both identity shapes; the explicit kind wins.
	c := model.Candidate{
		ID:             "E7",
		Kind:           model.KindEmployee,
		RegisterNumber: "V-009",
		EmployeeName:   "Ana Novak",
		EmployeeNumber: "1007",
	}
	item, err := r.Add(c, "")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if item.Kind != model.KindEmployee || item.Display != "1007" || item.Name != "Ana Novak" {
		t.Errorf("unexpected employee item: %+v", item)
	}

	asset, err := r.Add(model.Candidate{ID: "A2", Kind: model.KindAsset, SerialNumber: "SN-5"}, "")
	if err != nil {
		t.Fatalf("Add asset by serial: %v", err)
	}
	if asset.Display != "SN-5" {
		t.Errorf("expected serial as display, got %q", asset.Display)
	}
}

func TestRemoveItem(t *testing.T) {
	r := NewRegistry()
	r.Add(assetCandidate("A1", "V-001"), "")
	r.Add(assetCandidate("A2", "V-002"), "")

	if err := r.Remove("A1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	first, _ := r.First()
	if first.ID != "A2" {
		t.Errorf("expected A2 to become first, got %q", first.ID)
	}

	if err := r.Remove("A1"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}

	r.Remove("A2")
	if r.Dirty() {
		t.Error("expected empty registry to be clean")
	}
}

func TestItemsReturnsCopies(t *testing.T) {
	r := NewRegistry()
	r.Add(assetCandidate("A1", "V-001"), "")
	r.ToggleReason("A1", model.ReasonRelocation, true)

	items := r.Items()
	items[0].Reasons.Flags[model.ReasonResignation] = true
	items[0].EffectiveDate = "1999-01-01"

	got, _ := r.Get("A1")
	if got.Reasons.Flags[model.ReasonResignation] {
		t.Error("mutating a returned item leaked into the registry")
	}
	if got.EffectiveDate == "1999-01-01" {
		t.Error("mutating a returned item leaked into the registry")
	}
}
