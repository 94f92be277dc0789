package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/premik/internal/model"
)

// minSearchLength is the shortest employee search query sent to the backend.
const minSearchLength = 2

// Catalog lists selectable assets and employees.
type Catalog interface {
	ListAssets(ctx context.Context, supervisor string) ([]model.Asset, error)
	SearchEmployees(ctx context.Context, q string) ([]model.Employee, error)
}

// ListSource returns reference lists by name.
type ListSource interface {
	List(ctx context.Context, name string) ([]model.Lookup, error)
}

// LookupsHandler serves candidates and reference lists from the backend.
type LookupsHandler struct {
	Catalog Catalog
	Lists   ListSource
}

// Assets handles GET /api/assets?supervisor=.
func (h *LookupsHandler) Assets(w http.ResponseWriter, r *http.Request) {
	supervisor := strings.TrimSpace(r.URL.Query().Get("supervisor"))
	assets, err := h.Catalog.ListAssets(r.Context(), supervisor)
	if err != nil {
		slog.Error("failed to list assets", "supervisor", supervisor, "error", err)
		jsonError(w, http.StatusBadGateway, "failed to load assets")
		return
	}

	candidates := make([]model.Candidate, 0, len(assets))
	for _, a := range assets {
		candidates = append(candidates, model.AssetCandidate(a))
	}
	jsonResponse(w, http.StatusOK, candidates)
}

// Employees handles GET /api/employees/search?q=.
func (h *LookupsHandler) Employees(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(q)) < minSearchLength {
		jsonResponse(w, http.StatusOK, []model.Candidate{})
		return
	}

	employees, err := h.Catalog.SearchEmployees(r.Context(), q)
	if err != nil {
		slog.Error("failed to search employees", "error", err)
		jsonError(w, http.StatusBadGateway, "failed to search employees")
		return
	}

	candidates := make([]model.Candidate, 0, len(employees))
	for _, e := range employees {
		candidates = append(candidates, model.EmployeeCandidate(e))
	}
	jsonResponse(w, http.StatusOK, candidates)
}

// List returns a handler for the named reference list.
func (h *LookupsHandler) List(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.Lists.List(r.Context(), name)
		if err != nil {
			slog.Error("failed to load lookup list", "list", name, "error", err)
			jsonError(w, http.StatusBadGateway, "failed to load "+name)
			return
		}
		if list == nil {
			list = []model.Lookup{}
		}
		jsonResponse(w, http.StatusOK, list)
	}
}
