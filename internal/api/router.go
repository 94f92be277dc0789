package api

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/premik/internal/form"
	"github.com/erazemk/premik/internal/model"
)

// Deps holds what the API router needs.
type Deps struct {
	DB          *sql.DB
	JWTSecret   string
	Catalog     Catalog
	Lists       ListSource
	Sessions    *form.Manager
	CORSOrigins []string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret, Sessions: d.Sessions}
	usersHandler := &UsersHandler{DB: d.DB}
	lookupsHandler := &LookupsHandler{Catalog: d.Catalog, Lists: d.Lists}
	formHandler := &FormHandler{Sessions: d.Sessions}
	submissionsHandler := &SubmissionsHandler{DB: d.DB}

	authMW := AuthMiddleware(d.JWTSecret, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Account.
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Backend lookups.
	mux.Handle("GET /api/assets", authed(lookupsHandler.Assets))
	mux.Handle("GET /api/employees/search", authed(lookupsHandler.Employees))
	mux.Handle("GET /api/costcenters", authed(lookupsHandler.List(model.LookupCostCenters)))
	mux.Handle("GET /api/departments", authed(lookupsHandler.List(model.LookupDepartments)))
	mux.Handle("GET /api/locations", authed(lookupsHandler.List(model.LookupLocations)))

	// Transfer form.
	mux.Handle("GET /api/transfer/form", authed(formHandler.Get))
	mux.Handle("POST /api/transfer/form", authed(formHandler.Start))
	mux.Handle("DELETE /api/transfer/form", authed(formHandler.Discard))
	mux.Handle("PUT /api/transfer/form/header", authed(formHandler.UpdateHeader))
	mux.Handle("POST /api/transfer/form/items", authed(formHandler.AddItem))
	mux.Handle("DELETE /api/transfer/form/items/{id}", authed(formHandler.RemoveItem))
	mux.Handle("PUT /api/transfer/form/items/{id}", authed(formHandler.UpdateItem))
	mux.Handle("PUT /api/transfer/form/items/{id}/fields", authed(formHandler.EditField))
	mux.Handle("PUT /api/transfer/form/items/{id}/reasons", authed(formHandler.ToggleReason))
	mux.Handle("POST /api/transfer/form/items/{id}/apply", authed(formHandler.ApplyToAll))
	mux.Handle("PUT /api/transfer/form/items/{id}/attachment", authed(formHandler.SetAttachment))
	mux.Handle("DELETE /api/transfer/form/items/{id}/attachment", authed(formHandler.RemoveAttachment))
	mux.Handle("POST /api/transfer/form/bulk", authed(formHandler.SetBulk))
	mux.Handle("POST /api/transfer/form/validate", authed(formHandler.Validate))
	mux.Handle("POST /api/transfer/form/submit", authed(formHandler.Submit))

	// Submission log.
	mux.Handle("GET /api/submissions", authed(submissionsHandler.List))

	return CORSMiddleware(d.CORSOrigins)(LoggingMiddleware(mux))
}
