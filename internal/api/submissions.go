package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/store"
)

// SubmissionsHandler serves the local log of submitted transfers.
type SubmissionsHandler struct {
	DB *sql.DB
}

// List handles GET /api/submissions. Managers and admins may pass
// ?user_id= or see everyone's; other users only see their own.
func (h *SubmissionsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	userID := claims.UserID
	if model.RoleAtLeast(claims.Role, model.RoleManager) {
		userID = 0
		if v := r.URL.Query().Get("user_id"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				jsonError(w, http.StatusBadRequest, "invalid user_id")
				return
			}
			userID = id
		}
	}

	submissions, err := store.ListSubmissions(r.Context(), h.DB, userID)
	if err != nil {
		slog.Error("failed to list submissions", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list submissions")
		return
	}
	if submissions == nil {
		submissions = []model.Submission{}
	}
	jsonResponse(w, http.StatusOK, submissions)
}

// DBRecorder writes successful submissions to the local database.
type DBRecorder struct {
	DB *sql.DB
}

// RecordUserSubmission records a submission made by userID.
func (d *DBRecorder) RecordUserSubmission(ctx context.Context, userID, remoteID int64, key string, itemCount int, transferDate string) error {
	_, err := store.RecordSubmission(ctx, d.DB, remoteID, &userID, key, itemCount, transferDate)
	return err
}
