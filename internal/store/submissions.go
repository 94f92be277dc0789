package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/premik/internal/model"
)

// RecordSubmission stores a successfully submitted request. Recording the same
// idempotency key twice returns the existing record.
func RecordSubmission(ctx context.Context, db *sql.DB, remoteID int64, userID *int64, idempotencyKey string, itemCount int, transferDate string) (*model.Submission, error) {
	if idempotencyKey == "" {
		return nil, fmt.Errorf("idempotency key required")
	}
	if itemCount <= 0 {
		return nil, fmt.Errorf("item count must be positive")
	}

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO submissions (remote_id, user_id, idempotency_key, item_count, transfer_date)
		 VALUES (?, ?, ?, ?, ?)`,
		remoteID, userID, idempotencyKey, itemCount, transferDate,
	)
	if err != nil {
		return nil, fmt.Errorf("recording submission: %w", err)
	}

	return GetSubmissionByKey(ctx, db, idempotencyKey)
}

const submissionColumns = `s.id, s.remote_id, s.user_id, s.idempotency_key, s.item_count,
        s.transfer_date, s.submitted_at, COALESCE(u.username, '')`

// GetSubmissionByKey returns the submission recorded under an idempotency key.
func GetSubmissionByKey(ctx context.Context, db *sql.DB, key string) (*model.Submission, error) {
	s := &model.Submission{}
	err := db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+`
		 FROM submissions s
		 LEFT JOIN users u ON u.id = s.user_id
		 WHERE s.idempotency_key = ?`, key,
	).Scan(&s.ID, &s.RemoteID, &s.UserID, &s.IdempotencyKey, &s.ItemCount,
		&s.TransferDate, &s.SubmittedAt, &s.Username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting submission: %w", err)
	}
	return s, nil
}

// ListSubmissions returns submissions, newest first, optionally filtered by user.
func ListSubmissions(ctx context.Context, db *sql.DB, userID int64) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + `
	          FROM submissions s
	          LEFT JOIN users u ON u.id = s.user_id
	          WHERE 1=1`
	var args []any

	if userID > 0 {
		query += ` AND s.user_id = ?`
		args = append(args, userID)
	}

	query += ` ORDER BY s.submitted_at DESC, s.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	defer rows.Close()

	var submissions []model.Submission
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.RemoteID, &s.UserID, &s.IdempotencyKey, &s.ItemCount,
			&s.TransferDate, &s.SubmittedAt, &s.Username); err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}
