package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// GetDraft returns the draft stored in slot, or nil if the slot is empty.
func GetDraft(ctx context.Context, db *sql.DB, slot string) ([]byte, error) {
	var data []byte
	err := db.QueryRowContext(ctx,
		`SELECT data FROM drafts WHERE slot = ?`, slot,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting draft: %w", err)
	}
	return data, nil
}

// SaveDraft writes data to slot, replacing any previous draft.
func SaveDraft(ctx context.Context, db *sql.DB, slot string, data []byte) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO drafts (slot, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (slot) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		slot, data,
	)
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

// DeleteDraft removes the draft in slot. Deleting an empty slot is not an error.
func DeleteDraft(ctx context.Context, db *sql.DB, slot string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM drafts WHERE slot = ?`, slot)
	if err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}

// PurgeDrafts removes drafts not updated since before.
func PurgeDrafts(ctx context.Context, db *sql.DB, before time.Time) (int64, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM drafts WHERE updated_at < ?`, before.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return 0, fmt.Errorf("purging drafts: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
