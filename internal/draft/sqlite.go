package draft

import (
	"context"
	"database/sql"

	"github.com/erazemk/premik/internal/store"
)

// SQLiteSlot stores drafts in the drafts table.
type SQLiteSlot struct {
	DB *sql.DB
}

func (s *SQLiteSlot) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := store.GetDraft(ctx, s.DB, key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNoDraft
	}
	return data, nil
}

func (s *SQLiteSlot) Save(ctx context.Context, key string, data []byte) error {
	return store.SaveDraft(ctx, s.DB, key, data)
}

func (s *SQLiteSlot) Delete(ctx context.Context, key string) error {
	return store.DeleteDraft(ctx, s.DB, key)
}
