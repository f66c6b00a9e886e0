package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/kidsbank/internal/dbx"
	"github.com/dmitrijs2005/kidsbank/internal/wire"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, accountID string, c wire.Change, queuedAt int64) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO outbox (hash, account, change, queued_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, c.Hash, accountID, string(body), queuedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Pending(ctx context.Context, accountID string) ([]wire.Change, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT change FROM outbox WHERE account = ? ORDER BY queued_at, rowid`, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []wire.Change{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		var c wire.Change
		if err := json.Unmarshal([]byte(body), &c); err != nil {
			return nil, fmt.Errorf("decode queued change: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, hashes []string) error {
	for _, h := range hashes {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM outbox WHERE hash = ?`, h); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}
