package changes

import (
	"context"
	"database/sql"
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

func (r *SQLiteRepository) Save(ctx context.Context, accountID string, changes []wire.Change) error {
	for _, c := range changes {
		var payload *string
		if len(c.Payload) > 0 {
			s := string(c.Payload)
			payload = &s
		}

		_, err := r.db.ExecContext(ctx, `
			INSERT INTO changes (ver, hash, account, op, table_name, key, payload, client, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, c.Ver, c.Hash, accountID, c.Op, c.Table, c.Key, payload, c.Client, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, accountID string) ([]wire.Change, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ver, hash, account, op, table_name, key, payload, client, created_at
		FROM changes WHERE account = ? ORDER BY ver`, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []wire.Change{}
	for rows.Next() {
		var (
			c       wire.Change
			account string
			key     sql.NullString
			payload sql.NullString
		)
		if err := rows.Scan(&c.Ver, &c.Hash, &account, &c.Op, &c.Table, &key, &payload, &c.Client, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		c.Account = &account
		if key.Valid {
			c.Key = &key.String
		}
		if payload.Valid {
			c.Payload = json.RawMessage(payload.String)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
