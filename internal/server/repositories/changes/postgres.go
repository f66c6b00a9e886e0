// Package changes provides the PostgreSQL-backed append-only change log.
// There is no update or delete path: a row, once inserted, is immutable.
package changes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/kidsbank/internal/common"
	"github.com/dmitrijs2005/kidsbank/internal/dbx"
	"github.com/dmitrijs2005/kidsbank/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert appends the change and sets its Version. A change whose hash is
// already stored yields common.ErrDuplicate; a missing client or account
// yields common.ErrorValidation wrapped with the constraint name.
func (r *PostgresRepository) Insert(ctx context.Context, change *models.Change) (*models.Change, error) {
	query :=
		`INSERT INTO changes (hash, account, op, table_name, key, payload, client, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (hash) DO NOTHING
		 RETURNING version
		 `

	var payload []byte
	if len(change.Payload) > 0 {
		payload = change.Payload
	}

	err := r.db.QueryRowContext(ctx, query,
		change.Hash, change.Account, change.Op, change.Table, change.Key, payload, change.Client, change.CreatedAt,
	).Scan(&change.Version)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrDuplicate
		}
		return nil, classify(err)
	}
	return change, nil
}

// ListSince returns the account's changes with version >= minVersion in
// ascending version order.
func (r *PostgresRepository) ListSince(ctx context.Context, accountID string, minVersion int64) ([]*models.Change, error) {
	query :=
		`SELECT version, hash, account, op, table_name, key, payload, client, created_at FROM changes
		 WHERE account = $1 AND version >= $2
		 ORDER BY version
		 `

	rows, err := r.db.QueryContext(ctx, query, accountID, minVersion)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Change{}
	for rows.Next() {
		var (
			c       models.Change
			payload []byte
		)
		if err := rows.Scan(
			&c.Version, &c.Hash, &c.Account, &c.Op, &c.Table, &c.Key, &payload, &c.Client, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if payload != nil {
			c.Payload = payload
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) CountSince(ctx context.Context, accountID string, minVersion int64) (int64, error) {
	query := `SELECT count(*) FROM changes WHERE account = $1 AND version >= $2`

	var n int64
	if err := r.db.QueryRowContext(ctx, query, accountID, minVersion).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func classify(err error) error {
	switch {
	case dbx.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %s", common.ErrorValidation, dbx.ConstraintName(err))
	case dbx.IsUniqueViolation(err):
		return common.ErrDuplicate
	default:
		return fmt.Errorf("db error: %w", err)
	}
}
