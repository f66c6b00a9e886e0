// Package clients provides the PostgreSQL-backed client registry.
package clients

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/kidsbank/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Register records the client ID. Registering an existing ID is a no-op.
func (r *PostgresRepository) Register(ctx context.Context, id string) error {
	query := `INSERT INTO clients (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}
