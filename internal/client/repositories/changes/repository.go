// Package changes caches the server's change log locally, per account.
package changes

import (
	"context"

	"github.com/dmitrijs2005/kidsbank/internal/wire"
)

type Repository interface {
	// Save stores pulled changes; ones already cached are skipped.
	Save(ctx context.Context, accountID string, changes []wire.Change) error
	// List returns the cached changes of accountID by ascending version.
	List(ctx context.Context, accountID string) ([]wire.Change, error)
}
