// Package outbox keeps changes recorded locally until the server has them.
package outbox

import (
	"context"

	"github.com/dmitrijs2005/kidsbank/internal/wire"
)

type Repository interface {
	// Add queues c under c.Hash. Queuing the same hash twice is a no-op.
	Add(ctx context.Context, accountID string, c wire.Change, queuedAt int64) error
	// Pending returns the queued changes of accountID, oldest first.
	Pending(ctx context.Context, accountID string) ([]wire.Change, error)
	Remove(ctx context.Context, hashes []string) error
}
