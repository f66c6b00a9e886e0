package changes

import (
	"context"

	"github.com/dmitrijs2005/kidsbank/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, change *models.Change) (*models.Change, error)
	ListSince(ctx context.Context, accountID string, minVersion int64) ([]*models.Change, error)
	CountSince(ctx context.Context, accountID string, minVersion int64) (int64, error)
}
