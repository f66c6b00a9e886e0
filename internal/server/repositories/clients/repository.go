package clients

import (
	"context"
)

type Repository interface {
	Register(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}
