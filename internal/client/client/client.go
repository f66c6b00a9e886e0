package client

import (
	"context"

	"github.com/dmitrijs2005/kidsbank/internal/wire"
)

// Client is the KidsBank server API as seen by the CLI. token may be empty;
// the server then treats the caller as anonymous.
type Client interface {
	Ping(ctx context.Context) error
	RegisterClient(ctx context.Context, id string) error
	CreateAccount(ctx context.Context, req wire.CreateAccountRequest) (string, error)
	ListAccounts(ctx context.Context, token string) ([]wire.Account, error)
	AuthToken(ctx context.Context, accountID, password, token string) (string, error)
	Pull(ctx context.Context, accountID string, since int64, token string) ([]wire.Change, error)
	Push(ctx context.Context, accountID string, changes []wire.Change, token string) ([]wire.Change, error)
	Export(ctx context.Context, accountID, token string) (*wire.ExportResponse, error)
}
