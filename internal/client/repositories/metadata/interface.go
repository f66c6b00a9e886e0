// Package metadata stores the CLI's small key/value settings: the device's
// client id and registration memo, the current token and per-account pull
// cursors.
package metadata

import (
	"context"
)

const (
	KeyClientID         = "client_id"
	KeyClientRegistered = "client_registered"
	KeyToken            = "token"
)

// CursorKey is the key of the next version to pull for accountID.
func CursorKey(accountID string) string {
	return "cursor:" + accountID
}

// Repository returns (nil, nil) from Get for a missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
