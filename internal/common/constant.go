// Package common contains shared constants and sentinel errors used across
// KidsBank components.
package common

// AuthorizationHeaderName carries the bearer credential on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the scheme prefix of the authorization header value.
const BearerPrefix = "Bearer "

// Well-known op/table values produced by the CLI when it records ledger
// transactions. The server never interprets them.
const (
	OpInsert   = "insert"
	TableTxs   = "txs"
	DateFormat = "2006-01-02"
)
