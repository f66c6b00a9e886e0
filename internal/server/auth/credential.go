package auth

import (
	"slices"
	"time"
)

// Credential is the decoded bearer token: the set of accounts its holder
// may access. It is a value; Grant returns a new Credential and never
// modifies the receiver.
type Credential struct {
	AuthorizedAccounts []string
	IssuedAt           time.Time
	ExpiresAt          time.Time
}

// Has reports whether accountID is in the authorized set. The zero
// Credential (no token presented) authorizes nothing.
func (c Credential) Has(accountID string) bool {
	return slices.Contains(c.AuthorizedAccounts, accountID)
}

// Grant returns a credential whose authorized set is the receiver's set
// plus accountID, without duplicates and in grant order.
func (c Credential) Grant(accountID string) Credential {
	accounts := slices.Clone(c.AuthorizedAccounts)
	if !slices.Contains(accounts, accountID) {
		accounts = append(accounts, accountID)
	}
	return Credential{AuthorizedAccounts: accounts}
}
