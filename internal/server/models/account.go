package models

import "time"

// Account owns a balance ledger. Password holds a bcrypt hash; nil means
// the account is publicly readable. Password never leaves the service layer.
type Account struct {
	ID        string
	Name      string
	Birthday  string
	Password  *string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// HasPassword reports whether access to the account is gated.
func (a *Account) HasPassword() bool {
	return a.Password != nil && *a.Password != ""
}
