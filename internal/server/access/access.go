// Package access decides what a credential may see and do with an account.
//
// An account without a password is public. A password-protected account is
// reachable only by a credential that lists its ID.
package access

import (
	"github.com/dmitrijs2005/kidsbank/internal/server/auth"
	"github.com/dmitrijs2005/kidsbank/internal/server/models"
	"github.com/dmitrijs2005/kidsbank/internal/wire"
)

func CanRead(account *models.Account, cred auth.Credential) bool {
	return !account.HasPassword() || cred.Has(account.ID)
}

// CanWrite currently follows the same rule as CanRead.
func CanWrite(account *models.Account, cred auth.Credential) bool {
	return !account.HasPassword() || cred.Has(account.ID)
}

// Project returns the public view of the account. The birthday is withheld
// unless hasAccess is true; the password hash is never part of the view.
func Project(account *models.Account, hasAccess bool) wire.Account {
	v := wire.Account{
		ID:        account.ID,
		Name:      account.Name,
		HasAccess: hasAccess,
	}
	if hasAccess {
		v.Birthday = account.Birthday
	}
	return v
}
