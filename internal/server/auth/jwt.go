// Package auth encodes and decodes bearer credentials (JWT, HS256) and
// hashes account passwords (bcrypt).
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/kidsbank/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the authorized account set alongside the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	AuthorizedAccounts []string `json:"authorizedAccounts"`
}

// Issuer signs and verifies credentials with a shared HMAC secret.
type Issuer struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

func NewIssuer(secret string, validity time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), validity: validity, now: time.Now}
}

// Issue signs a fresh token for the credential's account set. IssuedAt and
// ExpiresAt of the input are ignored; the returned Credential carries the
// new ones.
func (i *Issuer) Issue(c Credential) (string, Credential, error) {
	now := i.now()
	issued := Credential{
		AuthorizedAccounts: c.AuthorizedAccounts,
		IssuedAt:           now.Truncate(time.Second),
		ExpiresAt:          now.Add(i.validity).Truncate(time.Second),
	}
	if issued.AuthorizedAccounts == nil {
		issued.AuthorizedAccounts = []string{}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(issued.ExpiresAt),
		},
		AuthorizedAccounts: issued.AuthorizedAccounts,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", Credential{}, err
	}
	return signed, issued, nil
}

// Parse verifies the token and returns its credential. Expired tokens yield
// common.ErrTokenExpired, every other failure common.ErrInvalidToken.
func (i *Issuer) Parse(tokenString string) (Credential, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Credential{}, common.ErrTokenExpired
		}
		return Credential{}, common.ErrInvalidToken
	}
	if !token.Valid {
		return Credential{}, common.ErrInvalidToken
	}

	c := Credential{AuthorizedAccounts: claims.AuthorizedAccounts}
	if claims.IssuedAt != nil {
		c.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		c.ExpiresAt = claims.ExpiresAt.Time
	}
	return c, nil
}
