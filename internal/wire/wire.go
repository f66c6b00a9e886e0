// Package wire defines the JSON bodies exchanged between the KidsBank HTTP
// API and its clients. Binding tags are evaluated by the server (gin); the
// CLI client only uses the JSON shape.
package wire

import "encoding/json"

// Change is the wire form of a log entry. Ver and Hash are empty on push
// and always set in responses.
type Change struct {
	Ver       int64           `json:"ver,omitempty"`
	Hash      string          `json:"hash,omitempty"`
	Account   *string         `json:"account,omitempty"`
	Op        string          `json:"op" binding:"required"`
	Table     string          `json:"table" binding:"required"`
	Key       *string         `json:"key,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Client    string          `json:"client" binding:"required"`
	CreatedAt int64           `json:"createdAt,omitempty" binding:"gte=0"`
}

// Account is the public projection of an account. Birthday is only present
// when HasAccess is true.
type Account struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Birthday  string `json:"birthday,omitempty"`
	HasAccess bool   `json:"hasAccess"`
}

type RegisterClientRequest struct {
	ID string `json:"id" binding:"required"`
}

type CreateAccountRequest struct {
	Name     string `json:"name" binding:"required"`
	Birthday string `json:"birthday" binding:"required,datetime=2006-01-02"`
	Password string `json:"password,omitempty"`
}

type AuthTokenRequest struct {
	Password string `json:"password" binding:"required"`
}

type PushChangesRequest struct {
	Changes []Change `json:"changes" binding:"required,dive"`
}

type CreatedResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

type AuthTokenResponse struct {
	Token string `json:"token"`
}

type AccountsResponse struct {
	Accounts []Account `json:"accounts"`
}

type ChangesResponse struct {
	Changes []Change `json:"changes"`
}

type ExportResponse struct {
	Key   string `json:"key"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
