// Package changehash computes the content fingerprint of a change record.
//
// The fingerprint covers the seven logical fields of a change (account, op,
// table, key, payload, client, createdAt) and nothing else, so the same
// logical change submitted twice always hashes the same and any single
// field difference yields a different hash. Server and client share this
// package: the server uses the hash as the log's uniqueness key and the
// client uses it to match its outbox against push responses.
package changehash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// Domain separates change fingerprints from any other SHA-256 use.
// The version suffix allows a future algorithm change.
const Domain = "kidsbank/change/v1"

// Size is the length of a fingerprint in hex characters.
const Size = sha256.Size * 2

// Fields are the hashed fields of a change. Account and Key are nullable.
type Fields struct {
	Account   *string
	Op        string
	Table     string
	Key       *string
	Payload   json.RawMessage
	Client    string
	CreatedAt int64
}

// Fingerprint returns the lowercase hex SHA-256 of
// Domain || 0x00 || canonical JSON envelope of f.
func Fingerprint(f Fields) (string, error) {
	payload, err := decode(f.Payload)
	if err != nil {
		return "", err
	}

	envelope := map[string]any{
		"account":   nullable(f.Account),
		"op":        f.Op,
		"table":     f.Table,
		"key":       nullable(f.Key),
		"payload":   payload,
		"client":    f.Client,
		"createdAt": json.Number(strconv.FormatInt(f.CreatedAt, 10)),
	}

	var buf bytes.Buffer
	if err := encode(&buf, envelope); err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(Domain))
	h.Write([]byte{0x00})
	h.Write(buf.Bytes())
	return hex.EncodeToString(h.Sum(nil)), nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
