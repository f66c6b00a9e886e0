package models

import (
	"encoding/json"

	"github.com/dmitrijs2005/kidsbank/internal/changehash"
	"github.com/dmitrijs2005/kidsbank/internal/wire"
)

// Change is one immutable entry of the append-only log.
//
// Version and Hash are assigned on append; every other field is supplied by
// the client and is opaque to the server.
type Change struct {
	Version   int64
	Hash      string
	Account   *string
	Op        string
	Table     string
	Key       *string
	Payload   json.RawMessage
	Client    string
	CreatedAt int64 // unix milliseconds, client clock
}

// Fields returns the hashed part of the change.
func (c *Change) Fields() changehash.Fields {
	return changehash.Fields{
		Account:   c.Account,
		Op:        c.Op,
		Table:     c.Table,
		Key:       c.Key,
		Payload:   c.Payload,
		Client:    c.Client,
		CreatedAt: c.CreatedAt,
	}
}

// ToWire returns the JSON form of the change.
func (c *Change) ToWire() wire.Change {
	return wire.Change{
		Ver:       c.Version,
		Hash:      c.Hash,
		Account:   c.Account,
		Op:        c.Op,
		Table:     c.Table,
		Key:       c.Key,
		Payload:   c.Payload,
		Client:    c.Client,
		CreatedAt: c.CreatedAt,
	}
}

// ChangeFromWire converts a pushed change. Ver and Hash are ignored: the
// server assigns both.
func ChangeFromWire(w wire.Change) *Change {
	return &Change{
		Account:   w.Account,
		Op:        w.Op,
		Table:     w.Table,
		Key:       w.Key,
		Payload:   w.Payload,
		Client:    w.Client,
		CreatedAt: w.CreatedAt,
	}
}

// ChangesToWire converts a list, never returning nil.
func ChangesToWire(changes []*Change) []wire.Change {
	out := make([]wire.Change, 0, len(changes))
	for _, c := range changes {
		out = append(out, c.ToWire())
	}
	return out
}
