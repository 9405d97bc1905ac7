// Package domain holds the catalog's core types: versions, uploads, chunks,
// update files, and the category taxonomy files are classified into.
package domain

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

// ID is an opaque 12-byte identifier, hex-encoded for transport and storage
// keys. It doubles as a Mongo-compatible ObjectID-shaped value without
// importing the driver into this package.
type ID [12]byte

// ErrInvalidID is returned when decoding a malformed hex identifier.
var ErrInvalidID = errors.New("domain: invalid id")

// NewID generates a fresh random identifier.
func NewID() ID {
	var id ID
	if _, err := rand.Read(id[:]); err != nil {
		panic("domain: failed to read random bytes: " + err.Error())
	}
	return id
}

// ParseID decodes a 24-character lowercase hex string into an ID.
func ParseID(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(id) {
		return id, ErrInvalidID
	}
	copy(id[:], b)
	return id, nil
}

// String renders the id as 24 lowercase hex characters.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Upper renders the id as 24 uppercase hex characters, the form used in
// storage object keys (e.g. `{version_id_upper}.zip`).
func (id ID) Upper() string {
	return strings.ToUpper(id.String())
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id == ID{}
}

// MarshalJSON renders id as its hex string, so it survives the HTTP/CLI
// boundary the same way it does in storage keys and path segments.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON parses id from its hex string form.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
