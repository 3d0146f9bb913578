// Package storage holds the durable artifacts of the exit-note protocol in a
// prefixed key-value store. The following prefixes are used:
//   - 'n/' for spent nullifiers (append-only set)
//   - 'b/' for registered secret bindings, keyed by commitment
//   - 'e/' for sealed (encrypted) notes parked off-chain, keyed by note id
//
// The nullifier and binding tables implement the verifier's store
// interfaces, so a verifier can be backed by this package without touching
// verification logic.
package storage

import (
	"errors"

	"go.vocdoni.io/dvote/db"
)

var (
	// Prefixes for the keys in the database.
	nullifierPrefix  = []byte("n/")
	bindingPrefix    = []byte("b/")
	sealedNotePrefix = []byte("e/")
)

// ErrNotFound is returned when the requested artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// Storage wraps the underlying database with the protocol's artifact tables.
type Storage struct {
	db db.Database
}

// New creates a new Storage instance on top of the given database.
func New(db db.Database) *Storage {
	return &Storage{db: db}
}

// Close closes the underlying database.
func (s *Storage) Close() {
	s.db.Close()
}
