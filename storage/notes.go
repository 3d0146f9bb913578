package storage

import (
	"errors"
	"fmt"

	"github.com/voileprotocol/voile-go/crypto/notecipher"
	"github.com/voileprotocol/voile-go/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// PutSealedNote parks an encrypted note under its note id. Only ciphertext
// touches the database; the plaintext note and its blinding factor never do.
func (s *Storage) PutSealedNote(noteID [types.HashSize]byte, sealed *notecipher.Sealed) error {
	data, err := encodeArtifact(sealed)
	if err != nil {
		return err
	}
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), sealedNotePrefix)
	defer wTx.Discard()
	if err := wTx.Set(noteID[:], data); err != nil {
		return fmt.Errorf("could not store sealed note: %w", err)
	}
	return wTx.Commit()
}

// SealedNote retrieves a parked encrypted note by note id. It returns
// ErrNotFound if no note was stored under that id.
func (s *Storage) SealedNote(noteID [types.HashSize]byte) (*notecipher.Sealed, error) {
	rTx := prefixeddb.NewPrefixedReader(s.db, sealedNotePrefix)
	data, err := rTx.Get(noteID[:])
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not read sealed note: %w", err)
	}
	sealed := &notecipher.Sealed{}
	if err := decodeArtifact(data, sealed); err != nil {
		return nil, err
	}
	return sealed, nil
}
