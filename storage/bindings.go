package storage

import (
	"fmt"

	"github.com/voileprotocol/voile-go/crypto/commitment"
	"github.com/voileprotocol/voile-go/proof"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// bindingKey is commitment || binding, so several bindings can be registered
// for the same commitment and registration stays idempotent.
func bindingKey(c commitment.Commitment, b proof.SecretBinding) []byte {
	key := make([]byte, 0, commitment.Size+len(b))
	key = append(key, c.Bytes()...)
	key = append(key, b[:]...)
	return key
}

// AddBinding registers a public secret binding for a commitment.
func (s *Storage) AddBinding(c commitment.Commitment, b proof.SecretBinding) error {
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), bindingPrefix)
	defer wTx.Discard()
	if err := wTx.Set(bindingKey(c, b), b[:]); err != nil {
		return fmt.Errorf("could not store binding: %w", err)
	}
	return wTx.Commit()
}

// Bindings returns all secret bindings registered for a commitment.
func (s *Storage) Bindings(c commitment.Commitment) ([]proof.SecretBinding, error) {
	var bindings []proof.SecretBinding
	pdb := prefixeddb.NewPrefixedDatabase(s.db, bindingPrefix)
	err := pdb.Iterate(c.Bytes(), func(_, value []byte) bool {
		if len(value) != commitment.Size {
			return true
		}
		var b proof.SecretBinding
		copy(b[:], value)
		bindings = append(bindings, b)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("could not read bindings: %w", err)
	}
	return bindings, nil
}
