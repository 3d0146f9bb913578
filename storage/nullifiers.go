package storage

import (
	"errors"
	"fmt"

	"github.com/voileprotocol/voile-go/proof"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// Has reports whether the nullifier was already spent.
func (s *Storage) Has(n proof.Nullifier) (bool, error) {
	rTx := prefixeddb.NewPrefixedReader(s.db, nullifierPrefix)
	if _, err := rTx.Get(n.Bytes()); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("could not read nullifier: %w", err)
	}
	return true, nil
}

// MarkUsed durably records the nullifier as spent. Re-marking an already
// spent nullifier is a no-op. An error means the spend was NOT recorded and
// the caller must not report the proof as accepted.
func (s *Storage) MarkUsed(n proof.Nullifier) error {
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), nullifierPrefix)
	defer wTx.Discard()
	if err := wTx.Set(n.Bytes(), []byte{1}); err != nil {
		return fmt.Errorf("could not store nullifier: %w", err)
	}
	return wTx.Commit()
}

// CountNullifiers returns the number of spent nullifiers. The set only
// grows, so the count is monotonic across the life of a deployment.
func (s *Storage) CountNullifiers() (int, error) {
	count := 0
	pdb := prefixeddb.NewPrefixedDatabase(s.db, nullifierPrefix)
	err := pdb.Iterate(nil, func(_, _ []byte) bool {
		count++
		return true
	})
	return count, err
}
