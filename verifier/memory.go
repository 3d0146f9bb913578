package verifier

import (
	"sync"

	"github.com/voileprotocol/voile-go/crypto/commitment"
	"github.com/voileprotocol/voile-go/proof"
)

// MemoryNullifierStore keeps the spent nullifier set in memory. Suitable for
// tests and for deployments that accept losing the set on restart; durable
// deployments use the storage package instead.
type MemoryNullifierStore struct {
	mu   sync.RWMutex
	used map[proof.Nullifier]struct{}
}

// NewMemoryNullifierStore creates an empty in-memory nullifier set.
func NewMemoryNullifierStore() *MemoryNullifierStore {
	return &MemoryNullifierStore{used: make(map[proof.Nullifier]struct{})}
}

// Has reports whether the nullifier was spent.
func (s *MemoryNullifierStore) Has(n proof.Nullifier) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.used[n]
	return ok, nil
}

// MarkUsed inserts the nullifier. Re-marking an already spent nullifier is a
// no-op.
func (s *MemoryNullifierStore) MarkUsed(n proof.Nullifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.used[n] = struct{}{}
	return nil
}

// MemoryBindingStore keeps registered secret bindings in memory.
type MemoryBindingStore struct {
	mu       sync.RWMutex
	bindings map[commitment.Commitment][]proof.SecretBinding
}

// NewMemoryBindingStore creates an empty in-memory binding registry.
func NewMemoryBindingStore() *MemoryBindingStore {
	return &MemoryBindingStore{bindings: make(map[commitment.Commitment][]proof.SecretBinding)}
}

// Bindings returns the bindings registered for a commitment, if any.
func (s *MemoryBindingStore) Bindings(c commitment.Commitment) ([]proof.SecretBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]proof.SecretBinding{}, s.bindings[c]...), nil
}

// AddBinding registers a binding for a commitment. Registering the same
// binding twice is a no-op.
func (s *MemoryBindingStore) AddBinding(c commitment.Commitment, b proof.SecretBinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bindings[c] {
		if existing == b {
			return nil
		}
	}
	s.bindings[c] = append(s.bindings[c], b)
	return nil
}
