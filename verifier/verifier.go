// Package verifier checks exit proofs and enforces the nullifier
// double-spend guard. It is the only stateful component of the protocol
// core: everything it learns about an owner is the public secret binding
// registered at account setup, never the raw secret.
package verifier

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/voileprotocol/voile-go/crypto/commitment"
	"github.com/voileprotocol/voile-go/proof"
	"go.vocdoni.io/dvote/log"
)

var (
	// ErrBadTag is returned when a proof's tag does not bind to any secret
	// binding registered for its commitment.
	ErrBadTag = errors.New("proof tag does not bind to a known secret commitment")
	// ErrNullifierReused is returned when a proof's nullifier was already
	// spent. Callers should treat it as a security event.
	ErrNullifierReused = errors.New("nullifier already spent")
)

// NullifierStore is the set of spent nullifiers. It grows monotonically;
// entries are never removed. Implementations must make MarkUsed idempotent
// and must not report success for an entry that was not durably recorded.
type NullifierStore interface {
	Has(n proof.Nullifier) (bool, error)
	MarkUsed(n proof.Nullifier) error
}

// BindingStore holds the public secret bindings registered per commitment at
// account setup. A commitment may carry more than one binding when several
// secrets control the same note.
type BindingStore interface {
	Bindings(c commitment.Commitment) ([]proof.SecretBinding, error)
	AddBinding(c commitment.Commitment, b proof.SecretBinding) error
}

// Verifier validates exit proofs against registered bindings and the spent
// nullifier set. The check-then-spend sequence is serialized internally so
// that two racing proofs with the same nullifier resolve to exactly one
// acceptance.
type Verifier struct {
	domain     proof.Domain
	bindings   BindingStore
	nullifiers NullifierStore
	mu         sync.Mutex
}

// New creates a verifier for the given domain, backed by the provided
// stores.
func New(domain proof.Domain, bindings BindingStore, nullifiers NullifierStore) *Verifier {
	return &Verifier{
		domain:     domain,
		bindings:   bindings,
		nullifiers: nullifiers,
	}
}

// Domain returns the verifier's domain separator.
func (v *Verifier) Domain() proof.Domain {
	return v.domain
}

// RegisterBinding records the public binding of an owner secret for a
// commitment. This is the account-setup step that later lets Verify check
// proof tags without ever holding the secret.
func (v *Verifier) RegisterBinding(c commitment.Commitment, b proof.SecretBinding) error {
	if err := v.bindings.AddBinding(c, b); err != nil {
		return fmt.Errorf("register binding: %w", err)
	}
	return nil
}

// Verify checks a proof without mutating state. It returns nil when the tag
// binds to a registered secret binding and the nullifier is unspent,
// ErrBadTag when the tag check fails, and ErrNullifierReused when the
// nullifier was already consumed. Callers that split verification and
// state-commit across a transaction boundary follow up with
// MarkNullifierUsed; callers that want the atomic path use VerifyAndSpend.
func (v *Verifier) Verify(p *proof.ExitProof) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.verify(p)
}

// MarkNullifierUsed records the nullifier as spent. It is idempotent and
// must be called only after Verify returned nil for the proof carrying it.
func (v *Verifier) MarkNullifierUsed(n proof.Nullifier) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.nullifiers.MarkUsed(n)
}

// VerifyAndSpend runs Verify and MarkNullifierUsed as one critical section.
// Under concurrent submissions of the same nullifier exactly one caller gets
// nil; the rest get ErrNullifierReused.
func (v *Verifier) VerifyAndSpend(p *proof.ExitProof) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.verify(p); err != nil {
		return err
	}
	if err := v.nullifiers.MarkUsed(p.Nullifier); err != nil {
		// The in-memory check passed but the spend was not durably
		// recorded; the proof must not be reported as accepted.
		return fmt.Errorf("record spent nullifier: %w", err)
	}
	return nil
}

// IsNullifierUsed reports whether a nullifier was already spent.
func (v *Verifier) IsNullifierUsed(n proof.Nullifier) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.nullifiers.Has(n)
}

// verify holds the actual checks; callers must hold v.mu.
func (v *Verifier) verify(p *proof.ExitProof) error {
	if p == nil {
		return fmt.Errorf("proof is required")
	}
	bindings, err := v.bindings.Bindings(p.Commitment)
	if err != nil {
		return fmt.Errorf("load bindings: %w", err)
	}
	challenge := proof.ComputeChallenge(v.domain, p.Commitment, p.Nullifier)
	matched := false
	for _, b := range bindings {
		expected := proof.ComputeTag(challenge, b)
		if subtle.ConstantTimeCompare(expected[:], p.Tag[:]) == 1 {
			matched = true
			break
		}
	}
	if !matched {
		return ErrBadTag
	}
	used, err := v.nullifiers.Has(p.Nullifier)
	if err != nil {
		return fmt.Errorf("check nullifier: %w", err)
	}
	if used {
		log.Warnw("double-spend attempt rejected",
			"nullifier", p.Nullifier.String(),
			"commitment", p.Commitment.String(),
		)
		return ErrNullifierReused
	}
	return nil
}
