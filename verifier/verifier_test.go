package verifier

import (
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/voileprotocol/voile-go/note"
	"github.com/voileprotocol/voile-go/proof"
	"github.com/voileprotocol/voile-go/types"
	"github.com/voileprotocol/voile-go/util"
)

// testSetup builds a verifier with in-memory stores, a note, a secret and
// its registered binding.
func testSetup(c *qt.C, deployment string) (*Verifier, *note.ExitNote, []byte) {
	domain := proof.NewDomain([]byte(deployment))
	v := New(domain, NewMemoryBindingStore(), NewMemoryNullifierStore())

	n, err := note.New(1000, util.RandomBytes(types.OwnerSize), note.Standard{})
	c.Assert(err, qt.IsNil)
	secret := util.RandomBytes(types.SecretSize)

	cm, err := n.Commitment()
	c.Assert(err, qt.IsNil)
	binding, err := proof.ComputeSecretBinding(domain, secret)
	c.Assert(err, qt.IsNil)
	c.Assert(v.RegisterBinding(cm, binding), qt.IsNil)

	return v, n, secret
}

func TestHonestProofLifecycle(t *testing.T) {
	c := qt.New(t)

	v, n, secret := testSetup(c, "voile-dev-v1")
	p, err := proof.NewGenerator(v.Domain()).Generate(n, secret)
	c.Assert(err, qt.IsNil)

	// Split verify / state-commit path.
	c.Assert(v.Verify(p), qt.IsNil)
	c.Assert(v.MarkNullifierUsed(p.Nullifier), qt.IsNil)

	used, err := v.IsNullifierUsed(p.Nullifier)
	c.Assert(err, qt.IsNil)
	c.Assert(used, qt.IsTrue)

	// Replaying the identical proof collides on the nullifier.
	c.Assert(v.Verify(p), qt.ErrorIs, ErrNullifierReused)

	// Re-marking a spent nullifier is a no-op, not an error.
	c.Assert(v.MarkNullifierUsed(p.Nullifier), qt.IsNil)
}

func TestVerifyAndSpend(t *testing.T) {
	c := qt.New(t)

	v, n, secret := testSetup(c, "voile-dev-v1")
	p, err := proof.NewGenerator(v.Domain()).Generate(n, secret)
	c.Assert(err, qt.IsNil)

	c.Assert(v.VerifyAndSpend(p), qt.IsNil)
	c.Assert(v.VerifyAndSpend(p), qt.ErrorIs, ErrNullifierReused)
}

func TestTamperedProofRejected(t *testing.T) {
	c := qt.New(t)

	v, n, secret := testSetup(c, "voile-dev-v1")
	p, err := proof.NewGenerator(v.Domain()).Generate(n, secret)
	c.Assert(err, qt.IsNil)

	// Flipping any single byte of the wire proof must yield BadTag, never
	// an acceptance.
	wire := p.Marshal()
	for i := range wire {
		tampered := &proof.ExitProof{}
		mutated := append([]byte{}, wire...)
		mutated[i] ^= 0x01
		c.Assert(tampered.Unmarshal(mutated), qt.IsNil)
		c.Assert(v.Verify(tampered), qt.ErrorIs, ErrBadTag)
	}

	// The untouched proof still verifies.
	c.Assert(v.Verify(p), qt.IsNil)
}

func TestUnknownCommitmentRejected(t *testing.T) {
	c := qt.New(t)

	v, _, _ := testSetup(c, "voile-dev-v1")

	// A proof for a note whose binding was never registered does not bind
	// to any known secret commitment.
	n, err := note.New(500, util.RandomBytes(types.OwnerSize), note.Immediate{})
	c.Assert(err, qt.IsNil)
	p, err := proof.NewGenerator(v.Domain()).Generate(n, util.RandomBytes(types.SecretSize))
	c.Assert(err, qt.IsNil)
	c.Assert(v.Verify(p), qt.ErrorIs, ErrBadTag)
}

func TestCrossDomainRejection(t *testing.T) {
	c := qt.New(t)

	first, n, secret := testSetup(c, "chain_1")
	second := New(proof.NewDomain([]byte("chain_2")), NewMemoryBindingStore(), NewMemoryNullifierStore())

	cm, err := n.Commitment()
	c.Assert(err, qt.IsNil)
	secondBinding, err := proof.ComputeSecretBinding(second.Domain(), secret)
	c.Assert(err, qt.IsNil)
	c.Assert(second.RegisterBinding(cm, secondBinding), qt.IsNil)

	firstProof, err := proof.NewGenerator(first.Domain()).Generate(n, secret)
	c.Assert(err, qt.IsNil)
	secondProof, err := proof.NewGenerator(second.Domain()).Generate(n, secret)
	c.Assert(err, qt.IsNil)

	// Each verifier accepts its own domain's proof and rejects the other's.
	c.Assert(first.Verify(firstProof), qt.IsNil)
	c.Assert(first.Verify(secondProof), qt.ErrorIs, ErrBadTag)
	c.Assert(second.Verify(secondProof), qt.IsNil)
	c.Assert(second.Verify(firstProof), qt.ErrorIs, ErrBadTag)
}

func TestTwoSecretsOneNote(t *testing.T) {
	c := qt.New(t)

	v, n, firstSecret := testSetup(c, "voile-dev-v1")
	secondSecret := util.RandomBytes(types.SecretSize)

	cm, err := n.Commitment()
	c.Assert(err, qt.IsNil)
	secondBinding, err := proof.ComputeSecretBinding(v.Domain(), secondSecret)
	c.Assert(err, qt.IsNil)
	c.Assert(v.RegisterBinding(cm, secondBinding), qt.IsNil)

	gen := proof.NewGenerator(v.Domain())
	firstProof, err := gen.Generate(n, firstSecret)
	c.Assert(err, qt.IsNil)
	secondProof, err := gen.Generate(n, secondSecret)
	c.Assert(err, qt.IsNil)

	// Different secrets yield different nullifiers, and each spends
	// independently in the shared store.
	c.Assert(firstProof.Nullifier, qt.Not(qt.Equals), secondProof.Nullifier)
	c.Assert(v.VerifyAndSpend(firstProof), qt.IsNil)
	c.Assert(v.VerifyAndSpend(secondProof), qt.IsNil)
	c.Assert(v.VerifyAndSpend(firstProof), qt.ErrorIs, ErrNullifierReused)
}

func TestConcurrentSpendRace(t *testing.T) {
	c := qt.New(t)

	v, n, secret := testSetup(c, "voile-dev-v1")
	p, err := proof.NewGenerator(v.Domain()).Generate(n, secret)
	c.Assert(err, qt.IsNil)

	const attempts = 32
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- v.VerifyAndSpend(p)
		}()
	}
	wg.Wait()
	close(results)

	accepted, reused := 0, 0
	for err := range results {
		switch err {
		case nil:
			accepted++
		case ErrNullifierReused:
			reused++
		default:
			c.Fatalf("unexpected error: %v", err)
		}
	}
	c.Assert(accepted, qt.Equals, 1)
	c.Assert(reused, qt.Equals, attempts-1)
}
