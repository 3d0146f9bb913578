package proof

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/voileprotocol/voile-go/note"
	"github.com/voileprotocol/voile-go/types"
	"github.com/voileprotocol/voile-go/util"
)

func testNote(c *qt.C) *note.ExitNote {
	n, err := note.New(1000, util.RandomBytes(types.OwnerSize), note.Standard{})
	c.Assert(err, qt.IsNil)
	return n
}

func TestGenerate(t *testing.T) {
	c := qt.New(t)

	gen := NewGenerator(NewDomain([]byte("voile-dev-v1")))
	n := testNote(c)
	secret := util.RandomBytes(types.SecretSize)

	p, err := gen.Generate(n, secret)
	c.Assert(err, qt.IsNil)

	expectedCm, err := n.Commitment()
	c.Assert(err, qt.IsNil)
	c.Assert(p.Commitment, qt.Equals, expectedCm)
	c.Assert(p.Nullifier, qt.Equals, ComputeNullifier(gen.Domain(), n.ID(), secret))

	// Generation is deterministic for the same (note, secret) pair.
	again, err := gen.Generate(n, secret)
	c.Assert(err, qt.IsNil)
	c.Assert(again, qt.DeepEquals, p)
}

func TestGenerateRejectsBadSecret(t *testing.T) {
	c := qt.New(t)

	gen := NewGenerator(NewDomain([]byte("voile-dev-v1")))
	_, err := gen.Generate(testNote(c), util.RandomBytes(16))
	c.Assert(err, qt.IsNotNil)
	_, err = gen.Generate(nil, util.RandomBytes(types.SecretSize))
	c.Assert(err, qt.IsNotNil)
}

func TestNullifierPerSecret(t *testing.T) {
	c := qt.New(t)

	gen := NewGenerator(NewDomain([]byte("voile-dev-v1")))
	n := testNote(c)

	first, err := gen.Generate(n, util.RandomBytes(types.SecretSize))
	c.Assert(err, qt.IsNil)
	second, err := gen.Generate(n, util.RandomBytes(types.SecretSize))
	c.Assert(err, qt.IsNil)

	// Same note, two secrets: same commitment, different nullifiers.
	c.Assert(first.Commitment, qt.Equals, second.Commitment)
	c.Assert(first.Nullifier, qt.Not(qt.Equals), second.Nullifier)
}

func TestDomainSeparation(t *testing.T) {
	c := qt.New(t)

	n := testNote(c)
	secret := util.RandomBytes(types.SecretSize)

	first, err := NewGenerator(NewDomain([]byte("chain_1"))).Generate(n, secret)
	c.Assert(err, qt.IsNil)
	second, err := NewGenerator(NewDomain([]byte("chain_2"))).Generate(n, secret)
	c.Assert(err, qt.IsNil)

	c.Assert(first.Nullifier, qt.Not(qt.Equals), second.Nullifier)
	c.Assert(first.Tag, qt.Not(qt.Equals), second.Tag)
}

func TestWireRoundtrip(t *testing.T) {
	c := qt.New(t)

	gen := NewGenerator(NewDomain([]byte("voile-dev-v1")))
	p, err := gen.Generate(testNote(c), util.RandomBytes(types.SecretSize))
	c.Assert(err, qt.IsNil)

	data := p.Marshal()
	c.Assert(data, qt.HasLen, Size)

	recovered := &ExitProof{}
	c.Assert(recovered.Unmarshal(data), qt.IsNil)
	c.Assert(recovered, qt.DeepEquals, p)

	// Hex transport: 0x prefix plus 192 hex characters.
	hexed := p.String()
	c.Assert(hexed, qt.HasLen, 2+2*Size)
	fromHex, err := FromHex(hexed)
	c.Assert(err, qt.IsNil)
	c.Assert(fromHex, qt.DeepEquals, p)

	c.Assert(recovered.Unmarshal(data[:64]), qt.IsNotNil)
}

// TestProofChainRegressionVector pins the whole hash chain for a fixed note,
// secret and deployment string.
func TestProofChainRegressionVector(t *testing.T) {
	c := qt.New(t)

	n := &note.ExitNote{
		Amount: 1_000_000,
		Terms:  note.Standard{},
	}
	for i := range n.Blinding {
		n.Blinding[i] = 0x01
	}
	secret := make([]byte, types.SecretSize)
	for i := range secret {
		secret[i] = 0x07
	}

	domain := NewDomain([]byte("voile-test-v1"))
	c.Assert(domain.String(), qt.Equals,
		"0xfe3047dbd7391fa99eccc5cc06ef6e48ca1d3ce16c540763da6021029fb3f35e")

	p, err := NewGenerator(domain).Generate(n, secret)
	c.Assert(err, qt.IsNil)
	c.Assert(p.Nullifier.String(), qt.Equals,
		"0xfad2bee5a1bbb64513fb6cf208b9f3da2ef98a38b338de8ac5f2a7323b2be80d")
	c.Assert(types.HexBytes(p.Tag[:]).String(), qt.Equals,
		"0x8694503bf9d3fae8741c01081cd04f68550b4e9c0b71768c38f1596c86663bd8")

	binding, err := ComputeSecretBinding(domain, secret)
	c.Assert(err, qt.IsNil)
	c.Assert(binding.String(), qt.Equals,
		"0xb840e0919d8e6eb0cef34e8080997af92d977fffe67eb6e3e906633c7f75052a")
}
