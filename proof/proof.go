// Package proof implements the hash-based proof of knowledge that authorizes
// spending an exit note. A proof binds a note commitment, a deterministic
// nullifier and a verification tag through a Fiat-Shamir-style keccak chain
// seeded with a deployment domain separator.
//
// The scheme proves only "I know a secret bound to this commitment"; it is
// not a general zero-knowledge argument and makes no statement about the
// hidden note fields themselves.
package proof

import (
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/voileprotocol/voile-go/crypto/commitment"
	"github.com/voileprotocol/voile-go/note"
	"github.com/voileprotocol/voile-go/types"
)

// Size is the wire size of a serialized proof:
// commitment(32) || nullifier(32) || tag(32).
const Size = 3 * types.HashSize

// Labels used to separate the hash derivations from each other. Never reuse
// a label across derivations.
var (
	domainLabel    = []byte("voile/domain")
	nullifierLabel = []byte("voile/nullifier")
	challengeLabel = []byte("voile/challenge")
	tagLabel       = []byte("voile/tag")
	bindingLabel   = []byte("voile/binding")
)

// Domain is the deployment-specific separator mixed into every challenge
// derivation hash. Proofs generated under one domain never verify under
// another.
type Domain [types.HashSize]byte

// NewDomain derives a Domain from a deployment identifier, typically chain
// id plus protocol version.
func NewDomain(deployment []byte) Domain {
	var d Domain
	copy(d[:], ethcrypto.Keccak256(domainLabel, deployment))
	return d
}

func (d Domain) String() string {
	return types.HexBytes(d[:]).String()
}

// Nullifier is the deterministic, secret-derived tag consumed once per note
// to prevent replay.
type Nullifier [types.HashSize]byte

// Bytes returns the nullifier as a byte slice.
func (n Nullifier) Bytes() []byte {
	return n[:]
}

func (n Nullifier) String() string {
	return types.HexBytes(n[:]).String()
}

// SecretBinding is the public commitment to an owner secret that a verifier
// receives at account setup. It is derived from the secret but does not
// reveal it.
type SecretBinding [types.HashSize]byte

func (b SecretBinding) String() string {
	return types.HexBytes(b[:]).String()
}

// ExitProof is the public tuple submitted to spend a note. It reveals
// nothing about the note beyond its (hiding) commitment.
type ExitProof struct {
	Commitment commitment.Commitment
	Nullifier  Nullifier
	Tag        [types.HashSize]byte
}

// Marshal serializes the proof to its fixed 96-byte wire format.
func (p *ExitProof) Marshal() []byte {
	out := make([]byte, 0, Size)
	out = append(out, p.Commitment.Bytes()...)
	out = append(out, p.Nullifier[:]...)
	out = append(out, p.Tag[:]...)
	return out
}

// Unmarshal parses a 96-byte wire proof.
func (p *ExitProof) Unmarshal(data []byte) error {
	if len(data) != Size {
		return fmt.Errorf("invalid proof length: expected %d bytes, got %d", Size, len(data))
	}
	c, err := commitment.FromBytes(data[:types.HashSize])
	if err != nil {
		return err
	}
	p.Commitment = c
	copy(p.Nullifier[:], data[types.HashSize:2*types.HashSize])
	copy(p.Tag[:], data[2*types.HashSize:])
	return nil
}

// String returns the proof hex-encoded for submission.
func (p *ExitProof) String() string {
	return types.HexBytes(p.Marshal()).String()
}

// FromHex parses a proof from its hex transport encoding, with or without
// the 0x prefix.
func FromHex(s string) (*ExitProof, error) {
	var hb types.HexBytes
	if err := hb.FromHex(s); err != nil {
		return nil, fmt.Errorf("invalid proof hex: %w", err)
	}
	p := &ExitProof{}
	if err := p.Unmarshal(hb); err != nil {
		return nil, err
	}
	return p, nil
}

// ComputeNullifier derives the nullifier for a note id and owner secret
// under the given domain. It is a pure function: the same inputs always
// collide on the same nullifier.
func ComputeNullifier(d Domain, noteID [types.HashSize]byte, ownerSecret []byte) Nullifier {
	var n Nullifier
	copy(n[:], ethcrypto.Keccak256(nullifierLabel, d[:], noteID[:], ownerSecret))
	return n
}

// ComputeChallenge derives the Fiat-Shamir challenge binding a commitment
// and nullifier to the domain. Both prover and verifier can compute it from
// public values.
func ComputeChallenge(d Domain, c commitment.Commitment, n Nullifier) [types.HashSize]byte {
	var ch [types.HashSize]byte
	copy(ch[:], ethcrypto.Keccak256(challengeLabel, d[:], c.Bytes(), n[:]))
	return ch
}

// ComputeTag derives the verification tag from a challenge and a secret
// binding.
func ComputeTag(challenge [types.HashSize]byte, binding SecretBinding) [types.HashSize]byte {
	var tag [types.HashSize]byte
	copy(tag[:], ethcrypto.Keccak256(tagLabel, challenge[:], binding[:]))
	return tag
}

// ComputeSecretBinding derives the public binding of an owner secret under
// the given domain. The owner registers this value with the verifier at
// account setup; the raw secret never leaves the owner's device.
func ComputeSecretBinding(d Domain, ownerSecret []byte) (SecretBinding, error) {
	if len(ownerSecret) != types.SecretSize {
		return SecretBinding{}, fmt.Errorf("invalid owner secret length: expected %d bytes, got %d", types.SecretSize, len(ownerSecret))
	}
	var b SecretBinding
	copy(b[:], ethcrypto.Keccak256(bindingLabel, d[:], ownerSecret))
	return b, nil
}

// Generator produces exit proofs. It is stateless apart from its domain and
// safe for concurrent use.
type Generator struct {
	domain Domain
}

// NewGenerator creates a proof generator for the given domain.
func NewGenerator(domain Domain) *Generator {
	return &Generator{domain: domain}
}

// Domain returns the generator's domain separator.
func (g *Generator) Domain() Domain {
	return g.domain
}

// Generate builds the proof tuple for a note and its owner's secret:
//
//	nullifier = H(domain || note.ID || secret)
//	challenge = H(domain || commitment || nullifier)
//	tag       = H(challenge || binding(secret))
//
// The secret must be exactly 32 bytes.
func (g *Generator) Generate(n *note.ExitNote, ownerSecret []byte) (*ExitProof, error) {
	if n == nil {
		return nil, fmt.Errorf("note is required")
	}
	binding, err := ComputeSecretBinding(g.domain, ownerSecret)
	if err != nil {
		return nil, err
	}
	c, err := n.Commitment()
	if err != nil {
		return nil, fmt.Errorf("compute commitment: %w", err)
	}
	nullifier := ComputeNullifier(g.domain, n.ID(), ownerSecret)
	challenge := ComputeChallenge(g.domain, c, nullifier)
	return &ExitProof{
		Commitment: c,
		Nullifier:  nullifier,
		Tag:        ComputeTag(challenge, binding),
	}, nil
}
