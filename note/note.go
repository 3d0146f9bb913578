// Package note implements the private exit note: the amount a user wants to
// unstake, the owner identifier, the exit terms and the random blinding
// factor that hides the commitment. Notes are created locally, never mutated
// after construction, and leave the owner's device only as a commitment or
// as an authenticated ciphertext.
package note

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/voileprotocol/voile-go/crypto/commitment"
	"github.com/voileprotocol/voile-go/crypto/notecipher"
	"github.com/voileprotocol/voile-go/types"
	"github.com/voileprotocol/voile-go/util"
)

// noteLayoutVersion prefixes the canonical note serialization and the
// commitment preimage.
const noteLayoutVersion = 0x01

// minNoteSize is the serialized size of a note with the smallest terms
// encoding: version(1) + amount(8) + owner(32) + createdAt(8) + blinding(32)
// + termsLen(2) + terms(>=2).
const minNoteSize = 1 + 8 + types.OwnerSize + 8 + types.BlindingSize + 2 + 2

// noteIDLabel separates the note id derivation from every other hash in the
// protocol.
var noteIDLabel = []byte("voile/note-id")

// ExitNote is a private exit request. The blinding factor is drawn once at
// construction; changing any field requires building a new note with a fresh
// blinding.
type ExitNote struct {
	Amount    uint64
	Owner     [types.OwnerSize]byte
	Terms     Terms
	Blinding  [types.BlindingSize]byte
	CreatedAt uint64
}

// New builds an exit note with a fresh random blinding factor. The amount
// must be nonzero and the owner identifier exactly 32 bytes.
func New(amount uint64, owner []byte, terms Terms) (*ExitNote, error) {
	if amount == 0 {
		return nil, fmt.Errorf("exit amount must be nonzero")
	}
	if len(owner) != types.OwnerSize {
		return nil, fmt.Errorf("invalid owner length: expected %d bytes, got %d", types.OwnerSize, len(owner))
	}
	if terms == nil {
		return nil, fmt.Errorf("exit terms are required")
	}
	if err := terms.Validate(); err != nil {
		return nil, fmt.Errorf("invalid exit terms: %w", err)
	}
	n := &ExitNote{
		Amount:    amount,
		Terms:     terms,
		Blinding:  util.Random32(),
		CreatedAt: uint64(time.Now().Unix()),
	}
	copy(n.Owner[:], owner)
	return n, nil
}

// commitmentPreimage is the canonical public-field layout committed to:
// version(1) || amount(8, big-endian) || owner(32) || terms. CreatedAt and
// the blinding factor are deliberately excluded so that the commitment and
// the note id are pure functions of (amount, owner, terms, blinding).
func (n *ExitNote) commitmentPreimage() []byte {
	terms := n.Terms.Encode()
	buf := make([]byte, 0, 1+8+types.OwnerSize+len(terms))
	buf = append(buf, noteLayoutVersion)
	buf = binary.BigEndian.AppendUint64(buf, n.Amount)
	buf = append(buf, n.Owner[:]...)
	buf = append(buf, terms...)
	return buf
}

// ID returns the deterministic note identifier, a keccak256 digest over the
// note fields and the blinding factor. Two notes that differ only in their
// blinding have different ids.
func (n *ExitNote) ID() [types.HashSize]byte {
	var id [types.HashSize]byte
	copy(id[:], ethcrypto.Keccak256(noteIDLabel, n.commitmentPreimage(), n.Blinding[:]))
	return id
}

// Commitment computes the hiding commitment for this note. The result is
// safe to publish.
func (n *ExitNote) Commitment() (commitment.Commitment, error) {
	if err := n.Terms.Validate(); err != nil {
		return commitment.Commitment{}, fmt.Errorf("invalid exit terms: %w", err)
	}
	return commitment.Commit(n.commitmentPreimage(), n.Blinding)
}

// VerifyCommitment reports whether c opens to this note.
func (n *ExitNote) VerifyCommitment(c commitment.Commitment) bool {
	return c.Verify(n.commitmentPreimage(), n.Blinding)
}

// Bytes returns the full canonical serialization of the note, including the
// blinding factor. This form exists to be sealed with the note cipher; it
// must never be transmitted in the clear.
func (n *ExitNote) Bytes() []byte {
	terms := n.Terms.Encode()
	buf := make([]byte, 0, minNoteSize+len(terms))
	buf = append(buf, noteLayoutVersion)
	buf = binary.BigEndian.AppendUint64(buf, n.Amount)
	buf = append(buf, n.Owner[:]...)
	buf = binary.BigEndian.AppendUint64(buf, n.CreatedAt)
	buf = append(buf, n.Blinding[:]...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(terms)))
	buf = append(buf, terms...)
	return buf
}

// FromBytes parses a note serialized by Bytes.
func FromBytes(data []byte) (*ExitNote, error) {
	if len(data) < minNoteSize {
		return nil, fmt.Errorf("serialized note too short: %d bytes", len(data))
	}
	if data[0] != noteLayoutVersion {
		return nil, fmt.Errorf("unsupported note layout version: %d", data[0])
	}
	n := &ExitNote{}
	r := bytes.NewReader(data[1:])
	if err := binary.Read(r, binary.BigEndian, &n.Amount); err != nil {
		return nil, fmt.Errorf("decode amount: %w", err)
	}
	if _, err := r.Read(n.Owner[:]); err != nil {
		return nil, fmt.Errorf("decode owner: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &n.CreatedAt); err != nil {
		return nil, fmt.Errorf("decode creation time: %w", err)
	}
	if _, err := r.Read(n.Blinding[:]); err != nil {
		return nil, fmt.Errorf("decode blinding: %w", err)
	}
	var termsLen uint16
	if err := binary.Read(r, binary.BigEndian, &termsLen); err != nil {
		return nil, fmt.Errorf("decode terms length: %w", err)
	}
	termsData := make([]byte, termsLen)
	if read, err := r.Read(termsData); err != nil || read != int(termsLen) {
		return nil, fmt.Errorf("serialized note truncated")
	}
	terms, err := DecodeTerms(termsData)
	if err != nil {
		return nil, err
	}
	n.Terms = terms
	if n.Amount == 0 {
		return nil, fmt.Errorf("exit amount must be nonzero")
	}
	return n, nil
}

// Seal encrypts the note's canonical serialization under key.
func (n *ExitNote) Seal(key notecipher.Key) (*notecipher.Sealed, error) {
	return notecipher.Seal(key, n.Bytes())
}

// Open decrypts a sealed note and parses it. It fails closed if the payload
// was sealed under a different key or tampered with.
func Open(sealed *notecipher.Sealed, key notecipher.Key) (*ExitNote, error) {
	plaintext, err := sealed.Open(key)
	if err != nil {
		return nil, err
	}
	return FromBytes(plaintext)
}
