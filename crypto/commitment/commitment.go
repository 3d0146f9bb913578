// Package commitment implements the hiding-and-binding commitment scheme used
// to publish exit notes without revealing their contents. A commitment is the
// keccak256 digest of a canonical value encoding concatenated with a random
// 32-byte blinding factor: H(value || blinding). Hiding relies on the
// blinding factor coming from a cryptographically secure random source and
// never being reused across notes; binding relies on the collision
// resistance of keccak256.
package commitment

import (
	"bytes"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/voileprotocol/voile-go/types"
)

// Size is the size in bytes of a commitment.
const Size = types.HashSize

// Commitment is a 32-byte commitment to a private value.
type Commitment [Size]byte

// Commit computes the commitment to value under the given blinding factor.
// The value must be non-empty; callers are expected to pass a canonical,
// versioned encoding so that the same logical value always commits to the
// same digest.
func Commit(value []byte, blinding [types.BlindingSize]byte) (Commitment, error) {
	if len(value) == 0 {
		return Commitment{}, fmt.Errorf("cannot commit to an empty value")
	}
	var c Commitment
	copy(c[:], ethcrypto.Keccak256(value, blinding[:]))
	return c, nil
}

// Verify reports whether value and blinding open this commitment.
func (c Commitment) Verify(value []byte, blinding [types.BlindingSize]byte) bool {
	computed, err := Commit(value, blinding)
	if err != nil {
		return false
	}
	return bytes.Equal(c[:], computed[:])
}

// Bytes returns the commitment as a byte slice.
func (c Commitment) Bytes() []byte {
	return c[:]
}

func (c Commitment) String() string {
	return types.HexBytes(c[:]).String()
}

// FromBytes builds a Commitment from a 32-byte slice.
func FromBytes(data []byte) (Commitment, error) {
	if len(data) != Size {
		return Commitment{}, fmt.Errorf("invalid commitment length: expected %d bytes, got %d", Size, len(data))
	}
	var c Commitment
	copy(c[:], data)
	return c, nil
}

// FromHex builds a Commitment from a hex string, with or without the 0x
// prefix.
func FromHex(s string) (Commitment, error) {
	var hb types.HexBytes
	if err := hb.FromHex(s); err != nil {
		return Commitment{}, fmt.Errorf("invalid commitment hex: %w", err)
	}
	return FromBytes(hb)
}

// MarshalJSON encodes the commitment as a 0x-prefixed hex string.
func (c Commitment) MarshalJSON() ([]byte, error) {
	return types.HexBytes(c[:]).MarshalJSON()
}

// UnmarshalJSON decodes the commitment from a hex string.
func (c *Commitment) UnmarshalJSON(data []byte) error {
	var hb types.HexBytes
	if err := hb.UnmarshalJSON(data); err != nil {
		return err
	}
	parsed, err := FromBytes(hb)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
