// Package notecipher provides the symmetric encryption used to park exit
// notes off-chain. It is a stream cipher built from the keccak sponge: each
// keystream block is keccak256(key || nonce || counter), XORed with the
// plaintext, so the ciphertext is exactly as long as the plaintext. A keyed
// keccak MAC over (nonce || ciphertext) authenticates the result, and
// decryption fails closed on any mismatch.
//
// A (key, nonce) pair must never encrypt two different plaintexts; the nonce
// is drawn fresh from crypto/rand on every Seal call.
package notecipher

import (
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/voileprotocol/voile-go/types"
	"github.com/voileprotocol/voile-go/util"
	"golang.org/x/crypto/sha3"
)

const (
	// KeySize is the size in bytes of an encryption key.
	KeySize = 32
	// NonceSize is the size in bytes of the per-message nonce.
	NonceSize = 16
	// TagSize is the size in bytes of the authentication tag.
	TagSize = 32
)

var (
	// ErrMACMismatch is returned when the authentication tag does not match,
	// meaning the ciphertext was tampered with or the wrong key was used.
	ErrMACMismatch = errors.New("authentication tag mismatch")
)

// macKeyLabel separates the MAC subkey from the cipher key.
var macKeyLabel = []byte("voile/mac-key")

// Key is a 32-byte symmetric encryption key.
type Key [KeySize]byte

// GenerateKey draws a fresh random key from crypto/rand.
func GenerateKey() Key {
	var k Key
	copy(k[:], util.RandomBytes(KeySize))
	return k
}

// KeyFromBytes builds a Key from a 32-byte slice.
func KeyFromBytes(data []byte) (Key, error) {
	if len(data) != KeySize {
		return Key{}, fmt.Errorf("invalid key length: expected %d bytes, got %d", KeySize, len(data))
	}
	var k Key
	copy(k[:], data)
	return k, nil
}

// Bytes returns the key material. Handle with care.
func (k Key) Bytes() []byte {
	return k[:]
}

// macKey derives the authentication subkey from the cipher key.
func (k Key) macKey() []byte {
	return ethcrypto.Keccak256(macKeyLabel, k[:])
}

// Sealed is an encrypted payload: nonce, authentication tag and ciphertext.
// The ciphertext has exactly the length of the original plaintext.
type Sealed struct {
	Nonce      types.HexBytes `json:"nonce"`
	Tag        types.HexBytes `json:"tag"`
	Ciphertext types.HexBytes `json:"ciphertext"`
}

// Seal encrypts and authenticates plaintext under key with a fresh random
// nonce.
func Seal(key Key, plaintext []byte) (*Sealed, error) {
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("cannot seal an empty plaintext")
	}
	nonce := util.RandomBytes(NonceSize)
	ciphertext := xorKeystream(key, nonce, plaintext)
	tag := ethcrypto.Keccak256(key.macKey(), nonce, ciphertext)
	return &Sealed{
		Nonce:      nonce,
		Tag:        tag,
		Ciphertext: ciphertext,
	}, nil
}

// Open authenticates and decrypts the sealed payload. It returns
// ErrMACMismatch, and no plaintext, if the tag does not verify under key.
func (s *Sealed) Open(key Key) ([]byte, error) {
	if len(s.Nonce) != NonceSize {
		return nil, fmt.Errorf("invalid nonce length: expected %d bytes, got %d", NonceSize, len(s.Nonce))
	}
	if len(s.Tag) != TagSize {
		return nil, fmt.Errorf("invalid tag length: expected %d bytes, got %d", TagSize, len(s.Tag))
	}
	expected := ethcrypto.Keccak256(key.macKey(), s.Nonce, s.Ciphertext)
	if subtle.ConstantTimeCompare(expected, s.Tag) != 1 {
		return nil, ErrMACMismatch
	}
	return xorKeystream(key, s.Nonce, s.Ciphertext), nil
}

// Marshal serializes the sealed payload as nonce || tag || ciphertext.
func (s *Sealed) Marshal() []byte {
	out := make([]byte, 0, NonceSize+TagSize+len(s.Ciphertext))
	out = append(out, s.Nonce...)
	out = append(out, s.Tag...)
	out = append(out, s.Ciphertext...)
	return out
}

// Unmarshal parses a payload serialized by Marshal.
func (s *Sealed) Unmarshal(data []byte) error {
	if len(data) <= NonceSize+TagSize {
		return fmt.Errorf("sealed payload too short: %d bytes", len(data))
	}
	s.Nonce = append(types.HexBytes{}, data[:NonceSize]...)
	s.Tag = append(types.HexBytes{}, data[NonceSize:NonceSize+TagSize]...)
	s.Ciphertext = append(types.HexBytes{}, data[NonceSize+TagSize:]...)
	return nil
}

// xorKeystream XORs data with the keccak keystream derived from (key, nonce).
// Encryption and decryption are the same operation.
func xorKeystream(key Key, nonce, data []byte) []byte {
	out := make([]byte, len(data))
	block := make([]byte, types.HashSize)
	var counter [8]byte
	for off := 0; off < len(data); off += types.HashSize {
		h := sha3.NewLegacyKeccak256()
		h.Write(key[:])
		h.Write(nonce)
		binary.BigEndian.PutUint64(counter[:], uint64(off/types.HashSize))
		h.Write(counter[:])
		block = h.Sum(block[:0])
		for i := 0; i < types.HashSize && off+i < len(data); i++ {
			out[off+i] = data[off+i] ^ block[i]
		}
	}
	return out
}
