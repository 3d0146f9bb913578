package note

import (
	"encoding/binary"
	"fmt"

	"github.com/voileprotocol/voile-go/types"
)

// termsCodecVersion prefixes every encoded Terms value. Commitments are
// computed over this encoding, so adding a new variant (or changing an
// existing layout under a bumped version) never silently changes the
// commitments of already issued notes.
const termsCodecVersion = 0x01

// Variant tags of the terms encoding. Append only, never renumber.
const (
	termsTagImmediate = 0x00
	termsTagStandard  = 0x01
	termsTagDelayed   = 0x02
	termsTagCustom    = 0x03
)

// Terms describes how an exit request wants to be settled. It is a closed
// sum type: the only implementations are Immediate, Standard, Delayed and
// Custom.
type Terms interface {
	// Encode returns the canonical versioned byte encoding of the variant.
	Encode() []byte
	// Validate checks the variant parameters.
	Validate() error

	termsVariant()
}

// Immediate exits without a waiting period. The penalty factor it implies is
// applied downstream, outside this core.
type Immediate struct{}

// Standard exits following the normal unlock schedule.
type Standard struct{}

// Delayed exits after an additional number of blocks.
type Delayed struct {
	Blocks uint64
}

// Custom exits under caller-supplied rate and slippage bounds, both in basis
// points.
type Custom struct {
	MinRateBPS     uint16
	MaxSlippageBPS uint16
}

func (Immediate) termsVariant() {}
func (Standard) termsVariant()  {}
func (Delayed) termsVariant()   {}
func (Custom) termsVariant()    {}

func (Immediate) Encode() []byte {
	return []byte{termsCodecVersion, termsTagImmediate}
}

func (Standard) Encode() []byte {
	return []byte{termsCodecVersion, termsTagStandard}
}

func (t Delayed) Encode() []byte {
	out := make([]byte, 10)
	out[0] = termsCodecVersion
	out[1] = termsTagDelayed
	binary.BigEndian.PutUint64(out[2:], t.Blocks)
	return out
}

func (t Custom) Encode() []byte {
	out := make([]byte, 6)
	out[0] = termsCodecVersion
	out[1] = termsTagCustom
	binary.BigEndian.PutUint16(out[2:], t.MinRateBPS)
	binary.BigEndian.PutUint16(out[4:], t.MaxSlippageBPS)
	return out
}

func (Immediate) Validate() error { return nil }
func (Standard) Validate() error  { return nil }
func (Delayed) Validate() error   { return nil }

func (t Custom) Validate() error {
	if t.MinRateBPS > types.MaxBasisPoints {
		return fmt.Errorf("min rate out of range: %d bps", t.MinRateBPS)
	}
	if t.MaxSlippageBPS > types.MaxBasisPoints {
		return fmt.Errorf("max slippage out of range: %d bps", t.MaxSlippageBPS)
	}
	return nil
}

// DecodeTerms parses a canonical Terms encoding produced by Encode.
func DecodeTerms(data []byte) (Terms, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("terms encoding too short: %d bytes", len(data))
	}
	if data[0] != termsCodecVersion {
		return nil, fmt.Errorf("unsupported terms codec version: %d", data[0])
	}
	switch tag, payload := data[1], data[2:]; tag {
	case termsTagImmediate:
		if len(payload) != 0 {
			return nil, fmt.Errorf("unexpected payload for immediate terms")
		}
		return Immediate{}, nil
	case termsTagStandard:
		if len(payload) != 0 {
			return nil, fmt.Errorf("unexpected payload for standard terms")
		}
		return Standard{}, nil
	case termsTagDelayed:
		if len(payload) != 8 {
			return nil, fmt.Errorf("invalid delayed terms payload: %d bytes", len(payload))
		}
		return Delayed{Blocks: binary.BigEndian.Uint64(payload)}, nil
	case termsTagCustom:
		if len(payload) != 4 {
			return nil, fmt.Errorf("invalid custom terms payload: %d bytes", len(payload))
		}
		t := Custom{
			MinRateBPS:     binary.BigEndian.Uint16(payload[:2]),
			MaxSlippageBPS: binary.BigEndian.Uint16(payload[2:]),
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown terms variant: %d", tag)
	}
}
