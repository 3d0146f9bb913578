package types

const (
	// HashSize is the size in bytes of every protocol hash output
	// (commitments, nullifiers, tags, note ids).
	HashSize = 32
	// OwnerSize is the size in bytes of a note owner identifier.
	OwnerSize = 32
	// SecretSize is the size in bytes of an owner secret.
	SecretSize = 32
	// BlindingSize is the size in bytes of a commitment blinding factor.
	BlindingSize = 32
	// MaxBasisPoints is the upper bound for basis-point parameters in
	// custom exit terms.
	MaxBasisPoints = 10000
)
