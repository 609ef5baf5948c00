// Package params holds the protocol-facing constants fixed by spec.md §6:
// symbol size, Reed-Solomon codeword shape, and wire-format framing. These
// are compile-time constants, mirroring the teacher's config.FileSize /
// config.ElementSize / config.MaxTreeDepth pattern, rather than a parsed
// configuration file — por-core ships no deployment configuration of its
// own; the outer metaprotocol owns that.
package params

const (
	// SymbolSize is the payload width of a Symbol in bytes (spec.md §3).
	SymbolSize = 31

	// CodewordSize is the total symbols per Reed-Solomon codeword.
	CodewordSize = 255
	// CodewordData is the number of data symbols per codeword.
	CodewordData = 231
	// CodewordParity is the number of parity symbols per codeword.
	CodewordParity = CodewordSize - CodewordData

	// ShapeCacheSize bounds the LRU parameter cache (spec.md §4.7).
	ShapeCacheSize = 50

	// DefaultShapeDir is the relative directory shape.Default publishes
	// and loads Groth16 parameters from, so independent processes sharing
	// a working directory (or a volume mounted at this path) converge on
	// the same (pk, vk) per shape instead of each generating its own.
	DefaultShapeDir = "por-shapes"

	// MaxAggregationSteps bounds the largest recursive-aggregator tier
	// internal/shape will compile a step count up to (internal/recur's
	// proof-composition driver, spec.md §4.8). A batch's num_challenges is
	// rounded up to the next power of two at or below this cap.
	MaxAggregationSteps = 64

	// WireMagic tags serialized proofs (spec.md §4.11).
	WireMagic = uint32(0x504f5201) // written little-endian: bytes 0x01 'R' 'O' 'P'
	// WireVersion is the current wire format version.
	WireVersion = uint16(1)

	// ChallengeIDSize is the byte length of a ChallengeID (spec.md §3).
	ChallengeIDSize = 32
	// FieldElementSize is the canonical little-endian encoding width of a
	// FieldElement (spec.md §3).
	FieldElementSize = 32

	// MaxRejectionAttempts bounds the rejection-sampling loop used by the
	// unbiased index derivation of spec.md §4.5, both off-circuit
	// (internal/commitment) and in-circuit (internal/circuit), so the two
	// realizations stay a fixed-iteration, bit-for-bit match. A single
	// attempt already rejects with probability at most 2^-(253-depth) for
	// any plausible tree depth, so exhausting every attempt is
	// astronomically unlikely; the final attempt's value is used
	// unconditionally as a fallback rather than looping unboundedly
	// (unbounded loops cannot be synthesized into a circuit).
	MaxRejectionAttempts = 4
)
