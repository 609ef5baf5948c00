// Package commitment implements spec.md §4.5: the per-step state chain,
// the unbiased challenge-index derivation, and ChallengeID construction.
// Grounded on internal/field's TaggedHash (itself grounded on
// pkg/crypto/crypto.go's HashWithDomainTag) plus gnark-crypto's fr.Element
// BigInt/Modulus accessors, the same pair the teacher uses in
// pkg/merkle/merkle.go's SMT serialization round trip.
package commitment

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/muridata/por-core/internal/field"
	"github.com/muridata/por-core/internal/params"
)

// InitialState is s_0 in the state chain.
func InitialState() field.Element {
	return field.Element{}
}

// NextState computes s_{t+1} = H(TAG_STATE_UPDATE, s_t, leaf_t) (spec.md
// §4.5), binding step order and content.
func NextState(prev, leaf field.Element) field.Element {
	return field.TaggedHash(field.TagStateUpdate, prev, leaf)
}

// FoldStep threads stateIn through every slot of one macro-step in index
// order (spec.md §4.6 step 6: "slots compose sequentially within the step:
// the per-step state threads through all F slots in index order"), gating
// each slot's update by whether it is active (publicDepth[f] != 0). This is
// the off-circuit mirror of internal/circuit.StepCircuit.Define's inner
// loop, over leaves already revealed as public step outputs — used by
// internal/recur to track the running state across a batch's real steps,
// which becomes the state_in of any padding step and the StateOut the
// aggregator proof is asked to prove.
func FoldStep(stateIn field.Element, leaves []field.Element, publicDepth []int) field.Element {
	current := stateIn
	for f := range leaves {
		if f < len(publicDepth) && publicDepth[f] == 0 {
			continue // padding slot: no-op, matching the circuit's active_f gate
		}
		current = NextState(current, leaves[f])
	}
	return current
}

// DeriveIndex computes the challenge index for file slot f at step t:
// h = H(TAG_INDEX_DERIVE, seed, state, step), projected into
// [0, 2^depth) via rejection sampling over the field's uniform output
// rather than a naive (biased) modular reduction (spec.md §4.5). depth=0
// (a single-leaf tree) always yields index 0.
//
// The rejection loop is bounded to params.MaxRejectionAttempts so this
// function and the in-circuit realization (internal/circuit) perform the
// exact same fixed sequence of samples and agree bit-for-bit; past the
// bound, the final sample's masked low bits are used unconditionally,
// which reintroduces bias only in the astronomically unlikely tail where
// every one of params.MaxRejectionAttempts samples lands in the rejected
// region (probability <= (2^depth/modulus)^MaxRejectionAttempts).
func DeriveIndex(seed, state field.Element, step uint64, depth int) int {
	if depth <= 0 {
		return 0
	}

	rangeSize := new(big.Int).Lsh(big.NewInt(1), uint(depth))
	modulus := fr.Modulus()
	// limit is the largest multiple of rangeSize that is <= modulus; any
	// sample below limit reduces to a perfectly uniform value mod
	// rangeSize, so rejecting samples >= limit introduces no bias
	// (spec.md §4.5 "provably-unbiased modular reduction with masked
	// high bits", realized here as reject-above-limit then mask).
	limit := new(big.Int).Div(modulus, rangeSize)
	limit.Mul(limit, rangeSize)
	mask := new(big.Int).Sub(rangeSize, big.NewInt(1))

	h := field.TaggedHash(field.TagIndexDerive, seed, state, field.FromUint64(step))

	for attempt := 0; attempt < params.MaxRejectionAttempts; attempt++ {
		v := new(big.Int)
		h.BigInt(v)
		if v.Cmp(limit) < 0 {
			v.And(v, mask)
			return int(v.Int64())
		}
		// Rejected: resample deterministically by folding the attempt
		// counter into a fresh tagged hash of the prior sample.
		h = field.TaggedHash(field.TagIndexDerive, h, field.FromUint64(uint64(attempt)))
	}

	v := new(big.Int)
	h.BigInt(v)
	v.And(v, mask)
	return int(v.Int64())
}

// ChallengeID computes the 32-byte challenge identifier of spec.md §3:
// H(TAG_CID, block_height, seed, file_id, root, depth, num_challenges,
// prover_id). file_id and prover_id are opaque strings, folded into field
// elements via field.HashBytes before entering the tagged hash (spec.md
// §4.2 "any byte string wider than 31 bytes must be split or hashed
// before entering a tagged hash").
func ChallengeID(blockHeight uint64, seed field.Element, fileID string, root field.Element, depth int, numChallenges uint64, proverID string) [32]byte {
	h := field.TaggedHash(
		field.TagCID,
		field.FromUint64(blockHeight),
		seed,
		field.HashBytes([]byte(fileID)),
		root,
		field.FromUint64(uint64(depth)),
		field.FromUint64(numChallenges),
		field.HashBytes([]byte(proverID)),
	)
	return field.CanonicalBytes(h)
}
