// Package circuit implements spec.md §4.6: the shape-polymorphic step
// circuit realizing Merkle verification, ledger membership, depth
// binding, and gated state/leaf updates as an R1CS. Grounded throughout
// on circuits/poi/circuit.go and circuits/poi/merkle.go (the
// hash.NewMerkleDamgardHasher(api, p, 0) / poseidon2.NewPoseidon2FromParameters
// idiom, the api.Select-based direction gating, the api.IsZero-based
// monotonicity gating) and on circuits/fsp/circuit.go (precomputed
// zero-subtree-style constants, depth binding via a decrementing mask).
package circuit

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/permutation/poseidon2"

	"github.com/muridata/por-core/internal/field"
)

// newPermutation mirrors the (width=2, rf=6, rp=50) Poseidon2 parameters
// used throughout circuits/poi and circuits/fsp.
func newPermutation(api frontend.API) (poseidon2.Permutation, error) {
	return poseidon2.NewPoseidon2FromParameters(api, 2, 6, 50)
}

// taggedHash absorbs a domain tag constant then each operand, mirroring
// internal/field.TaggedHash's off-circuit sponge discipline via gnark's
// std/hash Merkle-Damgard sponge (the same primitive circuits/poi/circuit.go
// uses for its own keyed/aggregate hashing, just without tag separation
// there).
func taggedHash(api frontend.API, p poseidon2.Permutation, tag field.Tag, operands ...frontend.Variable) frontend.Variable {
	h := hash.NewMerkleDamgardHasher(api, p, 0)
	h.Write(frontend.Variable(int(tag)))
	h.Write(operands...)
	out := h.Sum()
	h.Reset()
	return out
}
