package circuit

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/permutation/poseidon2"

	"github.com/muridata/por-core/internal/field"
)

// maskedMerkleRoot folds leaf with path using idx's bit decomposition,
// masked so only the first publicDepth levels (a circuit witness, not a
// compile-time constant) contribute, and asserts the computed active
// depth equals publicDepth (spec.md §4.6 step 3). Returns the folded
// value, which callers treat as file_root_f.
//
// Grounded on circuits/poi/merkle.go's direction-gated api.Select fold,
// generalized from a fixed MaxTreeDepth/always-active loop to a
// variable-activation loop driven by a decrementing "remaining" counter
// rather than a sibling==0 sentinel (circuits/poi's convention, which
// cannot distinguish "padding" from a legitimately zero sibling hash).
func maskedMerkleRoot(api frontend.API, p poseidon2.Permutation, leaf, idx frontend.Variable, path []frontend.Variable, publicDepth frontend.Variable, df int) frontend.Variable {
	idxBits := api.ToBinary(idx, df)

	cur := leaf
	remaining := publicDepth
	for j := 0; j < df; j++ {
		levelActive := api.Sub(1, api.IsZero(remaining))

		sibling := path[j]
		dir := idxBits[j] // 0: current is left child, 1: current is right child
		left := api.Select(dir, sibling, cur)
		right := api.Select(dir, cur, sibling)
		folded := taggedHash(api, p, field.TagNode, left, right)

		cur = api.Select(levelActive, folded, cur)
		remaining = api.Sub(remaining, levelActive)
	}

	// remaining must reach exactly 0: publicDepth active levels were
	// consumed, constraining the computed depth to equal publicDepth
	// (spec.md §4.6 step 3 "constrain the computed depth... to equal
	// public_depth_f").
	api.AssertIsEqual(remaining, 0)

	return cur
}

// ledgerFold is maskedMerkleRoot specialized to a fixed, always-active
// depth (the aggregated ledger's depth D_a does not vary per slot or
// step, unlike a file's public_depth_f), used for the ledger-membership
// check of spec.md §4.6 step 4.
func ledgerFold(api frontend.API, p poseidon2.Permutation, leaf, idx frontend.Variable, path []frontend.Variable, da int) frontend.Variable {
	idxBits := api.ToBinary(idx, da)
	cur := leaf
	for j := 0; j < da; j++ {
		sibling := path[j]
		dir := idxBits[j]
		left := api.Select(dir, sibling, cur)
		right := api.Select(dir, cur, sibling)
		cur = taggedHash(api, p, field.TagNode, left, right)
	}
	return cur
}
