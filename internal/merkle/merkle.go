// Package merkle implements the Poseidon binary Merkle tree described in
// spec.md §4.3: tag-separated leaf/node hashing, root and inclusion-path
// computation, and the identical off-circuit fold used to verify a path.
// Grounded on pkg/merkle/merkle.go, generalized from big.Int-keyed nodes
// and a caller-supplied HashFunc to field.Element leaves hashed through
// field.TaggedHash(field.TagNode, ...), and from a node-pointer tree to a
// flat per-level slice representation (spec.md fixes leaf count to
// next_pow2(n), so there is no sparse/gap case to special-case here; that
// belongs to the ledger's aggregated tree, which is always small).
package merkle

import (
	"github.com/muridata/por-core/internal/field"
	"github.com/muridata/por-core/internal/porerr"
)

// Tree is a complete binary Merkle tree over field.Element leaves.
type Tree struct {
	levels [][]field.Element // levels[0] = leaves, levels[len(levels)-1] = [root]
	nLeaves int // number of real (non-padding) leaves supplied to New
}

// NextPow2 returns the smallest power of two >= n, with NextPow2(0) == 1.
func NextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Log2 returns log2(n) for a power-of-two n >= 1 (Log2(1) == 0).
func Log2(n int) int {
	d := 0
	for n > 1 {
		n >>= 1
		d++
	}
	return d
}

// New builds a complete Merkle tree over leaves, zero-padding up to
// next_pow2(len(leaves)) (spec.md §4.3). A nil/empty input produces a
// single-leaf tree whose leaf is the zero field element.
func New(leaves []field.Element) *Tree {
	n := NextPow2(len(leaves))
	padded := make([]field.Element, n)
	copy(padded, leaves)
	// Remaining entries are already the zero field.Element value.

	levels := [][]field.Element{padded}
	cur := padded
	for len(cur) > 1 {
		next := make([]field.Element, len(cur)/2)
		for i := range next {
			next[i] = field.TaggedHash(field.TagNode, cur[2*i], cur[2*i+1])
		}
		levels = append(levels, next)
		cur = next
	}

	return &Tree{levels: levels, nLeaves: len(leaves)}
}

// Root returns the tree's root hash.
func (t *Tree) Root() field.Element {
	return t.levels[len(t.levels)-1][0]
}

// Depth returns log2(leaf count).
func (t *Tree) Depth() int {
	return len(t.levels) - 1
}

// LeafCount returns the number of (padded) leaves, always a power of two.
func (t *Tree) LeafCount() int {
	return len(t.levels[0])
}

// Leaf returns the leaf at index i (which may be a zero-padding leaf).
func (t *Tree) Leaf(i int) field.Element {
	return t.levels[0][i]
}

// Path returns the depth sibling hashes for leaf i, ordered bottom-up
// (spec.md §4.3 "path(i) returns the depth sibling hashes bottom-up").
func (t *Tree) Path(i int) ([]field.Element, error) {
	if i < 0 || i >= len(t.levels[0]) {
		return nil, porerr.New(porerr.InvalidInput, "merkle.Tree.Path")
	}
	depth := t.Depth()
	path := make([]field.Element, depth)
	idx := i
	for lvl := 0; lvl < depth; lvl++ {
		sibling := idx ^ 1
		path[lvl] = t.levels[lvl][sibling]
		idx >>= 1
	}
	return path, nil
}

// Verify folds leaf with path's sibling hashes using the binary
// representation of index, and checks the result equals root (spec.md
// §4.3). The same fold must be realized identically inside the circuit
// (see internal/circuit).
func Verify(leaf field.Element, index int, path []field.Element, root field.Element) bool {
	cur := leaf
	idx := index
	for _, sibling := range path {
		if idx&1 == 0 {
			cur = field.TaggedHash(field.TagNode, cur, sibling)
		} else {
			cur = field.TaggedHash(field.TagNode, sibling, cur)
		}
		idx >>= 1
	}
	return cur.Equal(&root)
}

// VerifyMasked is Verify generalized to spec.md §4.6 step 3: only the
// first activeDepth levels of path contribute to the fold (deeper levels
// are masked out), and the resulting partial fold is compared against
// root for any activeDepth; callers that need the partial-fold value
// itself (as the circuit does, to compare against file_root_f at exactly
// public_depth_f levels) should use FoldMasked directly.
func VerifyMasked(leaf field.Element, index int, path []field.Element, activeDepth int, root field.Element) bool {
	return FoldMasked(leaf, index, path, activeDepth).Equal(&root)
}

// FoldMasked folds only the first activeDepth siblings of path into leaf,
// leaving deeper levels untouched (their contribution is the identity,
// matching the circuit's "multiply by 0 via the active-level mask").
func FoldMasked(leaf field.Element, index int, path []field.Element, activeDepth int) field.Element {
	cur := leaf
	idx := index
	for lvl := 0; lvl < activeDepth && lvl < len(path); lvl++ {
		sibling := path[lvl]
		if idx&1 == 0 {
			cur = field.TaggedHash(field.TagNode, cur, sibling)
		} else {
			cur = field.TaggedHash(field.TagNode, sibling, cur)
		}
		idx >>= 1
	}
	return cur
}
