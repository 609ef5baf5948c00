package circuit

import (
	"github.com/consensys/gnark/frontend"

	"github.com/muridata/por-core/internal/field"
)

// StepCircuit is the shape-polymorphic step circuit of spec.md §4.6,
// parametrized by a shape (F, Df, Da). F, Df, Da are plain Go ints fixed
// at construction/compile time (like circuits/fsp/circuit.go's
// MaxTreeDepth-sized constant arrays), not circuit variables; a new
// shape means a new StepCircuit value and a fresh Compile/Setup, which
// is exactly what internal/shape's parameter cache keys on.
//
// Public IO matches spec.md §4.6's literal "2 + 4F" primary vector
// (AggregatedRoot, StateIn, then four length-F blocks), with one
// necessary addition: StepCounter. Spec.md leaves the step-circuit's
// "recursive stepper" underspecified for the non-folding realization
// this module uses (no Nova/IVC-folding library exists anywhere in the
// retrieval pack; internal/recur drives independent per-step Groth16
// proofs instead — see internal/recur's doc comment and DESIGN.md).
// Without true folding, nothing binds a step's index-derivation input
// "step" to its actual position t in the sequence unless it is public:
// a private StepCounter would let a dishonest prover replay the same
// step value across every proof, narrowing which symbols ever get
// challenged. Making it public costs nothing functionally (both prover
// and verifier already know which step of the schedule a given proof is
// for) and restores the intended per-step unpredictability.
type StepCircuit struct {
	// Public IO.
	AggregatedRoot frontend.Variable   `gnark:",public"`
	StateIn        frontend.Variable   `gnark:",public"`
	LedgerIndex    []frontend.Variable `gnark:",public"`
	PublicDepth    []frontend.Variable `gnark:",public"`
	Seed           []frontend.Variable `gnark:",public"`
	Leaf           []frontend.Variable `gnark:",public"`
	StepCounter    frontend.Variable   `gnark:",public"`

	// Private advice, one entry per slot f in [0,F) unless noted.
	Symbol     []frontend.Variable   // F: the challenged symbol's field encoding
	MerklePath [][]frontend.Variable // F x Df: file-tree sibling path
	LedgerPath [][]frontend.Variable // F x Da: aggregated-ledger sibling path (unused when Da==0)

	// Shape, fixed at compile time.
	F  int `gnark:"-"`
	Df int `gnark:"-"`
	Da int `gnark:"-"`
}

// New builds a StepCircuit skeleton of the given shape with every slice
// correctly sized, ready for frontend.Compile. Witness values are filled
// in afterward (or left as placeholders when only the shape matters, as
// in internal/shape's dummy-witness parameter generation).
func New(f, df, da int) *StepCircuit {
	c := &StepCircuit{
		F: f, Df: df, Da: da,
		LedgerIndex: make([]frontend.Variable, f),
		PublicDepth: make([]frontend.Variable, f),
		Seed:        make([]frontend.Variable, f),
		Leaf:        make([]frontend.Variable, f),
		Symbol:      make([]frontend.Variable, f),
		MerklePath:  make([][]frontend.Variable, f),
	}
	for i := range c.MerklePath {
		c.MerklePath[i] = make([]frontend.Variable, df)
	}
	if da > 0 {
		c.LedgerPath = make([][]frontend.Variable, f)
		for i := range c.LedgerPath {
			c.LedgerPath[i] = make([]frontend.Variable, da)
		}
	}
	return c
}

// Define implements the R1CS synthesis of spec.md §4.6.
func (c *StepCircuit) Define(api frontend.API) error {
	p, err := newPermutation(api)
	if err != nil {
		return err
	}

	current := c.StateIn

	for f := 0; f < c.F; f++ {
		active := api.Sub(1, api.IsZero(c.PublicDepth[f]))

		idx := deriveIndex(api, p, c.Seed[f], current, c.StepCounter, c.Df)

		fileRoot := maskedMerkleRoot(api, p, c.Symbol[f], idx, c.MerklePath[f], c.PublicDepth[f], c.Df)

		rc := taggedHash(api, p, field.TagRC, fileRoot, c.PublicDepth[f])

		if c.Da > 0 {
			computedAggRoot := ledgerFold(api, p, rc, c.LedgerIndex[f], c.LedgerPath[f], c.Da)
			// Only an active slot's ledger membership need hold; a
			// padding slot's rc/path are unconstrained filler.
			diff := api.Sub(computedAggRoot, c.AggregatedRoot)
			api.AssertIsEqual(api.Mul(active, diff), 0)
		} else if c.F == 1 {
			// Single-file batch, no aggregated ledger: bind the
			// aggregated root directly to the file root (spec.md §4.6
			// step 4 "When Da = 0 and F = 1, bind aggregated_root =
			// file_root_f directly").
			api.AssertIsEqual(c.AggregatedRoot, fileRoot)
		}

		leafOut := api.Select(active, c.Symbol[f], 0)
		api.AssertIsEqual(c.Leaf[f], leafOut)

		nextState := taggedHash(api, p, field.TagStateUpdate, current, leafOut)
		current = api.Select(active, nextState, current)
	}

	return nil
}
