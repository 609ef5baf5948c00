// Package recur drives spec.md §4.9's proving/verification pipeline down
// to a single constant-size Groth16 proof per batch: one inner StepCircuit
// proof per macro-step (real or padding), recursively verified inside
// internal/circuit.AggregatorCircuit, folded into one outer Groth16 proof
// that a verifier checks exactly once regardless of num_challenges.
//
// Grounded on circuits/poi/export.go's and test.go's prove/self-verify
// sequence (frontend.NewWitness -> witness.Public() -> groth16.Prove ->
// groth16.Verify) for the inner step proofs, and on
// pflow-xyz-go-pflow/prover/{aggregator,wrapper}.go's ToAssignment pattern
// (stdgroth16.ValueOfProof/ValueOfWitness/ValueOfVerifyingKey converting
// concrete groth16 objects into an AggregatorCircuit assignment, then one
// ordinary groth16.Prove/groth16.Verify pair over the outer circuit) for
// the recursive-composition step.
package recur

import (
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/emulated/sw_bn254"
	stdgroth16 "github.com/consensys/gnark/std/recursion/groth16"

	"github.com/muridata/por-core/internal/circuit"
	"github.com/muridata/por-core/internal/commitment"
	"github.com/muridata/por-core/internal/field"
	"github.com/muridata/por-core/internal/merkle"
	"github.com/muridata/por-core/internal/params"
	"github.com/muridata/por-core/internal/porerr"
	"github.com/muridata/por-core/internal/shape"
)

// AggregateStepCount rounds numChallenges up to the fixed step-count tier
// internal/shape compiles an aggregator circuit for: the smallest power of
// two at or above numChallenges. A batch whose num_challenges exceeds
// params.MaxAggregationSteps cannot be folded into one recursive proof and
// is rejected outright, rather than silently falling back to per-step
// proofs (spec.md's succinctness property holds per aggregate proof, not
// across an unbounded batch).
func AggregateStepCount(numChallenges uint64) (int, error) {
	if numChallenges == 0 || numChallenges > uint64(params.MaxAggregationSteps) {
		return 0, porerr.New(porerr.InvalidChallengeCount, "recur.AggregateStepCount")
	}
	return merkle.NextPow2(int(numChallenges)), nil
}

// StepProof is one macro-step's inner Groth16 proof plus the raw public
// witness it was produced against, kept in the form
// stdgroth16.ValueOfWitness needs rather than decomposed into
// PublicInputs: a step proof is now only ever consumed by the aggregator,
// never independently verified at the façade level.
type StepProof struct {
	Proof  groth16.Proof
	Public witness.Witness
}

// ProveStep runs frontend.NewWitness/groth16.Prove over a fully populated
// circuit assignment from internal/plan.BuildStepWitnesses, self-verifying
// before returning (circuits/poi/export.go's own "Proof verified
// successfully in Go!" discipline) so a broken proving key is caught at
// the prover, not shipped to a verifier as a silent false-reject.
func ProveStep(p *shape.Params, assignment *circuit.StepCircuit) (*StepProof, error) {
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, porerr.Wrap(porerr.Snark, "recur.ProveStep", err)
	}
	publicWitness, err := w.Public()
	if err != nil {
		return nil, porerr.Wrap(porerr.Snark, "recur.ProveStep", err)
	}

	proof, err := groth16.Prove(p.CCS, p.PK, w)
	if err != nil {
		return nil, porerr.Wrap(porerr.Snark, "recur.ProveStep", err)
	}
	if err := groth16.Verify(proof, p.VK, publicWitness); err != nil {
		return nil, porerr.Wrap(porerr.Snark, "recur.ProveStep", err)
	}

	return &StepProof{Proof: proof, Public: publicWitness}, nil
}

// paddingAssignment builds an all-inert StepCircuit witness for step index
// t: every slot's PublicDepth/LedgerIndex/Seed/Leaf/Symbol/MerklePath/
// LedgerPath is the zero field element, which StepCircuit.Define's
// IsZero(PublicDepth)-gated active mask accepts unconditionally regardless
// of AggregatedRoot or StateIn (the same zero-advice pattern
// plan.BuildStepWitnesses already relies on for an individual padding
// slot, here applied to every slot of a whole padding step).
func paddingAssignment(f, df, da int, aggregatedRoot, stateIn field.Element, t uint64) *circuit.StepCircuit {
	c := circuit.New(f, df, da)
	c.AggregatedRoot = aggregatedRoot
	c.StateIn = stateIn
	c.StepCounter = field.FromUint64(t)
	for i := 0; i < f; i++ {
		c.LedgerIndex[i] = field.Element{}
		c.PublicDepth[i] = field.Element{}
		c.Seed[i] = field.Element{}
		c.Leaf[i] = field.Element{}
		c.Symbol[i] = field.Element{}
		for d := 0; d < df; d++ {
			c.MerklePath[i][d] = field.Element{}
		}
	}
	if da > 0 {
		for i := 0; i < f; i++ {
			for d := 0; d < da; d++ {
				c.LedgerPath[i][d] = field.Element{}
			}
		}
	}
	return c
}

// AggregateProof is the outer recursive-composition proof for a whole
// batch: one constant-size Groth16 proof plus the claimed final state
// (spec.md §4.5's s_N), independent of MaxSteps or num_challenges.
type AggregateProof struct {
	Proof    groth16.Proof
	StateOut field.Element
}

// ProveAggregate runs ProveStep over every real macro-step, pads the
// sequence with inert steps up to maxSteps, recursively verifies all of
// them inside one circuit.AggregatorCircuit assignment, and returns the
// single resulting outer proof. aggregatedRoot/ledgerIndex/publicDepth/
// seed are internal/plan's step-invariant public IO (the same slice for
// every step, spec.md §4.8).
func ProveAggregate(
	inner *shape.Params,
	agg *shape.AggParams,
	stepAssignments []*circuit.StepCircuit,
	maxSteps int,
	aggregatedRoot field.Element,
	ledgerIndex, publicDepth []int,
	seed []field.Element,
) (*AggregateProof, error) {
	if len(stepAssignments) > maxSteps {
		return nil, porerr.New(porerr.InvalidChallengeCount, "recur.ProveAggregate")
	}

	state := commitment.InitialState()
	innerProofs := make([]stdgroth16.Proof[sw_bn254.G1Affine, sw_bn254.G2Affine], maxSteps)
	innerWitnesses := make([]stdgroth16.Witness[sw_bn254.ScalarField], maxSteps)

	for i := 0; i < maxSteps; i++ {
		var assignment *circuit.StepCircuit
		if i < len(stepAssignments) {
			assignment = stepAssignments[i]
		} else {
			assignment = paddingAssignment(inner.Key.F, inner.Key.Df, inner.Key.Da, aggregatedRoot, state, uint64(i))
		}

		sp, err := ProveStep(inner, assignment)
		if err != nil {
			return nil, err
		}

		proofVal, err := stdgroth16.ValueOfProof[sw_bn254.G1Affine, sw_bn254.G2Affine](sp.Proof)
		if err != nil {
			return nil, porerr.Wrap(porerr.Snark, "recur.ProveAggregate", err)
		}
		witnessVal, err := stdgroth16.ValueOfWitness[sw_bn254.ScalarField](sp.Public)
		if err != nil {
			return nil, porerr.Wrap(porerr.Snark, "recur.ProveAggregate", err)
		}
		innerProofs[i] = proofVal
		innerWitnesses[i] = witnessVal

		if i < len(stepAssignments) {
			state = foldStepFromAssignment(state, assignment)
		}
	}

	vkVal, err := stdgroth16.ValueOfVerifyingKey[sw_bn254.G1Affine, sw_bn254.G2Affine, sw_bn254.GTEl](inner.VK)
	if err != nil {
		return nil, porerr.Wrap(porerr.Snark, "recur.ProveAggregate", err)
	}

	assignment := circuit.NewAggregator(inner.Key.F, inner.Key.Df, inner.Key.Da, maxSteps)
	assignment.AggregatedRoot = aggregatedRoot
	assignment.StateIn = commitment.InitialState()
	assignment.StateOut = state
	for i := 0; i < inner.Key.F; i++ {
		assignment.LedgerIndex[i] = field.FromUint64(uint64(ledgerIndex[i]))
		assignment.PublicDepth[i] = field.FromUint64(uint64(publicDepth[i]))
		assignment.Seed[i] = seed[i]
	}
	assignment.InnerProofs = innerProofs
	assignment.InnerWitnesses = innerWitnesses
	assignment.InnerVK = vkVal

	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, porerr.Wrap(porerr.Snark, "recur.ProveAggregate", err)
	}
	publicWitness, err := w.Public()
	if err != nil {
		return nil, porerr.Wrap(porerr.Snark, "recur.ProveAggregate", err)
	}

	proof, err := groth16.Prove(agg.CCS, agg.PK, w)
	if err != nil {
		return nil, porerr.Wrap(porerr.Snark, "recur.ProveAggregate", err)
	}
	if err := groth16.Verify(proof, agg.VK, publicWitness); err != nil {
		return nil, porerr.Wrap(porerr.Snark, "recur.ProveAggregate", err)
	}

	return &AggregateProof{Proof: proof, StateOut: state}, nil
}

// foldStepFromAssignment recovers commitment.FoldStep's result from a
// fully-populated prover-side step assignment's own Leaf/PublicDepth
// fields, so ProveAggregate's state chain matches exactly what the step's
// own circuit computed without re-deriving leaves independently.
func foldStepFromAssignment(stateIn field.Element, c *circuit.StepCircuit) field.Element {
	leaves := make([]field.Element, c.F)
	depths := make([]int, c.F)
	for i := 0; i < c.F; i++ {
		leaves[i] = mustElement(c.Leaf[i])
		depths[i] = int(mustElement(c.PublicDepth[i]).Uint64())
	}
	return commitment.FoldStep(stateIn, leaves, depths)
}

// mustElement recovers the field.Element a frontend.Variable field was
// assigned, valid only on a witness-side (not compile-side placeholder)
// circuit value.
func mustElement(v frontend.Variable) field.Element {
	e, ok := v.(field.Element)
	if !ok {
		panic("recur: frontend.Variable does not hold a field.Element witness value")
	}
	return e
}

// VerifyAggregate checks an outer aggregate proof against the verifier's
// own independently-derived public IO: aggregatedRoot/ledgerIndex/
// publicDepth/seed come from internal/plan (never trusted from the wire),
// stateOut is the claimed final state carried on the wire -- the
// cryptographic binding of stateOut to a genuine chain of maxSteps valid
// inner proofs is exactly what the recursive AssertProof loop inside
// AggregatorCircuit.Define enforces, so a false stateOut cannot produce a
// valid outer proof. The verifier never touches any inner proof, witness,
// or VK directly: AggregatorCircuit's InnerProofs/InnerWitnesses/InnerVK
// fields are private, so groth16.Verify's public witness here carries only
// the "2 + 3F" aggregator IO, independent of maxSteps.
func VerifyAggregate(
	agg *shape.AggParams,
	proof *AggregateProof,
	f int,
	aggregatedRoot field.Element,
	ledgerIndex, publicDepth []int,
	seed []field.Element,
) (bool, error) {
	assignment := circuit.NewAggregator(f, 0, 0, 0)
	assignment.AggregatedRoot = aggregatedRoot
	assignment.StateIn = commitment.InitialState()
	assignment.StateOut = proof.StateOut
	for i := 0; i < f; i++ {
		assignment.LedgerIndex[i] = field.FromUint64(uint64(ledgerIndex[i]))
		assignment.PublicDepth[i] = field.FromUint64(uint64(publicDepth[i]))
		assignment.Seed[i] = seed[i]
	}

	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, porerr.Wrap(porerr.Snark, "recur.VerifyAggregate", err)
	}

	if err := groth16.Verify(proof.Proof, agg.VK, w); err != nil {
		return false, nil
	}
	return true, nil
}
