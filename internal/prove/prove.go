// Package prove orchestrates the full prover pipeline of spec.md §4.9:
// canonicalize the batch (internal/plan), obtain the shape's and
// aggregator's parameters (internal/shape), fold num_challenges step
// proofs into one recursive-composition proof (internal/recur), and
// serialize the result (internal/wire). Grounded on circuits/poi/
// export.go's ExportProofFixture sequence (compile/load keys -> build
// witness -> groth16.Prove -> self-verify -> serialize), generalized from
// that single fixed-shape witness to a per-batch plan driving a padded,
// recursively-verified step sequence instead of one proof per shape.
package prove

import (
	"github.com/muridata/por-core/internal/circuit"
	"github.com/muridata/por-core/internal/file"
	"github.com/muridata/por-core/internal/ledger"
	"github.com/muridata/por-core/internal/plan"
	"github.com/muridata/por-core/internal/recur"
	"github.com/muridata/por-core/internal/shape"
	"github.com/muridata/por-core/internal/wire"
)

// Prove builds a canonicalized plan over challenges against led, issues a
// padded, recursively-composed aggregate proof over num_challenges steps,
// and returns the serialized wire-format proof bytes. A nil cache uses
// shape.Default; a nil aggCache uses shape.DefaultAgg.
func Prove(cache *shape.Cache, aggCache *shape.AggCache, files []*file.Prepared, challenges []file.Challenge, led *ledger.FileLedger) ([]byte, error) {
	if cache == nil {
		cache = shape.Default
	}
	if aggCache == nil {
		aggCache = shape.DefaultAgg
	}

	p, err := plan.Build(files, challenges, led)
	if err != nil {
		return nil, err
	}

	maxSteps, err := recur.AggregateStepCount(p.NumChallenges)
	if err != nil {
		return nil, err
	}

	stepWitnesses, err := plan.BuildStepWitnesses(p, files, led)
	if err != nil {
		return nil, err
	}

	innerParams, err := cache.Get(p.Shape)
	if err != nil {
		return nil, err
	}
	aggParams, err := aggCache.Get(innerParams, maxSteps)
	if err != nil {
		return nil, err
	}

	assignments := make([]*circuit.StepCircuit, len(stepWitnesses))
	for i, sw := range stepWitnesses {
		assignments[i] = sw.Assignment
	}

	aggProof, err := recur.ProveAggregate(innerParams, aggParams, assignments, maxSteps, p.AggregatedRoot, p.LedgerIndex, p.PublicDepth, p.Seed)
	if err != nil {
		return nil, err
	}

	wireProof := wire.FromAggregateProof(p.Shape.F, maxSteps, aggProof, p.ChallengeIDs)
	return wire.Encode(wireProof)
}
