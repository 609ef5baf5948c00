// Package verify implements spec.md §4.10's verify driver: rebuild the
// plan from the verifier's own ledger snapshot (never trust a
// prover-supplied aggregated_root), check the wire proof's ChallengeIDs
// and step-count tier against the recomputed plan, then check the single
// outer aggregate proof. Grounded on spec.md §4.10's literal sequencing
// and on circuits/poi/export.go's self-verify call, generalized from a
// per-step groth16.Verify loop to one constant-cost
// internal/recur.VerifyAggregate call (internal/circuit.AggregatorCircuit
// already recursively checked every macro-step inside the proof itself).
package verify

import (
	"github.com/muridata/por-core/internal/file"
	"github.com/muridata/por-core/internal/ledger"
	"github.com/muridata/por-core/internal/plan"
	"github.com/muridata/por-core/internal/porerr"
	"github.com/muridata/por-core/internal/recur"
	"github.com/muridata/por-core/internal/shape"
	"github.com/muridata/por-core/internal/wire"
)

// Verify checks proofBytes against challenges and the verifier's own
// ledger. A nil cache uses shape.Default; a nil aggCache uses
// shape.DefaultAgg. Result follows spec.md §4.10: (true, nil) on success,
// (false, nil) on cryptographic rejection or when a ChallengeID differs
// from the recomputed one, (false, err) on structural errors (malformed
// bytes, a batch the ledger cannot resolve, or a ShapeF/MaxSteps/
// ChallengeID-count mismatch, reported as porerr.ChallengeMismatch).
// Never panics on adversarial input.
func Verify(cache *shape.Cache, aggCache *shape.AggCache, proofBytes []byte, challenges []file.Challenge, led *ledger.FileLedger) (bool, error) {
	if cache == nil {
		cache = shape.Default
	}
	if aggCache == nil {
		aggCache = shape.DefaultAgg
	}

	wireProof, err := wire.Decode(proofBytes)
	if err != nil {
		return false, err
	}

	p, err := plan.Build(nil, challenges, led)
	if err != nil {
		return false, err
	}

	if wireProof.ShapeF != p.Shape.F {
		return false, porerr.New(porerr.ChallengeMismatch, "verify.Verify")
	}
	expectedMaxSteps, err := recur.AggregateStepCount(p.NumChallenges)
	if err != nil {
		return false, err
	}
	if wireProof.MaxSteps != expectedMaxSteps {
		return false, porerr.New(porerr.ChallengeMismatch, "verify.Verify")
	}
	if len(wireProof.ChallengeIDs) != len(p.ChallengeIDs) {
		return false, porerr.New(porerr.ChallengeMismatch, "verify.Verify")
	}
	for i, id := range p.ChallengeIDs {
		if wireProof.ChallengeIDs[i] != id {
			return false, nil
		}
	}

	innerParams, err := cache.Get(p.Shape)
	if err != nil {
		return false, err
	}
	aggParams, err := aggCache.Get(innerParams, wireProof.MaxSteps)
	if err != nil {
		return false, err
	}

	ok, err := recur.VerifyAggregate(
		aggParams,
		&recur.AggregateProof{Proof: wireProof.SNARK, StateOut: wireProof.StateOut},
		p.Shape.F,
		p.AggregatedRoot,
		p.LedgerIndex,
		p.PublicDepth,
		p.Seed,
	)
	if err != nil {
		return false, err
	}
	return ok, nil
}
