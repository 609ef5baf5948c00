package recur

import (
	"testing"

	"github.com/muridata/por-core/internal/circuit"
	"github.com/muridata/por-core/internal/field"
	"github.com/muridata/por-core/internal/file"
	"github.com/muridata/por-core/internal/ledger"
	"github.com/muridata/por-core/internal/plan"
	"github.com/muridata/por-core/internal/shape"
)

// buildFixture prepares a small end-to-end plan/witness/params fixture:
// one file, numChallenges challenges, shape F=1 so Da collapses to 0 and
// AggregatedRoot binds directly to the file root.
func buildFixture(t *testing.T, numChallenges uint64) (*plan.Plan, *shape.Params, *shape.AggParams, []*circuit.StepCircuit, int) {
	t.Helper()

	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i)
	}
	prepared, err := file.Prepare(data, "fixture.bin")
	if err != nil {
		t.Fatalf("file.Prepare: %v", err)
	}

	led := ledger.New()
	if err := led.Add(prepared.Metadata.FileID, prepared.Metadata.Root, prepared.Metadata.Depth()); err != nil {
		t.Fatalf("ledger.Add: %v", err)
	}

	challenges := []file.Challenge{
		{
			FileMetadata:  prepared.Metadata,
			BlockHeight:   1,
			Seed:          field.FromUint64(99),
			NumChallenges: numChallenges,
			ProverID:      "prover-1",
		},
	}

	p, err := plan.Build([]*file.Prepared{prepared}, challenges, led)
	if err != nil {
		t.Fatalf("plan.Build: %v", err)
	}

	steps, err := plan.BuildStepWitnesses(p, []*file.Prepared{prepared}, led)
	if err != nil {
		t.Fatalf("plan.BuildStepWitnesses: %v", err)
	}
	assignments := make([]*circuit.StepCircuit, len(steps))
	for i, s := range steps {
		assignments[i] = s.Assignment
	}

	cache := shape.NewCache(1)
	innerParams, err := cache.Get(p.Shape)
	if err != nil {
		t.Fatalf("shape.Cache.Get: %v", err)
	}

	maxSteps, err := AggregateStepCount(numChallenges)
	if err != nil {
		t.Fatalf("AggregateStepCount: %v", err)
	}

	aggCache := shape.NewAggCache(1)
	aggParams, err := aggCache.Get(innerParams, maxSteps)
	if err != nil {
		t.Fatalf("shape.AggCache.Get: %v", err)
	}

	return p, innerParams, aggParams, assignments, maxSteps
}

func TestAggregateStepCountRounds(t *testing.T) {
	cases := []struct {
		n    uint64
		want int
	}{
		{1, 1}, {2, 2}, {3, 4}, {4, 4}, {5, 8}, {64, 64},
	}
	for _, c := range cases {
		got, err := AggregateStepCount(c.n)
		if err != nil {
			t.Fatalf("AggregateStepCount(%d): %v", c.n, err)
		}
		if got != c.want {
			t.Fatalf("AggregateStepCount(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestAggregateStepCountRejectsZeroAndOverCap(t *testing.T) {
	if _, err := AggregateStepCount(0); err == nil {
		t.Fatal("expected an error for zero challenges")
	}
	if _, err := AggregateStepCount(65); err == nil {
		t.Fatal("expected an error for a batch exceeding MaxAggregationSteps")
	}
}

func TestProveAndVerifyAggregateRoundTrips(t *testing.T) {
	p, innerParams, aggParams, assignments, maxSteps := buildFixture(t, 2)

	proof, err := ProveAggregate(innerParams, aggParams, assignments, maxSteps, p.AggregatedRoot, p.LedgerIndex, p.PublicDepth, p.Seed)
	if err != nil {
		t.Fatalf("ProveAggregate: %v", err)
	}

	ok, err := VerifyAggregate(aggParams, proof, p.Shape.F, p.AggregatedRoot, p.LedgerIndex, p.PublicDepth, p.Seed)
	if err != nil {
		t.Fatalf("VerifyAggregate returned an error instead of a verdict: %v", err)
	}
	if !ok {
		t.Fatal("VerifyAggregate rejected an honestly generated proof")
	}
}

func TestVerifyAggregateRejectsTamperedStateOut(t *testing.T) {
	p, innerParams, aggParams, assignments, maxSteps := buildFixture(t, 1)

	proof, err := ProveAggregate(innerParams, aggParams, assignments, maxSteps, p.AggregatedRoot, p.LedgerIndex, p.PublicDepth, p.Seed)
	if err != nil {
		t.Fatalf("ProveAggregate: %v", err)
	}

	tampered := *proof
	tampered.StateOut = field.TaggedHash(field.TagStateUpdate, tampered.StateOut, tampered.StateOut)

	ok, err := VerifyAggregate(aggParams, &tampered, p.Shape.F, p.AggregatedRoot, p.LedgerIndex, p.PublicDepth, p.Seed)
	if err != nil {
		t.Fatalf("VerifyAggregate returned an error instead of a verdict: %v", err)
	}
	if ok {
		t.Fatal("VerifyAggregate accepted a proof against a tampered claimed final state")
	}
}

func TestVerifyAggregateRejectsWrongAggregatedRoot(t *testing.T) {
	p, innerParams, aggParams, assignments, maxSteps := buildFixture(t, 1)

	proof, err := ProveAggregate(innerParams, aggParams, assignments, maxSteps, p.AggregatedRoot, p.LedgerIndex, p.PublicDepth, p.Seed)
	if err != nil {
		t.Fatalf("ProveAggregate: %v", err)
	}

	wrongRoot := field.TaggedHash(field.TagStateUpdate, p.AggregatedRoot, p.AggregatedRoot)
	ok, err := VerifyAggregate(aggParams, proof, p.Shape.F, wrongRoot, p.LedgerIndex, p.PublicDepth, p.Seed)
	if err != nil {
		t.Fatalf("VerifyAggregate returned an error instead of a verdict: %v", err)
	}
	if ok {
		t.Fatal("VerifyAggregate accepted a proof checked against the wrong aggregated root")
	}
}

func TestProveAggregatePadsShortBatchToStepTier(t *testing.T) {
	// A 3-challenge batch rounds up to a 4-step aggregator; the padding
	// steps come from paddingAssignment, not from plan.BuildStepWitnesses.
	p, innerParams, aggParams, assignments, maxSteps := buildFixture(t, 3)
	if maxSteps != 4 {
		t.Fatalf("maxSteps = %d, want 4 for a 3-challenge batch", maxSteps)
	}
	if len(assignments) != 3 {
		t.Fatalf("len(assignments) = %d, want 3 real steps before padding", len(assignments))
	}

	proof, err := ProveAggregate(innerParams, aggParams, assignments, maxSteps, p.AggregatedRoot, p.LedgerIndex, p.PublicDepth, p.Seed)
	if err != nil {
		t.Fatalf("ProveAggregate: %v", err)
	}
	ok, err := VerifyAggregate(aggParams, proof, p.Shape.F, p.AggregatedRoot, p.LedgerIndex, p.PublicDepth, p.Seed)
	if err != nil {
		t.Fatalf("VerifyAggregate: %v", err)
	}
	if !ok {
		t.Fatal("VerifyAggregate rejected a padded aggregate proof")
	}
}
