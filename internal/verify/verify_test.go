package verify

import (
	"testing"

	"github.com/muridata/por-core/internal/circuit"
	"github.com/muridata/por-core/internal/field"
	"github.com/muridata/por-core/internal/file"
	"github.com/muridata/por-core/internal/ledger"
	"github.com/muridata/por-core/internal/plan"
	"github.com/muridata/por-core/internal/recur"
	"github.com/muridata/por-core/internal/shape"
	"github.com/muridata/por-core/internal/wire"
)

func buildFixture(t *testing.T) ([]byte, []file.Challenge, *ledger.FileLedger, *shape.Cache, *shape.AggCache) {
	t.Helper()

	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i * 7)
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
		{FileMetadata: prepared.Metadata, Seed: field.FromUint64(11), NumChallenges: 2, ProverID: "prover-1"},
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

	maxSteps, err := recur.AggregateStepCount(p.NumChallenges)
	if err != nil {
		t.Fatalf("recur.AggregateStepCount: %v", err)
	}
	aggCache := shape.NewAggCache(1)
	aggParams, err := aggCache.Get(innerParams, maxSteps)
	if err != nil {
		t.Fatalf("shape.AggCache.Get: %v", err)
	}

	aggProof, err := recur.ProveAggregate(innerParams, aggParams, assignments, maxSteps, p.AggregatedRoot, p.LedgerIndex, p.PublicDepth, p.Seed)
	if err != nil {
		t.Fatalf("recur.ProveAggregate: %v", err)
	}

	wireProof := wire.FromAggregateProof(p.Shape.F, maxSteps, aggProof, p.ChallengeIDs)
	encoded, err := wire.Encode(wireProof)
	if err != nil {
		t.Fatalf("wire.Encode: %v", err)
	}

	return encoded, challenges, led, cache, aggCache
}

func TestVerifyAcceptsHonestProof(t *testing.T) {
	encoded, challenges, led, cache, aggCache := buildFixture(t)

	ok, err := Verify(cache, aggCache, encoded, challenges, led)
	if err != nil {
		t.Fatalf("Verify returned an error instead of a verdict: %v", err)
	}
	if !ok {
		t.Fatal("Verify rejected an honestly generated proof")
	}
}

func TestVerifyRejectsMalformedBytes(t *testing.T) {
	_, challenges, led, cache, aggCache := buildFixture(t)

	ok, err := Verify(cache, aggCache, []byte("not a proof"), challenges, led)
	if err == nil {
		t.Fatal("expected a structural error for malformed proof bytes")
	}
	if ok {
		t.Fatal("malformed bytes must never verify as true")
	}
}

func TestVerifyNeverTrustsProverSuppliedChallenges(t *testing.T) {
	encoded, challenges, led, cache, aggCache := buildFixture(t)

	tampered := make([]file.Challenge, len(challenges))
	copy(tampered, challenges)
	tampered[0].Seed = field.FromUint64(12345)

	ok, err := Verify(cache, aggCache, encoded, tampered, led)
	if err != nil {
		t.Fatalf("Verify returned an unexpected error: %v", err)
	}
	if ok {
		t.Fatal("Verify accepted a proof against a differently seeded challenge set")
	}
}

func TestVerifyRejectsUnknownLedger(t *testing.T) {
	encoded, challenges, _, cache, aggCache := buildFixture(t)

	emptyLedger := ledger.New()
	if _, err := Verify(cache, aggCache, encoded, challenges, emptyLedger); err == nil {
		t.Fatal("expected a structural error when the verifier's ledger lacks the challenged file")
	}
}
