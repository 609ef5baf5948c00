package prove

import (
	"testing"

	"github.com/muridata/por-core/internal/field"
	"github.com/muridata/por-core/internal/file"
	"github.com/muridata/por-core/internal/ledger"
	"github.com/muridata/por-core/internal/shape"
	"github.com/muridata/por-core/internal/verify"
	"github.com/muridata/por-core/internal/wire"
)

func TestProveThenVerifyRoundTrips(t *testing.T) {
	data := make([]byte, 96)
	for i := range data {
		data[i] = byte(i * 11)
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
		{FileMetadata: prepared.Metadata, Seed: field.FromUint64(21), NumChallenges: 2, ProverID: "prover-1"},
	}

	cache := shape.NewCache(1)
	aggCache := shape.NewAggCache(1)

	proofBytes, err := Prove(cache, aggCache, []*file.Prepared{prepared}, challenges, led)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	ok, err := verify.Verify(cache, aggCache, proofBytes, challenges, led)
	if err != nil {
		t.Fatalf("Verify returned an error instead of a verdict: %v", err)
	}
	if !ok {
		t.Fatal("Verify rejected a proof produced by Prove")
	}
}

func TestProveOutputDecodesAsWireFormat(t *testing.T) {
	data := make([]byte, 40)
	prepared, err := file.Prepare(data, "zeros.bin")
	if err != nil {
		t.Fatalf("file.Prepare: %v", err)
	}

	led := ledger.New()
	if err := led.Add(prepared.Metadata.FileID, prepared.Metadata.Root, prepared.Metadata.Depth()); err != nil {
		t.Fatalf("ledger.Add: %v", err)
	}

	challenges := []file.Challenge{
		{FileMetadata: prepared.Metadata, Seed: field.FromUint64(2), NumChallenges: 1, ProverID: "prover-1"},
	}

	cache := shape.NewCache(1)
	aggCache := shape.NewAggCache(1)
	proofBytes, err := Prove(cache, aggCache, []*file.Prepared{prepared}, challenges, led)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	decoded, err := wire.Decode(proofBytes)
	if err != nil {
		t.Fatalf("wire.Decode: %v", err)
	}
	if decoded.MaxSteps != 1 {
		t.Fatalf("MaxSteps = %d, want 1", decoded.MaxSteps)
	}
}

// TestProveProofSizeIndependentOfChallengeCount pins the whole point of
// the recursive composition driver: two batches against the same file
// whose num_challenges round up to the same step tier must serialize to
// the exact same number of bytes, since both carry exactly one outer
// Groth16 proof of the same aggregator shape.
func TestProveProofSizeIndependentOfChallengeCount(t *testing.T) {
	data := make([]byte, 80)
	for i := range data {
		data[i] = byte(i * 5)
	}
	prepared, err := file.Prepare(data, "fixture.bin")
	if err != nil {
		t.Fatalf("file.Prepare: %v", err)
	}

	led := ledger.New()
	if err := led.Add(prepared.Metadata.FileID, prepared.Metadata.Root, prepared.Metadata.Depth()); err != nil {
		t.Fatalf("ledger.Add: %v", err)
	}

	cache := shape.NewCache(2)
	aggCache := shape.NewAggCache(2)

	small := []file.Challenge{
		{FileMetadata: prepared.Metadata, Seed: field.FromUint64(1), NumChallenges: 3, ProverID: "prover-1"},
	}
	big := []file.Challenge{
		{FileMetadata: prepared.Metadata, Seed: field.FromUint64(1), NumChallenges: 4, ProverID: "prover-1"},
	}

	smallBytes, err := Prove(cache, aggCache, []*file.Prepared{prepared}, small, led)
	if err != nil {
		t.Fatalf("Prove(small): %v", err)
	}
	bigBytes, err := Prove(cache, aggCache, []*file.Prepared{prepared}, big, led)
	if err != nil {
		t.Fatalf("Prove(big): %v", err)
	}

	if len(smallBytes) != len(bigBytes) {
		t.Fatalf("proof size depends on num_challenges within the same step tier: 3-challenge=%d bytes, 4-challenge=%d bytes", len(smallBytes), len(bigBytes))
	}
}
