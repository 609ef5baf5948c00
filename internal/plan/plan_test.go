package plan

import (
	"testing"

	"github.com/muridata/por-core/internal/field"
	"github.com/muridata/por-core/internal/file"
	"github.com/muridata/por-core/internal/ledger"
)

func mustPrepare(t *testing.T, content, name string) *file.Prepared {
	t.Helper()
	p, err := file.Prepare([]byte(content), name)
	if err != nil {
		t.Fatalf("file.Prepare(%s): %v", name, err)
	}
	return p
}

func addToLedger(t *testing.T, led *ledger.FileLedger, p *file.Prepared) {
	t.Helper()
	if err := led.Add(p.Metadata.FileID, p.Metadata.Root, p.Metadata.Depth()); err != nil {
		t.Fatalf("ledger.Add: %v", err)
	}
}

func TestBuildRejectsEmptyBatch(t *testing.T) {
	led := ledger.New()
	if _, err := Build(nil, nil, led); err == nil {
		t.Fatal("expected error for empty challenge batch")
	}
}

func TestBuildRejectsNonUniformChallengeCount(t *testing.T) {
	led := ledger.New()
	pa := mustPrepare(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "a")
	pb := mustPrepare(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", "b")
	addToLedger(t, led, pa)
	addToLedger(t, led, pb)

	challenges := []file.Challenge{
		{FileMetadata: pa.Metadata, Seed: field.FromUint64(1), NumChallenges: 3, ProverID: "p"},
		{FileMetadata: pb.Metadata, Seed: field.FromUint64(2), NumChallenges: 4, ProverID: "p"},
	}

	if _, err := Build([]*file.Prepared{pa, pb}, challenges, led); err == nil {
		t.Fatal("expected error for non-uniform num_challenges")
	}
}

func TestBuildRejectsUnknownFile(t *testing.T) {
	led := ledger.New()
	pa := mustPrepare(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "a")
	addToLedger(t, led, pa)

	stray := file.Metadata{FileID: "does-not-exist", Root: field.FromUint64(1), PaddedLen: 256}
	challenges := []file.Challenge{
		{FileMetadata: stray, Seed: field.FromUint64(1), NumChallenges: 2, ProverID: "p"},
	}

	if _, err := Build(nil, challenges, led); err == nil {
		t.Fatal("expected error for a challenge whose file is not in the ledger")
	}
}

func TestBuildRejectsMetadataMismatch(t *testing.T) {
	led := ledger.New()
	pa := mustPrepare(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "a")
	addToLedger(t, led, pa)

	bad := pa.Metadata
	bad.Root = field.FromUint64(999)

	challenges := []file.Challenge{
		{FileMetadata: bad, Seed: field.FromUint64(1), NumChallenges: 2, ProverID: "p"},
	}

	if _, err := Build(nil, challenges, led); err == nil {
		t.Fatal("expected error when challenge metadata disagrees with the ledger")
	}
}

func TestBuildSingleFilePadsToShapeOne(t *testing.T) {
	led := ledger.New()
	pa := mustPrepare(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "a")
	addToLedger(t, led, pa)

	challenges := []file.Challenge{
		{FileMetadata: pa.Metadata, Seed: field.FromUint64(7), NumChallenges: 3, ProverID: "p"},
	}

	p, err := Build([]*file.Prepared{pa}, challenges, led)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Shape.F != 1 {
		t.Fatalf("F = %d, want 1", p.Shape.F)
	}
	if p.Shape.Da != 0 {
		t.Fatalf("Da = %d, want 0 for a single-file batch", p.Shape.Da)
	}
	if !p.AggregatedRoot.Equal(&pa.Metadata.Root) {
		t.Fatal("single-file, no-ledger-aggregation batch must bind aggregated_root to the file root")
	}
	if len(p.ChallengeIDs) != 1 {
		t.Fatalf("len(ChallengeIDs) = %d, want 1", len(p.ChallengeIDs))
	}
}

func TestBuildPadsToNextPowerOfTwoAndSortsByFileID(t *testing.T) {
	led := ledger.New()
	pa := mustPrepare(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "a")
	pb := mustPrepare(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", "b")
	pc := mustPrepare(t, "cccccccccccccccccccccccccccccccccccccccc", "c")
	addToLedger(t, led, pa)
	addToLedger(t, led, pb)
	addToLedger(t, led, pc)

	challenges := []file.Challenge{
		{FileMetadata: pc.Metadata, Seed: field.FromUint64(3), NumChallenges: 2, ProverID: "p"},
		{FileMetadata: pa.Metadata, Seed: field.FromUint64(1), NumChallenges: 2, ProverID: "p"},
		{FileMetadata: pb.Metadata, Seed: field.FromUint64(2), NumChallenges: 2, ProverID: "p"},
	}

	p, err := Build([]*file.Prepared{pa, pb, pc}, challenges, led)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Shape.F != 4 {
		t.Fatalf("F = %d, want next_pow2(3) = 4", p.Shape.F)
	}
	if p.PublicDepth[3] != 0 {
		t.Fatal("the padding slot must have public_depth = 0")
	}
	for i := 0; i+1 < 3; i++ {
		if p.fileIDs[i] > p.fileIDs[i+1] {
			t.Fatal("real slots must be in ascending file_id order")
		}
	}
}

func TestBuildStepWitnessesProducesOneStepPerChallenge(t *testing.T) {
	led := ledger.New()
	pa := mustPrepare(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "a")
	addToLedger(t, led, pa)

	challenges := []file.Challenge{
		{FileMetadata: pa.Metadata, Seed: field.FromUint64(7), NumChallenges: 3, ProverID: "p"},
	}

	p, err := Build([]*file.Prepared{pa}, challenges, led)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	steps, err := BuildStepWitnesses(p, []*file.Prepared{pa}, led)
	if err != nil {
		t.Fatalf("BuildStepWitnesses: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("len(steps) = %d, want num_challenges = 3", len(steps))
	}

	first := steps[0].Assignment
	firstStateIn, ok := first.StateIn.(field.Element)
	if !ok {
		t.Fatalf("StateIn has unexpected dynamic type %T", first.StateIn)
	}
	if firstStateIn != (field.Element{}) {
		t.Fatal("the first step's state_in must be the zero initial state")
	}
	if len(steps[0].Leaves) != p.Shape.F {
		t.Fatalf("len(Leaves) = %d, want F = %d", len(steps[0].Leaves), p.Shape.F)
	}
}

func TestBuildStepWitnessesChainsStateAcrossSteps(t *testing.T) {
	led := ledger.New()
	pa := mustPrepare(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "a")
	addToLedger(t, led, pa)

	challenges := []file.Challenge{
		{FileMetadata: pa.Metadata, Seed: field.FromUint64(7), NumChallenges: 2, ProverID: "p"},
	}

	p, err := Build([]*file.Prepared{pa}, challenges, led)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	steps, err := BuildStepWitnesses(p, []*file.Prepared{pa}, led)
	if err != nil {
		t.Fatalf("BuildStepWitnesses: %v", err)
	}

	secondStateIn, ok := steps[1].Assignment.StateIn.(field.Element)
	if !ok {
		t.Fatalf("StateIn has unexpected dynamic type %T", steps[1].Assignment.StateIn)
	}
	if secondStateIn == (field.Element{}) {
		t.Fatal("step 1's state_in must differ from the initial state once step 0 folded a non-zero leaf")
	}
}
