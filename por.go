// Package por is por-core's public façade: the small set of entry points
// an outer metaprotocol calls to prepare files, run the prove/verify
// pipeline, and serialize proofs (spec.md §1/§6). Everything behind this
// file lives under internal/ and is composed here rather than re-derived;
// grounded on the teacher's own root-level export_proof.go/compile.go/
// test.go, which likewise sit at the repository root as thin orchestration
// over the circuits/ and pkg/ packages rather than reimplementing them.
package por

import (
	"github.com/muridata/por-core/internal/codec"
	"github.com/muridata/por-core/internal/field"
	"github.com/muridata/por-core/internal/file"
	"github.com/muridata/por-core/internal/ledger"
	"github.com/muridata/por-core/internal/prove"
	"github.com/muridata/por-core/internal/shape"
	"github.com/muridata/por-core/internal/verify"
)

// FileMetadata, PreparedFile, and Challenge are spec.md §3's public data
// model, re-exported so callers never need to import internal/file.
type (
	FileMetadata = file.Metadata
	PreparedFile = file.Prepared
	Challenge    = file.Challenge
	FieldElement = field.Element
)

// Ledger is spec.md §4.4's canonical file registry.
type Ledger = ledger.FileLedger

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger { return ledger.New() }

// ShapeCache is spec.md §4.7's per-shape Groth16 parameter cache.
type ShapeCache = shape.Cache

// NewShapeCache returns a bounded LRU shape-parameter cache that generates
// fresh Groth16 parameters on every miss with no persistence. maxSize <= 0
// falls back to params.ShapeCacheSize. This is process-local convenience
// only: pass the SAME *ShapeCache (or nil, to use the package default) to
// both Prove and Verify within one process. Two independently-constructed
// NewShapeCache instances never converge -- each miss runs its own
// independent groth16.Setup and gets a mutually incompatible (pk, vk). For
// a real prover/verifier fleet spanning more than one process, use
// NewSharedShapeCache instead.
func NewShapeCache(maxSize int) *ShapeCache { return shape.NewCache(maxSize) }

// NewSharedShapeCache returns a shape-parameter cache backed by a shared
// on-disk directory. Independent processes (a prover node and a verifier
// node, per spec.md §1's fleet of independent verifiers) pointed at the
// same dir converge on byte-identical (pk, vk) for every shape: whichever
// node needs a shape first bootstraps it with a single-party setup and
// publishes it to dir; every other node loads that published artifact
// instead of running its own incompatible setup. Production deployments
// should pre-populate dir exactly once via cmd/porcompile (its ceremony
// subcommands, for a trust-minimized multi-party setup, or its dev
// subcommand for a single-party one) before starting any prover or
// verifier, so no node ever takes the bootstrap branch. nil cache
// arguments to Prove/Verify fall back to shape.Default, itself a
// SharedCache rooted at params.DefaultShapeDir.
func NewSharedShapeCache(maxSize int, dir string) *ShapeCache { return shape.NewSharedCache(maxSize, dir) }

// AggCache is spec.md §4.8's per-(shape, step-count-tier) recursive
// aggregator Groth16 parameter cache, the aggregator-level counterpart of
// ShapeCache.
type AggCache = shape.AggCache

// NewAggCache returns a bounded LRU aggregator-parameter cache that
// generates fresh Groth16 parameters on every miss with no persistence,
// the same process-local-only caveat as NewShapeCache.
func NewAggCache(maxSize int) *AggCache { return shape.NewAggCache(maxSize) }

// NewSharedAggCache returns an aggregator-parameter cache backed by a
// shared on-disk directory, the aggregator-level counterpart of
// NewSharedShapeCache: independent prover/verifier nodes pointed at the
// same dir converge on byte-identical aggregator (pk, vk) for every
// (shape, MaxSteps) tier instead of each compiling and setting up its own
// incompatible aggregator circuit.
func NewSharedAggCache(maxSize int, dir string) *AggCache { return shape.NewSharedAggCache(maxSize, dir) }

// PrepareFile implements spec.md §4.1's prepare_file operation: split
// data into symbols, Reed-Solomon encode, and build the Poseidon Merkle
// commitment. The caller is responsible for registering the resulting
// metadata with a Ledger before issuing challenges against it.
func PrepareFile(data []byte, filename string) (*PreparedFile, error) {
	return file.Prepare(data, filename)
}

// ReconstructFile recovers the original file bytes given, per codeword, a
// map from surviving symbol position (0..254) to its value — spec.md
// §4.1's erasure-recovery guarantee over the 231-of-255 systematic code.
// Every codeword must independently have at least 231 surviving
// positions. nDataSymbols is the total count of (pre-RS, pre-padding)
// data symbols and originalSize is the exact original byte length, used
// to trim the final symbol's zero-padding.
func ReconstructFile(codewords []map[int]codec.Symbol, nDataSymbols, originalSize int) ([]byte, error) {
	symbols, err := codec.ReconstructFile(codewords, nDataSymbols)
	if err != nil {
		return nil, err
	}
	return codec.JoinSymbols(symbols, originalSize), nil
}

// Proof is an opaque, serialized por-core proof (spec.md §4.11).
type Proof struct {
	bytes []byte
}

// ToBytes returns the proof's wire-format encoding.
func (p *Proof) ToBytes() []byte { return p.bytes }

// ProofFromBytes wraps pre-serialized wire-format proof bytes.
func ProofFromBytes(b []byte) *Proof { return &Proof{bytes: b} }

// Prove implements spec.md §4.9's prove driver over a whole challenge
// batch: canonicalize, derive shape and aggregator parameters (via cache/
// aggCache, or shape.Default/shape.DefaultAgg if nil), fold every
// challenge step into one recursively-composed aggregate proof (spec.md
// §4.8), and serialize the result. The returned Proof's size and
// verification cost are independent of num_challenges.
func Prove(cache *ShapeCache, aggCache *AggCache, files []*PreparedFile, challenges []Challenge, led *Ledger) (*Proof, error) {
	b, err := prove.Prove(cache, aggCache, files, challenges, led)
	if err != nil {
		return nil, err
	}
	return &Proof{bytes: b}, nil
}

// Verify implements spec.md §4.10's verify driver: rebuilds the plan from
// the caller's own ledger snapshot, never trusting any aggregated_root
// carried by proof itself, and checks the single constant-size aggregate
// proof. Returns (true, nil) on success, (false, nil) on cryptographic
// rejection or a differing ChallengeID, and (false, err) for malformed
// proof bytes, a batch that cannot be resolved against led, or a proof
// whose shape, step-count tier or ChallengeID count does not match the
// recomputed batch.
// Never panics on adversarial input.
func Verify(cache *ShapeCache, aggCache *AggCache, proof *Proof, challenges []Challenge, led *Ledger) (bool, error) {
	return verify.Verify(cache, aggCache, proof.bytes, challenges, led)
}
