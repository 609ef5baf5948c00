// Package plan implements spec.md §4.8's batch canonicalization: validating
// a challenge batch against the ledger, deriving the shape key, building
// the step-invariant public IO vector z₀, and (for the prover only, who
// alone holds the PreparedFile symbols and Merkle tree) emitting the
// ordered per-step witness advice.
//
// Grounded on circuits/poi/witness.go's PrepareWitness (derive a leaf index
// from randomness bits, fetch the Merkle proof, assemble a circuit
// assignment) and circuits/poi/export.go's deterministic-fixture assembly
// sequence, generalized from a single fixed-shape opening loop to spec.md's
// full six-step canonicalization over an arbitrary file batch.
package plan

import (
	"sort"

	"github.com/muridata/por-core/internal/circuit"
	"github.com/muridata/por-core/internal/commitment"
	"github.com/muridata/por-core/internal/field"
	"github.com/muridata/por-core/internal/file"
	"github.com/muridata/por-core/internal/ledger"
	"github.com/muridata/por-core/internal/merkle"
	"github.com/muridata/por-core/internal/porerr"
	"github.com/muridata/por-core/internal/shape"
)

// Plan is the step-invariant canonicalization of a challenge batch (spec.md
// §4.8 steps 1-5): shape, the challenge-ID list in canonical order, and the
// public IO fields that do not change across steps (everything except
// state_in and leaf, which evolve step by step).
type Plan struct {
	Shape shape.Key

	NumChallenges uint64
	AggregatedRoot field.Element

	// Per-slot, length Shape.F, in canonical (sorted file_id) order with
	// padding slots appended. PublicDepth[f] == 0 marks a padding slot.
	LedgerIndex []int
	PublicDepth []int
	Seed        []field.Element

	// ChallengeIDs is the ordered list of real (non-padding) challenge IDs,
	// attached to the wire proof (spec.md §4.9/§3).
	ChallengeIDs [][32]byte

	// fileIDs mirrors LedgerIndex's slots with the originating file_id for
	// real slots (empty string for padding), used by BuildStepWitnesses to
	// look up a matching PreparedFile.
	fileIDs []string
}

// Build runs spec.md §4.8 steps 1-5, shared by both the prove and verify
// drivers. files is nil for the verifier, which never sees PreparedFile
// symbols; when non-nil (proving), every real challenge's file_id must have
// a matching entry (else porerr.FileNotFound).
func Build(files []*file.Prepared, challenges []file.Challenge, led *ledger.FileLedger) (*Plan, error) {
	if len(challenges) == 0 {
		return nil, porerr.New(porerr.InvalidInput, "plan.Build")
	}

	numChallenges := challenges[0].NumChallenges
	for _, c := range challenges {
		if c.NumChallenges != numChallenges {
			return nil, porerr.New(porerr.InvalidChallengeCount, "plan.Build")
		}
	}

	var filesByID map[string]*file.Prepared
	if files != nil {
		filesByID = make(map[string]*file.Prepared, len(files))
		for _, f := range files {
			filesByID[f.Metadata.FileID] = f
		}
	}

	sorted := make([]file.Challenge, len(challenges))
	copy(sorted, challenges)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].FileMetadata.FileID < sorted[j].FileMetadata.FileID
	})

	maxDepth := 0
	ledgerIndex := make([]int, len(sorted))
	publicDepth := make([]int, len(sorted))
	seed := make([]field.Element, len(sorted))
	fileIDs := make([]string, len(sorted))
	challengeIDs := make([][32]byte, len(sorted))

	for i, c := range sorted {
		entry, err := led.Get(c.FileMetadata.FileID)
		if err != nil {
			return nil, porerr.Wrap(porerr.FileNotInLedger, "plan.Build", err)
		}
		if !entry.Root.Equal(&c.FileMetadata.Root) || entry.Depth != c.FileMetadata.Depth() {
			return nil, porerr.New(porerr.MetadataMismatch, "plan.Build")
		}

		if filesByID != nil {
			if _, ok := filesByID[c.FileMetadata.FileID]; !ok {
				return nil, porerr.New(porerr.FileNotFound, "plan.Build")
			}
		}

		idx, err := led.IndexOf(c.FileMetadata.FileID)
		if err != nil {
			return nil, porerr.Wrap(porerr.FileNotInLedger, "plan.Build", err)
		}

		depth := c.FileMetadata.Depth()
		ledgerIndex[i] = idx
		publicDepth[i] = depth
		seed[i] = c.Seed
		fileIDs[i] = c.FileMetadata.FileID
		if depth > maxDepth {
			maxDepth = depth
		}

		challengeIDs[i] = commitment.ChallengeID(
			c.BlockHeight, c.Seed, c.FileMetadata.FileID, c.FileMetadata.Root,
			depth, c.NumChallenges, c.ProverID,
		)
	}

	f := merkle.NextPow2(len(sorted))
	for len(ledgerIndex) < f {
		ledgerIndex = append(ledgerIndex, 0)
		publicDepth = append(publicDepth, 0)
		seed = append(seed, field.Element{})
		fileIDs = append(fileIDs, "")
	}

	da := 0
	if f > 1 {
		da = led.Depth()
	}

	aggRoot := led.AggregatedRoot()
	if f == 1 && da == 0 {
		aggRoot = sorted[0].FileMetadata.Root
	}

	return &Plan{
		Shape:          shape.Key{F: f, Df: maxDepth, Da: da},
		NumChallenges:  numChallenges,
		AggregatedRoot: aggRoot,
		LedgerIndex:    ledgerIndex,
		PublicDepth:    publicDepth,
		Seed:           seed,
		ChallengeIDs:   challengeIDs,
		fileIDs:        fileIDs,
	}, nil
}

// StepWitness is one macro-step's full circuit assignment plus the
// per-slot leaf values it folds into the state chain. The leaves stay with
// the prover: the wire format carries only the final state, not the leaves.
type StepWitness struct {
	Assignment *circuit.StepCircuit
	Leaves     []field.Element
}

// BuildStepWitnesses emits spec.md §4.8 step 6: for every step and every
// active slot, the index derivation, symbol fetch, and Merkle/ledger
// advice, threading the state chain slot by slot via commitment.NextState
// (the same per-slot fold commitment.FoldStep performs). Requires the
// PreparedFile set the Plan was built with (files != nil in Build).
func BuildStepWitnesses(p *Plan, files []*file.Prepared, led *ledger.FileLedger) ([]StepWitness, error) {
	filesByID := make(map[string]*file.Prepared, len(files))
	for _, f := range files {
		filesByID[f.Metadata.FileID] = f
	}

	ledgerPaths := make([][]field.Element, p.Shape.F)
	for f := 0; f < p.Shape.F; f++ {
		path := make([]field.Element, p.Shape.Da)
		if p.Shape.Da > 0 && p.PublicDepth[f] != 0 {
			lp, err := led.AggregatedPath(p.LedgerIndex[f])
			if err != nil {
				return nil, porerr.Wrap(porerr.MerkleTree, "plan.BuildStepWitnesses", err)
			}
			copy(path, lp)
		}
		ledgerPaths[f] = path
	}

	out := make([]StepWitness, p.NumChallenges)
	state := commitment.InitialState()

	for t := uint64(0); t < p.NumChallenges; t++ {
		c := circuit.New(p.Shape.F, p.Shape.Df, p.Shape.Da)
		c.AggregatedRoot = p.AggregatedRoot
		c.StateIn = state
		c.StepCounter = field.FromUint64(t)

		leaves := make([]field.Element, p.Shape.F)
		// current mirrors circuit.Define's per-slot-updated running state:
		// slot f's index derivation uses the state as folded by slots
		// 0..f-1 of this same step, not the step's entry state.
		current := state

		for f := 0; f < p.Shape.F; f++ {
			c.LedgerIndex[f] = field.FromUint64(uint64(p.LedgerIndex[f]))
			c.PublicDepth[f] = field.FromUint64(uint64(p.PublicDepth[f]))
			c.Seed[f] = p.Seed[f]
			if p.Shape.Da > 0 {
				for d := 0; d < p.Shape.Da; d++ {
					c.LedgerPath[f][d] = ledgerPaths[f][d]
				}
			}

			path := make([]field.Element, p.Shape.Df)
			var symbol field.Element

			if p.PublicDepth[f] != 0 {
				depthF := p.PublicDepth[f]
				idxFull := commitment.DeriveIndex(p.Seed[f], current, t, p.Shape.Df)
				leafIndex := idxFull & ((1 << uint(depthF)) - 1)

				prepared, ok := filesByID[p.fileIDs[f]]
				if !ok {
					return nil, porerr.New(porerr.FileNotFound, "plan.BuildStepWitnesses")
				}
				symbol = prepared.Symbols[leafIndex]

				leafPath, err := prepared.Tree.Path(leafIndex)
				if err != nil {
					return nil, porerr.Wrap(porerr.MerkleTree, "plan.BuildStepWitnesses", err)
				}
				copy(path, leafPath)

				current = commitment.NextState(current, symbol)
			}

			leaves[f] = symbol
			c.Symbol[f] = symbol
			c.Leaf[f] = symbol
			for d := 0; d < p.Shape.Df; d++ {
				c.MerklePath[f][d] = path[d]
			}
		}

		out[t] = StepWitness{Assignment: c, Leaves: leaves}
		state = current
	}

	return out, nil
}
