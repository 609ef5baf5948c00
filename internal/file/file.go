// Package file implements spec.md §3's FileMetadata/PreparedFile/Challenge
// data model and the prepare_file operation of spec.md §4.1: raw bytes to
// 31-byte symbols, Reed-Solomon redundancy, and a Poseidon Merkle
// commitment. Grounded on pkg/merkle.SplitIntoChunks plus
// circuits/poi/export.go's file-preparation sequence
// (SplitIntoChunks -> GenerateSparseMerkleTree), generalized to
// internal/codec's fixed 231+24 systematic RS shape and internal/merkle's
// dense tagged tree.
package file

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/muridata/por-core/internal/codec"
	"github.com/muridata/por-core/internal/field"
	"github.com/muridata/por-core/internal/merkle"
	"github.com/muridata/por-core/internal/porerr"
)

// Metadata is spec.md §3's FileMetadata.
type Metadata struct {
	Root         field.Element
	FileID       string
	PaddedLen    int
	OriginalSize int
	Filename     string
}

// Depth returns log2(PaddedLen), the file's Merkle tree depth.
func (m Metadata) Depth() int {
	return merkle.Log2(m.PaddedLen)
}

// Prepared is spec.md §3's PreparedFile: the full Merkle tree plus the
// RS-encoded symbols it commits to, held only by the prover.
type Prepared struct {
	Metadata Metadata
	Tree     *merkle.Tree
	Symbols  []field.Element // RS-encoded symbols, field-encoded, in tree-leaf order
}

// Prepare implements prepare_file (spec.md §4.1/table in §6): split into
// 31-byte symbols, zero-pad the last symbol, Reed-Solomon encode, map each
// encoded symbol into a field element, and build the Merkle commitment.
func Prepare(data []byte, filename string) (*Prepared, error) {
	if len(data) == 0 {
		return nil, porerr.New(porerr.InvalidInput, "file.Prepare")
	}

	fileID := hex.EncodeToString(sha256Sum(data))

	symbols := codec.SplitSymbols(data)
	codewords := codec.EncodeCodewords(symbols)

	total := 0
	for _, cw := range codewords {
		total += len(cw)
	}
	leaves := make([]field.Element, 0, total)
	for _, cw := range codewords {
		for _, s := range cw {
			leaves = append(leaves, field.Encode(s[:]))
		}
	}

	tree := merkle.New(leaves)

	meta := Metadata{
		Root:         tree.Root(),
		FileID:       fileID,
		PaddedLen:    tree.LeafCount(),
		OriginalSize: len(data),
		Filename:     filename,
	}

	return &Prepared{Metadata: meta, Tree: tree, Symbols: leaves}, nil
}

func sha256Sum(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

// Challenge is spec.md §3's Challenge record.
type Challenge struct {
	FileMetadata  Metadata
	BlockHeight   uint64
	Seed          field.Element
	NumChallenges uint64
	ProverID      string
}
