package codec

import (
	"github.com/muridata/por-core/internal/params"
	"github.com/muridata/por-core/internal/porerr"
)

// Symbol is a fixed-width payload chunk (spec.md §3). Data symbols shorter
// than params.SymbolSize are zero-padded on the right at split time.
type Symbol [params.SymbolSize]byte

// generator is the systematic (CodewordSize x CodewordData) Reed-Solomon
// generator matrix, computed once at package init the way circuits/fsp's
// zeroSubtreeHashes precomputes its fixed table at startup rather than on
// every call. Its top CodewordData rows equal the identity matrix exactly,
// so encoding never mutates the original data symbols (spec.md §4.1
// "encoding must round-trip exactly").
var generator = buildGenerator()

// buildGenerator constructs the systematic generator matrix from a
// (CodewordSize x CodewordData) Vandermonde matrix V over CodewordSize
// distinct nonzero GF(2^8) elements, normalized so its leading
// CodewordData-square block is the identity: M = V * U^-1 where U is that
// leading block. Any CodewordData distinct rows of M therefore form an
// invertible square matrix (the defining MDS property of a Reed-Solomon
// code), which is exactly what reconstruction from an arbitrary surviving
// subset requires.
func buildGenerator() *matrix {
	v := newMatrix(params.CodewordSize, params.CodewordData)
	for i := 0; i < params.CodewordSize; i++ {
		x := byte(i + 1) // 1..255: CodewordSize distinct nonzero elements
		acc := byte(1)
		for j := 0; j < params.CodewordData; j++ {
			v.set(i, j, acc)
			acc = gfMul(acc, x)
		}
	}

	u := newMatrix(params.CodewordData, params.CodewordData)
	copy(u.data, v.data[:params.CodewordData*params.CodewordData])

	uInv, err := u.invert()
	if err != nil {
		// The leading block of a Vandermonde matrix built from distinct
		// nonzero points is always invertible; a failure here means the
		// constants above are inconsistent with each other.
		panic("codec: generator matrix construction failed: " + err.Error())
	}

	return v.mul(uInv)
}

// SplitSymbols partitions data into params.SymbolSize-byte symbols,
// zero-padding the final symbol on the right if data's length is not a
// multiple of params.SymbolSize (spec.md §3/§4.1).
func SplitSymbols(data []byte) []Symbol {
	n := (len(data) + params.SymbolSize - 1) / params.SymbolSize
	if n == 0 {
		return nil
	}
	out := make([]Symbol, n)
	for i := 0; i < n; i++ {
		start := i * params.SymbolSize
		end := start + params.SymbolSize
		if end > len(data) {
			end = len(data)
		}
		copy(out[i][:], data[start:end])
	}
	return out
}

// JoinSymbols concatenates symbols back into a byte slice, trimming the
// final symbol's padding down to totalLen.
func JoinSymbols(symbols []Symbol, totalLen int) []byte {
	out := make([]byte, 0, len(symbols)*params.SymbolSize)
	for _, s := range symbols {
		out = append(out, s[:]...)
	}
	if totalLen < len(out) {
		out = out[:totalLen]
	}
	return out
}

// NumCodewords returns how many CodewordData-symbol codewords nData data
// symbols split into.
func NumCodewords(nData int) int {
	if nData == 0 {
		return 0
	}
	return (nData + params.CodewordData - 1) / params.CodewordData
}

// EncodeCodewords partitions data symbols into ceil(n/CodewordData)
// codewords (zero-padding the final codeword's data symbols) and appends
// CodewordParity parity symbols to each, computed over GF(2^8) via the
// systematic generator matrix (spec.md §4.1). The returned slice holds one
// CodewordSize-symbol codeword per chunk, in order.
func EncodeCodewords(data []Symbol) [][]Symbol {
	nWords := NumCodewords(len(data))
	out := make([][]Symbol, nWords)

	for w := 0; w < nWords; w++ {
		start := w * params.CodewordData
		block := make([]Symbol, params.CodewordData)
		for i := range block {
			if start+i < len(data) {
				block[i] = data[start+i]
			}
			// else: zero-padding, already the zero value.
		}

		codeword := make([]Symbol, params.CodewordSize)
		// Systematic prefix: the first CodewordData symbols are exactly the
		// data block, by construction of generator.
		copy(codeword[:params.CodewordData], block)

		for k := 0; k < params.SymbolSize; k++ {
			col := make([]byte, params.CodewordData)
			for i := range block {
				col[i] = block[i][k]
			}
			encoded := generator.mulVec(col)
			for i := 0; i < params.CodewordSize; i++ {
				codeword[i][k] = encoded[i]
			}
		}

		out[w] = codeword
	}

	return out
}

// ReconstructCodeword recovers the CodewordData original data symbols of a
// single codeword given a map from surviving symbol position (0..254) to
// value. Returns porerr.InvalidInput if fewer than CodewordData positions
// survive (spec.md §4.1 "failure across any codeword ⇒ InvalidInput").
func ReconstructCodeword(present map[int]Symbol) ([]Symbol, error) {
	if len(present) < params.CodewordData {
		return nil, porerr.New(porerr.InvalidInput, "codec.ReconstructCodeword")
	}

	positions := make([]int, 0, len(present))
	for pos := range present {
		positions = append(positions, pos)
	}
	// Deterministic ordering: pick the lowest CodewordData positions rather
	// than an arbitrary map-iteration order, so reconstruction is
	// reproducible given the same erasure pattern.
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			if positions[j] < positions[i] {
				positions[i], positions[j] = positions[j], positions[i]
			}
		}
	}
	positions = positions[:params.CodewordData]

	sub := generator.selectRows(positions)
	subInv, err := sub.invert()
	if err != nil {
		// The chosen generator is MDS: any CodewordData of its rows are
		// linearly independent, so distinct positions in 0..CodewordSize-1
		// never yield a singular submatrix here.
		return nil, porerr.Wrap(porerr.InvalidInput, "codec.ReconstructCodeword", err)
	}

	data := make([]Symbol, params.CodewordData)
	for k := 0; k < params.SymbolSize; k++ {
		col := make([]byte, params.CodewordData)
		for i, pos := range positions {
			col[i] = present[pos][k]
		}
		recovered := subInv.mulVec(col)
		for i := 0; i < params.CodewordData; i++ {
			data[i][k] = recovered[i]
		}
	}

	return data, nil
}

// ReconstructFile reconstructs the original nData data symbols from a set
// of codewords, each given as a map from surviving position to value. Every
// codeword must independently satisfy the CodewordData-of-CodewordSize
// threshold; the final codeword's trailing padding symbols are dropped.
func ReconstructFile(codewords []map[int]Symbol, nData int) ([]Symbol, error) {
	out := make([]Symbol, 0, nData)
	for w, present := range codewords {
		block, err := ReconstructCodeword(present)
		if err != nil {
			return nil, porerr.Wrap(porerr.InvalidInput, "codec.ReconstructFile", err)
		}
		remaining := nData - w*params.CodewordData
		if remaining > params.CodewordData {
			remaining = params.CodewordData
		}
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, block[:remaining]...)
	}
	return out, nil
}
