package codec

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/muridata/por-core/internal/params"
	"github.com/muridata/por-core/internal/porerr"
)

func TestSplitJoinRoundTrip(t *testing.T) {
	cases := []int{0, 1, params.SymbolSize, params.SymbolSize + 1, params.SymbolSize*5 - 3}
	for _, n := range cases {
		data := make([]byte, n)
		rand.New(rand.NewSource(int64(n))).Read(data)

		symbols := SplitSymbols(data)
		joined := JoinSymbols(symbols, n)
		if !bytes.Equal(joined, data) {
			t.Fatalf("len=%d: round trip mismatch", n)
		}
	}
}

func TestGeneratorIsSystematic(t *testing.T) {
	for i := 0; i < params.CodewordData; i++ {
		for j := 0; j < params.CodewordData; j++ {
			want := byte(0)
			if i == j {
				want = 1
			}
			if got := generator.at(i, j); got != want {
				t.Fatalf("generator[%d][%d] = %d, want %d (identity prefix)", i, j, got, want)
			}
		}
	}
}

func TestEncodeCodewordsSystematicPrefix(t *testing.T) {
	data := make([]Symbol, params.CodewordData)
	r := rand.New(rand.NewSource(1))
	for i := range data {
		r.Read(data[i][:])
	}

	codewords := EncodeCodewords(data)
	if len(codewords) != 1 {
		t.Fatalf("got %d codewords, want 1", len(codewords))
	}
	for i, sym := range data {
		if codewords[0][i] != sym {
			t.Fatalf("codeword symbol %d does not match original data symbol", i)
		}
	}
}

func TestEncodeReconstructRoundTrip(t *testing.T) {
	data := make([]Symbol, params.CodewordData*2+17) // spans 3 codewords
	r := rand.New(rand.NewSource(42))
	for i := range data {
		r.Read(data[i][:])
	}

	codewords := EncodeCodewords(data)

	present := make([]map[int]Symbol, len(codewords))
	for w, cw := range codewords {
		m := make(map[int]Symbol, params.CodewordData)
		// Drop exactly CodewordParity symbols at pseudo-random positions;
		// CodewordData should remain, the minimum needed to reconstruct.
		dropped := map[int]bool{}
		dr := rand.New(rand.NewSource(int64(w) + 7))
		for len(dropped) < params.CodewordParity {
			dropped[dr.Intn(params.CodewordSize)] = true
		}
		for i, sym := range cw {
			if !dropped[i] {
				m[i] = sym
			}
		}
		present[w] = m
	}

	recovered, err := ReconstructFile(present, len(data))
	if err != nil {
		t.Fatalf("ReconstructFile: %v", err)
	}
	if len(recovered) != len(data) {
		t.Fatalf("got %d symbols, want %d", len(recovered), len(data))
	}
	for i := range data {
		if recovered[i] != data[i] {
			t.Fatalf("symbol %d mismatch after reconstruction", i)
		}
	}
}

func TestReconstructFailsBelowThreshold(t *testing.T) {
	data := make([]Symbol, params.CodewordData)
	r := rand.New(rand.NewSource(5))
	for i := range data {
		r.Read(data[i][:])
	}
	codewords := EncodeCodewords(data)

	present := map[int]Symbol{}
	for i := 0; i < params.CodewordData-1; i++ {
		present[i] = codewords[0][i]
	}

	_, err := ReconstructCodeword(present)
	if !porerr.Is(err, porerr.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}
