package circuit

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/permutation/poseidon2"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/muridata/por-core/internal/field"
	"github.com/muridata/por-core/internal/params"
)

// ltConst returns 1 if v < limit, else 0, for a compile-time constant
// limit and a witness v decomposed into nbits bits. Standard MSB-first
// ripple comparison against a constant: eq tracks "equal to limit's
// prefix so far", lt accumulates the first bit where v is strictly
// smaller.
func ltConst(api frontend.API, v frontend.Variable, limit *big.Int, nbits int) frontend.Variable {
	bitsLSB := api.ToBinary(v, nbits)

	eq := frontend.Variable(1)
	lt := frontend.Variable(0)
	for i := nbits - 1; i >= 0; i-- {
		bit := bitsLSB[i]
		if limit.Bit(i) == 1 {
			ltHere := api.Mul(eq, api.Sub(1, bit))
			lt = api.Add(lt, ltHere)
			eq = api.Mul(eq, bit)
		} else {
			eq = api.Mul(eq, api.Sub(1, bit))
		}
	}
	return lt
}

// deriveIndex is the in-circuit counterpart of
// internal/commitment.DeriveIndex: it must perform the exact same fixed
// sequence of params.MaxRejectionAttempts samples and the same
// reject-above-limit-then-mask reduction, so the two stay bit-for-bit
// identical (spec.md §4.5).
func deriveIndex(api frontend.API, p poseidon2.Permutation, seed, state, step frontend.Variable, depth int) frontend.Variable {
	if depth <= 0 {
		return frontend.Variable(0)
	}

	nbitsField := api.Compiler().FieldBitLen()
	rangeSize := new(big.Int).Lsh(big.NewInt(1), uint(depth))
	modulus := fr.Modulus()
	limit := new(big.Int).Div(modulus, rangeSize)
	limit.Mul(limit, rangeSize)

	h := taggedHash(api, p, field.TagIndexDerive, seed, state, step)

	result := frontend.Variable(0)
	resolved := frontend.Variable(0)

	for attempt := 0; attempt < params.MaxRejectionAttempts; attempt++ {
		ok := ltConst(api, h, limit, nbitsField)
		hBits := api.ToBinary(h, nbitsField)
		val := api.FromBinary(hBits[:depth]...)

		useThis := api.Mul(ok, api.Sub(1, resolved))
		result = api.Select(useThis, val, result)
		resolved = api.Add(resolved, useThis)

		h = taggedHash(api, p, field.TagIndexDerive, h, frontend.Variable(attempt))
	}

	// Fallback past the attempt bound: use the last sample's low bits
	// unconditionally (see params.MaxRejectionAttempts doc comment).
	lastBits := api.ToBinary(h, nbitsField)
	lastVal := api.FromBinary(lastBits[:depth]...)
	result = api.Select(resolved, result, lastVal)

	return result
}
