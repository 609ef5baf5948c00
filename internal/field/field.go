// Package field implements the off-circuit half of por-core's field
// arithmetic and domain-separated Poseidon2 hashing (spec.md §4.2).
// Grounded on pkg/field/field.go and pkg/crypto/crypto.go: Bytes2Field /
// Field2Bytes generalized from a fixed-width chunk array to spec.md's
// exact 31-byte symbol encoding, and HashWithDomainTag generalized from a
// single DomainTagReal/DomainTagPadding pair to the full Tag registry
// spec.md §3 requires.
package field

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"

	"github.com/muridata/por-core/internal/params"
)

// Tag is a small field constant used to domain-separate Poseidon2 contexts.
// No two contexts may share a tag (spec.md §8 property 4).
type Tag uint64

const (
	TagLeaf Tag = iota + 1
	TagNode
	TagRC
	TagStateUpdate
	TagIndexDerive
	TagCID
)

// registry lists every tag in use; TestAllTagsUnique is a static test over
// this slice (spec.md §8 property 4).
var registry = []Tag{TagLeaf, TagNode, TagRC, TagStateUpdate, TagIndexDerive, TagCID}

// AllTags returns the fixed, disjoint set of domain tags.
func AllTags() []Tag { return registry }

// Element is an alias kept local so callers outside gnark-crypto never need
// to import fr directly.
type Element = fr.Element

// Encode maps a 31-byte symbol into a field element using little-endian
// byte order (spec.md §3/§4.2). Symbols shorter than params.SymbolSize are
// zero-padded on the right (high end, since encoding is little-endian).
func Encode(symbol []byte) Element {
	var buf [params.SymbolSize]byte
	copy(buf[:], symbol)

	// fr.Element.SetBytes expects big-endian input; reverse the
	// little-endian symbol bytes before reduction.
	var be [params.SymbolSize]byte
	for i := range buf {
		be[i] = buf[params.SymbolSize-1-i]
	}

	var e Element
	e.SetBytes(be[:])
	return e
}

// Decode recovers the 31-byte little-endian symbol encoded by e.
func Decode(e Element) [params.SymbolSize]byte {
	b := e.Bytes() // canonical big-endian 32 bytes
	var out [params.SymbolSize]byte
	// Reverse the low SymbolSize bytes of the big-endian encoding into
	// little-endian order.
	for i := 0; i < params.SymbolSize; i++ {
		out[i] = b[len(b)-1-i]
	}
	return out
}

// CanonicalBytes returns the canonical 32-byte little-endian encoding of a
// field element (spec.md §3/§4.11), used when field elements are
// serialized outside the opaque SNARK blob.
func CanonicalBytes(e Element) [params.FieldElementSize]byte {
	be := e.Bytes()
	var out [params.FieldElementSize]byte
	for i := range be {
		out[i] = be[len(be)-1-i]
	}
	return out
}

// FromCanonicalBytes parses a canonical 32-byte little-endian encoding.
// The value is reduced modulo the field; this function does not itself
// reject an encoding at or above the modulus. wire.Decode rejects such
// input by checking that the result re-encodes to the same bytes.
func FromCanonicalBytes(b [params.FieldElementSize]byte) Element {
	var rev [params.FieldElementSize]byte
	for i := range b {
		rev[i] = b[params.FieldElementSize-1-i]
	}
	var e Element
	e.SetBytes(rev[:])
	return e
}

// FromUint64 lifts a small integer into the field, used for step counters,
// depths, and block heights entering a tagged hash.
func FromUint64(v uint64) Element {
	var e Element
	e.SetUint64(v)
	return e
}

// HashBytes folds an arbitrary-length byte string (e.g. a file_id or
// prover_id string) into a single field element by absorbing it, in
// SymbolSize-byte windows, into a Poseidon2 Merkle-Damgard hash and
// reducing the digest into the scalar field. Any byte string wider than 31 bytes must be split or
// hashed before entering a tagged hash (spec.md §4.2); this is the "hashed"
// branch, used for identifiers that are themselves already hash digests or
// opaque strings rather than protocol payload.
func HashBytes(b []byte) Element {
	h := poseidon2.NewMerkleDamgardHasher()
	// Absorb in SymbolSize-sized windows so no single write exceeds the
	// field's safe byte width, matching the discipline TaggedHash uses.
	buf := make([]byte, params.SymbolSize)
	for offset := 0; offset < len(b); offset += params.SymbolSize {
		for i := range buf {
			buf[i] = 0
		}
		end := offset + params.SymbolSize
		if end > len(b) {
			end = len(b)
		}
		copy(buf, b[offset:end])
		var e Element
		e.SetBytes(buf)
		eb := e.Bytes()
		h.Write(eb[:])
	}
	if len(b) == 0 {
		var zero Element
		zb := zero.Bytes()
		h.Write(zb[:])
	}
	return reduceToElement(h.Sum(nil))
}

// reduceToElement reduces an arbitrary-width digest into the scalar field.
func reduceToElement(digest []byte) Element {
	var e Element
	e.SetBigInt(new(big.Int).SetBytes(digest))
	return e
}

// TaggedHash absorbs tag first, then each operand in order, via Poseidon2's
// Merkle-Damgard sponge (spec.md §4.2). This is the single hashing
// primitive every domain-separated context in por-core goes through,
// grounded on pkg/crypto/crypto.go's HashWithDomainTag.
func TaggedHash(tag Tag, operands ...Element) Element {
	h := poseidon2.NewMerkleDamgardHasher()

	var tagElem Element
	tagElem.SetUint64(uint64(tag))
	tb := tagElem.Bytes()
	h.Write(tb[:])

	for _, op := range operands {
		b := op.Bytes()
		h.Write(b[:])
	}

	return reduceToElement(h.Sum(nil))
}
