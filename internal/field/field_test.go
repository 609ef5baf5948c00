package field

import (
	"testing"

	"github.com/muridata/por-core/internal/params"
)

func TestAllTagsUnique(t *testing.T) {
	seen := make(map[Tag]bool)
	for _, tag := range AllTags() {
		if seen[tag] {
			t.Fatalf("tag %d appears more than once in the registry", tag)
		}
		seen[tag] = true
	}
}

func TestEncodeDecodeRoundTrips(t *testing.T) {
	cases := [][]byte{
		make([]byte, params.SymbolSize),
		[]byte("hello"),
		{},
	}
	for i, symbol := range cases {
		e := Encode(symbol)
		decoded := Decode(e)
		for j := 0; j < len(symbol); j++ {
			if decoded[j] != symbol[j] {
				t.Fatalf("case %d: decoded[%d] = %d, want %d", i, j, decoded[j], symbol[j])
			}
		}
	}
}

func TestCanonicalBytesRoundTrips(t *testing.T) {
	e := FromUint64(123456789)
	b := CanonicalBytes(e)
	got := FromCanonicalBytes(b)
	if !got.Equal(&e) {
		t.Fatal("FromCanonicalBytes(CanonicalBytes(e)) != e")
	}
}

func TestTaggedHashIsDeterministic(t *testing.T) {
	a := FromUint64(1)
	b := FromUint64(2)

	h1 := TaggedHash(TagLeaf, a, b)
	h2 := TaggedHash(TagLeaf, a, b)
	if !h1.Equal(&h2) {
		t.Fatal("TaggedHash is not deterministic across repeated calls with identical inputs")
	}
}

func TestTaggedHashIsTagSeparated(t *testing.T) {
	a := FromUint64(1)
	b := FromUint64(2)

	h1 := TaggedHash(TagLeaf, a, b)
	h2 := TaggedHash(TagNode, a, b)
	if h1.Equal(&h2) {
		t.Fatal("TaggedHash collided across distinct tags for the same operands")
	}
}

func TestTaggedHashIsOrderSensitive(t *testing.T) {
	a := FromUint64(1)
	b := FromUint64(2)

	h1 := TaggedHash(TagNode, a, b)
	h2 := TaggedHash(TagNode, b, a)
	if h1.Equal(&h2) {
		t.Fatal("TaggedHash did not distinguish operand order")
	}
}

func TestHashBytesIsDeterministic(t *testing.T) {
	h1 := HashBytes([]byte("node_1"))
	h2 := HashBytes([]byte("node_1"))
	if !h1.Equal(&h2) {
		t.Fatal("HashBytes is not deterministic across repeated calls")
	}

	h3 := HashBytes([]byte("node_2"))
	if h1.Equal(&h3) {
		t.Fatal("HashBytes collided across distinct inputs")
	}
}
