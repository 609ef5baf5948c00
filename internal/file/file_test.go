package file

import "testing"

func TestPrepareRejectsEmpty(t *testing.T) {
	if _, err := Prepare(nil, "empty.dat"); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestPrepareDeterministicFileID(t *testing.T) {
	data := []byte("This is a test file for the PoR system.")
	p1, err := Prepare(data, "test.dat")
	if err != nil {
		t.Fatal(err)
	}
	p2, err := Prepare(data, "test.dat")
	if err != nil {
		t.Fatal(err)
	}
	if p1.Metadata.FileID != p2.Metadata.FileID {
		t.Fatal("file_id must be deterministic over original bytes")
	}
	if !p1.Metadata.Root.Equal(&p2.Metadata.Root) {
		t.Fatal("root must be deterministic")
	}
}

func TestPreparePaddedLenIsPowerOfTwo(t *testing.T) {
	data := make([]byte, 1024)
	p, err := Prepare(data, "f.bin")
	if err != nil {
		t.Fatal(err)
	}
	n := p.Metadata.PaddedLen
	if n&(n-1) != 0 {
		t.Fatalf("padded_len %d is not a power of two", n)
	}
	if n < len(p.Symbols) {
		t.Fatalf("padded_len %d smaller than symbol count %d", n, len(p.Symbols))
	}
}

func TestPrepareDistinctContentDistinctRoot(t *testing.T) {
	p1, err := Prepare([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), "a")
	if err != nil {
		t.Fatal(err)
	}
	p2, err := Prepare([]byte("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"), "b")
	if err != nil {
		t.Fatal(err)
	}
	if p1.Metadata.Root.Equal(&p2.Metadata.Root) {
		t.Fatal("distinct content must produce distinct roots")
	}
	if p1.Metadata.FileID == p2.Metadata.FileID {
		t.Fatal("distinct content must produce distinct file ids")
	}
}
