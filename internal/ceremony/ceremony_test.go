package ceremony

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/muridata/por-core/internal/shape"
)

func TestDirIsShapeScoped(t *testing.T) {
	d1 := Dir("/tmp/ceremonies", shape.Key{F: 1, Df: 2, Da: 0})
	d2 := Dir("/tmp/ceremonies", shape.Key{F: 1, Df: 3, Da: 0})
	if d1 == d2 {
		t.Fatal("distinct shapes must get distinct ceremony directories")
	}
}

func TestNextContribPathIncrements(t *testing.T) {
	dir := t.TempDir()

	p0 := nextContribPath(dir, "phase1")
	if filepath.Base(p0) != "phase1_0000.bin" {
		t.Fatalf("unexpected first path: %s", p0)
	}
	if err := os.WriteFile(p0, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	p1 := nextContribPath(dir, "phase1")
	if filepath.Base(p1) != "phase1_0001.bin" {
		t.Fatalf("unexpected second path: %s", p1)
	}
}

func TestLatestContribFailsWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	if _, err := latestContrib(dir, "phase1"); err == nil {
		t.Fatal("expected error for empty ceremony directory")
	}
}

func TestFindContribsSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"phase1_0002.bin", "phase1_0000.bin", "phase1_0001.bin"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	contribs, err := findContribs(dir, "phase1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"phase1_0000.bin", "phase1_0001.bin", "phase1_0002.bin"}
	if len(contribs) != len(want) {
		t.Fatalf("expected %d contribs, got %d", len(want), len(contribs))
	}
	for i, c := range contribs {
		if filepath.Base(c) != want[i] {
			t.Fatalf("contrib %d: want %s, got %s", i, want[i], filepath.Base(c))
		}
	}
}

func TestParseBeaconRejectsShort(t *testing.T) {
	if _, err := parseBeacon("0x0102"); err == nil {
		t.Fatal("expected error for too-short beacon")
	}
}

func TestParseBeaconAcceptsHexWithPrefix(t *testing.T) {
	b, err := parseBeacon("0xabcd1234ef567890aa11bb22cc33dd44")
	if err != nil {
		t.Fatal(err)
	}
	if len(b) < 16 {
		t.Fatal("beacon too short after decode")
	}
}
