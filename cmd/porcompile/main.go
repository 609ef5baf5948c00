// Command porcompile generates and persists Groth16 parameters for a
// single StepCircuit shape (F, Df, Da), either via a single-party dev
// setup or a multi-party ceremony. It replaces the teacher's
// cmd/compile, which addressed a fixed set of named circuits
// (poi/keyleak) rather than the shape-polymorphic StepCircuit family
// por-core compiles on demand: here the circuit is selected by its
// (F, Df, Da) triple instead of a name, and ceremony state lives under
// <baseDir>/<shape-key>/ (internal/ceremony.Dir) so concurrent
// ceremonies for distinct shapes never collide.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/muridata/por-core/internal/ceremony"
	"github.com/muridata/por-core/internal/shape"
)

func main() {
	if len(os.Args) < 5 {
		printUsage()
		os.Exit(1)
	}

	key, err := parseKey(os.Args[1], os.Args[2], os.Args[3])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch os.Args[4] {
	case "dev":
		outputDir := "."
		if len(os.Args) >= 6 {
			outputDir = os.Args[5]
		}
		handleDev(key, outputDir)
	case "ceremony":
		if len(os.Args) < 6 {
			printUsage()
			os.Exit(1)
		}
		handleCeremony(key, os.Args[5:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleDev(key shape.Key, outputDir string) {
	fmt.Println("================================================================")
	fmt.Println("  WARNING: Single-party setup (1-of-1 trust assumption)")
	fmt.Println("  DO NOT use these keys in production.")
	fmt.Printf("  For production, run: go run ./cmd/porcompile %d %d %d ceremony ...\n", key.F, key.Df, key.Da)
	fmt.Println("================================================================")

	cache := shape.NewCache(1)
	params, err := cache.Get(key)
	if err != nil {
		log.Fatal(err)
	}
	if err := shape.SaveParams(params, outputDir); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Exported shape %s to %s\n", key, outputDir)
}

func handleCeremony(key shape.Key, args []string) {
	baseDir := "."
	if len(args) >= 2 {
		baseDir = args[1]
	}

	switch args[0] {
	case "p1-init":
		if err := ceremony.P1Init(baseDir, key); err != nil {
			log.Fatal(err)
		}
	case "p1-contribute":
		if err := ceremony.P1Contribute(baseDir, key); err != nil {
			log.Fatal(err)
		}
	case "p1-verify":
		if len(args) < 2 {
			log.Fatalf("usage: go run ./cmd/porcompile F Df Da ceremony p1-verify BEACON_HEX [baseDir]")
		}
		beacon := args[1]
		dir := "."
		if len(args) >= 3 {
			dir = args[2]
		}
		if err := ceremony.P1Verify(dir, key, beacon); err != nil {
			log.Fatal(err)
		}
	case "p2-init":
		if err := ceremony.P2Init(baseDir, key); err != nil {
			log.Fatal(err)
		}
	case "p2-contribute":
		if err := ceremony.P2Contribute(baseDir, key); err != nil {
			log.Fatal(err)
		}
	case "p2-verify":
		if len(args) < 2 {
			log.Fatalf("usage: go run ./cmd/porcompile F Df Da ceremony p2-verify BEACON_HEX [baseDir]")
		}
		beacon := args[1]
		dir := "."
		if len(args) >= 3 {
			dir = args[2]
		}
		pk, vk, err := ceremony.P2Verify(dir, key, beacon)
		if err != nil {
			log.Fatal(err)
		}
		if err := shape.SaveParams(&shape.Params{Key: key, PK: pk, VK: vk}, dir); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Ceremony complete for shape %s, keys exported to %s\n", key, dir)
	default:
		printUsage()
		os.Exit(1)
	}
}

func parseKey(fStr, dfStr, daStr string) (shape.Key, error) {
	f, err := strconv.Atoi(fStr)
	if err != nil {
		return shape.Key{}, fmt.Errorf("invalid F: %w", err)
	}
	df, err := strconv.Atoi(dfStr)
	if err != nil {
		return shape.Key{}, fmt.Errorf("invalid Df: %w", err)
	}
	da, err := strconv.Atoi(daStr)
	if err != nil {
		return shape.Key{}, fmt.Errorf("invalid Da: %w", err)
	}
	return shape.Key{F: f, Df: df, Da: da}, nil
}

func printUsage() {
	fmt.Println(`Usage:
  go run ./cmd/porcompile F Df Da dev [outputDir]                        Dev mode (single-party/unsafe setup, NOT for production)

  go run ./cmd/porcompile F Df Da ceremony p1-init [baseDir]             Initialize Phase 1 (Powers of Tau)
  go run ./cmd/porcompile F Df Da ceremony p1-contribute [baseDir]       Add a Phase 1 contribution
  go run ./cmd/porcompile F Df Da ceremony p1-verify HEX [baseDir]       Verify Phase 1 & seal with random beacon

  go run ./cmd/porcompile F Df Da ceremony p2-init [baseDir]             Initialize Phase 2 (circuit-specific)
  go run ./cmd/porcompile F Df Da ceremony p2-contribute [baseDir]       Add a Phase 2 contribution
  go run ./cmd/porcompile F Df Da ceremony p2-verify HEX [baseDir]       Verify Phase 2, seal & export keys

F is the batch width (files per step), Df the per-file Merkle depth bound,
Da the ledger's aggregated-tree depth bound. A proving/verifying node
needs one compiled shape per distinct (F, Df, Da) triple it expects to
see in a challenge batch.

Security: 1-of-N honest — if any single contributor is honest, the setup is secure.
Beacon: use a public randomness source (e.g. League of Entropy) evaluated AFTER the last contribution.`)
}
