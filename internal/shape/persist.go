package shape

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"

	"github.com/muridata/por-core/internal/circuit"
	"github.com/muridata/por-core/internal/porerr"
)

// SaveParams writes a shape's proving and verifying keys to outputDir,
// named <shape-key>_prover.key / <shape-key>_verifier.key. Grounded on
// pkg/setup.go's ExportKeys, generalized from a fixed circuitName to a
// shape.Key so distinct (F, Df, Da) triples never collide on disk. The
// compiled constraint system is not persisted: it is cheap to
// regenerate deterministically from the key via circuit.New plus
// frontend.Compile, unlike the MPC-derived keys.
func SaveParams(p *Params, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return porerr.Wrap(porerr.IO, "shape.SaveParams", err)
	}

	pkPath := filepath.Join(outputDir, p.Key.String()+"_prover.key")
	if err := saveObject(pkPath, p.PK); err != nil {
		return porerr.Wrap(porerr.IO, "shape.SaveParams", err)
	}

	vkPath := filepath.Join(outputDir, p.Key.String()+"_verifier.key")
	if err := saveObject(vkPath, p.VK); err != nil {
		return porerr.Wrap(porerr.IO, "shape.SaveParams", err)
	}

	return nil
}

// LoadParams reads a previously-saved shape's proving and verifying keys
// from dir and recompiles its constraint system from key, mirroring
// pkg/setup.go's LoadKeys. Useful for a long-running prover/verifier
// process to skip re-running groth16.Setup on every restart while still
// going through internal/ceremony for the keys themselves.
func LoadParams(key Key, dir string) (*Params, error) {
	ccs, err := compileCircuit(circuit.New(key.F, key.Df, key.Da))
	if err != nil {
		return nil, porerr.Wrap(porerr.Circuit, "shape.LoadParams", err)
	}

	pk := groth16.NewProvingKey(ecc.BN254)
	if err := loadObject(filepath.Join(dir, key.String()+"_prover.key"), pk); err != nil {
		return nil, porerr.Wrap(porerr.IO, "shape.LoadParams", err)
	}

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if err := loadObject(filepath.Join(dir, key.String()+"_verifier.key"), vk); err != nil {
		return nil, porerr.Wrap(porerr.IO, "shape.LoadParams", err)
	}

	return &Params{Key: key, CCS: ccs, PK: pk, VK: vk}, nil
}

// SaveAggParams writes an aggregator's proving and verifying keys to
// outputDir, named <agg-key>_prover.key / <agg-key>_verifier.key,
// mirroring SaveParams. The inner shape's own keys are assumed already
// saved separately via SaveParams -- LoadAggParams takes the already
// resolved inner *Params rather than reloading it itself.
func SaveAggParams(p *AggParams, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return porerr.Wrap(porerr.IO, "shape.SaveAggParams", err)
	}

	pkPath := filepath.Join(outputDir, p.Key.String()+"_prover.key")
	if err := saveObject(pkPath, p.PK); err != nil {
		return porerr.Wrap(porerr.IO, "shape.SaveAggParams", err)
	}

	vkPath := filepath.Join(outputDir, p.Key.String()+"_verifier.key")
	if err := saveObject(vkPath, p.VK); err != nil {
		return porerr.Wrap(porerr.IO, "shape.SaveAggParams", err)
	}

	return nil
}

// LoadAggParams reads a previously-saved aggregator's proving and
// verifying keys from dir and recompiles its constraint system against
// inner's already-resolved CCS/VK, mirroring LoadParams.
func LoadAggParams(key AggKey, inner *Params, dir string) (*AggParams, error) {
	ac := circuit.PlaceholderAggregator(key.Shape.F, key.Shape.Df, key.Shape.Da, key.MaxSteps, inner.CCS)
	ccs, err := compileCircuit(ac)
	if err != nil {
		return nil, porerr.Wrap(porerr.Circuit, "shape.LoadAggParams", err)
	}

	pk := groth16.NewProvingKey(ecc.BN254)
	if err := loadObject(filepath.Join(dir, key.String()+"_prover.key"), pk); err != nil {
		return nil, porerr.Wrap(porerr.IO, "shape.LoadAggParams", err)
	}

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if err := loadObject(filepath.Join(dir, key.String()+"_verifier.key"), vk); err != nil {
		return nil, porerr.Wrap(porerr.IO, "shape.LoadAggParams", err)
	}

	return &AggParams{Key: key, CCS: ccs, PK: pk, VK: vk, InnerVK: inner.VK}, nil
}

func saveObject(path string, obj io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := obj.WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func loadObject(path string, obj io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := obj.ReadFrom(f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
