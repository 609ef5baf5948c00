// Package ceremony adapts pkg/setup/setup.go's MPC Ceremony section (Powers
// of Tau Phase 1 + circuit-specific Phase 2, via
// gnark/backend/groth16/bn254/mpcsetup) to per-shape StepCircuit instances.
// The teacher ran one ceremony for one fixed circuit under a single
// "ceremony/" directory; por-core can be asked to prove batches of many
// distinct shapes, so every ceremony here is rooted at
// <baseDir>/<shape-key>/ instead, keeping concurrent ceremonies for
// different (F, Df, Da) triples from colliding on the same contribution
// files.
//
// The phase functions are otherwise a direct structural port: same
// mpcsetup types, same init/contribute/verify three-step shape, same
// file-naming convention (phaseN_NNNN.bin contribution chain, srs_commons.bin
// sealed output), only parametrized on a shape.Key's circuit and directory
// instead of a single global circuit and CeremonyDir constant.
package ceremony

import (
	"encoding/hex"
	"fmt"
	"io"
	"math/bits"
	"os"
	"path/filepath"
	"sort"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/groth16/bn254/mpcsetup"
	cs_bn254 "github.com/consensys/gnark/constraint/bn254"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/muridata/por-core/internal/circuit"
	"github.com/muridata/por-core/internal/porerr"
	"github.com/muridata/por-core/internal/porlog"
	"github.com/muridata/por-core/internal/shape"
)

// Dir returns the ceremony directory for a shape under baseDir.
func Dir(baseDir string, key shape.Key) string {
	return filepath.Join(baseDir, key.String())
}

func compile(key shape.Key) (*cs_bn254.R1CS, error) {
	c := circuit.New(key.F, key.Df, key.Da)
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, c)
	if err != nil {
		return nil, fmt.Errorf("compile shape %s: %w", key, err)
	}
	r1csConcrete, ok := ccs.(*cs_bn254.R1CS)
	if !ok {
		return nil, fmt.Errorf("compile shape %s: unexpected constraint system type", key)
	}
	return r1csConcrete, nil
}

// P1Init writes the initial Phase 1 (Powers of Tau) state for a shape,
// sized to the shape's constraint count.
func P1Init(baseDir string, key shape.Key) error {
	dir := Dir(baseDir, key)
	if err := ensureDir(dir); err != nil {
		return porerr.Wrap(porerr.IO, "ceremony.P1Init", err)
	}

	ccs, err := compile(key)
	if err != nil {
		return porerr.Wrap(porerr.Circuit, "ceremony.P1Init", err)
	}

	n := ecc.NextPowerOfTwo(uint64(ccs.GetNbConstraints()))
	porlog.L().Info().
		Str("shape", key.String()).
		Uint64("domain_size", n).
		Int("pow2", bits.Len64(n)-1).
		Int("constraints", ccs.GetNbConstraints()).
		Msg("ceremony phase1 init")

	p := mpcsetup.NewPhase1(n)
	return saveObject(nextContribPath(dir, "phase1"), p)
}

// P1Contribute appends one contributor's randomness to the latest Phase 1
// state.
func P1Contribute(baseDir string, key shape.Key) error {
	dir := Dir(baseDir, key)
	latest, err := latestContrib(dir, "phase1")
	if err != nil {
		return porerr.Wrap(porerr.IO, "ceremony.P1Contribute", err)
	}

	var p mpcsetup.Phase1
	if err := loadObject(latest, &p); err != nil {
		return porerr.Wrap(porerr.IO, "ceremony.P1Contribute", err)
	}

	p.Contribute()

	return saveObject(nextContribPath(dir, "phase1"), &p)
}

// P1Verify verifies the Phase 1 contribution chain and seals it with a
// random beacon, writing srs_commons.bin into the shape's ceremony
// directory.
func P1Verify(baseDir string, key shape.Key, beaconHex string) error {
	dir := Dir(baseDir, key)
	beacon, err := parseBeacon(beaconHex)
	if err != nil {
		return porerr.Wrap(porerr.InvalidInput, "ceremony.P1Verify", err)
	}

	ccs, err := compile(key)
	if err != nil {
		return porerr.Wrap(porerr.Circuit, "ceremony.P1Verify", err)
	}
	n := ecc.NextPowerOfTwo(uint64(ccs.GetNbConstraints()))

	contribs, err := findContribs(dir, "phase1")
	if err != nil {
		return porerr.Wrap(porerr.IO, "ceremony.P1Verify", err)
	}
	if len(contribs) < 2 {
		return porerr.New(porerr.InvalidInput, "ceremony.P1Verify")
	}

	phases := make([]*mpcsetup.Phase1, len(contribs)-1)
	for i, path := range contribs[1:] {
		phases[i] = new(mpcsetup.Phase1)
		if err := loadObject(path, phases[i]); err != nil {
			return porerr.Wrap(porerr.IO, "ceremony.P1Verify", err)
		}
	}

	commons, err := mpcsetup.VerifyPhase1(n, beacon, phases...)
	if err != nil {
		return porerr.Wrap(porerr.Snark, "ceremony.P1Verify", err)
	}

	return saveObject(filepath.Join(dir, "srs_commons.bin"), &commons)
}

// P2Init initializes the circuit-specific Phase 2 state from the sealed
// Phase 1 SRS commons.
func P2Init(baseDir string, key shape.Key) error {
	dir := Dir(baseDir, key)
	if err := ensureDir(dir); err != nil {
		return porerr.Wrap(porerr.IO, "ceremony.P2Init", err)
	}

	ccs, err := compile(key)
	if err != nil {
		return porerr.Wrap(porerr.Circuit, "ceremony.P2Init", err)
	}

	var commons mpcsetup.SrsCommons
	if err := loadObject(filepath.Join(dir, "srs_commons.bin"), &commons); err != nil {
		return porerr.Wrap(porerr.IO, "ceremony.P2Init", err)
	}

	var p mpcsetup.Phase2
	p.Initialize(ccs, &commons)

	return saveObject(nextContribPath(dir, "phase2"), &p)
}

// P2Contribute appends one contributor's randomness to the latest Phase 2
// state.
func P2Contribute(baseDir string, key shape.Key) error {
	dir := Dir(baseDir, key)
	latest, err := latestContrib(dir, "phase2")
	if err != nil {
		return porerr.Wrap(porerr.IO, "ceremony.P2Contribute", err)
	}

	var p mpcsetup.Phase2
	if err := loadObject(latest, &p); err != nil {
		return porerr.Wrap(porerr.IO, "ceremony.P2Contribute", err)
	}

	p.Contribute()

	return saveObject(nextContribPath(dir, "phase2"), &p)
}

// P2Verify verifies the Phase 2 contribution chain, seals it with a random
// beacon, and returns the production-ready Groth16 key pair.
func P2Verify(baseDir string, key shape.Key, beaconHex string) (groth16.ProvingKey, groth16.VerifyingKey, error) {
	dir := Dir(baseDir, key)
	beacon, err := parseBeacon(beaconHex)
	if err != nil {
		return nil, nil, porerr.Wrap(porerr.InvalidInput, "ceremony.P2Verify", err)
	}

	ccs, err := compile(key)
	if err != nil {
		return nil, nil, porerr.Wrap(porerr.Circuit, "ceremony.P2Verify", err)
	}

	var commons mpcsetup.SrsCommons
	if err := loadObject(filepath.Join(dir, "srs_commons.bin"), &commons); err != nil {
		return nil, nil, porerr.Wrap(porerr.IO, "ceremony.P2Verify", err)
	}

	contribs, err := findContribs(dir, "phase2")
	if err != nil {
		return nil, nil, porerr.Wrap(porerr.IO, "ceremony.P2Verify", err)
	}
	if len(contribs) < 2 {
		return nil, nil, porerr.New(porerr.InvalidInput, "ceremony.P2Verify")
	}

	phases := make([]*mpcsetup.Phase2, len(contribs)-1)
	for i, path := range contribs[1:] {
		phases[i] = new(mpcsetup.Phase2)
		if err := loadObject(path, phases[i]); err != nil {
			return nil, nil, porerr.Wrap(porerr.IO, "ceremony.P2Verify", err)
		}
	}

	pk, vk, err := mpcsetup.VerifyPhase2(ccs, &commons, beacon, phases...)
	if err != nil {
		return nil, nil, porerr.Wrap(porerr.Snark, "ceremony.P2Verify", err)
	}

	porlog.L().Info().Str("shape", key.String()).Msg("ceremony complete")
	return pk, vk, nil
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

func saveObject(path string, obj io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := obj.WriteTo(f); err != nil {
		return err
	}
	return nil
}

func loadObject(path string, obj io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := obj.ReadFrom(f); err != nil {
		return err
	}
	return nil
}

func parseBeacon(hexStr string) ([]byte, error) {
	b, err := hex.DecodeString(trimHexPrefix(hexStr))
	if err != nil {
		return nil, fmt.Errorf("invalid beacon hex: %w", err)
	}
	if len(b) < 16 {
		return nil, fmt.Errorf("beacon must be at least 16 bytes for sufficient entropy")
	}
	return b, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// findContribs returns sorted paths matching <dir>/<prefix>_NNNN.bin.
func findContribs(dir, prefix string) ([]string, error) {
	pattern := filepath.Join(dir, prefix+"_????.bin")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func latestContrib(dir, prefix string) (string, error) {
	contribs, err := findContribs(dir, prefix)
	if err != nil {
		return "", err
	}
	if len(contribs) == 0 {
		return "", fmt.Errorf("no %s contributions found in %s/", prefix, dir)
	}
	return contribs[len(contribs)-1], nil
}

func nextContribPath(dir, prefix string) string {
	contribs, _ := findContribs(dir, prefix)
	return filepath.Join(dir, fmt.Sprintf("%s_%04d.bin", prefix, len(contribs)))
}
