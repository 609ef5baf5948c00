// Package wire implements spec.md §4.11's proof serialization: a
// versioned, magic-tagged, length-prefixed byte format, rejecting wrong
// magic, unknown version, over-long lengths, trailing bytes, or a zero
// challenge-ID count.
//
// The proof body itself is now genuinely constant-size regardless of
// num_challenges: internal/recur folds every macro-step into one outer
// Groth16 proof (internal/circuit.AggregatorCircuit, spec.md §4.8's
// recursive composition driver), so the wire format carries exactly one
// opaque SNARK blob and one claimed final state, not one blob per step:
//
//	magic(4) ‖ version(2, LE) ‖ shape_f(4, LE) ‖ max_steps(4, LE) ‖
//	  state_out(32) ‖ snark_len(4, LE) ‖ snark_bytes ‖
//	  n_ids(4, LE) ‖ id_0(32) ‖ … ‖ id_{n-1}(32)
//
// Grounded on pkg/setup/setup.go's saveObject/loadObject WriteTo/ReadFrom
// discipline for the opaque SNARK bytes themselves, and on spec.md
// §4.11's literal magic/version/length-prefix/trailing-bytes rejection
// rules for the framing around them.
package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"

	"github.com/muridata/por-core/internal/field"
	"github.com/muridata/por-core/internal/params"
	"github.com/muridata/por-core/internal/porerr"
	"github.com/muridata/por-core/internal/recur"
)

const maxReasonableLength = 64 << 20 // 64 MiB: over-long lengths are rejected outright (spec.md §4.11)

// Proof is the decoded wire format: the shape/step-count tier the
// aggregate proof was compiled for, the claimed final state, the opaque
// outer SNARK proof, and the batch's ordered ChallengeIDs.
type Proof struct {
	ShapeF       int
	MaxSteps     int
	StateOut     field.Element
	SNARK        groth16.Proof
	ChallengeIDs [][32]byte
}

// Encode serializes p per this package's framing.
func Encode(p *Proof) ([]byte, error) {
	if p.SNARK == nil {
		return nil, porerr.New(porerr.InvalidInput, "wire.Encode")
	}
	if len(p.ChallengeIDs) == 0 {
		return nil, porerr.New(porerr.InvalidInput, "wire.Encode")
	}

	var buf bytes.Buffer
	writeUint32(&buf, params.WireMagic)
	writeUint16(&buf, params.WireVersion)
	writeUint32(&buf, uint32(p.ShapeF))
	writeUint32(&buf, uint32(p.MaxSteps))

	stateOut := field.CanonicalBytes(p.StateOut)
	buf.Write(stateOut[:])

	var snarkBuf bytes.Buffer
	if _, err := p.SNARK.WriteTo(&snarkBuf); err != nil {
		return nil, porerr.Wrap(porerr.Serialization, "wire.Encode", err)
	}
	writeUint32(&buf, uint32(snarkBuf.Len()))
	buf.Write(snarkBuf.Bytes())

	writeUint32(&buf, uint32(len(p.ChallengeIDs)))
	for _, id := range p.ChallengeIDs {
		buf.Write(id[:])
	}

	return buf.Bytes(), nil
}

// Decode parses and validates the wire format, rejecting wrong magic,
// unknown version, over-long lengths, trailing bytes, or n_ids == 0
// (spec.md §4.11). It never panics on malformed input.
func Decode(data []byte) (*Proof, error) {
	r := bytes.NewReader(data)

	var magicBuf [4]byte
	if _, err := io.ReadFull(r, magicBuf[:]); err != nil {
		return nil, porerr.Wrap(porerr.Serialization, "wire.Decode", err)
	}
	if binary.LittleEndian.Uint32(magicBuf[:]) != params.WireMagic {
		return nil, porerr.New(porerr.Serialization, "wire.Decode")
	}

	version, err := readUint16(r)
	if err != nil {
		return nil, porerr.Wrap(porerr.Serialization, "wire.Decode", err)
	}
	if version != params.WireVersion {
		return nil, porerr.New(porerr.Serialization, "wire.Decode")
	}

	shapeF, err := readUint32Bounded(r, maxReasonableLength)
	if err != nil {
		return nil, porerr.Wrap(porerr.Serialization, "wire.Decode", err)
	}
	if shapeF == 0 {
		return nil, porerr.New(porerr.Serialization, "wire.Decode")
	}

	maxSteps, err := readUint32Bounded(r, maxReasonableLength)
	if err != nil {
		return nil, porerr.Wrap(porerr.Serialization, "wire.Decode", err)
	}
	if maxSteps == 0 {
		return nil, porerr.New(porerr.Serialization, "wire.Decode")
	}

	var stateOutRaw [params.FieldElementSize]byte
	if _, err := io.ReadFull(r, stateOutRaw[:]); err != nil {
		return nil, porerr.Wrap(porerr.Serialization, "wire.Decode", err)
	}
	stateOut := field.FromCanonicalBytes(stateOutRaw)
	if field.CanonicalBytes(stateOut) != stateOutRaw {
		return nil, porerr.New(porerr.Serialization, "wire.Decode") // non-canonical field element
	}

	snarkLen, err := readUint32Bounded(r, maxReasonableLength)
	if err != nil {
		return nil, porerr.Wrap(porerr.Serialization, "wire.Decode", err)
	}
	snarkBytes := make([]byte, snarkLen)
	if _, err := io.ReadFull(r, snarkBytes); err != nil {
		return nil, porerr.Wrap(porerr.Serialization, "wire.Decode", err)
	}
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(snarkBytes)); err != nil {
		return nil, porerr.Wrap(porerr.Serialization, "wire.Decode", err)
	}

	nIDs, err := readUint32Bounded(r, maxReasonableLength)
	if err != nil {
		return nil, porerr.Wrap(porerr.Serialization, "wire.Decode", err)
	}
	if nIDs == 0 {
		return nil, porerr.New(porerr.Serialization, "wire.Decode")
	}

	ids := make([][32]byte, nIDs)
	for i := range ids {
		if _, err := io.ReadFull(r, ids[i][:]); err != nil {
			return nil, porerr.Wrap(porerr.Serialization, "wire.Decode", err)
		}
	}

	if r.Len() != 0 {
		return nil, porerr.New(porerr.Serialization, "wire.Decode") // trailing bytes
	}

	return &Proof{
		ShapeF:       int(shapeF),
		MaxSteps:     int(maxSteps),
		StateOut:     stateOut,
		SNARK:        proof,
		ChallengeIDs: ids,
	}, nil
}

// FromAggregateProof assembles a wire Proof from internal/recur's
// constant-size aggregate output and the batch's challenge IDs.
func FromAggregateProof(shapeF, maxSteps int, agg *recur.AggregateProof, challengeIDs [][32]byte) *Proof {
	return &Proof{
		ShapeF:       shapeF,
		MaxSteps:     maxSteps,
		StateOut:     agg.StateOut,
		SNARK:        agg.Proof,
		ChallengeIDs: challengeIDs,
	}
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readUint16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func readUint32Bounded(r *bytes.Reader, max uint32) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(b[:])
	if v > max {
		return 0, porerr.New(porerr.Serialization, "wire.readUint32Bounded")
	}
	return v, nil
}
