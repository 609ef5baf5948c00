// Package porerr defines the uniform typed error taxonomy surfaced across
// por-core's public API (spec.md §7).
package porerr

import (
	"errors"
	"fmt"
)

// Code enumerates the structural, ledger, cryptographic, and I/O error
// classes the core can return. Never returned as a bare bool: verification
// failure due to adversarial input is a value (false), not an error.
type Code int

const (
	// Structural
	InvalidInput Code = iota
	InvalidChallengeCount
	ChallengeMismatch
	MetadataMismatch

	// Ledger
	FileNotFound
	FileNotInLedger
	DuplicateFile

	// Cryptographic / structural lower layers
	MerkleTree
	Circuit
	Snark

	// I/O
	Serialization
	IO
)

func (c Code) String() string {
	switch c {
	case InvalidInput:
		return "InvalidInput"
	case InvalidChallengeCount:
		return "InvalidChallengeCount"
	case ChallengeMismatch:
		return "ChallengeMismatch"
	case MetadataMismatch:
		return "MetadataMismatch"
	case FileNotFound:
		return "FileNotFound"
	case FileNotInLedger:
		return "FileNotInLedger"
	case DuplicateFile:
		return "DuplicateFile"
	case MerkleTree:
		return "MerkleTree"
	case Circuit:
		return "Circuit"
	case Snark:
		return "Snark"
	case Serialization:
		return "Serialization"
	case IO:
		return "IO"
	default:
		return "Unknown"
	}
}

// Error is the concrete typed error. Op names the failing operation
// ("ledger.Add", "plan.Build", "verify.Verify", ...) so a log line alone
// identifies where in the pipeline validation failed.
type Error struct {
	Code Code
	Op   string
	Err  error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("por: %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("por: %s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a typed error with no wrapped cause.
func New(code Code, op string) error {
	return &Error{Code: code, Op: op}
}

// Wrap constructs a typed error wrapping an underlying cause.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Err: err}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
