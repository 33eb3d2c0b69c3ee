package circuit

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is returned when a witness, a statement or a proof
	// does not match the shape of the circuit it is used with.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrMalformedStatement is returned by Verify, before any verification,
	// when the public statement is not well formed for the parameters.
	ErrMalformedStatement = errors.New("malformed statement")

	// ErrFieldIncompatible is returned when the intermediates of a circuit
	// could wrap around the scalar field of the proof system.
	ErrFieldIncompatible = errors.New("parameters incompatible with the proof system field")

	// ErrUnsupportedKind is returned for operation kinds without a circuit.
	ErrUnsupportedKind = errors.New("unsupported operation kind")

	// ErrUnsatisfied is returned by the witness generation when the record
	// is not the correct result of its operation.
	ErrUnsatisfied = errors.New("record does not satisfy its operation")

	// ErrMissingSecret is returned when the secrets needed to generate the
	// witness of an encryption or a decryption are not provided.
	ErrMissingSecret = errors.New("missing secret")
)

// ProofSystemError is returned by the System when the proof system
// rejects a circuit, a witness or a key. It indicates a caller bug.
type ProofSystemError struct {
	Op  string
	Err error
}

func (e *ProofSystemError) Error() string {
	return fmt.Sprintf("cannot %s: %s", e.Op, e.Err)
}

func (e *ProofSystemError) Unwrap() error {
	return e.Err
}

func newProofSystemError(op string, err error, format string, args ...interface{}) *ProofSystemError {
	return &ProofSystemError{Op: op, Err: fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))}
}
