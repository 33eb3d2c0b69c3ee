package bfv

import (
	"errors"
	"fmt"
)

var (
	// ErrNoiseOverflow is returned by the decryptor when the noise budget of
	// a ciphertext is exhausted.
	ErrNoiseOverflow = errors.New("noise overflow")

	// ErrNoiseBudgetExceeded is returned by the evaluator, before any
	// computation, when an operation would bring the noise budget below the
	// configured minimum.
	ErrNoiseBudgetExceeded = errors.New("noise budget exceeded")

	// ErrDegreeMismatch is returned when an operand does not have the degree
	// an operation expects.
	ErrDegreeMismatch = errors.New("degree mismatch")

	// ErrTensorModulus is returned when no auxiliary NTT prime large enough
	// to hold the integer tensor product fits in 61 bits.
	ErrTensorModulus = errors.New("no auxiliary tensor modulus")

	errNilCiphertext = errors.New("nil ciphertext")
)

// DecryptionError is returned by Decryptor.Decrypt.
type DecryptionError struct {
	NoiseBudget int
	Err         error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("cannot decrypt: %s (noise budget %d)", e.Err, e.NoiseBudget)
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// OperationError is returned by the Evaluator.
type OperationError struct {
	Op          string
	NoiseBudget int
	MinBudget   int
	Err         error
}

func (e *OperationError) Error() string {
	if errors.Is(e.Err, ErrNoiseBudgetExceeded) {
		return fmt.Sprintf("cannot %s: %s (resulting budget %d < minimum %d)", e.Op, e.Err, e.NoiseBudget, e.MinBudget)
	}
	return fmt.Sprintf("cannot %s: %s", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func newOperationError(op string, err error, format string, args ...interface{}) *OperationError {
	return &OperationError{Op: op, Err: fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))}
}
