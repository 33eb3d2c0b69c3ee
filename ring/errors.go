package ring

import (
	"errors"
	"fmt"
)

// ParamErrorKind identifies which condition a modulus failed.
type ParamErrorKind int

const (
	NotPowerOfTwo ParamErrorKind = iota + 1
	NotPrime
	ModulusTooLarge
	NoPrimitiveRoot
	NotFullSplitting
)

var kindNames = map[ParamErrorKind]string{
	NotPowerOfTwo:    "NotPowerOfTwo",
	NotPrime:         "NotPrime",
	ModulusTooLarge:  "ModulusTooLarge",
	NoPrimitiveRoot:  "NoPrimitiveRoot",
	NotFullSplitting: "NotFullSplitting",
}

func (k ParamErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ParamErrorKind(%d)", int(k))
}

// Sentinels matched by errors.Is against a *ParamError of the same kind.
var (
	ErrNotPowerOfTwo    = &ParamError{Kind: NotPowerOfTwo}
	ErrNotPrime         = &ParamError{Kind: NotPrime}
	ErrModulusTooLarge  = &ParamError{Kind: ModulusTooLarge}
	ErrNoPrimitiveRoot  = &ParamError{Kind: NoPrimitiveRoot}
	ErrNotFullSplitting = &ParamError{Kind: NotFullSplitting}
)

// ErrInvalidModulus is returned when a Ring is instantiated from parameters
// that were not produced by Validate or ValidateWithRoot.
var ErrInvalidModulus = errors.New("invalid modulus: parameters were not validated")

// ParamError is returned by the parameter validator. It names the violated
// condition and the rejected configuration.
type ParamError struct {
	Kind   ParamErrorKind
	N      int
	Q      uint64
	Reason string
}

func (e *ParamError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid ring parameters: %s", e.Kind)
	}
	return fmt.Sprintf("invalid ring parameters (N=%d, Q=%d): %s: %s", e.N, e.Q, e.Kind, e.Reason)
}

// Is reports whether target is a *ParamError of the same kind.
func (e *ParamError) Is(target error) bool {
	t, ok := target.(*ParamError)
	return ok && t.Kind == e.Kind
}

func newParamError(kind ParamErrorKind, N int, Q uint64, format string, args ...interface{}) *ParamError {
	return &ParamError{Kind: kind, N: N, Q: Q, Reason: fmt.Sprintf(format, args...)}
}
