// Package ring implements arithmetic over the negacyclic ring Z_Q[X]/(X^N+1)
// with a prime NTT-friendly modulus Q: validation of (N, Q), forward and
// inverse number theoretic transforms, and coefficient-wise operations.
package ring

import (
	"fmt"
	"math/big"
	"runtime"

	"github.com/tuneinsight/vbfv/utils"
)

// Ring carries the precomputed constants of Z_Q[X]/(X^N+1).
// A Ring is read-only after creation and safe for concurrent use.
type Ring struct {
	params Parameters

	// N is the ring degree.
	N int

	// Modulus is the prime Q.
	Modulus uint64

	// MRedConstant is -(Q^-1) mod 2^64.
	MRedConstant uint64

	// RootsForward[i] = ψ^bitrev(i) in Montgomery form.
	RootsForward []uint64

	// RootsBackward[i] = ψ^-bitrev(i) in Montgomery form.
	RootsBackward []uint64

	// NInv is N^-1 mod Q in Montgomery form.
	NInv uint64

	workers int
}

// Option configures a Ring.
type Option func(r *Ring)

// WithWorkers sets the number of goroutines sharing each NTT stage.
// A value of zero or less uses runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(r *Ring) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		r.workers = n
	}
}

// NewRing creates a new Ring from validated parameters.
// It returns ErrInvalidModulus if p was not produced by Validate or ValidateWithRoot.
func NewRing(p Parameters, opts ...Option) (r *Ring, err error) {

	if !p.Valid() {
		return nil, ErrInvalidModulus
	}

	r = &Ring{
		params:       p,
		N:            p.N(),
		Modulus:      p.Q(),
		MRedConstant: MRedParams(p.Q()),
		workers:      1,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.generateNTTConstants()

	return r, nil
}

// NewRingFromNQ validates (N, Q) and creates the corresponding Ring.
func NewRingFromNQ(N int, Q uint64, opts ...Option) (*Ring, error) {
	p, err := Validate(N, Q)
	if err != nil {
		return nil, err
	}
	return NewRing(p, opts...)
}

// generateNTTConstants fills the bit-reversed tables of powers of ψ and ψ^-1.
func (r *Ring) generateNTTConstants() {

	N, Q := r.N, r.Modulus
	logN := uint64(r.params.LogN())

	psi := r.params.Psi()
	psiInv := ModInv(psi, Q)

	r.RootsForward = make([]uint64, N)
	r.RootsBackward = make([]uint64, N)

	fwd, bwd := uint64(1), uint64(1)
	powFwd := make([]uint64, N)
	powBwd := make([]uint64, N)
	for i := 0; i < N; i++ {
		powFwd[i], powBwd[i] = fwd, bwd
		fwd = MulMod(fwd, psi, Q)
		bwd = MulMod(bwd, psiInv, Q)
	}

	for i := 0; i < N; i++ {
		j := utils.BitReverse64(uint64(i), logN)
		r.RootsForward[i] = MForm(powFwd[j], Q)
		r.RootsBackward[i] = MForm(powBwd[j], Q)
	}

	r.NInv = MForm(ModInv(uint64(N), Q), Q)
}

// Parameters returns the validated parameters of the ring.
func (r *Ring) Parameters() Parameters {
	return r.params
}

// Workers returns the number of goroutines used per NTT stage.
func (r *Ring) Workers() int {
	return r.workers
}

func (r *Ring) String() string {
	return r.params.String()
}

// NewPoly returns a zero polynomial of the ring.
func (r *Ring) NewPoly() Poly {
	return NewPoly(r.N)
}

// NewPolyFromCoeffs returns a polynomial with a copy of the given
// coefficients. It fails if len(coeffs) != N or if a coefficient is not in [0, Q).
func (r *Ring) NewPolyFromCoeffs(coeffs []uint64) (Poly, error) {
	p := Poly{Coeffs: append([]uint64{}, coeffs...)}
	if err := r.Check(p); err != nil {
		return Poly{}, err
	}
	return p, nil
}

// NewPolyFromInt64 returns the polynomial whose coefficients are the
// reductions mod Q of the given signed coefficients.
func (r *Ring) NewPolyFromInt64(coeffs []int64) (Poly, error) {

	if len(coeffs) != r.N {
		return Poly{}, fmt.Errorf("cannot NewPolyFromInt64: got %d coefficients, expected %d", len(coeffs), r.N)
	}

	p := r.NewPoly()
	for i, c := range coeffs {
		p.Coeffs[i] = r.ReduceInt64(c)
	}

	return p, nil
}

// NewPolyFromBigInt returns the polynomial whose coefficients are the
// reductions mod Q of the given integers.
func (r *Ring) NewPolyFromBigInt(coeffs []*big.Int) (Poly, error) {

	if len(coeffs) != r.N {
		return Poly{}, fmt.Errorf("cannot NewPolyFromBigInt: got %d coefficients, expected %d", len(coeffs), r.N)
	}

	Q := new(big.Int).SetUint64(r.Modulus)
	tmp := new(big.Int)

	p := r.NewPoly()
	for i, c := range coeffs {
		p.Coeffs[i] = tmp.Mod(c, Q).Uint64()
	}

	return p, nil
}

// ReduceInt64 returns c mod Q in [0, Q).
func (r *Ring) ReduceInt64(c int64) uint64 {
	Q := r.Modulus
	if c >= 0 {
		return uint64(c) % Q
	}
	return (Q - uint64(-(c+1))%Q - 1) % Q
}

// Centered returns the centered lift of each coefficient of p to
// (-Q/2, Q/2]. Q must be smaller than 2^63.
func (r *Ring) Centered(p Poly) []int64 {
	Q := r.Modulus
	half := Q >> 1
	out := make([]int64, len(p.Coeffs))
	for i, c := range p.Coeffs {
		if c > half {
			out[i] = int64(c) - int64(Q)
		} else {
			out[i] = int64(c)
		}
	}
	return out
}

// Check returns an error if p does not have N coefficients in [0, Q).
func (r *Ring) Check(p Poly) error {
	return r.checkCoeffs(p.Coeffs)
}

// CheckNTT returns an error if p does not have N evaluations in [0, Q).
func (r *Ring) CheckNTT(p NTTPoly) error {
	return r.checkCoeffs(p.Coeffs)
}

func (r *Ring) checkCoeffs(c []uint64) error {

	if len(c) != r.N {
		return fmt.Errorf("invalid polynomial: got %d coefficients, expected %d", len(c), r.N)
	}

	for i, ci := range c {
		if ci >= r.Modulus {
			return fmt.Errorf("invalid polynomial: coefficient %d is %d >= Q=%d", i, ci, r.Modulus)
		}
	}

	return nil
}
