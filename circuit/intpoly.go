package circuit

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"

	"github.com/tuneinsight/vbfv/ring"
)

// intPoly is a polynomial of Z[X]/(X^N+1). It is used to compute the
// unreduced values and the quotients of the witnesses.
type intPoly []*big.Int

func newIntPoly(N int) intPoly {
	p := make(intPoly, N)
	for i := range p {
		p[i] = new(big.Int)
	}
	return p
}

// liftPoly returns the coefficients of p in [0, Q) as integers.
func liftPoly(p ring.Poly) intPoly {
	out := make(intPoly, len(p.Coeffs))
	for i, c := range p.Coeffs {
		out[i] = new(big.Int).SetUint64(c)
	}
	return out
}

// liftCentered returns the centered lift of p in [-floor(Q/2), floor(Q/2)].
func liftCentered(r *ring.Ring, p ring.Poly) intPoly {
	out := make(intPoly, len(p.Coeffs))
	for i, c := range r.Centered(p) {
		out[i] = big.NewInt(c)
	}
	return out
}

func (p intPoly) add(q intPoly) intPoly {
	out := make(intPoly, len(p))
	for i := range p {
		out[i] = new(big.Int).Add(p[i], q[i])
	}
	return out
}

func (p intPoly) sub(q intPoly) intPoly {
	out := make(intPoly, len(p))
	for i := range p {
		out[i] = new(big.Int).Sub(p[i], q[i])
	}
	return out
}

func (p intPoly) mulScalar(c *big.Int) intPoly {
	out := make(intPoly, len(p))
	for i := range p {
		out[i] = new(big.Int).Mul(p[i], c)
	}
	return out
}

// zeroize overwrites the coefficients with zeros.
func (p intPoly) zeroize() {
	for i := range p {
		if p[i] != nil {
			p[i].SetInt64(0)
		}
	}
}

var (
	frModulus     = fr.Modulus()
	frHalfModulus = new(big.Int).Rsh(fr.Modulus(), 1)
)

// mul returns the negacyclic product of a and b over Z[X]/(X^N+1). The
// product is computed over F_r with a twisted cyclic FFT and lifted back to
// (-r/2, r/2], which is exact as long as its coefficients stay below r/2.
func (cfg *config) mul(a, b intPoly) intPoly {

	x, y := cfg.twist(a), cfg.twist(b)

	cfg.domain.FFT(x, fft.DIF)
	cfg.domain.FFT(y, fft.DIF)

	for i := range x {
		x[i].Mul(&x[i], &y[i])
	}

	cfg.domain.FFTInverse(x, fft.DIT)

	out := make(intPoly, len(x))
	for i := range x {
		x[i].Mul(&x[i], &cfg.psiInv[i])
		out[i] = signed(&x[i])
	}

	return out
}

// twist returns (a_i * ψ^i)_i in F_r.
func (cfg *config) twist(a intPoly) []fr.Element {
	x := make([]fr.Element, len(a))
	for i := range a {
		x[i].SetBigInt(a[i])
		x[i].Mul(&x[i], &cfg.psiFr[i])
	}
	return x
}

// signed returns the lift of e in (-r/2, r/2].
func signed(e *fr.Element) *big.Int {
	v := e.BigInt(new(big.Int))
	if v.Cmp(frHalfModulus) > 0 {
		v.Sub(v, frModulus)
	}
	return v
}

// divExact returns (p - q)/Q, coefficient-wise, or ErrUnsatisfied if Q
// does not divide p - q.
func divExact(p, q intPoly, Q uint64) (intPoly, error) {
	bQ := new(big.Int).SetUint64(Q)
	out := make(intPoly, len(p))
	rem := new(big.Int)
	for i := range p {
		out[i] = new(big.Int)
		out[i].QuoRem(new(big.Int).Sub(p[i], q[i]), bQ, rem)
		if rem.Sign() != 0 {
			return nil, fmt.Errorf("%w: coefficients %d differ modulo %d", ErrUnsatisfied, i, Q)
		}
	}
	return out, nil
}

// checkSmall returns ErrUnsatisfied if a coefficient of p exceeds bound in
// absolute value.
func checkSmall(p intPoly, bound uint64, name string) error {
	b := new(big.Int).SetUint64(bound)
	for i := range p {
		if new(big.Int).Abs(p[i]).Cmp(b) > 0 {
			return fmt.Errorf("%w: coefficient %d of %s exceeds %d", ErrUnsatisfied, i, name, bound)
		}
	}
	return nil
}
