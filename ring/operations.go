package ring

import (
	"fmt"
)

// Add returns p1 + p2 mod Q.
func (r *Ring) Add(p1, p2 Poly) Poly {
	return Poly{Coeffs: r.add(p1.Coeffs, p2.Coeffs, "Add")}
}

// Sub returns p1 - p2 mod Q.
func (r *Ring) Sub(p1, p2 Poly) Poly {
	return Poly{Coeffs: r.sub(p1.Coeffs, p2.Coeffs, "Sub")}
}

// Neg returns -p mod Q.
func (r *Ring) Neg(p Poly) Poly {
	return Poly{Coeffs: r.neg(p.Coeffs, "Neg")}
}

// MulScalar returns c*p mod Q.
func (r *Ring) MulScalar(p Poly, c uint64) Poly {
	return Poly{Coeffs: r.mulScalar(p.Coeffs, c, "MulScalar")}
}

// AddNTT returns p1 + p2 mod Q in evaluation representation.
func (r *Ring) AddNTT(p1, p2 NTTPoly) NTTPoly {
	return NTTPoly{Coeffs: r.add(p1.Coeffs, p2.Coeffs, "AddNTT")}
}

// SubNTT returns p1 - p2 mod Q in evaluation representation.
func (r *Ring) SubNTT(p1, p2 NTTPoly) NTTPoly {
	return NTTPoly{Coeffs: r.sub(p1.Coeffs, p2.Coeffs, "SubNTT")}
}

// MulScalarNTT returns c*p mod Q in evaluation representation.
func (r *Ring) MulScalarNTT(p NTTPoly, c uint64) NTTPoly {
	return NTTPoly{Coeffs: r.mulScalar(p.Coeffs, c, "MulScalarNTT")}
}

// MulCoeffs returns the pointwise product of p1 and p2.
func (r *Ring) MulCoeffs(p1, p2 NTTPoly) NTTPoly {

	r.assertN("MulCoeffs", p1.Coeffs, p2.Coeffs)

	Q, QInv := r.Modulus, r.MRedConstant
	out := NewNTTPoly(r.N)

	for i := range out.Coeffs {
		out.Coeffs[i] = MRed(MForm(p1.Coeffs[i], Q), p2.Coeffs[i], Q, QInv)
	}

	return out
}

// Mul returns the negacyclic product p1 * p2 mod (X^N+1, Q), computed as
// INTT(NTT(p1) ⊙ NTT(p2)).
func (r *Ring) Mul(p1, p2 Poly) Poly {
	return r.INTT(r.MulCoeffs(r.NTT(p1), r.NTT(p2)))
}

// MulNaive returns the negacyclic product p1 * p2 mod (X^N+1, Q) computed
// by schoolbook convolution, in O(N^2).
func (r *Ring) MulNaive(p1, p2 Poly) Poly {

	r.assertN("MulNaive", p1.Coeffs, p2.Coeffs)

	N, Q := r.N, r.Modulus
	out := r.NewPoly()

	for i, a := range p1.Coeffs {
		if a == 0 {
			continue
		}
		for j, b := range p2.Coeffs {
			ab := MulMod(a, b, Q)
			if k := i + j; k < N {
				out.Coeffs[k] = CRed(out.Coeffs[k]+ab, Q)
			} else {
				// X^N = -1
				out.Coeffs[k-N] = CRed(out.Coeffs[k-N]+Q-ab, Q)
			}
		}
	}

	return out
}

// Equal returns true if p1 and p2 represent the same element.
func (r *Ring) Equal(p1, p2 Poly) bool {
	return p1.Equal(p2)
}

func (r *Ring) add(a, b []uint64, op string) []uint64 {
	r.assertN(op, a, b)
	Q := r.Modulus
	out := make([]uint64, r.N)
	for i := range out {
		out[i] = CRed(a[i]+b[i], Q)
	}
	return out
}

func (r *Ring) sub(a, b []uint64, op string) []uint64 {
	r.assertN(op, a, b)
	Q := r.Modulus
	out := make([]uint64, r.N)
	for i := range out {
		out[i] = CRed(a[i]+Q-b[i], Q)
	}
	return out
}

func (r *Ring) neg(a []uint64, op string) []uint64 {
	r.assertN(op, a)
	Q := r.Modulus
	out := make([]uint64, r.N)
	for i := range out {
		out[i] = CRed(Q-a[i], Q)
	}
	return out
}

func (r *Ring) mulScalar(a []uint64, c uint64, op string) []uint64 {
	r.assertN(op, a)
	Q := r.Modulus
	c %= Q
	out := make([]uint64, r.N)
	for i := range out {
		out[i] = MulMod(a[i], c, Q)
	}
	return out
}

// assertN panics if an operand does not have N coefficients: operands of
// a Ring must have been created by this Ring.
func (r *Ring) assertN(op string, operands ...[]uint64) {
	for _, a := range operands {
		if len(a) != r.N {
			panic(fmt.Sprintf("cannot %s: operand has %d coefficients but ring degree is %d", op, len(a), r.N))
		}
	}
}
