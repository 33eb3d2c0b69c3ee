package ring

import (
	"math/bits"
)

// MRedParams computes qInv = -(q^-1) mod 2^64, the constant of the
// Montgomery reduction over a radix of 2^64. q must be odd.
func MRedParams(q uint64) (qInv uint64) {
	// Newton iteration, each step doubles the number of correct low bits.
	qInv = q
	for i := 0; i < 6; i++ {
		qInv *= 2 - q*qInv
	}
	return -qInv
}

// MForm returns a*2^64 mod q.
func MForm(a, q uint64) (r uint64) {
	_, r = bits.Div64(a%q, 0, q)
	return
}

// InvMForm returns a*2^-64 mod q.
func InvMForm(a, q, qInv uint64) (r uint64) {
	return MRed(a, 1, q, qInv)
}

// MRed returns x*y*2^-64 mod q, for x, y in [0, q).
func MRed(x, y, q, qInv uint64) (r uint64) {
	hi, lo := bits.Mul64(x, y)
	m := lo * qInv
	H, L := bits.Mul64(m, q)
	_, carry := bits.Add64(lo, L, 0)
	r = hi + H + carry
	if r >= q {
		r -= q
	}
	return
}

// MulMod returns x*y mod q.
func MulMod(x, y, q uint64) uint64 {
	hi, lo := bits.Mul64(x, y)
	return bits.Rem64(hi, lo, q)
}

// CRed reduces a value in [0, 2q) to [0, q).
func CRed(a, q uint64) uint64 {
	if a >= q {
		return a - q
	}
	return a
}

// ModExp performs the modular exponentiation x^e mod p.
func ModExp(x, e, p uint64) (result uint64) {
	result = 1
	x %= p
	for i := e; i > 0; i >>= 1 {
		if i&1 == 1 {
			result = MulMod(result, x, p)
		}
		x = MulMod(x, x, p)
	}
	return result % p
}

// ModInv returns x^-1 mod p for a prime p.
func ModInv(x, p uint64) uint64 {
	return ModExp(x, p-2, p)
}
