package circuit

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
)

// ringAPI wraps a frontend.API with the polynomial gadgets of a parameter set.
type ringAPI struct {
	frontend.API
	cfg *config
}

func newRingAPI(api frontend.API, cfg *config) *ringAPI {
	return &ringAPI{API: api, cfg: cfg}
}

func (r *ringAPI) sum(terms []frontend.Variable) frontend.Variable {
	switch len(terms) {
	case 0:
		return 0
	case 1:
		return terms[0]
	default:
		return r.Add(terms[0], terms[1], terms[2:]...)
	}
}

// ntt returns the evaluations of p at ψ^(2i+1), i < N. It is linear and
// costs no constraint.
func (r *ringAPI) ntt(p []frontend.Variable) []frontend.Variable {
	N := r.cfg.N
	out := make([]frontend.Variable, N)
	terms := make([]frontend.Variable, N)
	for i := range out {
		for j := range p {
			terms[j] = r.Mul(p[j], r.cfg.psi[((2*i+1)*j)%(2*N)])
		}
		out[i] = r.sum(terms)
	}
	return out
}

// intt is the inverse of ntt. It is linear and costs no constraint.
func (r *ringAPI) intt(p []frontend.Variable) []frontend.Variable {
	N := r.cfg.N
	out := make([]frontend.Variable, N)
	terms := make([]frontend.Variable, N)
	for j := range out {
		for i := range p {
			k := (2*N - ((2*i+1)*j)%(2*N)) % (2 * N)
			terms[i] = r.Mul(p[i], r.cfg.psi[k])
		}
		out[j] = r.Mul(r.sum(terms), r.cfg.nInv)
	}
	return out
}

// mulNTT returns the pointwise product of two evaluation vectors
// (N constraints).
func (r *ringAPI) mulNTT(a, b []frontend.Variable) []frontend.Variable {
	out := make([]frontend.Variable, len(a))
	for i := range a {
		out[i] = r.Mul(a[i], b[i])
	}
	return out
}

func (r *ringAPI) addPoly(a, b []frontend.Variable) []frontend.Variable {
	out := make([]frontend.Variable, len(a))
	for i := range a {
		out[i] = r.Add(a[i], b[i])
	}
	return out
}

func (r *ringAPI) mulScalarPoly(a []frontend.Variable, c *big.Int) []frontend.Variable {
	out := make([]frontend.Variable, len(a))
	for i := range a {
		out[i] = r.Mul(a[i], c)
	}
	return out
}

// assertInRange asserts 0 <= v < bound.
func (r *ringAPI) assertInRange(v frontend.Variable, bound *big.Int) {

	top := new(big.Int).Sub(bound, big.NewInt(1))

	nbBits := top.BitLen()
	if nbBits == 0 {
		r.AssertIsEqual(v, 0)
		return
	}

	r.ToBinary(v, nbBits)

	// The bit length alone suffices when bound is a power of two.
	if new(big.Int).Lsh(big.NewInt(1), uint(nbBits)).Cmp(bound) != 0 {
		r.ToBinary(r.Sub(top, v), nbBits)
	}
}

// assertSigned asserts -bound <= v <= bound.
func (r *ringAPI) assertSigned(v frontend.Variable, bound uint64) {
	b := new(big.Int).SetUint64(bound)
	r.assertInRange(r.Add(v, b), new(big.Int).Add(new(big.Int).Lsh(b, 1), big.NewInt(1)))
}

// assertTernary asserts v in {-1, 0, 1}.
func (r *ringAPI) assertTernary(v frontend.Variable) {
	r.AssertIsEqual(r.Mul(v, r.Sub(r.Mul(v, v), 1)), 0)
}

// centeredLift returns x - Q*beta and asserts that it is the centered lift
// of x in [-floor(Q/2), floor(Q/2)]. x must be in [0, Q).
func (r *ringAPI) centeredLift(x, beta frontend.Variable) frontend.Variable {
	r.AssertIsBoolean(beta)
	lift := r.Sub(x, r.Mul(beta, r.cfg.Q))
	r.assertInRange(r.Add(lift, r.cfg.half()), new(big.Int).SetUint64(r.cfg.Q))
	return lift
}

// assertModQ asserts lhs = out + Q*k coefficient-wise with |k| <= bound.
func (r *ringAPI) assertModQ(lhs, out, k []frontend.Variable, bound uint64) {
	for i := range lhs {
		r.assertSigned(k[i], bound)
		r.AssertIsEqual(lhs[i], r.Add(out[i], r.Mul(k[i], r.cfg.Q)))
	}
}

// assertRounding asserts t*x = Q*y + rho with rho in [-floor(Q/2), floor(Q/2)],
// that is y = round(t*x/Q) with ties rounded up.
func (r *ringAPI) assertRounding(tx, y, rho frontend.Variable) {
	r.assertInRange(r.Add(rho, r.cfg.half()), new(big.Int).SetUint64(r.cfg.Q))
	r.AssertIsEqual(tx, r.Add(r.Mul(y, r.cfg.Q), rho))
}
