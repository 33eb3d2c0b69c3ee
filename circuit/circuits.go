package circuit

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"

	"github.com/tuneinsight/vbfv/bfv"
)

// shape identifies a compiled circuit: the operation and the degree of its
// first input (of its output for encryptions).
type shape struct {
	kind   bfv.OperationKind
	degree int
}

func (sh shape) String() string {
	return fmt.Sprintf("%s/degree=%d", sh.kind, sh.degree)
}

// operationCircuit is the gnark circuit of one operation shape.
type operationCircuit interface {
	frontend.Circuit

	// zeroize overwrites the private assignment with zeros.
	zeroize()
}

func newPolys(N, n int) [][]frontend.Variable {
	polys := make([][]frontend.Variable, n)
	for i := range polys {
		polys[i] = make([]frontend.Variable, N)
	}
	return polys
}

func zeroizeVars(polys ...[]frontend.Variable) {
	for _, p := range polys {
		for i := range p {
			if b, ok := p[i].(*big.Int); ok {
				b.SetInt64(0)
			}
			p[i] = 0
		}
	}
}

// newCircuit allocates the circuit of sh, with every variable unassigned.
func newCircuit(cfg *config, sh shape) (operationCircuit, error) {

	N := cfg.N

	switch sh.kind {
	case bfv.OpAdd:
		if sh.degree != 1 && sh.degree != 2 {
			break
		}
		n := sh.degree + 1
		return &addCircuit{
			In0:   newPolys(N, n),
			In1:   newPolys(N, n),
			Out:   newPolys(N, n),
			Carry: newPolys(N, n),
			cfg:   cfg,
		}, nil

	case bfv.OpMultiply:
		if sh.degree != 1 {
			break
		}
		return &mulCircuit{
			In0:       newPolys(N, 2),
			In1:       newPolys(N, 2),
			Out:       newPolys(N, 3),
			Lift0:     newPolys(N, 2),
			Lift1:     newPolys(N, 2),
			Quotient:  newPolys(N, 3),
			Remainder: newPolys(N, 3),
			cfg:       cfg,
		}, nil

	case bfv.OpRelinearize:
		if sh.degree != 2 {
			break
		}
		return &relinCircuit{
			In:       newPolys(N, 3),
			Out:      newPolys(N, 2),
			Key:      newPolys(N, 2*cfg.GadgetLen),
			Digits:   newPolys(N, cfg.GadgetLen),
			Quotient: newPolys(N, 2),
			cfg:      cfg,
		}, nil

	case bfv.OpEncrypt:
		if sh.degree != 1 {
			break
		}
		return &encryptCircuit{
			PublicKey: newPolys(N, 2),
			Out:       newPolys(N, 2),
			Message:   make([]frontend.Variable, N),
			U:         make([]frontend.Variable, N),
			E0:        make([]frontend.Variable, N),
			E1:        make([]frontend.Variable, N),
			Quotient:  newPolys(N, 2),
			cfg:       cfg,
		}, nil

	case bfv.OpDecrypt:
		if sh.degree != 1 && sh.degree != 2 {
			break
		}
		return &decryptCircuit{
			PublicKey:     newPolys(N, 2),
			In:            newPolys(N, sh.degree+1),
			Message:       make([]frontend.Variable, N),
			S:             make([]frontend.Variable, N),
			E:             make([]frontend.Variable, N),
			KeyQuotient:   make([]frontend.Variable, N),
			Phase:         make([]frontend.Variable, N),
			PhaseQuotient: make([]frontend.Variable, N),
			Wrap:          make([]frontend.Variable, N),
			Remainder:     make([]frontend.Variable, N),
			cfg:           cfg,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, sh.kind)
	}

	return nil, fmt.Errorf("%w: no %s circuit for degree %d", ErrShapeMismatch, sh.kind, sh.degree)
}

// addCircuit proves Out = In0 + In1 mod Q.
type addCircuit struct {
	In0 [][]frontend.Variable `gnark:",public"`
	In1 [][]frontend.Variable `gnark:",public"`
	Out [][]frontend.Variable `gnark:",public"`

	Carry [][]frontend.Variable

	cfg *config
}

func (c *addCircuit) Define(api frontend.API) error {
	r := newRingAPI(api, c.cfg)
	for i := range c.Out {
		for j := range c.Out[i] {
			r.AssertIsBoolean(c.Carry[i][j])
		}
		r.assertEqualPoly(r.addPoly(c.In0[i], c.In1[i]), c.Out[i], c.Carry[i])
	}
	return nil
}

func (c *addCircuit) zeroize() {
	zeroizeVars(c.Carry...)
}

// assertEqualPoly asserts lhs = out + Q*k coefficient-wise, for k already constrained.
func (r *ringAPI) assertEqualPoly(lhs, out, k []frontend.Variable) {
	for i := range lhs {
		r.AssertIsEqual(lhs[i], r.Add(out[i], r.Mul(k[i], r.cfg.Q)))
	}
}

// mulCircuit proves Out = round(t/Q * In0 ⊗ In1) mod Q, the tensor being
// taken over the centered lifts of the inputs.
type mulCircuit struct {
	In0 [][]frontend.Variable `gnark:",public"`
	In1 [][]frontend.Variable `gnark:",public"`
	Out [][]frontend.Variable `gnark:",public"`

	// Lift0 and Lift1 are the bits of the centered lifts of the inputs.
	Lift0 [][]frontend.Variable
	Lift1 [][]frontend.Variable

	// t*T = Q*(Out + Q*Quotient) + Remainder.
	Quotient  [][]frontend.Variable
	Remainder [][]frontend.Variable

	cfg *config
}

func (c *mulCircuit) Define(api frontend.API) error {

	r := newRingAPI(api, c.cfg)

	lift := func(in, bits [][]frontend.Variable) (out [][]frontend.Variable) {
		out = make([][]frontend.Variable, len(in))
		for i := range in {
			l := make([]frontend.Variable, len(in[i]))
			for j := range in[i] {
				l[j] = r.centeredLift(in[i][j], bits[i][j])
			}
			out[i] = r.ntt(l)
		}
		return
	}

	a, b := lift(c.In0, c.Lift0), lift(c.In1, c.Lift1)

	tensor := [3][]frontend.Variable{
		r.intt(r.mulNTT(a[0], b[0])),
		r.intt(r.addPoly(r.mulNTT(a[0], b[1]), r.mulNTT(a[1], b[0]))),
		r.intt(r.mulNTT(a[1], b[1])),
	}

	Q := new(big.Int).SetUint64(c.cfg.Q)
	bound := c.cfg.mulQuotientBound()

	for i := range tensor {
		for j := range tensor[i] {
			r.assertSigned(c.Quotient[i][j], bound)
			y := r.Add(c.Out[i][j], r.Mul(c.Quotient[i][j], Q))
			r.assertRounding(r.Mul(tensor[i][j], c.cfg.T), y, c.Remainder[i][j])
		}
	}

	return nil
}

func (c *mulCircuit) zeroize() {
	zeroizeVars(c.Lift0...)
	zeroizeVars(c.Lift1...)
	zeroizeVars(c.Quotient...)
	zeroizeVars(c.Remainder...)
}

// relinCircuit proves Out = (In0 + sum_j D_j*rlk_j0, In1 + sum_j D_j*rlk_j1)
// mod Q, where D_j are the base-w digits of In2 and rlk is the key whose
// MiMC commitment is KeyCommitment.
type relinCircuit struct {
	In            [][]frontend.Variable `gnark:",public"`
	Out           [][]frontend.Variable `gnark:",public"`
	KeyCommitment frontend.Variable     `gnark:",public"`

	// Key[2j+i] is rlk_ji.
	Key      [][]frontend.Variable
	Digits   [][]frontend.Variable
	Quotient [][]frontend.Variable

	cfg *config
}

func (c *relinCircuit) Define(api frontend.API) (err error) {

	r := newRingAPI(api, c.cfg)
	cfg := c.cfg

	Q := new(big.Int).SetUint64(cfg.Q)
	w := new(big.Int).Lsh(big.NewInt(1), uint(cfg.LogBase))

	for _, p := range c.Key {
		for i := range p {
			r.assertInRange(p[i], Q)
		}
	}

	h, err := mimc.NewMiMC(api)
	if err != nil {
		return fmt.Errorf("mimc.NewMiMC: %w", err)
	}
	h.Write(r.packCoefficients(c.Key)...)
	r.AssertIsEqual(h.Sum(), c.KeyCommitment)

	// In2 = sum_j w^j * D_j with D_j in [0, w).
	for i := 0; i < cfg.N; i++ {
		terms := make([]frontend.Variable, cfg.GadgetLen)
		wj := big.NewInt(1)
		for j := range c.Digits {
			r.assertInRange(c.Digits[j][i], w)
			terms[j] = r.Mul(c.Digits[j][i], new(big.Int).Set(wj))
			wj.Mul(wj, w)
		}
		r.AssertIsEqual(r.sum(terms), c.In[2][i])
	}

	acc := [2][]frontend.Variable{}
	for j := range c.Digits {
		d := r.ntt(c.Digits[j])
		for i := range acc {
			prod := r.mulNTT(d, r.ntt(c.Key[2*j+i]))
			if acc[i] == nil {
				acc[i] = prod
			} else {
				acc[i] = r.addPoly(acc[i], prod)
			}
		}
	}

	for i := range acc {
		r.assertModQ(r.addPoly(c.In[i], r.intt(acc[i])), c.Out[i], c.Quotient[i], cfg.relinQuotientBound())
	}

	return nil
}

func (c *relinCircuit) zeroize() {
	zeroizeVars(c.Key...)
	zeroizeVars(c.Digits...)
	zeroizeVars(c.Quotient...)
}

// coefficientsPerElement is the number of 64-bit slots packed into one
// element of F_r by the key commitment.
const coefficientsPerElement = 3

// packCoefficients packs the coefficients of polys, in order, into elements
// of F_r with three 64-bit slots each.
func (r *ringAPI) packCoefficients(polys [][]frontend.Variable) (packed []frontend.Variable) {

	var flat []frontend.Variable
	for _, p := range polys {
		flat = append(flat, p...)
	}

	for i := 0; i < len(flat); i += coefficientsPerElement {
		terms := []frontend.Variable{}
		for k := 0; k < coefficientsPerElement && i+k < len(flat); k++ {
			terms = append(terms, r.Mul(flat[i+k], new(big.Int).Lsh(big.NewInt(1), uint(64*k))))
		}
		packed = append(packed, r.sum(terms))
	}

	return
}

// encryptCircuit proves that Out = (p0*u + e0 + Δ*m, p1*u + e1) mod Q for
// a private message m in [0, t), a ternary u and errors e0, e1 bounded by B.
type encryptCircuit struct {
	PublicKey [][]frontend.Variable `gnark:",public"`
	Out       [][]frontend.Variable `gnark:",public"`

	Message  []frontend.Variable
	U        []frontend.Variable
	E0       []frontend.Variable
	E1       []frontend.Variable
	Quotient [][]frontend.Variable

	cfg *config
}

func (c *encryptCircuit) Define(api frontend.API) error {

	r := newRingAPI(api, c.cfg)
	cfg := c.cfg

	T := new(big.Int).SetUint64(cfg.T)
	for i := 0; i < cfg.N; i++ {
		r.assertInRange(c.Message[i], T)
		r.assertTernary(c.U[i])
		r.assertSigned(c.E0[i], cfg.Bound)
		r.assertSigned(c.E1[i], cfg.Bound)
	}

	u := r.ntt(c.U)

	lhs0 := r.addPoly(r.intt(r.mulNTT(r.ntt(c.PublicKey[0]), u)), c.E0)
	lhs0 = r.addPoly(lhs0, r.mulScalarPoly(c.Message, new(big.Int).SetUint64(cfg.Delta)))
	r.assertModQ(lhs0, c.Out[0], c.Quotient[0], cfg.keyQuotientBound())

	lhs1 := r.addPoly(r.intt(r.mulNTT(r.ntt(c.PublicKey[1]), u)), c.E1)
	r.assertModQ(lhs1, c.Out[1], c.Quotient[1], cfg.keyQuotientBound())

	return nil
}

func (c *encryptCircuit) zeroize() {
	zeroizeVars(c.Message, c.U, c.E0, c.E1)
	zeroizeVars(c.Quotient...)
}

// decryptCircuit proves that Message = round(t/Q * (c0 + c1*s (+ c2*s^2)))
// mod t for a ternary s such that p0 + p1*s + e = 0 mod Q with e bounded by B.
type decryptCircuit struct {
	PublicKey [][]frontend.Variable `gnark:",public"`
	In        [][]frontend.Variable `gnark:",public"`
	Message   []frontend.Variable   `gnark:",public"`

	S           []frontend.Variable
	E           []frontend.Variable
	KeyQuotient []frontend.Variable

	// c0 + c1*s (+ c2*s^2) = Phase + Q*PhaseQuotient.
	Phase         []frontend.Variable
	PhaseQuotient []frontend.Variable

	// t*Phase = Q*(Message + t*Wrap) + Remainder.
	Wrap      []frontend.Variable
	Remainder []frontend.Variable

	cfg *config
}

func (c *decryptCircuit) Define(api frontend.API) error {

	r := newRingAPI(api, c.cfg)
	cfg := c.cfg

	Q := new(big.Int).SetUint64(cfg.Q)
	zero := make([]frontend.Variable, cfg.N)
	for i := range zero {
		zero[i] = 0
	}

	for i := 0; i < cfg.N; i++ {
		r.assertTernary(c.S[i])
		r.assertSigned(c.E[i], cfg.Bound)
	}

	s := r.ntt(c.S)

	// s is the secret of the public key.
	key := r.addPoly(r.addPoly(c.PublicKey[0], r.intt(r.mulNTT(r.ntt(c.PublicKey[1]), s))), c.E)
	r.assertModQ(key, zero, c.KeyQuotient, cfg.keyQuotientBound())

	acc := r.mulNTT(r.ntt(c.In[1]), s)
	if len(c.In) == 3 {
		acc = r.addPoly(acc, r.mulNTT(r.ntt(c.In[2]), r.mulNTT(s, s)))
	}

	phase := r.addPoly(c.In[0], r.intt(acc))
	r.assertModQ(phase, c.Phase, c.PhaseQuotient, cfg.phaseQuotientBound())

	for i := 0; i < cfg.N; i++ {
		r.assertInRange(c.Phase[i], Q)
		r.AssertIsBoolean(c.Wrap[i])
		y := r.Add(c.Message[i], r.Mul(c.Wrap[i], cfg.T))
		r.assertRounding(r.Mul(c.Phase[i], cfg.T), y, c.Remainder[i])
	}

	return nil
}

func (c *decryptCircuit) zeroize() {
	zeroizeVars(c.S, c.E, c.KeyQuotient, c.Phase, c.PhaseQuotient, c.Wrap, c.Remainder)
}
