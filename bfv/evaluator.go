package bfv

import (
	"fmt"
	"math/big"

	"github.com/tuneinsight/vbfv/ring"
)

// Evaluator evaluates homomorphic operations on ciphertexts.
// An Evaluator holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	params Parameters
}

// NewEvaluator creates a new Evaluator.
func NewEvaluator(params Parameters) *Evaluator {
	return &Evaluator{params: params}
}

// Parameters returns the parameters of the evaluator.
func (eval Evaluator) Parameters() Parameters {
	return eval.params
}

func (eval Evaluator) checkOperands(op string, cts ...*Ciphertext) error {
	for _, ct := range cts {
		if ct == nil {
			return newOperationError(op, ErrDegreeMismatch, "nil operand")
		}
		if err := ct.Check(eval.params); err != nil {
			return &OperationError{Op: op, Err: err}
		}
	}
	return nil
}

func (eval Evaluator) checkSameDegree(op string, ct0, ct1 *Ciphertext) error {
	if err := eval.checkOperands(op, ct0, ct1); err != nil {
		return err
	}
	if ct0.Degree() != ct1.Degree() {
		return newOperationError(op, ErrDegreeMismatch, "operands have degrees %d and %d", ct0.Degree(), ct1.Degree())
	}
	return nil
}

// Add returns ct0 + ct1. Both operands must have the same degree.
func (eval Evaluator) Add(ct0, ct1 *Ciphertext) (*Ciphertext, error) {

	if err := eval.checkSameDegree("Add", ct0, ct1); err != nil {
		return nil, err
	}

	rQ := eval.params.RingQ()

	out := &Ciphertext{Value: make([]ring.Poly, len(ct0.Value)), NoiseBudget: min(ct0.NoiseBudget, ct1.NoiseBudget) - AddCost}
	for i := range out.Value {
		out.Value[i] = rQ.Add(ct0.Value[i], ct1.Value[i])
	}

	return out, nil
}

// Sub returns ct0 - ct1. Both operands must have the same degree.
func (eval Evaluator) Sub(ct0, ct1 *Ciphertext) (*Ciphertext, error) {

	if err := eval.checkSameDegree("Sub", ct0, ct1); err != nil {
		return nil, err
	}

	rQ := eval.params.RingQ()

	out := &Ciphertext{Value: make([]ring.Poly, len(ct0.Value)), NoiseBudget: min(ct0.NoiseBudget, ct1.NoiseBudget) - AddCost}
	for i := range out.Value {
		out.Value[i] = rQ.Sub(ct0.Value[i], ct1.Value[i])
	}

	return out, nil
}

// Neg returns -ct. The noise budget is unchanged.
func (eval Evaluator) Neg(ct *Ciphertext) (*Ciphertext, error) {

	if err := eval.checkOperands("Neg", ct); err != nil {
		return nil, err
	}

	rQ := eval.params.RingQ()

	out := &Ciphertext{Value: make([]ring.Poly, len(ct.Value)), NoiseBudget: ct.NoiseBudget}
	for i := range out.Value {
		out.Value[i] = rQ.Neg(ct.Value[i])
	}

	return out, nil
}

// IntegerTensor returns the tensor (a0*b0, a0*b1 + a1*b0, a1*b1) of the
// centered lifts of two degree one ciphertexts, over Z[X]/(X^N+1).
// The products are computed in the auxiliary ring mod P and are exact.
func (eval Evaluator) IntegerTensor(ct0, ct1 *Ciphertext) (tensor [3][]int64) {

	rQ, rP := eval.params.RingQ(), eval.params.RingP()

	lift := func(p ring.Poly) ring.NTTPoly {
		out := rP.NewPoly()
		for i, c := range rQ.Centered(p) {
			out.Coeffs[i] = rP.ReduceInt64(c)
		}
		return rP.NTT(out)
	}

	a0, a1 := lift(ct0.Value[0]), lift(ct0.Value[1])
	b0, b1 := lift(ct1.Value[0]), lift(ct1.Value[1])

	tensor[0] = rP.Centered(rP.INTT(rP.MulCoeffs(a0, b0)))
	tensor[1] = rP.Centered(rP.INTT(rP.AddNTT(rP.MulCoeffs(a0, b1), rP.MulCoeffs(a1, b0))))
	tensor[2] = rP.Centered(rP.INTT(rP.MulCoeffs(a1, b1)))

	return
}

// ScaleAndRound returns round(t*T/Q) mod Q, coefficient-wise, rounding
// half up: floor((2t*T + Q) / 2Q).
func (eval Evaluator) ScaleAndRound(T []int64) ring.Poly {

	rQ := eval.params.RingQ()

	Q := new(big.Int).SetUint64(eval.params.Q())
	twoQ := new(big.Int).Lsh(Q, 1)
	twoT := new(big.Int).SetUint64(eval.params.T() << 1)

	out := rQ.NewPoly()
	x := new(big.Int)
	for i, c := range T {
		x.SetInt64(c)
		x.Mul(x, twoT)
		x.Add(x, Q)
		x.Div(x, twoQ) // Euclidean, hence floor for a positive divisor
		out.Coeffs[i] = x.Mod(x, Q).Uint64()
	}

	return out
}

// Mul returns the degree two ciphertext round(t/Q * ct0 ⊗ ct1) mod Q.
// Both operands must have degree one. It returns an OperationError wrapping
// ErrNoiseBudgetExceeded, without computing, if the resulting noise budget
// would fall below the minimum.
func (eval Evaluator) Mul(ct0, ct1 *Ciphertext) (*Ciphertext, error) {

	if err := eval.checkOperands("Mul", ct0, ct1); err != nil {
		return nil, err
	}

	if ct0.Degree() != 1 || ct1.Degree() != 1 {
		return nil, newOperationError("Mul", ErrDegreeMismatch, "operands have degrees %d and %d, expected 1", ct0.Degree(), ct1.Degree())
	}

	budget := min(ct0.NoiseBudget, ct1.NoiseBudget) - eval.params.MulCost()
	if budget < eval.params.MinNoiseBudget() {
		return nil, &OperationError{Op: "Mul", NoiseBudget: budget, MinBudget: eval.params.MinNoiseBudget(), Err: ErrNoiseBudgetExceeded}
	}

	tensor := eval.IntegerTensor(ct0, ct1)

	out := &Ciphertext{Value: make([]ring.Poly, 3), NoiseBudget: budget}
	for i := range out.Value {
		out.Value[i] = eval.ScaleAndRound(tensor[i])
	}

	return out, nil
}

// Decompose returns the base-w digits D_j of c, j < GadgetLen, such that
// c = sum_j w^j * D_j with coefficients of D_j in [0, w).
func (eval Evaluator) Decompose(c ring.Poly) []ring.Poly {

	logBase := uint(eval.params.LogBase())
	mask := eval.params.Base() - 1

	digits := make([]ring.Poly, eval.params.GadgetLen())
	for j := range digits {
		digits[j] = eval.params.RingQ().NewPoly()
		shift := uint(j) * logBase
		for i, ci := range c.Coeffs {
			digits[j].Coeffs[i] = (ci >> shift) & mask
		}
	}

	return digits
}

// Relinearize returns the degree one ciphertext
// (c0 + sum_j D_j*rlk_j0, c1 + sum_j D_j*rlk_j1) where D_j are the digits of c2.
func (eval Evaluator) Relinearize(ct *Ciphertext, rlk *RelinearizationKey) (*Ciphertext, error) {

	if err := eval.checkOperands("Relinearize", ct); err != nil {
		return nil, err
	}

	if ct.Degree() != 2 {
		return nil, newOperationError("Relinearize", ErrDegreeMismatch, "operand has degree %d, expected 2", ct.Degree())
	}

	if rlk == nil {
		return nil, &OperationError{Op: "Relinearize", Err: fmt.Errorf("nil relinearization key")}
	}

	if err := rlk.Check(eval.params); err != nil {
		return nil, &OperationError{Op: "Relinearize", Err: err}
	}

	budget := eval.params.relinearizedBudget(ct.NoiseBudget)
	if budget < eval.params.MinNoiseBudget() {
		return nil, &OperationError{Op: "Relinearize", NoiseBudget: budget, MinBudget: eval.params.MinNoiseBudget(), Err: ErrNoiseBudgetExceeded}
	}

	rQ := eval.params.RingQ()

	c0, c1 := ct.Value[0], ct.Value[1]
	for j, d := range eval.Decompose(ct.Value[2]) {
		dNTT := rQ.NTT(d)
		c0 = rQ.Add(c0, rQ.INTT(rQ.MulCoeffs(dNTT, rQ.NTT(rlk.Value[j][0]))))
		c1 = rQ.Add(c1, rQ.INTT(rQ.MulCoeffs(dNTT, rQ.NTT(rlk.Value[j][1]))))
	}

	return &Ciphertext{Value: []ring.Poly{c0, c1}, NoiseBudget: budget}, nil
}

// MulRelin returns Relinearize(Mul(ct0, ct1), rlk).
func (eval Evaluator) MulRelin(ct0, ct1 *Ciphertext, rlk *RelinearizationKey) (*Ciphertext, error) {
	ct, err := eval.Mul(ct0, ct1)
	if err != nil {
		return nil, err
	}
	return eval.Relinearize(ct, rlk)
}
