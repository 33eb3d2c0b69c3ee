package circuit

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"

	"github.com/tuneinsight/vbfv/bfv"
	"github.com/tuneinsight/vbfv/ring"
)

// Secrets holds the private inputs of an operation that cannot be derived
// from its record: the secret key for decryptions and the randomness for
// encryptions. Additions, multiplications and relinearizations need none.
type Secrets struct {
	SecretKey  *bfv.SecretKey
	Randomness *bfv.EncryptionRandomness
}

// Witness is the full assignment of a circuit for one record. It is owned
// by the prover and zeroized by Prove.
type Witness struct {
	shape      shape
	statement  *Statement
	assignment operationCircuit
}

// Kind returns the operation kind of the witness.
func (w *Witness) Kind() bfv.OperationKind {
	return w.shape.kind
}

// Zeroize overwrites the private values of the witness with zeros.
func (w *Witness) Zeroize() {
	if w.assignment != nil {
		w.assignment.zeroize()
	}
}

func assignPoly(dst []frontend.Variable, p ring.Poly) {
	for i, c := range p.Coeffs {
		dst[i] = c
	}
}

func assignCiphertext(dst [][]frontend.Variable, ct *bfv.Ciphertext) {
	for i := range ct.Value {
		assignPoly(dst[i], ct.Value[i])
	}
}

// assignInt assigns the reduction of p mod r.
func assignInt(dst []frontend.Variable, p intPoly) {
	for i := range p {
		dst[i] = new(big.Int).Mod(p[i], frModulus)
	}
}

// assignBits assigns 1 where the centered lift of p is negative.
func assignBits(dst []frontend.Variable, r *ring.Ring, p ring.Poly) {
	for i, c := range r.Centered(p) {
		if c < 0 {
			dst[i] = 1
		} else {
			dst[i] = 0
		}
	}
}

// rounding returns (y, rho) with t*x = Q*y + rho and rho in [-floor(Q/2), floor(Q/2)].
func (cfg *config) rounding(x intPoly) (y, rho intPoly) {

	Q := new(big.Int).SetUint64(cfg.Q)
	twoQ := new(big.Int).Lsh(Q, 1)
	T := new(big.Int).SetUint64(cfg.T)

	y, rho = make(intPoly, len(x)), make(intPoly, len(x))
	for i := range x {
		tx := new(big.Int).Mul(x[i], T)
		// floor((2*t*x + Q) / 2Q)
		y[i] = new(big.Int).Lsh(tx, 1)
		y[i].Add(y[i], Q)
		y[i].Div(y[i], twoQ)
		rho[i] = new(big.Int).Sub(tx, new(big.Int).Mul(Q, y[i]))
	}

	return
}

// GenerateWitness computes the private values of the circuit of rec.
// It returns ErrMissingSecret if secrets lacks a value the operation
// needs and ErrUnsatisfied if rec is not the correct result of its operation.
func (s *System) GenerateWitness(rec *bfv.OperationRecord, secrets Secrets) (w *Witness, err error) {

	if err = rec.Check(s.params); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShapeMismatch, err)
	}

	sh := shapeOfRecord(rec)

	c, err := newCircuit(s.cfg, sh)
	if err != nil {
		return nil, err
	}

	switch c := c.(type) {
	case *addCircuit:
		err = s.assignAdd(c, rec)
	case *mulCircuit:
		err = s.assignMul(c, rec)
	case *relinCircuit:
		err = s.assignRelin(c, rec)
	case *encryptCircuit:
		err = s.assignEncrypt(c, rec, secrets)
	case *decryptCircuit:
		err = s.assignDecrypt(c, rec, secrets)
	}

	if err != nil {
		c.zeroize()
		return nil, fmt.Errorf("cannot GenerateWitness for %s: %w", sh, err)
	}

	stmt, err := NewStatement(rec)
	if err != nil {
		c.zeroize()
		return nil, err
	}

	return &Witness{shape: sh, statement: stmt, assignment: c}, nil
}

func (s *System) assignAdd(c *addCircuit, rec *bfv.OperationRecord) error {

	assignCiphertext(c.In0, rec.Inputs[0])
	assignCiphertext(c.In1, rec.Inputs[1])
	assignCiphertext(c.Out, rec.Output)

	for i := range rec.Output.Value {
		sum := liftPoly(rec.Inputs[0].Value[i]).add(liftPoly(rec.Inputs[1].Value[i]))
		carry, err := divExact(sum, liftPoly(rec.Output.Value[i]), s.cfg.Q)
		if err != nil {
			return err
		}
		assignInt(c.Carry[i], carry)
	}

	return nil
}

func (s *System) assignMul(c *mulCircuit, rec *bfv.OperationRecord) error {

	cfg := s.cfg
	rQ := s.params.RingQ()

	assignCiphertext(c.In0, rec.Inputs[0])
	assignCiphertext(c.In1, rec.Inputs[1])
	assignCiphertext(c.Out, rec.Output)

	var a, b [2]intPoly
	for i := 0; i < 2; i++ {
		assignBits(c.Lift0[i], rQ, rec.Inputs[0].Value[i])
		assignBits(c.Lift1[i], rQ, rec.Inputs[1].Value[i])
		a[i] = liftCentered(rQ, rec.Inputs[0].Value[i])
		b[i] = liftCentered(rQ, rec.Inputs[1].Value[i])
	}

	tensor := [3]intPoly{
		cfg.mul(a[0], b[0]),
		cfg.mul(a[0], b[1]).add(cfg.mul(a[1], b[0])),
		cfg.mul(a[1], b[1]),
	}

	for i := range tensor {
		y, rho := cfg.rounding(tensor[i])
		k, err := divExact(y, liftPoly(rec.Output.Value[i]), cfg.Q)
		if err != nil {
			return err
		}
		assignInt(c.Quotient[i], k)
		assignInt(c.Remainder[i], rho)
	}

	return nil
}

func (s *System) assignRelin(c *relinCircuit, rec *bfv.OperationRecord) error {

	cfg := s.cfg
	rlk := rec.RelinearizationKey
	in := rec.Inputs[0]

	assignCiphertext(c.In, in)
	assignCiphertext(c.Out, rec.Output)

	commitment, err := KeyCommitment(rlk)
	if err != nil {
		return err
	}
	c.KeyCommitment = new(big.Int).SetBytes(commitment)

	for j := range rlk.Value {
		assignPoly(c.Key[2*j], rlk.Value[j][0])
		assignPoly(c.Key[2*j+1], rlk.Value[j][1])
	}

	digits := bfv.NewEvaluator(s.params).Decompose(in.Value[2])
	for j := range digits {
		assignPoly(c.Digits[j], digits[j])
	}

	for i := 0; i < 2; i++ {
		acc := liftPoly(in.Value[i])
		for j := range digits {
			acc = acc.add(cfg.mul(liftPoly(digits[j]), liftPoly(rlk.Value[j][i])))
		}
		k, err := divExact(acc, liftPoly(rec.Output.Value[i]), cfg.Q)
		if err != nil {
			return err
		}
		assignInt(c.Quotient[i], k)
	}

	return nil
}

func (s *System) assignEncrypt(c *encryptCircuit, rec *bfv.OperationRecord, secrets Secrets) error {

	cfg := s.cfg
	rQ := s.params.RingQ()

	rnd := secrets.Randomness
	if rnd == nil {
		return fmt.Errorf("%w: encryption randomness", ErrMissingSecret)
	}

	assignPoly(c.PublicKey[0], rec.PublicKey.Value[0])
	assignPoly(c.PublicKey[1], rec.PublicKey.Value[1])
	assignCiphertext(c.Out, rec.Output)
	assignPoly(c.Message, rec.Plaintext.Value)

	for _, p := range []ring.Poly{rnd.U, rnd.E0, rnd.E1} {
		if err := rQ.Check(p); err != nil {
			return fmt.Errorf("%w: encryption randomness: %w", ErrShapeMismatch, err)
		}
	}

	u := liftCentered(rQ, rnd.U)
	e0 := liftCentered(rQ, rnd.E0)
	e1 := liftCentered(rQ, rnd.E1)
	defer u.zeroize()
	defer e0.zeroize()
	defer e1.zeroize()

	if err := checkSmall(u, 1, "u"); err != nil {
		return err
	}

	for _, e := range []intPoly{e0, e1} {
		if err := checkSmall(e, cfg.Bound, "encryption error"); err != nil {
			return err
		}
	}

	assignInt(c.U, u)
	assignInt(c.E0, e0)
	assignInt(c.E1, e1)

	delta := new(big.Int).SetUint64(cfg.Delta)

	lhs0 := cfg.mul(liftPoly(rec.PublicKey.Value[0]), u).add(e0).add(liftPoly(rec.Plaintext.Value).mulScalar(delta))
	k0, err := divExact(lhs0, liftPoly(rec.Output.Value[0]), cfg.Q)
	if err != nil {
		return err
	}

	lhs1 := cfg.mul(liftPoly(rec.PublicKey.Value[1]), u).add(e1)
	k1, err := divExact(lhs1, liftPoly(rec.Output.Value[1]), cfg.Q)
	if err != nil {
		return err
	}

	assignInt(c.Quotient[0], k0)
	assignInt(c.Quotient[1], k1)

	return nil
}

func (s *System) assignDecrypt(c *decryptCircuit, rec *bfv.OperationRecord, secrets Secrets) error {

	cfg := s.cfg
	rQ := s.params.RingQ()

	sk := secrets.SecretKey
	if sk == nil {
		return fmt.Errorf("%w: secret key", ErrMissingSecret)
	}

	if err := rQ.Check(sk.Value); err != nil {
		return fmt.Errorf("%w: secret key: %w", ErrShapeMismatch, err)
	}

	pk := rec.PublicKey
	in := rec.Inputs[0]

	assignPoly(c.PublicKey[0], pk.Value[0])
	assignPoly(c.PublicKey[1], pk.Value[1])
	assignCiphertext(c.In, in)
	assignPoly(c.Message, rec.Plaintext.Value)

	sInt := liftCentered(rQ, sk.Value)
	defer sInt.zeroize()
	if err := checkSmall(sInt, 1, "secret key"); err != nil {
		return err
	}
	assignInt(c.S, sInt)

	// e = -(p0 + p1*s) mod Q, centered.
	e := liftCentered(rQ, rQ.Neg(rQ.Add(pk.Value[0], rQ.Mul(pk.Value[1], sk.Value))))
	defer e.zeroize()
	if err := checkSmall(e, cfg.Bound, "public key error"); err != nil {
		return fmt.Errorf("secret key does not match the public key: %w", err)
	}
	assignInt(c.E, e)

	key := liftPoly(pk.Value[0]).add(cfg.mul(liftPoly(pk.Value[1]), sInt)).add(e)
	kKey, err := divExact(key, newIntPoly(cfg.N), cfg.Q)
	if err != nil {
		return err
	}
	assignInt(c.KeyQuotient, kKey)

	phase := liftPoly(in.Value[0]).add(cfg.mul(liftPoly(in.Value[1]), sInt))
	if in.Degree() == 2 {
		phase = phase.add(cfg.mul(liftPoly(in.Value[2]), cfg.mul(sInt, sInt)))
	}
	defer phase.zeroize()

	x := newIntPoly(cfg.N)
	bQ := new(big.Int).SetUint64(cfg.Q)
	for i := range phase {
		x[i].Mod(phase[i], bQ)
	}
	defer x.zeroize()

	kPhase, err := divExact(phase, x, cfg.Q)
	if err != nil {
		return err
	}
	assignInt(c.Phase, x)
	assignInt(c.PhaseQuotient, kPhase)

	y, rho := cfg.rounding(x)
	wrap, err := divExact(y, liftPoly(rec.Plaintext.Value), cfg.T)
	if err != nil {
		return err
	}
	assignInt(c.Wrap, wrap)
	assignInt(c.Remainder, rho)

	return nil
}
