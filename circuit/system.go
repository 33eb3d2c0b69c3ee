package circuit

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/tuneinsight/vbfv/bfv"
	"github.com/tuneinsight/vbfv/utils/buffer"
	"github.com/tuneinsight/vbfv/utils/log"
)

// System compiles, sets up and caches the circuit of every operation shape
// of a parameter set, and proves and verifies operation records.
// A System is safe for concurrent use.
type System struct {
	params bfv.Parameters
	cfg    *config
	digest [32]byte

	logger  *zap.SugaredLogger
	workers int

	mu       sync.Mutex
	circuits map[shape]*compiled
}

// compiled is the constraint system of a shape with its Groth16 keys.
// It is filled once and read-only afterwards.
type compiled struct {
	once sync.Once
	err  error

	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey

	// vkDigest identifies vk in the proofs of the shape.
	vkDigest [32]byte
}

// Option configures a System.
type Option func(s *System)

// WithLogger sets the logger of the system. Compilation, setup and proving
// timings are logged at debug level.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *System) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWorkers sets the number of records ProveBatch and VerifyBatch process
// concurrently. A value of zero or less uses runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(s *System) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		s.workers = n
	}
}

// NewSystem returns the proof system of params. It returns an error wrapping
// ErrFieldIncompatible if the circuits of params cannot be embedded in F_r.
func NewSystem(params bfv.Parameters, opts ...Option) (s *System, err error) {

	cfg, err := newConfig(params)
	if err != nil {
		return nil, fmt.Errorf("cannot NewSystem: %w", err)
	}

	s = &System{
		params:   params,
		cfg:      cfg,
		digest:   params.Digest(),
		logger:   log.Nop(),
		workers:  runtime.NumCPU(),
		circuits: map[shape]*compiled{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Parameters returns the parameters of the system.
func (s *System) Parameters() bfv.Parameters {
	return s.params
}

// compile returns the compiled circuit of sh, compiling it and running the
// setup on first use. Concurrent callers of the same shape share one setup.
func (s *System) compile(sh shape) (*compiled, error) {

	s.mu.Lock()
	c, ok := s.circuits[sh]
	if !ok {
		c = new(compiled)
		s.circuits[sh] = c
	}
	s.mu.Unlock()

	c.once.Do(func() {

		var circuit operationCircuit
		if circuit, c.err = newCircuit(s.cfg, sh); c.err != nil {
			return
		}

		now := time.Now()
		if c.ccs, c.err = frontend.Compile(Curve.ScalarField(), r1cs.NewBuilder, circuit); c.err != nil {
			c.err = newProofSystemError("Compile", c.err, "%s", sh)
			return
		}

		s.logger.Debugw("circuit compiled", "shape", sh.String(),
			"constraints", c.ccs.GetNbConstraints(), "elapsed", time.Since(now))

		now = time.Now()
		if c.pk, c.vk, c.err = groth16.Setup(c.ccs); c.err != nil {
			c.err = newProofSystemError("Setup", c.err, "%s", sh)
			return
		}

		if c.vkDigest, c.err = keyDigest(c.vk); c.err != nil {
			return
		}

		s.logger.Debugw("groth16 setup done", "shape", sh.String(), "elapsed", time.Since(now))
	})

	return c, c.err
}

// Circuit is the compiled constraint system of one operation shape.
type Circuit struct {
	shape    shape
	compiled *compiled
}

// Kind returns the operation kind of the circuit.
func (c *Circuit) Kind() bfv.OperationKind {
	return c.shape.kind
}

// Degree returns the degree of the first input of the circuit, or of its
// output for encryptions.
func (c *Circuit) Degree() int {
	return c.shape.degree
}

// NbConstraints returns the number of R1CS constraints of the circuit.
func (c *Circuit) NbConstraints() int {
	return c.compiled.ccs.GetNbConstraints()
}

// NbPublicVariables returns the number of public variables of the circuit,
// including the constant one.
func (c *Circuit) NbPublicVariables() int {
	return c.compiled.ccs.GetNbPublicVariables()
}

// NbSecretVariables returns the number of secret variables of the circuit.
func (c *Circuit) NbSecretVariables() int {
	return c.compiled.ccs.GetNbSecretVariables()
}

// Arithmetize returns the circuit of the kind and shape of rec.
// It returns an error wrapping ErrShapeMismatch if rec is not well formed.
func (s *System) Arithmetize(rec *bfv.OperationRecord) (*Circuit, error) {

	if err := rec.Check(s.params); err != nil {
		return nil, fmt.Errorf("cannot Arithmetize: %w: %w", ErrShapeMismatch, err)
	}

	sh := shapeOfRecord(rec)

	c, err := s.compile(sh)
	if err != nil {
		return nil, fmt.Errorf("cannot Arithmetize: %w", err)
	}

	return &Circuit{shape: sh, compiled: c}, nil
}

// Prove proves that the witness satisfies the circuit. The witness is
// zeroized before Prove returns, whatever the outcome.
func (s *System) Prove(c *Circuit, w *Witness) (p *Proof, err error) {

	if c == nil || w == nil {
		return nil, fmt.Errorf("cannot Prove: %w: missing circuit or witness", ErrShapeMismatch)
	}

	defer w.Zeroize()

	if c.shape != w.shape {
		return nil, fmt.Errorf("cannot Prove: %w: %s circuit with a %s witness", ErrShapeMismatch, c.shape, w.shape)
	}

	full, err := frontend.NewWitness(w.assignment, Curve.ScalarField())
	if err != nil {
		return nil, newProofSystemError("Prove", err, "%s witness", c.shape)
	}

	defer func() {
		if v, ok := full.Vector().(fr.Vector); ok {
			for i := range v {
				v[i].SetZero()
			}
		}
	}()

	now := time.Now()

	proof, err := groth16.Prove(c.compiled.ccs, c.compiled.pk, full)
	if err != nil {
		return nil, newProofSystemError("Prove", ErrUnsatisfied, "%s: %s", c.shape, err)
	}

	s.logger.Debugw("proof generated", "shape", c.shape.String(), "elapsed", time.Since(now))

	return &Proof{
		Kind:             c.shape.kind,
		Degree:           c.shape.degree,
		ParametersDigest: s.digest,
		KeyDigest:        c.compiled.vkDigest,
		statement:        w.statement.CopyNew(),
		proof:            proof,
	}, nil
}

// Verify checks proof against stmt. It returns false and no error if the
// proof is rejected, and an error if stmt or proof is malformed. Proofs are
// only checked against the keys of the setup of s: a proof generated by
// another System returns an error wrapping ErrShapeMismatch, see NewVerifier.
func (s *System) Verify(stmt *Statement, proof *Proof) (bool, error) {
	return verify(s.params, s.cfg, s.digest, func(sh shape) (groth16.VerifyingKey, [32]byte, error) {
		c, err := s.compile(sh)
		if err != nil {
			return nil, [32]byte{}, err
		}
		return c.vk, c.vkDigest, nil
	}, stmt, proof, s.logger)
}

// keyDigest returns the blake3 digest of the encoding of vk.
func keyDigest(vk groth16.VerifyingKey) (digest [32]byte, err error) {
	var buf bytes.Buffer
	if _, err = vk.WriteTo(&buf); err != nil {
		return digest, newProofSystemError("keyDigest", err, "groth16 verifying key")
	}
	return blake3.Sum256(buf.Bytes()), nil
}

type keyGetter func(sh shape) (vk groth16.VerifyingKey, digest [32]byte, err error)

func verify(params bfv.Parameters, cfg *config, digest [32]byte, getVK keyGetter, stmt *Statement, proof *Proof, logger *zap.SugaredLogger) (bool, error) {

	if stmt == nil || proof == nil || proof.proof == nil {
		return false, fmt.Errorf("cannot Verify: %w: missing statement or proof", ErrMalformedStatement)
	}

	if proof.ParametersDigest != digest {
		return false, fmt.Errorf("cannot Verify: %w: proof was generated for other parameters", ErrMalformedStatement)
	}

	if proof.Kind != stmt.Kind {
		return false, fmt.Errorf("cannot Verify: %w: %s proof for a %s statement", ErrShapeMismatch, proof.Kind, stmt.Kind)
	}

	if err := stmt.Check(params); err != nil {
		return false, fmt.Errorf("cannot Verify: %w", err)
	}

	sh := stmt.shape()
	if sh.degree != proof.Degree {
		return false, fmt.Errorf("cannot Verify: %w: proof of degree %d for a %s statement", ErrShapeMismatch, proof.Degree, sh)
	}

	vk, vkDigest, err := getVK(sh)
	if err != nil {
		return false, fmt.Errorf("cannot Verify: %w", err)
	}

	if proof.KeyDigest != vkDigest {
		return false, fmt.Errorf("cannot Verify: %w: %s proof was generated with another setup", ErrShapeMismatch, sh)
	}

	assignment, err := stmt.publicAssignment(cfg)
	if err != nil {
		return false, fmt.Errorf("cannot Verify: %w", err)
	}

	public, err := frontend.NewWitness(assignment, Curve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, newProofSystemError("Verify", err, "%s public witness", sh)
	}

	now := time.Now()

	if err = groth16.Verify(proof.proof, vk, public); err != nil {
		logger.Debugw("proof rejected", "shape", sh.String(), "reason", err)
		return false, nil
	}

	logger.Debugw("proof verified", "shape", sh.String(), "elapsed", time.Since(now))

	return true, nil
}

// ProveBatch proves independent records concurrently. secrets[i], if
// present, holds the secrets of records[i]. It returns the first error by
// record index.
func (s *System) ProveBatch(records []*bfv.OperationRecord, secrets []Secrets) ([]*Proof, error) {

	if len(secrets) != 0 && len(secrets) != len(records) {
		return nil, fmt.Errorf("cannot ProveBatch: got %d records and %d secrets", len(records), len(secrets))
	}

	proofs := make([]*Proof, len(records))

	err := s.runBatch(len(records), func(i int) (err error) {

		var sec Secrets
		if len(secrets) != 0 {
			sec = secrets[i]
		}

		c, err := s.Arithmetize(records[i])
		if err != nil {
			return
		}

		w, err := s.GenerateWitness(records[i], sec)
		if err != nil {
			return
		}

		proofs[i], err = s.Prove(c, w)
		return
	})

	if err != nil {
		return nil, fmt.Errorf("cannot ProveBatch: %w", err)
	}

	return proofs, nil
}

// VerifyBatch verifies independent proofs concurrently.
func (s *System) VerifyBatch(stmts []*Statement, proofs []*Proof) ([]bool, error) {

	if len(stmts) != len(proofs) {
		return nil, fmt.Errorf("cannot VerifyBatch: got %d statements and %d proofs", len(stmts), len(proofs))
	}

	ok := make([]bool, len(stmts))

	err := s.runBatch(len(stmts), func(i int) (err error) {
		ok[i], err = s.Verify(stmts[i], proofs[i])
		return
	})

	if err != nil {
		return nil, fmt.Errorf("cannot VerifyBatch: %w", err)
	}

	return ok, nil
}

// runBatch runs job(0), ..., job(n-1) on at most s.workers goroutines.
func (s *System) runBatch(n int, job func(i int) error) error {

	errs := make([]error, n)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for k := 0; k < min(s.workers, n); k++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				errs[i] = job(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}

	return nil
}

// VerifyingKey is the exported Groth16 verifying key of one operation shape.
type VerifyingKey struct {
	Kind             bfv.OperationKind
	Degree           int
	ParametersDigest [32]byte

	vk     groth16.VerifyingKey
	digest [32]byte
}

// Digest returns the blake3 digest of the Groth16 key, as carried by the
// proofs it verifies.
func (vk VerifyingKey) Digest() [32]byte {
	return vk.digest
}

// ExportVerifyingKey returns the verifying key of the circuit of the given
// kind and degree, running its setup if needed.
func (s *System) ExportVerifyingKey(kind bfv.OperationKind, degree int) (*VerifyingKey, error) {

	sh := shape{kind: kind, degree: degree}

	c, err := s.compile(sh)
	if err != nil {
		return nil, fmt.Errorf("cannot ExportVerifyingKey: %w", err)
	}

	return &VerifyingKey{Kind: kind, Degree: degree, ParametersDigest: s.digest, vk: c.vk, digest: c.vkDigest}, nil
}

// MaxVerifyingKeySize bounds the size of the encoded Groth16 verifying key accepted by ReadFrom.
const MaxVerifyingKeySize = 1 << 24

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo interface.
func (vk VerifyingKey) WriteTo(w io.Writer) (n int64, err error) {

	switch w := w.(type) {
	case buffer.Writer:

		var raw bytes.Buffer
		if _, err = vk.vk.WriteTo(&raw); err != nil {
			return 0, newProofSystemError("WriteTo", err, "groth16 verifying key")
		}

		var inc int64
		for _, f := range []func() (int64, error){
			func() (int64, error) { return buffer.WriteUint8(w, uint8(vk.Kind)) },
			func() (int64, error) { return buffer.WriteUint8(w, uint8(vk.Degree)) },
			func() (int64, error) { return buffer.Write(w, vk.ParametersDigest[:]) },
			func() (int64, error) { return buffer.WriteUint32(w, uint32(raw.Len())) },
			func() (int64, error) { return buffer.Write(w, raw.Bytes()) },
		} {
			if inc, err = f(); err != nil {
				return n + inc, err
			}
			n += inc
		}

		return n, w.Flush()

	default:
		return vk.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Reader. It implements the io.ReaderFrom interface.
func (vk *VerifyingKey) ReadFrom(r io.Reader) (n int64, err error) {

	switch r := r.(type) {
	case buffer.Reader:

		var inc int
		var v uint8

		if inc, err = buffer.ReadUint8(r, &v); err != nil {
			return n + int64(inc), err
		}
		n += int64(inc)
		vk.Kind = bfv.OperationKind(v)

		if inc, err = buffer.ReadUint8(r, &v); err != nil {
			return n + int64(inc), err
		}
		n += int64(inc)
		vk.Degree = int(v)

		if inc, err = io.ReadFull(r, vk.ParametersDigest[:]); err != nil {
			return n + int64(inc), err
		}
		n += int64(inc)

		var size uint32
		if inc, err = buffer.ReadUint32(r, &size); err != nil {
			return n + int64(inc), err
		}
		n += int64(inc)

		if size > MaxVerifyingKeySize {
			return n, fmt.Errorf("cannot ReadFrom: verifying key of %d bytes exceeds %d", size, MaxVerifyingKeySize)
		}

		raw := make([]byte, size)
		if inc, err = io.ReadFull(r, raw); err != nil {
			return n + int64(inc), err
		}
		n += int64(inc)

		vk.vk = groth16.NewVerifyingKey(Curve)
		if _, err = vk.vk.ReadFrom(bytes.NewReader(raw)); err != nil {
			return n, newProofSystemError("ReadFrom", err, "groth16 verifying key")
		}

		if vk.digest, err = keyDigest(vk.vk); err != nil {
			return
		}

		return

	default:
		return vk.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (vk VerifyingKey) MarshalBinary() (data []byte, err error) {
	var buf bytes.Buffer
	_, err = vk.WriteTo(&buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by MarshalBinary or WriteTo on the object.
func (vk *VerifyingKey) UnmarshalBinary(data []byte) (err error) {
	_, err = vk.ReadFrom(bytes.NewReader(data))
	return
}

// Verifier verifies proofs with exported verifying keys, without running
// any setup.
type Verifier struct {
	params bfv.Parameters
	cfg    *config
	digest [32]byte
	logger *zap.SugaredLogger
	keys   map[shape]*VerifyingKey
}

// NewVerifier returns a Verifier of params holding the given verifying keys.
func NewVerifier(params bfv.Parameters, vks ...*VerifyingKey) (*Verifier, error) {

	cfg, err := newConfig(params)
	if err != nil {
		return nil, fmt.Errorf("cannot NewVerifier: %w", err)
	}

	v := &Verifier{
		params: params,
		cfg:    cfg,
		digest: params.Digest(),
		logger: log.Nop(),
		keys:   map[shape]*VerifyingKey{},
	}

	for i, vk := range vks {
		if vk == nil || vk.vk == nil {
			return nil, fmt.Errorf("cannot NewVerifier: verifying key %d is empty", i)
		}
		if vk.ParametersDigest != v.digest {
			return nil, fmt.Errorf("cannot NewVerifier: verifying key %d (%s) was generated for other parameters", i, vk.Kind)
		}
		v.keys[shape{kind: vk.Kind, degree: vk.Degree}] = vk
	}

	return v, nil
}

// Verify checks proof against stmt, see System.Verify. It returns an error
// wrapping ErrShapeMismatch if the verifier holds no key for the shape of stmt.
func (v *Verifier) Verify(stmt *Statement, proof *Proof) (bool, error) {
	return verify(v.params, v.cfg, v.digest, func(sh shape) (groth16.VerifyingKey, [32]byte, error) {
		vk, ok := v.keys[sh]
		if !ok {
			return nil, [32]byte{}, fmt.Errorf("%w: no verifying key for %s", ErrShapeMismatch, sh)
		}
		return vk.vk, vk.digest, nil
	}, stmt, proof, v.logger)
}
