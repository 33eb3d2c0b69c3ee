package bfv

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"os"

	"github.com/google/go-cmp/cmp"
	"github.com/zeebo/blake3"

	"github.com/tuneinsight/vbfv/ring"
)

const (
	// MaxLogN is the log2 of the largest supported ring degree.
	MaxLogN = 16

	// DefaultSigma is the default standard deviation of the error distribution.
	DefaultSigma = 3.2

	// DefaultLogBase is the default log2 of the gadget decomposition base.
	DefaultLogBase = 8

	// TernaryDensity is the probability of a non-zero coefficient in the
	// secret key and in the encryption randomness u.
	TernaryDensity = 2.0 / 3.0
)

var (
	// PN2Q17 is a toy parameter set over Z_17[X]/(X^4+1). It cannot absorb
	// sampled noise: it is meant for deterministic encryptions with explicit
	// randomness, with a pinned noise budget.
	PN2Q17 = ParametersLiteral{
		LogN:        2,
		Q:           17,
		T:           4,
		Sigma:       0.5,
		ErrorBound:  1,
		NoiseBudget: 16,
	}

	// PN6QP26 is a parameter set with logN=6 and a 26-bit modulus,
	// supporting one multiplication followed by a relinearization.
	PN6QP26 = ParametersLiteral{
		LogN: 6,
		Q:    0x3fff001,
		T:    8,
	}

	// PN8QP26 is a parameter set with logN=8 and a 26-bit modulus.
	PN8QP26 = ParametersLiteral{
		LogN: 8,
		Q:    0x3fff001,
		T:    4,
	}
)

// ParametersLiteral is the literal representation of BFV parameters, as
// stored in parameter files. Zero-valued optional fields are replaced by
// their default or derived value in NewParametersFromLiteral.
//
//easyjson:json
type ParametersLiteral struct {
	LogN           int
	Q              uint64
	Psi            uint64  `json:",omitempty"`
	T              uint64
	Sigma          float64 `json:",omitempty"`
	ErrorBound     uint64  `json:",omitempty"`
	LogBase        int     `json:",omitempty"`
	NoiseBudget    int     `json:",omitempty"`
	MinNoiseBudget int     `json:",omitempty"`
}

// Parameters represents a validated parameter set for the BFV cryptosystem.
// Parameters are read-only and can be shared between goroutines.
type Parameters struct {
	ringQ *ring.Ring

	// ringP is the ring over the auxiliary prime P > N*(Q-1)^2 on which the
	// integer tensor product of two ciphertexts is computed exactly.
	ringP *ring.Ring

	t              uint64
	delta          uint64
	sigma          float64
	errorBound     uint64
	logBase        int
	gadgetLen      int
	noiseBudget    int
	minNoiseBudget int
	mulCost        int
}

// NewParametersFromLiteral validates the ring (N, Q), the plaintext
// modulus and the noise configuration, and derives the auxiliary tensor
// modulus and the gadget decomposition.
func NewParametersFromLiteral(pl ParametersLiteral) (params Parameters, err error) {

	if pl.LogN < 1 || pl.LogN > MaxLogN {
		return params, fmt.Errorf("cannot NewParametersFromLiteral: LogN=%d must be in [1, %d]", pl.LogN, MaxLogN)
	}

	N := 1 << pl.LogN

	var rp ring.Parameters
	if pl.Psi != 0 {
		rp, err = ring.ValidateWithRoot(N, pl.Q, pl.Psi)
	} else {
		rp, err = ring.Validate(N, pl.Q)
	}

	if err != nil {
		return params, fmt.Errorf("cannot NewParametersFromLiteral: %w", err)
	}

	if params.ringQ, err = ring.NewRing(rp); err != nil {
		return params, fmt.Errorf("cannot NewParametersFromLiteral: %w", err)
	}

	if pl.T < 2 || pl.T >= pl.Q {
		return params, fmt.Errorf("cannot NewParametersFromLiteral: T=%d must be in [2, Q)", pl.T)
	}

	params.t = pl.T
	params.delta = pl.Q / pl.T

	if params.sigma = pl.Sigma; params.sigma == 0 {
		params.sigma = DefaultSigma
	}

	if params.sigma < 0 {
		return params, fmt.Errorf("cannot NewParametersFromLiteral: Sigma=%f must be positive", params.sigma)
	}

	if params.errorBound = pl.ErrorBound; params.errorBound == 0 {
		params.errorBound = uint64(math.Ceil(6 * params.sigma))
	}

	if params.errorBound >= pl.Q>>1 {
		return params, fmt.Errorf("cannot NewParametersFromLiteral: ErrorBound=%d must be smaller than Q/2", params.errorBound)
	}

	logQ := bits.Len64(pl.Q - 1)

	if params.logBase = pl.LogBase; params.logBase == 0 {
		params.logBase = min(DefaultLogBase, logQ)
	}

	if params.logBase < 1 || params.logBase > logQ {
		return params, fmt.Errorf("cannot NewParametersFromLiteral: LogBase=%d must be in [1, %d]", params.logBase, logQ)
	}

	params.gadgetLen = (logQ + params.logBase - 1) / params.logBase

	if params.ringP, err = newTensorRing(N, pl.Q); err != nil {
		return params, fmt.Errorf("cannot NewParametersFromLiteral: %w", err)
	}

	params.mulCost = params.estimateMulCost()
	params.minNoiseBudget = pl.MinNoiseBudget

	if params.noiseBudget = pl.NoiseBudget; params.noiseBudget == 0 {
		if params.noiseBudget = params.estimateFreshBudget(); params.noiseBudget < 0 {
			return params, fmt.Errorf("cannot NewParametersFromLiteral: fresh noise budget is negative (%d bits)", params.noiseBudget)
		}
	}

	return params, nil
}

// newTensorRing returns the ring over the smallest NTT prime P > N*(Q-1)^2.
// The tensor of two centered lifts has coefficients bounded by N*(Q-1)^2/2 in
// absolute value, so they are recovered exactly by a centered lift mod P.
func newTensorRing(N int, Q uint64) (*ring.Ring, error) {

	bound := new(big.Int).SetUint64(Q - 1)
	bound.Mul(bound, bound)
	bound.Mul(bound, big.NewInt(int64(N)))

	if bound.BitLen() > ring.MaxModulusBits {
		return nil, fmt.Errorf("%w: N*(Q-1)^2 has %d bits", ErrTensorModulus, bound.BitLen())
	}

	P, err := ring.NextNTTPrime(bound.Uint64(), uint64(N)<<1)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTensorModulus, err)
	}

	return ring.NewRingFromNQ(N, P)
}

// ReadParametersFile reads and validates a JSON parameter file.
func ReadParametersFile(path string) (params Parameters, err error) {

	data, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("cannot ReadParametersFile: %w", err)
	}

	var pl ParametersLiteral
	if err = pl.UnmarshalJSON(data); err != nil {
		return params, fmt.Errorf("cannot ReadParametersFile: %w", err)
	}

	return NewParametersFromLiteral(pl)
}

// WriteParametersFile writes the literal of params as JSON into path.
func WriteParametersFile(path string, params Parameters) (err error) {

	data, err := params.MarshalJSON()
	if err != nil {
		return fmt.Errorf("cannot WriteParametersFile: %w", err)
	}

	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// ParametersLiteral returns the literal of the parameters, with every
// default and derived value made explicit.
func (p Parameters) ParametersLiteral() ParametersLiteral {
	return ParametersLiteral{
		LogN:           p.LogN(),
		Q:              p.Q(),
		Psi:            p.ringQ.Parameters().Psi(),
		T:              p.t,
		Sigma:          p.sigma,
		ErrorBound:     p.errorBound,
		LogBase:        p.logBase,
		NoiseBudget:    p.noiseBudget,
		MinNoiseBudget: p.minNoiseBudget,
	}
}

// N returns the ring degree.
func (p Parameters) N() int {
	return p.ringQ.N
}

// LogN returns log2 of the ring degree.
func (p Parameters) LogN() int {
	return p.ringQ.Parameters().LogN()
}

// Q returns the ciphertext modulus.
func (p Parameters) Q() uint64 {
	return p.ringQ.Modulus
}

// P returns the auxiliary tensor modulus.
func (p Parameters) P() uint64 {
	return p.ringP.Modulus
}

// T returns the plaintext modulus.
func (p Parameters) T() uint64 {
	return p.t
}

// Delta returns floor(Q/T).
func (p Parameters) Delta() uint64 {
	return p.delta
}

// Sigma returns the standard deviation of the error distribution.
func (p Parameters) Sigma() float64 {
	return p.sigma
}

// ErrorBound returns the bound on the absolute value of error coefficients.
func (p Parameters) ErrorBound() uint64 {
	return p.errorBound
}

// LogBase returns log2 of the gadget decomposition base w.
func (p Parameters) LogBase() int {
	return p.logBase
}

// Base returns the gadget decomposition base w.
func (p Parameters) Base() uint64 {
	return 1 << p.logBase
}

// GadgetLen returns the number of base-w digits of a value in [0, Q).
func (p Parameters) GadgetLen() int {
	return p.gadgetLen
}

// NoiseBudget returns the noise budget of fresh ciphertexts, in bits.
func (p Parameters) NoiseBudget() int {
	return p.noiseBudget
}

// MinNoiseBudget returns the budget below which the evaluator refuses to
// multiply or relinearize.
func (p Parameters) MinNoiseBudget() int {
	return p.minNoiseBudget
}

// MulCost returns the number of bits of budget a multiplication consumes.
func (p Parameters) MulCost() int {
	return p.mulCost
}

// RingQ returns the ciphertext ring.
func (p Parameters) RingQ() *ring.Ring {
	return p.ringQ
}

// RingP returns the auxiliary ring used for tensoring.
func (p Parameters) RingP() *ring.Ring {
	return p.ringP
}

// Equal returns true if both parameter sets are identical.
func (p Parameters) Equal(other Parameters) bool {
	return cmp.Equal(p.ParametersLiteral(), other.ParametersLiteral())
}

// Digest returns a blake3 digest identifying the parameter set.
func (p Parameters) Digest() (digest [32]byte) {

	pl := p.ParametersLiteral()

	buf := new(bytes.Buffer)
	for _, v := range []uint64{
		uint64(pl.LogN), pl.Q, pl.Psi, pl.T, math.Float64bits(pl.Sigma),
		pl.ErrorBound, uint64(pl.LogBase), p.P(),
	} {
		_ = binary.Write(buf, binary.LittleEndian, v)
	}

	hasher := blake3.New()
	_, _ = hasher.Write(buf.Bytes())
	copy(digest[:], hasher.Sum(nil))
	return
}

// MarshalJSON encodes the parameters literal as JSON.
func (p Parameters) MarshalJSON() ([]byte, error) {
	return p.ParametersLiteral().MarshalJSON()
}

// UnmarshalJSON decodes and validates a JSON parameters literal.
func (p *Parameters) UnmarshalJSON(data []byte) (err error) {
	var pl ParametersLiteral
	if err = pl.UnmarshalJSON(data); err != nil {
		return
	}
	*p, err = NewParametersFromLiteral(pl)
	return
}

func (p Parameters) String() string {
	return fmt.Sprintf("LogN=%d/Q=%d/T=%d/P=%d", p.LogN(), p.Q(), p.t, p.P())
}
