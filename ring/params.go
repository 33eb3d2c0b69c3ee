package ring

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/tuneinsight/vbfv/utils"
	"github.com/tuneinsight/vbfv/utils/factorization"
)

// MaxModulusBits is the largest supported bit-size of Q.
const MaxModulusBits = 61

// Parameters is a validated ring configuration (N, Q) together with the
// primitive 2N-th root of unity ψ used by the negacyclic NTT.
// The zero value is not valid: Parameters can only be obtained from
// Validate or ValidateWithRoot.
type Parameters struct {
	n             int
	q             uint64
	psi           uint64
	primitiveRoot uint64
	factors       []uint64
	validated     bool
}

// N returns the ring degree.
func (p Parameters) N() int {
	return p.n
}

// LogN returns log2(N).
func (p Parameters) LogN() int {
	return bits.Len64(uint64(p.n)) - 1
}

// Q returns the modulus.
func (p Parameters) Q() uint64 {
	return p.q
}

// NthRoot returns 2N.
func (p Parameters) NthRoot() uint64 {
	return uint64(p.n) << 1
}

// Psi returns the primitive 2N-th root of unity.
func (p Parameters) Psi() uint64 {
	return p.psi
}

// PrimitiveRoot returns the generator of Z_Q^* ψ was derived from, or 0
// if ψ was supplied by the caller.
func (p Parameters) PrimitiveRoot() uint64 {
	return p.primitiveRoot
}

// Factors returns a copy of the distinct prime factors of Q-1.
func (p Parameters) Factors() []uint64 {
	return append([]uint64{}, p.factors...)
}

// Valid returns true if p was produced by the validator.
func (p Parameters) Valid() bool {
	return p.validated
}

func (p Parameters) String() string {
	return fmt.Sprintf("N=%d/Q=%d/psi=%d", p.n, p.q, p.psi)
}

// Validate checks that (N, Q) supports a full negacyclic NTT and returns the
// validated parameters. The primitive 2N-th root is derived from the smallest
// generator of Z_Q^*.
//
// The checks are, in order: N is a power of two, Q is prime, Q fits in
// MaxModulusBits, Q = 1 mod 2N, and the derived root has order exactly 2N so
// that X^N+1 splits into N distinct linear factors mod Q.
func Validate(N int, Q uint64) (Parameters, error) {
	return validate(N, Q, 0)
}

// ValidateWithRoot is identical to Validate but uses the supplied root psi
// instead of deriving one, which lets a parameter file pin the NTT tables.
func ValidateWithRoot(N int, Q, psi uint64) (Parameters, error) {
	if psi == 0 {
		return Parameters{}, newParamError(NotFullSplitting, N, Q, "supplied root is zero")
	}
	return validate(N, Q, psi)
}

func validate(N int, Q, psi uint64) (p Parameters, err error) {

	if N < 2 || !utils.IsPowerOfTwo(N) {
		return p, newParamError(NotPowerOfTwo, N, Q, "N must be a power of two greater than one")
	}

	if !IsPrime(Q) {
		return p, newParamError(NotPrime, N, Q, "Q is not prime")
	}

	if bits.Len64(Q) > MaxModulusBits {
		return p, newParamError(ModulusTooLarge, N, Q, "Q has %d bits, maximum is %d", bits.Len64(Q), MaxModulusBits)
	}

	NthRoot := uint64(N) << 1

	if (Q-1)%NthRoot != 0 {
		return p, newParamError(NoPrimitiveRoot, N, Q, "Q != 1 mod 2N=%d, no primitive 2N-th root of unity exists", NthRoot)
	}

	factors := GetFactors(Q - 1)

	var g uint64

	if psi == 0 {
		if g, err = PrimitiveRoot(Q, factors); err != nil {
			return p, newParamError(NoPrimitiveRoot, N, Q, "%s", err)
		}
		psi = ModExp(g, (Q-1)/NthRoot, Q)
	} else if psi >= Q {
		return p, newParamError(NotFullSplitting, N, Q, "supplied root %d is not reduced mod Q", psi)
	}

	if err = checkFullSplitting(N, Q, psi); err != nil {
		return p, err
	}

	return Parameters{
		n:             N,
		q:             Q,
		psi:           psi,
		primitiveRoot: g,
		factors:       factors,
		validated:     true,
	}, nil
}

// checkFullSplitting verifies that psi has order exactly 2N and that its odd
// powers are N distinct roots of X^N+1 mod Q.
func checkFullSplitting(N int, Q, psi uint64) error {

	if ModExp(psi, uint64(N)<<1, Q) != 1 {
		return newParamError(NotFullSplitting, N, Q, "root %d is not a 2N-th root of unity", psi)
	}

	// Since 2N is a power of two, psi^N = -1 if and only if the order of psi is 2N.
	if ModExp(psi, uint64(N), Q) != Q-1 {
		return newParamError(NotFullSplitting, N, Q, "root %d has order dividing N, not 2N", psi)
	}

	psi2 := MulMod(psi, psi, Q)
	seen := make(map[uint64]struct{}, N)

	for i, x := 0, psi; i < N; i, x = i+1, MulMod(x, psi2, Q) {

		if ModExp(x, uint64(N), Q) != Q-1 {
			return newParamError(NotFullSplitting, N, Q, "psi^%d is not a root of X^N+1", 2*i+1)
		}

		if _, ok := seen[x]; ok {
			return newParamError(NotFullSplitting, N, Q, "X^N+1 has a repeated root psi^%d", 2*i+1)
		}

		seen[x] = struct{}{}
	}

	return nil
}

// GetFactors returns the distinct prime factors of m in increasing order.
func GetFactors(m uint64) (factors []uint64) {
	set := map[uint64]bool{}
	for _, f := range factorization.GetFactors(new(big.Int).SetUint64(m)) {
		set[f.Uint64()] = true
	}
	return utils.GetSortedKeys(set)
}

// PrimitiveRoot returns the smallest generator of Z_q^*, given the
// distinct prime factors of q-1.
func PrimitiveRoot(q uint64, factors []uint64) (g uint64, err error) {

	for g = 2; g < q; g++ {
		if CheckPrimitiveRoot(g, q, factors) {
			return g, nil
		}
	}

	return 0, fmt.Errorf("cannot find a primitive root of %d", q)
}

// CheckPrimitiveRoot returns true if g is a generator of Z_q^*.
func CheckPrimitiveRoot(g, q uint64, factors []uint64) bool {
	for _, f := range factors {
		if ModExp(g, (q-1)/f, q) == 1 {
			return false
		}
	}
	return true
}
