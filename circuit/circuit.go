// Package circuit proves BFV operations with Groth16 over BN254.
//
// Coefficients of Z_Q are embedded in the scalar field F_r of BN254 as
// integers in [0, Q). A relation x = y mod Q is written as the integer
// equation x = y + k*Q, with k a range-checked witness. Negacyclic products
// are computed with a number theoretic transform over F_r itself, whose
// linear parts cost no constraint. Every circuit bounds the magnitude of its
// intermediates below r/2, so the equations hold over the integers.
package circuit

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"

	"github.com/tuneinsight/vbfv/bfv"
)

// Curve is the curve of the proof system.
const Curve = ecc.BN254

// config holds the constants of the circuits of a parameter set.
type config struct {
	N         int
	Q         uint64
	T         uint64
	Delta     uint64
	Bound     uint64
	LogBase   int
	GadgetLen int

	// psi[k] = ψ^k for k < 2N, with ψ a primitive 2N-th root of unity of F_r.
	psi  []*big.Int
	nInv *big.Int

	// domain is the cyclic FFT domain of size N, generated by ψ^2.
	domain *fft.Domain
	psiFr  []fr.Element
	psiInv []fr.Element
}

// twoAdicity is the largest e such that 2^e divides r-1.
const twoAdicity = 28

func newConfig(params bfv.Parameters) (cfg *config, err error) {

	N := params.N()

	if bits.Len(uint(N))-1 >= twoAdicity {
		return nil, fmt.Errorf("%w: F_r has no primitive %d-th root of unity", ErrFieldIncompatible, 2*N)
	}

	cfg = &config{
		N:         N,
		Q:         params.Q(),
		T:         params.T(),
		Delta:     params.Delta(),
		Bound:     params.ErrorBound(),
		LogBase:   params.LogBase(),
		GadgetLen: params.GadgetLen(),
	}

	if err = cfg.checkMagnitude(); err != nil {
		return nil, err
	}

	psi := fft.NewDomain(uint64(2 * N)).Generator

	cfg.domain = fft.NewDomain(uint64(N))

	var omega fr.Element
	omega.Square(&psi)
	if !omega.Equal(&cfg.domain.Generator) {
		return nil, fmt.Errorf("%w: inconsistent roots of unity", ErrFieldIncompatible)
	}

	cfg.psi = make([]*big.Int, 2*N)
	cfg.psiFr = make([]fr.Element, N)
	cfg.psiInv = make([]fr.Element, N)

	var pow fr.Element
	pow.SetOne()
	for k := range cfg.psi {
		cfg.psi[k] = pow.BigInt(new(big.Int))
		if k < N {
			cfg.psiFr[k] = pow
			cfg.psiInv[k].Inverse(&pow)
		}
		pow.Mul(&pow, &psi)
	}

	var nInv fr.Element
	nInv.SetUint64(uint64(N))
	nInv.Inverse(&nInv)
	cfg.nInv = nInv.BigInt(new(big.Int))

	return cfg, nil
}

// checkMagnitude returns ErrFieldIncompatible if one of the integer
// equations of the circuits can reach r/2 in absolute value. The largest
// terms are t*N*Q^2 (tensor), l*w*N*Q (relinearization) and N^2*Q (phase of
// a degree two ciphertext).
func (cfg *config) checkMagnitude() error {

	N := big.NewInt(int64(cfg.N))
	Q := new(big.Int).SetUint64(cfg.Q)

	bound := new(big.Int).SetUint64(cfg.T)
	bound.Mul(bound, N)
	bound.Mul(bound, Q)
	bound.Mul(bound, Q)

	relin := new(big.Int).Lsh(big.NewInt(int64(cfg.GadgetLen)), uint(cfg.LogBase))
	relin.Mul(relin, N)
	relin.Mul(relin, Q)

	phase := new(big.Int).Mul(N, N)
	phase.Mul(phase, Q)

	for _, b := range []*big.Int{relin, phase} {
		if b.Cmp(bound) > 0 {
			bound = b
		}
	}

	// Margin for the additive terms and the quotients times Q.
	bound.Lsh(bound, 4)

	half := new(big.Int).Rsh(fr.Modulus(), 1)
	if bound.Cmp(half) >= 0 {
		return fmt.Errorf("%w: intermediates reach %d bits, F_r has %d", ErrFieldIncompatible, bound.BitLen(), fr.Bits)
	}

	return nil
}

// half returns floor(Q/2).
func (cfg *config) half() uint64 {
	return cfg.Q >> 1
}

// mulQuotientBound bounds |k| in t*T = Q*(d + Q*k) + ρ.
func (cfg *config) mulQuotientBound() uint64 {
	return cfg.T*uint64(cfg.N) + 2
}

// relinQuotientBound bounds |k| in c + sum_j D_j*rlk_j = c' + Q*k.
func (cfg *config) relinQuotientBound() uint64 {
	return uint64(cfg.GadgetLen)<<cfg.LogBase*uint64(cfg.N) + 2
}

// keyQuotientBound bounds |k| in p*u + e + Δ*m = c + Q*k and p0 + p1*s + e = Q*k.
func (cfg *config) keyQuotientBound() uint64 {
	return uint64(cfg.N) + 2
}

// phaseQuotientBound bounds |k| in c0 + c1*s + c2*s^2 = x + Q*k.
func (cfg *config) phaseQuotientBound() uint64 {
	return uint64(cfg.N)*uint64(cfg.N+1) + 2
}
