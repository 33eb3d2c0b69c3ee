// Package bfv implements the Brakerski/Fan-Vercauteren homomorphic encryption
// scheme over Z_Q[X]/(X^N+1) for a single prime Q: key generation,
// encryption, decryption, addition, multiplication and relinearization,
// with noise budget bookkeeping and operation records for the circuit package.
package bfv

import (
	"fmt"

	"github.com/tuneinsight/vbfv/ring"
	"github.com/tuneinsight/vbfv/utils/sampling"
)

func newSamplers(params Parameters, prng sampling.PRNG) (ts *ring.TernarySampler, gs *ring.GaussianSampler, err error) {

	if prng == nil {
		if prng, err = sampling.NewPRNG(); err != nil {
			return
		}
	}

	if ts, err = ring.NewTernarySampler(prng, params.RingQ(), TernaryDensity); err != nil {
		return nil, nil, fmt.Errorf("ring.NewTernarySampler: %w", err)
	}

	if gs, err = ring.NewGaussianSampler(prng, params.RingQ(), params.Sigma(), params.ErrorBound()); err != nil {
		return nil, nil, fmt.Errorf("ring.NewGaussianSampler: %w", err)
	}

	return
}

// checkTernary returns an error if p has a coefficient outside {-1, 0, 1}.
func checkTernary(params Parameters, p ring.Poly, name string) error {

	if err := params.RingQ().Check(p); err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}

	for i, c := range params.RingQ().Centered(p) {
		if c < -1 || c > 1 {
			return fmt.Errorf("invalid %s: coefficient %d is %d, not ternary", name, i, c)
		}
	}

	return nil
}

// checkBounded returns an error if p has a coefficient outside [-bound, bound].
func checkBounded(params Parameters, p ring.Poly, name string) error {

	if err := params.RingQ().Check(p); err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}

	bound := int64(params.ErrorBound())
	for i, c := range params.RingQ().Centered(p) {
		if c < -bound || c > bound {
			return fmt.Errorf("invalid %s: coefficient %d is %d, outside [-%d, %d]", name, i, c, bound, bound)
		}
	}

	return nil
}
