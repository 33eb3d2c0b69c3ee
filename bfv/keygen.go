package bfv

import (
	"fmt"

	"github.com/tuneinsight/vbfv/ring"
	"github.com/tuneinsight/vbfv/utils/sampling"
)

// KeyGenerator generates secret, public and relinearization keys.
// A KeyGenerator is not safe for concurrent use.
type KeyGenerator struct {
	params   Parameters
	ternary  *ring.TernarySampler
	gaussian *ring.GaussianSampler
	uniform  *ring.UniformSampler
}

// NewKeyGenerator creates a new KeyGenerator reading from a secure PRNG.
func NewKeyGenerator(params Parameters) (*KeyGenerator, error) {
	prng, err := sampling.NewPRNG()
	if err != nil {
		return nil, err
	}
	return NewKeyGeneratorWithPRNG(params, prng)
}

// NewKeyGeneratorWithPRNG creates a new KeyGenerator reading from prng.
func NewKeyGeneratorWithPRNG(params Parameters, prng sampling.PRNG) (kgen *KeyGenerator, err error) {

	kgen = &KeyGenerator{params: params, uniform: ring.NewUniformSampler(prng, params.RingQ())}

	if kgen.ternary, kgen.gaussian, err = newSamplers(params, prng); err != nil {
		return nil, fmt.Errorf("cannot NewKeyGenerator: %w", err)
	}

	return
}

// GenKeys generates a secret key, its public key and its relinearization key.
func (kgen KeyGenerator) GenKeys() (sk *SecretKey, pk *PublicKey, rlk *RelinearizationKey, err error) {

	if sk, err = kgen.GenSecretKeyNew(); err != nil {
		return
	}

	if pk, err = kgen.GenPublicKeyNew(sk); err != nil {
		return
	}

	rlk, err = kgen.GenRelinearizationKeyNew(sk)

	return
}

// GenSecretKeyNew samples a new ternary secret key.
func (kgen KeyGenerator) GenSecretKeyNew() (*SecretKey, error) {
	s, err := kgen.ternary.ReadNew()
	if err != nil {
		return nil, fmt.Errorf("cannot GenSecretKeyNew: %w", err)
	}
	return &SecretKey{Value: s}, nil
}

// NewSecretKeyFromInt64 returns the secret key with the given ternary coefficients.
func NewSecretKeyFromInt64(params Parameters, coeffs []int64) (*SecretKey, error) {

	s, err := params.RingQ().NewPolyFromInt64(coeffs)
	if err != nil {
		return nil, fmt.Errorf("cannot NewSecretKeyFromInt64: %w", err)
	}

	if err = checkTernary(params, s, "secret key"); err != nil {
		return nil, fmt.Errorf("cannot NewSecretKeyFromInt64: %w", err)
	}

	return &SecretKey{Value: s}, nil
}

// GenPublicKeyNew generates the public key (-(a*s + e), a) of sk, with a
// uniform and e gaussian.
func (kgen KeyGenerator) GenPublicKeyNew(sk *SecretKey) (*PublicKey, error) {

	a, err := kgen.uniform.ReadNew()
	if err != nil {
		return nil, fmt.Errorf("cannot GenPublicKeyNew: %w", err)
	}

	e, err := kgen.gaussian.ReadNew()
	if err != nil {
		return nil, fmt.Errorf("cannot GenPublicKeyNew: %w", err)
	}

	return kgen.GenPublicKeyWithRandomness(sk, a, e)
}

// GenPublicKeyWithRandomness deterministically generates the public key
// (-(a*s + e), a) of sk. e must be bounded by the error bound.
func (kgen KeyGenerator) GenPublicKeyWithRandomness(sk *SecretKey, a, e ring.Poly) (*PublicKey, error) {

	rQ := kgen.params.RingQ()

	if err := rQ.Check(a); err != nil {
		return nil, fmt.Errorf("cannot GenPublicKeyWithRandomness: %w", err)
	}

	if err := checkBounded(kgen.params, e, "public key error"); err != nil {
		return nil, fmt.Errorf("cannot GenPublicKeyWithRandomness: %w", err)
	}

	p0 := rQ.Neg(rQ.Add(rQ.Mul(a, sk.Value), e))

	return &PublicKey{Value: [2]ring.Poly{p0, a.CopyNew()}}, nil
}

// GenRelinearizationKeyNew generates the gadget encryption of s^2 under s,
// rlk_j = (-(a_j*s + e_j) + w^j*s^2, a_j).
func (kgen KeyGenerator) GenRelinearizationKeyNew(sk *SecretKey) (rlk *RelinearizationKey, err error) {

	params := kgen.params
	rQ := params.RingQ()
	Q := rQ.Modulus

	s2 := rQ.Mul(sk.Value, sk.Value)

	rlk = &RelinearizationKey{Value: make([][2]ring.Poly, params.GadgetLen()), LogBase: params.LogBase()}

	wj := uint64(1)
	for j := range rlk.Value {

		var a, e ring.Poly
		if a, err = kgen.uniform.ReadNew(); err != nil {
			return nil, fmt.Errorf("cannot GenRelinearizationKeyNew: %w", err)
		}

		if e, err = kgen.gaussian.ReadNew(); err != nil {
			return nil, fmt.Errorf("cannot GenRelinearizationKeyNew: %w", err)
		}

		b := rQ.Neg(rQ.Add(rQ.Mul(a, sk.Value), e))
		b = rQ.Add(b, rQ.MulScalar(s2, wj))

		rlk.Value[j] = [2]ring.Poly{b, a}

		wj = ring.MulMod(wj, params.Base()%Q, Q)
	}

	return
}
