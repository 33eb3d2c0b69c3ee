package bfv

import (
	"fmt"

	"github.com/tuneinsight/vbfv/ring"
	"github.com/tuneinsight/vbfv/utils/sampling"
)

// EncryptionRandomness is the randomness of a public-key encryption:
// a ternary u and two bounded errors e0, e1.
type EncryptionRandomness struct {
	U  ring.Poly
	E0 ring.Poly
	E1 ring.Poly
}

// Zeroize overwrites the randomness with zeros.
func (rnd *EncryptionRandomness) Zeroize() {
	rnd.U.Zero()
	rnd.E0.Zero()
	rnd.E1.Zero()
}

// Encryptor encrypts plaintexts under a public key.
// An Encryptor is not safe for concurrent use.
type Encryptor struct {
	params   Parameters
	pk       *PublicKey
	ternary  *ring.TernarySampler
	gaussian *ring.GaussianSampler
}

// NewEncryptor creates a new Encryptor reading from a secure PRNG.
func NewEncryptor(params Parameters, pk *PublicKey) (*Encryptor, error) {
	return NewEncryptorWithPRNG(params, pk, nil)
}

// NewEncryptorWithPRNG creates a new Encryptor reading from prng,
// or from a secure PRNG if prng is nil.
func NewEncryptorWithPRNG(params Parameters, pk *PublicKey, prng sampling.PRNG) (enc *Encryptor, err error) {

	for i := range pk.Value {
		if err = params.RingQ().Check(pk.Value[i]); err != nil {
			return nil, fmt.Errorf("cannot NewEncryptor: invalid public key: %w", err)
		}
	}

	enc = &Encryptor{params: params, pk: pk}

	if enc.ternary, enc.gaussian, err = newSamplers(params, prng); err != nil {
		return nil, fmt.Errorf("cannot NewEncryptor: %w", err)
	}

	return
}

// Encrypt encrypts pt with fresh randomness.
func (enc Encryptor) Encrypt(pt *Plaintext) (ct *Ciphertext, err error) {
	ct, rnd, err := enc.EncryptAndReturnRandomness(pt)
	if rnd != nil {
		rnd.Zeroize()
	}
	return ct, err
}

// EncryptAndReturnRandomness encrypts pt with fresh randomness and returns
// it, to be used as a witness of the encryption.
func (enc Encryptor) EncryptAndReturnRandomness(pt *Plaintext) (ct *Ciphertext, rnd *EncryptionRandomness, err error) {

	rnd = &EncryptionRandomness{}

	if rnd.U, err = enc.ternary.ReadNew(); err != nil {
		return nil, nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	if rnd.E0, err = enc.gaussian.ReadNew(); err != nil {
		return nil, nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	if rnd.E1, err = enc.gaussian.ReadNew(); err != nil {
		return nil, nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	if ct, err = enc.EncryptWithRandomness(pt, rnd); err != nil {
		return nil, nil, err
	}

	return ct, rnd, nil
}

// EncryptWithRandomness deterministically computes
// (p0*u + e0 + Δ*m, p1*u + e1).
func (enc Encryptor) EncryptWithRandomness(pt *Plaintext, rnd *EncryptionRandomness) (*Ciphertext, error) {

	params := enc.params
	rQ := params.RingQ()

	if err := pt.Check(params); err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	if err := checkTernary(params, rnd.U, "encryption randomness u"); err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	if err := checkBounded(params, rnd.E0, "encryption error e0"); err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	if err := checkBounded(params, rnd.E1, "encryption error e1"); err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	ct := NewCiphertext(params, 1)

	ct.Value[0] = rQ.Add(rQ.Add(rQ.Mul(enc.pk.Value[0], rnd.U), rnd.E0), rQ.MulScalar(pt.Value, params.Delta()))
	ct.Value[1] = rQ.Add(rQ.Mul(enc.pk.Value[1], rnd.U), rnd.E1)

	return ct, nil
}
