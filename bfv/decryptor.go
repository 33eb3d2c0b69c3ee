package bfv

import (
	"fmt"
	"math/bits"

	"github.com/tuneinsight/vbfv/ring"
)

// Decryptor decrypts ciphertexts with a secret key.
type Decryptor struct {
	params Parameters
	sk     *SecretKey
}

// NewDecryptor creates a new Decryptor.
func NewDecryptor(params Parameters, sk *SecretKey) (*Decryptor, error) {
	if err := checkTernary(params, sk.Value, "secret key"); err != nil {
		return nil, fmt.Errorf("cannot NewDecryptor: %w", err)
	}
	return &Decryptor{params: params, sk: sk}, nil
}

// Phase returns c0 + c1*s (+ c2*s^2) mod Q.
func (dec Decryptor) Phase(ct *Ciphertext) (ring.Poly, error) {

	if ct == nil {
		return ring.Poly{}, fmt.Errorf("cannot Phase: %w", errNilCiphertext)
	}

	if err := ct.Check(dec.params); err != nil {
		return ring.Poly{}, fmt.Errorf("cannot Phase: %w", err)
	}

	rQ := dec.params.RingQ()
	s := dec.sk.Value

	// Horner evaluation in s.
	x := ct.Value[ct.Degree()].CopyNew()
	for i := ct.Degree() - 1; i >= 0; i-- {
		x = rQ.Add(rQ.Mul(x, s), ct.Value[i])
	}

	return x, nil
}

// Decrypt returns the plaintext round(t*x/Q) mod t where x is the phase of
// ct. It returns a DecryptionError wrapping ErrNoiseOverflow if the noise
// budget of ct is negative. A budget of zero bounds the noise by Δ/2 and
// still decrypts.
func (dec Decryptor) Decrypt(ct *Ciphertext) (*Plaintext, error) {

	if ct == nil {
		return nil, fmt.Errorf("cannot Decrypt: %w", errNilCiphertext)
	}

	if ct.NoiseBudget < 0 {
		return nil, &DecryptionError{NoiseBudget: ct.NoiseBudget, Err: ErrNoiseOverflow}
	}

	x, err := dec.Phase(ct)
	if err != nil {
		return nil, fmt.Errorf("cannot Decrypt: %w", err)
	}

	pt := NewPlaintext(dec.params)
	for i, xi := range x.Coeffs {
		pt.Value.Coeffs[i] = dec.round(xi)
	}

	return pt, nil
}

// round returns floor((2t*x + Q) / 2Q) mod t.
func (dec Decryptor) round(x uint64) uint64 {

	Q, T := dec.params.Q(), dec.params.T()

	hi, lo := bits.Mul64(x, T<<1)
	lo, carry := bits.Add64(lo, Q, 0)
	hi += carry

	q, _ := bits.Div64(hi, lo, Q<<1)

	return q % T
}

// Noise returns the statistics of ct's noise x - Δ*m, where m is the expected plaintext.
func (dec Decryptor) Noise(ct *Ciphertext, pt *Plaintext) (ns NoiseStats, err error) {

	x, err := dec.Phase(ct)
	if err != nil {
		return ns, fmt.Errorf("cannot Noise: %w", err)
	}

	if pt == nil {
		return ns, fmt.Errorf("cannot Noise: missing plaintext")
	}

	if err = pt.Check(dec.params); err != nil {
		return ns, fmt.Errorf("cannot Noise: %w", err)
	}

	rQ := dec.params.RingQ()
	e := rQ.Sub(x, rQ.MulScalar(pt.Value, dec.params.Delta()))

	return newNoiseStats(dec.params, rQ.Centered(e))
}
