package bfv

import (
	"fmt"
)

// Encoder maps vectors of integers to plaintexts, coefficient-wise.
type Encoder struct {
	params Parameters
}

// NewEncoder creates a new Encoder.
func NewEncoder(params Parameters) *Encoder {
	return &Encoder{params: params}
}

// Encode returns the plaintext whose i-th coefficient is values[i] mod t.
// Missing coefficients are zero.
func (ecd Encoder) Encode(values []uint64) (*Plaintext, error) {

	if len(values) > ecd.params.N() {
		return nil, fmt.Errorf("cannot Encode: %d values exceed the ring degree %d", len(values), ecd.params.N())
	}

	pt := NewPlaintext(ecd.params)
	T := ecd.params.T()
	for i, v := range values {
		pt.Value.Coeffs[i] = v % T
	}

	return pt, nil
}

// Decode returns the coefficients of pt.
func (ecd Encoder) Decode(pt *Plaintext) []uint64 {
	return append([]uint64{}, pt.Value.Coeffs...)
}
