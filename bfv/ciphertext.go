package bfv

import (
	"bufio"
	"fmt"
	"io"

	"github.com/tuneinsight/vbfv/ring"
	"github.com/tuneinsight/vbfv/utils/buffer"
)

// Ciphertext is a BFV ciphertext (c0, c1) of degree one, or (c0, c1, c2) of
// degree two after a multiplication, tagged with an estimate of its noise
// budget in bits. The budget is bookkeeping for correctness checks only.
type Ciphertext struct {
	Value       []ring.Poly
	NoiseBudget int
}

// NewCiphertext allocates a zero ciphertext of the given degree.
func NewCiphertext(params Parameters, degree int) *Ciphertext {
	ct := &Ciphertext{Value: make([]ring.Poly, degree+1), NoiseBudget: params.NoiseBudget()}
	for i := range ct.Value {
		ct.Value[i] = params.RingQ().NewPoly()
	}
	return ct
}

// Degree returns the degree of the ciphertext.
func (ct Ciphertext) Degree() int {
	return len(ct.Value) - 1
}

// CopyNew returns a deep copy of the ciphertext.
func (ct Ciphertext) CopyNew() *Ciphertext {
	cpy := &Ciphertext{Value: make([]ring.Poly, len(ct.Value)), NoiseBudget: ct.NoiseBudget}
	for i := range ct.Value {
		cpy.Value[i] = ct.Value[i].CopyNew()
	}
	return cpy
}

// Equal returns true if both ciphertexts have the same components and budget.
func (ct Ciphertext) Equal(other *Ciphertext) bool {

	if other == nil || len(ct.Value) != len(other.Value) || ct.NoiseBudget != other.NoiseBudget {
		return false
	}

	for i := range ct.Value {
		if !ct.Value[i].Equal(other.Value[i]) {
			return false
		}
	}

	return true
}

// Check returns an error if the ciphertext is not a well-formed element of params.
func (ct Ciphertext) Check(params Parameters) error {

	if d := ct.Degree(); d < 1 || d > 2 {
		return fmt.Errorf("%w: ciphertext degree %d must be 1 or 2", ErrDegreeMismatch, d)
	}

	for i := range ct.Value {
		if err := params.RingQ().Check(ct.Value[i]); err != nil {
			return fmt.Errorf("ciphertext component %d: %w", i, err)
		}
	}

	return nil
}

// BinarySize returns the serialized size of the object in bytes.
func (ct Ciphertext) BinarySize() (size int) {
	size = 1 + 8
	for i := range ct.Value {
		size += ct.Value[i].BinarySize()
	}
	return
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo interface.
func (ct Ciphertext) WriteTo(w io.Writer) (n int64, err error) {

	switch w := w.(type) {
	case buffer.Writer:

		var inc int64
		if inc, err = buffer.WriteUint8(w, uint8(ct.Degree())); err != nil {
			return n + inc, err
		}
		n += inc

		if inc, err = buffer.WriteInt64(w, int64(ct.NoiseBudget)); err != nil {
			return n + inc, err
		}
		n += inc

		for i := range ct.Value {
			if inc, err = ct.Value[i].WriteTo(w); err != nil {
				return n + inc, fmt.Errorf("ring.Poly.WriteTo: %w", err)
			}
			n += inc
		}

		return n, w.Flush()

	default:
		return ct.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Reader. It implements the io.ReaderFrom interface.
func (ct *Ciphertext) ReadFrom(r io.Reader) (n int64, err error) {

	switch r := r.(type) {
	case buffer.Reader:

		var inc int
		var degree uint8
		if inc, err = buffer.ReadUint8(r, &degree); err != nil {
			return n + int64(inc), err
		}
		n += int64(inc)

		if degree < 1 || degree > 2 {
			return n, fmt.Errorf("%w: ciphertext degree %d must be 1 or 2", ErrDegreeMismatch, degree)
		}

		var budget int64
		if inc, err = buffer.ReadInt64(r, &budget); err != nil {
			return n + int64(inc), err
		}
		n += int64(inc)

		ct.NoiseBudget = int(budget)
		ct.Value = make([]ring.Poly, degree+1)

		for i := range ct.Value {
			var inc64 int64
			if inc64, err = ct.Value[i].ReadFrom(r); err != nil {
				return n + inc64, fmt.Errorf("ring.Poly.ReadFrom: %w", err)
			}
			n += inc64
		}

		return n, nil

	default:
		return ct.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (ct Ciphertext) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(ct.BinarySize())
	_, err = ct.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by MarshalBinary or WriteTo on the object.
func (ct *Ciphertext) UnmarshalBinary(p []byte) (err error) {
	_, err = ct.ReadFrom(buffer.NewBuffer(p))
	return
}
