package bfv

import (
	"fmt"
	"io"

	"github.com/tuneinsight/vbfv/ring"
)

// Plaintext is an element of Z_t[X]/(X^N+1), stored with coefficients in [0, t).
type Plaintext struct {
	Value ring.Poly
}

// NewPlaintext allocates a zero plaintext.
func NewPlaintext(params Parameters) *Plaintext {
	return &Plaintext{Value: params.RingQ().NewPoly()}
}

// CopyNew returns a deep copy of the plaintext.
func (pt Plaintext) CopyNew() *Plaintext {
	return &Plaintext{Value: pt.Value.CopyNew()}
}

// Equal returns true if both plaintexts have the same coefficients.
func (pt Plaintext) Equal(other *Plaintext) bool {
	return other != nil && pt.Value.Equal(other.Value)
}

// Check returns an error if the plaintext does not have N coefficients in [0, t).
func (pt Plaintext) Check(params Parameters) error {

	if pt.Value.N() != params.N() {
		return fmt.Errorf("invalid plaintext: got %d coefficients, expected %d", pt.Value.N(), params.N())
	}

	for i, c := range pt.Value.Coeffs {
		if c >= params.T() {
			return fmt.Errorf("invalid plaintext: coefficient %d is %d >= T=%d", i, c, params.T())
		}
	}

	return nil
}

// BinarySize returns the serialized size of the object in bytes.
func (pt Plaintext) BinarySize() int {
	return pt.Value.BinarySize()
}

// WriteTo writes the object on an io.Writer.
func (pt Plaintext) WriteTo(w io.Writer) (n int64, err error) {
	return pt.Value.WriteTo(w)
}

// ReadFrom reads on the object from an io.Reader.
func (pt *Plaintext) ReadFrom(r io.Reader) (n int64, err error) {
	return pt.Value.ReadFrom(r)
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (pt Plaintext) MarshalBinary() ([]byte, error) {
	return pt.Value.MarshalBinary()
}

// UnmarshalBinary decodes a slice of bytes generated by MarshalBinary or WriteTo on the object.
func (pt *Plaintext) UnmarshalBinary(p []byte) error {
	return pt.Value.UnmarshalBinary(p)
}
