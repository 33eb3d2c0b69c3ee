package ring

import (
	"bufio"
	"fmt"
	"io"

	"github.com/tuneinsight/vbfv/utils"
	"github.com/tuneinsight/vbfv/utils/buffer"
)

// Poly is a polynomial of Z_Q[X]/(X^N+1) in coefficient representation.
// Coeffs[i] is the coefficient of X^i, in [0, Q).
type Poly struct {
	Coeffs []uint64
}

// NTTPoly is a polynomial of Z_Q[X]/(X^N+1) in evaluation representation:
// Coeffs holds its evaluations at the odd powers of ψ, in bit-reversed order.
// Poly and NTTPoly are distinct types so that operations mixing the two
// representations are rejected at compile time.
type NTTPoly struct {
	Coeffs []uint64
}

// NewPoly allocates a zero polynomial of degree N.
func NewPoly(N int) Poly {
	return Poly{Coeffs: make([]uint64, N)}
}

// NewNTTPoly allocates a zero polynomial of degree N in evaluation representation.
func NewNTTPoly(N int) NTTPoly {
	return NTTPoly{Coeffs: make([]uint64, N)}
}

// N returns the number of coefficients of the polynomial.
func (pol Poly) N() int {
	return len(pol.Coeffs)
}

// CopyNew returns a deep copy of the polynomial.
func (pol Poly) CopyNew() Poly {
	return Poly{Coeffs: append([]uint64{}, pol.Coeffs...)}
}

// Equal returns true if both polynomials have the same coefficients.
func (pol Poly) Equal(other Poly) bool {
	return equalCoeffs(pol.Coeffs, other.Coeffs)
}

// Zero sets all coefficients to zero.
func (pol Poly) Zero() {
	utils.Zero(pol.Coeffs)
}

// BinarySize returns the serialized size of the object in bytes.
func (pol Poly) BinarySize() int {
	return coeffsBinarySize(pol.Coeffs)
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface. Unless w implements buffer.Writer, it is wrapped into a bufio.Writer.
func (pol Poly) WriteTo(w io.Writer) (n int64, err error) {
	return writeCoeffs(w, pol.Coeffs)
}

// ReadFrom reads on the object from an io.Reader. It implements the
// io.ReaderFrom interface. Coefficients are not range-checked, see Ring.Check.
func (pol *Poly) ReadFrom(r io.Reader) (n int64, err error) {
	return readCoeffs(r, &pol.Coeffs)
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (pol Poly) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(pol.BinarySize())
	_, err = pol.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by MarshalBinary or WriteTo on the object.
func (pol *Poly) UnmarshalBinary(p []byte) (err error) {
	_, err = pol.ReadFrom(buffer.NewBuffer(p))
	return
}

// N returns the number of coefficients of the polynomial.
func (pol NTTPoly) N() int {
	return len(pol.Coeffs)
}

// CopyNew returns a deep copy of the polynomial.
func (pol NTTPoly) CopyNew() NTTPoly {
	return NTTPoly{Coeffs: append([]uint64{}, pol.Coeffs...)}
}

// Equal returns true if both polynomials have the same evaluations.
func (pol NTTPoly) Equal(other NTTPoly) bool {
	return equalCoeffs(pol.Coeffs, other.Coeffs)
}

// BinarySize returns the serialized size of the object in bytes.
func (pol NTTPoly) BinarySize() int {
	return coeffsBinarySize(pol.Coeffs)
}

// WriteTo writes the object on an io.Writer.
func (pol NTTPoly) WriteTo(w io.Writer) (n int64, err error) {
	return writeCoeffs(w, pol.Coeffs)
}

// ReadFrom reads on the object from an io.Reader.
func (pol *NTTPoly) ReadFrom(r io.Reader) (n int64, err error) {
	return readCoeffs(r, &pol.Coeffs)
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (pol NTTPoly) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(pol.BinarySize())
	_, err = pol.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by MarshalBinary or WriteTo on the object.
func (pol *NTTPoly) UnmarshalBinary(p []byte) (err error) {
	_, err = pol.ReadFrom(buffer.NewBuffer(p))
	return
}

func equalCoeffs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func coeffsBinarySize(c []uint64) int {
	return 4 + len(c)<<3
}

// MaxSerializedDegree bounds the degree accepted when decoding a polynomial.
const MaxSerializedDegree = 1 << 20

func writeCoeffs(w io.Writer, c []uint64) (n int64, err error) {

	switch w := w.(type) {
	case buffer.Writer:

		var inc int64
		if inc, err = buffer.WriteUint32(w, uint32(len(c))); err != nil {
			return inc, fmt.Errorf("buffer.WriteUint32: %w", err)
		}

		n += inc

		if inc, err = buffer.WriteUint64Slice(w, c); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteUint64Slice: %w", err)
		}

		n += inc

		return n, w.Flush()

	default:
		return writeCoeffs(bufio.NewWriter(w), c)
	}
}

func readCoeffs(r io.Reader, c *[]uint64) (n int64, err error) {

	switch r := r.(type) {
	case buffer.Reader:

		var size uint32
		var inc int

		if inc, err = buffer.ReadUint32(r, &size); err != nil {
			return int64(inc), fmt.Errorf("buffer.ReadUint32: %w", err)
		}

		n += int64(inc)

		if size > MaxSerializedDegree {
			return n, fmt.Errorf("cannot ReadFrom: degree %d exceeds %d", size, MaxSerializedDegree)
		}

		if cap(*c) < int(size) {
			*c = make([]uint64, size)
		}

		*c = (*c)[:size]

		if inc, err = buffer.ReadUint64Slice(r, *c); err != nil {
			return n + int64(inc), fmt.Errorf("buffer.ReadUint64Slice: %w", err)
		}

		return n + int64(inc), nil

	default:
		return readCoeffs(bufio.NewReader(r), c)
	}
}
