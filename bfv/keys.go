package bfv

import (
	"bufio"
	"fmt"
	"io"

	"github.com/tuneinsight/vbfv/ring"
	"github.com/tuneinsight/vbfv/utils/buffer"
)

// SecretKey is a ternary polynomial s. It is never serialized into a proof.
type SecretKey struct {
	Value ring.Poly
}

// Zeroize overwrites the key material with zeros.
func (sk *SecretKey) Zeroize() {
	sk.Value.Zero()
}

// CopyNew returns a deep copy of the key.
func (sk SecretKey) CopyNew() *SecretKey {
	return &SecretKey{Value: sk.Value.CopyNew()}
}

// PublicKey is the encryption of zero (-(a*s + e), a).
type PublicKey struct {
	Value [2]ring.Poly
}

// CopyNew returns a deep copy of the key.
func (pk PublicKey) CopyNew() *PublicKey {
	return &PublicKey{Value: [2]ring.Poly{pk.Value[0].CopyNew(), pk.Value[1].CopyNew()}}
}

// Equal returns true if both keys are identical.
func (pk PublicKey) Equal(other *PublicKey) bool {
	return other != nil && pk.Value[0].Equal(other.Value[0]) && pk.Value[1].Equal(other.Value[1])
}

// BinarySize returns the serialized size of the object in bytes.
func (pk PublicKey) BinarySize() int {
	return pk.Value[0].BinarySize() + pk.Value[1].BinarySize()
}

// WriteTo writes the object on an io.Writer.
func (pk PublicKey) WriteTo(w io.Writer) (n int64, err error) {
	return writePolys(w, pk.Value[:])
}

// ReadFrom reads on the object from an io.Reader.
func (pk *PublicKey) ReadFrom(r io.Reader) (n int64, err error) {
	return readPolys(r, pk.Value[:])
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (pk PublicKey) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(pk.BinarySize())
	_, err = pk.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by MarshalBinary or WriteTo on the object.
func (pk *PublicKey) UnmarshalBinary(p []byte) (err error) {
	_, err = pk.ReadFrom(buffer.NewBuffer(p))
	return
}

// RelinearizationKey is the gadget encryption of s^2 under s:
// Value[j] = (-(a_j*s + e_j) + w^j*s^2, a_j) for j < GadgetLen.
type RelinearizationKey struct {
	Value   [][2]ring.Poly
	LogBase int
}

// CopyNew returns a deep copy of the key.
func (rlk RelinearizationKey) CopyNew() *RelinearizationKey {
	cpy := &RelinearizationKey{Value: make([][2]ring.Poly, len(rlk.Value)), LogBase: rlk.LogBase}
	for j := range rlk.Value {
		cpy.Value[j] = [2]ring.Poly{rlk.Value[j][0].CopyNew(), rlk.Value[j][1].CopyNew()}
	}
	return cpy
}

// Equal returns true if both keys are identical.
func (rlk RelinearizationKey) Equal(other *RelinearizationKey) bool {

	if other == nil || rlk.LogBase != other.LogBase || len(rlk.Value) != len(other.Value) {
		return false
	}

	for j := range rlk.Value {
		if !rlk.Value[j][0].Equal(other.Value[j][0]) || !rlk.Value[j][1].Equal(other.Value[j][1]) {
			return false
		}
	}

	return true
}

// Check returns an error if the key does not match the gadget of params.
func (rlk RelinearizationKey) Check(params Parameters) error {

	if rlk.LogBase != params.LogBase() || len(rlk.Value) != params.GadgetLen() {
		return fmt.Errorf("invalid relinearization key: LogBase=%d/len=%d, expected LogBase=%d/len=%d",
			rlk.LogBase, len(rlk.Value), params.LogBase(), params.GadgetLen())
	}

	for j := range rlk.Value {
		for i := range rlk.Value[j] {
			if err := params.RingQ().Check(rlk.Value[j][i]); err != nil {
				return fmt.Errorf("invalid relinearization key component (%d, %d): %w", j, i, err)
			}
		}
	}

	return nil
}

// Polys returns the flattened list of the key components.
func (rlk RelinearizationKey) Polys() (polys []ring.Poly) {
	for j := range rlk.Value {
		polys = append(polys, rlk.Value[j][0], rlk.Value[j][1])
	}
	return
}

// BinarySize returns the serialized size of the object in bytes.
func (rlk RelinearizationKey) BinarySize() (size int) {
	size = 2
	for _, p := range rlk.Polys() {
		size += p.BinarySize()
	}
	return
}

// WriteTo writes the object on an io.Writer.
func (rlk RelinearizationKey) WriteTo(w io.Writer) (n int64, err error) {

	switch w := w.(type) {
	case buffer.Writer:

		var inc int64
		if inc, err = buffer.WriteUint8(w, uint8(rlk.LogBase)); err != nil {
			return inc, err
		}
		n += inc

		if inc, err = buffer.WriteUint8(w, uint8(len(rlk.Value))); err != nil {
			return n + inc, err
		}
		n += inc

		if inc, err = writePolys(w, rlk.Polys()); err != nil {
			return n + inc, err
		}

		return n + inc, nil

	default:
		return rlk.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Reader.
func (rlk *RelinearizationKey) ReadFrom(r io.Reader) (n int64, err error) {

	switch r := r.(type) {
	case buffer.Reader:

		var inc int
		var logBase, size uint8

		if inc, err = buffer.ReadUint8(r, &logBase); err != nil {
			return int64(inc), err
		}
		n += int64(inc)

		if inc, err = buffer.ReadUint8(r, &size); err != nil {
			return n + int64(inc), err
		}
		n += int64(inc)

		polys := make([]ring.Poly, 2*int(size))

		var inc64 int64
		if inc64, err = readPolys(r, polys); err != nil {
			return n + inc64, err
		}

		rlk.LogBase = int(logBase)
		rlk.Value = make([][2]ring.Poly, size)
		for j := range rlk.Value {
			rlk.Value[j] = [2]ring.Poly{polys[2*j], polys[2*j+1]}
		}

		return n + inc64, nil

	default:
		return rlk.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (rlk RelinearizationKey) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(rlk.BinarySize())
	_, err = rlk.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by MarshalBinary or WriteTo on the object.
func (rlk *RelinearizationKey) UnmarshalBinary(p []byte) (err error) {
	_, err = rlk.ReadFrom(buffer.NewBuffer(p))
	return
}

func writePolys(w io.Writer, polys []ring.Poly) (n int64, err error) {

	switch w := w.(type) {
	case buffer.Writer:
		for i := range polys {
			var inc int64
			if inc, err = polys[i].WriteTo(w); err != nil {
				return n + inc, fmt.Errorf("ring.Poly.WriteTo: %w", err)
			}
			n += inc
		}
		return n, w.Flush()
	default:
		return writePolys(bufio.NewWriter(w), polys)
	}
}

func readPolys(r io.Reader, polys []ring.Poly) (n int64, err error) {

	switch r := r.(type) {
	case buffer.Reader:
		for i := range polys {
			var inc int64
			if inc, err = polys[i].ReadFrom(r); err != nil {
				return n + inc, fmt.Errorf("ring.Poly.ReadFrom: %w", err)
			}
			n += inc
		}
		return n, nil
	default:
		return readPolys(bufio.NewReader(r), polys)
	}
}
