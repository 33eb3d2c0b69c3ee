package circuit

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/consensys/gnark/backend/groth16"

	"github.com/tuneinsight/vbfv/bfv"
	"github.com/tuneinsight/vbfv/utils/buffer"
)

// MaxProofSize bounds the size of the encoded Groth16 proof accepted by ReadFrom.
const MaxProofSize = 1 << 12

// Proof is the artifact produced by Prove. It carries its statement, so a
// verifier holding only the artifact can check it.
type Proof struct {
	Kind             bfv.OperationKind
	Degree           int
	ParametersDigest [32]byte

	// KeyDigest identifies the verifying key of the setup the proof was
	// generated with.
	KeyDigest [32]byte

	statement *Statement
	proof     groth16.Proof
}

// Statement returns a copy of the statement the proof is relative to, or
// nil if the proof carries none.
func (p *Proof) Statement() *Statement {
	if p == nil || p.statement == nil {
		return nil
	}
	return p.statement.CopyNew()
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo interface.
func (p Proof) WriteTo(w io.Writer) (n int64, err error) {

	if p.proof == nil || p.statement == nil {
		return 0, fmt.Errorf("cannot WriteTo: %w: empty proof", ErrMalformedStatement)
	}

	switch w := w.(type) {
	case buffer.Writer:

		var raw bytes.Buffer
		if _, err = p.proof.WriteTo(&raw); err != nil {
			return 0, newProofSystemError("WriteTo", err, "groth16 proof")
		}

		var inc int64

		if inc, err = buffer.WriteUint8(w, uint8(p.Kind)); err != nil {
			return n + inc, err
		}
		n += inc

		if inc, err = buffer.WriteUint8(w, uint8(p.Degree)); err != nil {
			return n + inc, err
		}
		n += inc

		if inc, err = buffer.Write(w, p.ParametersDigest[:]); err != nil {
			return n + inc, err
		}
		n += inc

		if inc, err = buffer.Write(w, p.KeyDigest[:]); err != nil {
			return n + inc, err
		}
		n += inc

		if inc, err = p.statement.WriteTo(w); err != nil {
			return n + inc, fmt.Errorf("statement: %w", err)
		}
		n += inc

		if inc, err = buffer.WriteUint32(w, uint32(raw.Len())); err != nil {
			return n + inc, err
		}
		n += inc

		if inc, err = buffer.Write(w, raw.Bytes()); err != nil {
			return n + inc, err
		}
		n += inc

		return n, w.Flush()

	default:
		return p.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Reader. It implements the io.ReaderFrom interface.
func (p *Proof) ReadFrom(r io.Reader) (n int64, err error) {

	switch r := r.(type) {
	case buffer.Reader:

		var inc int
		var v uint8

		if inc, err = buffer.ReadUint8(r, &v); err != nil {
			return n + int64(inc), err
		}
		n += int64(inc)
		p.Kind = bfv.OperationKind(v)

		if inc, err = buffer.ReadUint8(r, &v); err != nil {
			return n + int64(inc), err
		}
		n += int64(inc)
		p.Degree = int(v)

		if inc, err = io.ReadFull(r, p.ParametersDigest[:]); err != nil {
			return n + int64(inc), err
		}
		n += int64(inc)

		if inc, err = io.ReadFull(r, p.KeyDigest[:]); err != nil {
			return n + int64(inc), err
		}
		n += int64(inc)

		p.statement = new(Statement)
		var inc64 int64
		if inc64, err = p.statement.ReadFrom(r); err != nil {
			return n + inc64, fmt.Errorf("statement: %w", err)
		}
		n += inc64

		if p.statement.Kind != p.Kind {
			return n, fmt.Errorf("%w: proof of %s carries a %s statement", ErrMalformedStatement, p.Kind, p.statement.Kind)
		}

		var size uint32
		if inc, err = buffer.ReadUint32(r, &size); err != nil {
			return n + int64(inc), err
		}
		n += int64(inc)

		if size > MaxProofSize {
			return n, fmt.Errorf("cannot ReadFrom: proof of %d bytes exceeds %d", size, MaxProofSize)
		}

		raw := make([]byte, size)
		if inc, err = io.ReadFull(r, raw); err != nil {
			return n + int64(inc), err
		}
		n += int64(inc)

		p.proof = groth16.NewProof(Curve)
		if _, err = p.proof.ReadFrom(bytes.NewReader(raw)); err != nil {
			return n, newProofSystemError("ReadFrom", err, "groth16 proof")
		}

		return

	default:
		return p.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (p Proof) MarshalBinary() (data []byte, err error) {
	var buf bytes.Buffer
	_, err = p.WriteTo(&buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by MarshalBinary or WriteTo on the object.
func (p *Proof) UnmarshalBinary(data []byte) (err error) {
	_, err = p.ReadFrom(bytes.NewReader(data))
	return
}
