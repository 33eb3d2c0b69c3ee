package circuit

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark/frontend"

	"github.com/tuneinsight/vbfv/bfv"
	"github.com/tuneinsight/vbfv/utils/buffer"
)

// Statement is the public part of an operation record: what a verifier
// checks a proof against. The plaintext of an encryption is private and
// the relinearization key is replaced by its commitment.
type Statement struct {
	Kind          bfv.OperationKind
	Inputs        []*bfv.Ciphertext
	Output        *bfv.Ciphertext
	Plaintext     *bfv.Plaintext
	PublicKey     *bfv.PublicKey
	KeyCommitment []byte
}

// NewStatement extracts the statement of rec.
func NewStatement(rec *bfv.OperationRecord) (stmt *Statement, err error) {

	stmt = &Statement{Kind: rec.Kind}

	for _, ct := range rec.Inputs {
		stmt.Inputs = append(stmt.Inputs, ct.CopyNew())
	}

	if rec.Output != nil {
		stmt.Output = rec.Output.CopyNew()
	}

	switch rec.Kind {
	case bfv.OpEncrypt:
		stmt.PublicKey = rec.PublicKey.CopyNew()
	case bfv.OpDecrypt:
		stmt.PublicKey = rec.PublicKey.CopyNew()
		stmt.Plaintext = rec.Plaintext.CopyNew()
	case bfv.OpRelinearize:
		if stmt.KeyCommitment, err = KeyCommitment(rec.RelinearizationKey); err != nil {
			return nil, err
		}
	}

	return
}

// CopyNew returns a deep copy of the statement.
func (stmt Statement) CopyNew() *Statement {

	cpy := &Statement{Kind: stmt.Kind}

	for _, ct := range stmt.Inputs {
		cpy.Inputs = append(cpy.Inputs, ct.CopyNew())
	}

	if stmt.Output != nil {
		cpy.Output = stmt.Output.CopyNew()
	}

	if stmt.Plaintext != nil {
		cpy.Plaintext = stmt.Plaintext.CopyNew()
	}

	if stmt.PublicKey != nil {
		cpy.PublicKey = stmt.PublicKey.CopyNew()
	}

	if stmt.KeyCommitment != nil {
		cpy.KeyCommitment = append([]byte{}, stmt.KeyCommitment...)
	}

	return cpy
}

// Check returns an error wrapping ErrMalformedStatement if the statement
// does not have the shape of its kind or if one of its values is out of range.
func (stmt Statement) Check(params bfv.Parameters) (err error) {

	malformed := func(err error) error {
		return fmt.Errorf("%w: %w", ErrMalformedStatement, err)
	}

	rec := bfv.OperationRecord{Kind: stmt.Kind, Inputs: stmt.Inputs, Output: stmt.Output, Plaintext: stmt.Plaintext, PublicKey: stmt.PublicKey}

	switch stmt.Kind {
	case bfv.OpEncrypt:
		if stmt.Plaintext != nil {
			return malformed(fmt.Errorf("%s statement carries a plaintext", stmt.Kind))
		}
		rec.Plaintext = bfv.NewPlaintext(params)

	case bfv.OpRelinearize:
		if len(stmt.KeyCommitment) != fr32 || new(big.Int).SetBytes(stmt.KeyCommitment).Cmp(frModulus) >= 0 {
			return malformed(fmt.Errorf("%s statement: invalid key commitment", stmt.Kind))
		}
		if len(stmt.Inputs) != 1 || stmt.Inputs[0] == nil || stmt.Inputs[0].Degree() != 2 ||
			stmt.Output == nil || stmt.Output.Degree() != 1 {
			return malformed(fmt.Errorf("%w: %s statement", bfv.ErrDegreeMismatch, stmt.Kind))
		}
		for _, ct := range []*bfv.Ciphertext{stmt.Inputs[0], stmt.Output} {
			if err = ct.Check(params); err != nil {
				return malformed(err)
			}
		}
		return nil
	}

	if len(stmt.KeyCommitment) != 0 {
		return malformed(fmt.Errorf("%s statement carries a key commitment", stmt.Kind))
	}

	if err = rec.Check(params); err != nil {
		return malformed(err)
	}

	return nil
}

const fr32 = 32

func shapeOfRecord(rec *bfv.OperationRecord) shape {
	return shapeOf(rec.Kind, rec.Inputs, rec.Output)
}

func (stmt Statement) shape() shape {
	return shapeOf(stmt.Kind, stmt.Inputs, stmt.Output)
}

func shapeOf(kind bfv.OperationKind, inputs []*bfv.Ciphertext, output *bfv.Ciphertext) shape {
	sh := shape{kind: kind}
	switch {
	case len(inputs) > 0 && inputs[0] != nil:
		sh.degree = inputs[0].Degree()
	case output != nil:
		sh.degree = output.Degree()
	}
	return sh
}

// assignPublic fills the public variables of c from the statement.
// Private variables are set to zero.
func (stmt Statement) assignPublic(c operationCircuit) {

	switch c := c.(type) {
	case *addCircuit:
		assignCiphertext(c.In0, stmt.Inputs[0])
		assignCiphertext(c.In1, stmt.Inputs[1])
		assignCiphertext(c.Out, stmt.Output)
	case *mulCircuit:
		assignCiphertext(c.In0, stmt.Inputs[0])
		assignCiphertext(c.In1, stmt.Inputs[1])
		assignCiphertext(c.Out, stmt.Output)
	case *relinCircuit:
		assignCiphertext(c.In, stmt.Inputs[0])
		assignCiphertext(c.Out, stmt.Output)
		c.KeyCommitment = new(big.Int).SetBytes(stmt.KeyCommitment)
	case *encryptCircuit:
		assignPoly(c.PublicKey[0], stmt.PublicKey.Value[0])
		assignPoly(c.PublicKey[1], stmt.PublicKey.Value[1])
		assignCiphertext(c.Out, stmt.Output)
	case *decryptCircuit:
		assignPoly(c.PublicKey[0], stmt.PublicKey.Value[0])
		assignPoly(c.PublicKey[1], stmt.PublicKey.Value[1])
		assignCiphertext(c.In, stmt.Inputs[0])
		assignPoly(c.Message, stmt.Plaintext.Value)
	}

	c.zeroize()
}

// Equal returns true if both statements are identical.
func (stmt Statement) Equal(other *Statement) bool {

	if other == nil || stmt.Kind != other.Kind || len(stmt.Inputs) != len(other.Inputs) {
		return false
	}

	for i := range stmt.Inputs {
		if !stmt.Inputs[i].Equal(other.Inputs[i]) {
			return false
		}
	}

	switch {
	case (stmt.Output == nil) != (other.Output == nil),
		stmt.Output != nil && !stmt.Output.Equal(other.Output),
		(stmt.Plaintext == nil) != (other.Plaintext == nil),
		stmt.Plaintext != nil && !stmt.Plaintext.Equal(other.Plaintext),
		(stmt.PublicKey == nil) != (other.PublicKey == nil),
		stmt.PublicKey != nil && !stmt.PublicKey.Equal(other.PublicKey):
		return false
	}

	return bytes.Equal(stmt.KeyCommitment, other.KeyCommitment)
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo interface.
func (stmt Statement) WriteTo(w io.Writer) (n int64, err error) {

	switch w := w.(type) {
	case buffer.Writer:

		var inc int64

		write := func(f func() (int64, error)) bool {
			inc, err = f()
			n += inc
			return err == nil
		}

		present := func(ok bool) func() (int64, error) {
			return func() (int64, error) {
				if ok {
					return buffer.WriteUint8(w, 1)
				}
				return buffer.WriteUint8(w, 0)
			}
		}

		if !write(func() (int64, error) { return buffer.WriteUint8(w, uint8(stmt.Kind)) }) ||
			!write(func() (int64, error) { return buffer.WriteUint8(w, uint8(len(stmt.Inputs))) }) {
			return
		}

		for _, ct := range stmt.Inputs {
			if !write(func() (int64, error) { return ct.WriteTo(w) }) {
				return
			}
		}

		if !write(present(stmt.Output != nil)) {
			return
		}
		if stmt.Output != nil && !write(func() (int64, error) { return stmt.Output.WriteTo(w) }) {
			return
		}

		if !write(present(stmt.Plaintext != nil)) {
			return
		}
		if stmt.Plaintext != nil && !write(func() (int64, error) { return stmt.Plaintext.WriteTo(w) }) {
			return
		}

		if !write(present(stmt.PublicKey != nil)) {
			return
		}
		if stmt.PublicKey != nil && !write(func() (int64, error) { return stmt.PublicKey.WriteTo(w) }) {
			return
		}

		if !write(func() (int64, error) { return buffer.WriteUint8(w, uint8(len(stmt.KeyCommitment))) }) ||
			!write(func() (int64, error) { return buffer.Write(w, stmt.KeyCommitment) }) {
			return
		}

		return n, w.Flush()

	default:
		return stmt.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Reader. It implements the io.ReaderFrom interface.
func (stmt *Statement) ReadFrom(r io.Reader) (n int64, err error) {

	switch r := r.(type) {
	case buffer.Reader:

		var inc int
		var v uint8

		read := func() bool {
			inc, err = buffer.ReadUint8(r, &v)
			n += int64(inc)
			return err == nil
		}

		readObject := func(obj io.ReaderFrom) bool {
			var inc64 int64
			inc64, err = obj.ReadFrom(r)
			n += inc64
			return err == nil
		}

		if !read() {
			return
		}
		stmt.Kind = bfv.OperationKind(v)

		if !read() {
			return
		}
		if v > 2 {
			return n, fmt.Errorf("%w: %d inputs", ErrMalformedStatement, v)
		}

		stmt.Inputs = make([]*bfv.Ciphertext, v)
		for i := range stmt.Inputs {
			stmt.Inputs[i] = new(bfv.Ciphertext)
			if !readObject(stmt.Inputs[i]) {
				return
			}
		}

		if !read() {
			return
		}
		if stmt.Output = nil; v == 1 {
			stmt.Output = new(bfv.Ciphertext)
			if !readObject(stmt.Output) {
				return
			}
		}

		if !read() {
			return
		}
		if stmt.Plaintext = nil; v == 1 {
			stmt.Plaintext = new(bfv.Plaintext)
			if !readObject(stmt.Plaintext) {
				return
			}
		}

		if !read() {
			return
		}
		if stmt.PublicKey = nil; v == 1 {
			stmt.PublicKey = new(bfv.PublicKey)
			if !readObject(stmt.PublicKey) {
				return
			}
		}

		if !read() {
			return
		}
		if v > fr32 {
			return n, fmt.Errorf("%w: commitment of %d bytes", ErrMalformedStatement, v)
		}

		stmt.KeyCommitment = nil
		if v > 0 {
			stmt.KeyCommitment = make([]byte, v)
			inc, err = io.ReadFull(r, stmt.KeyCommitment)
			n += int64(inc)
		}

		return

	default:
		return stmt.ReadFrom(bufio.NewReader(r))
	}
}

// publicAssignment returns the public assignment of the statement.
func (stmt Statement) publicAssignment(cfg *config) (frontend.Circuit, error) {
	c, err := newCircuit(cfg, stmt.shape())
	if err != nil {
		return nil, err
	}
	stmt.assignPublic(c)
	return c, nil
}
