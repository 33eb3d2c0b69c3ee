package bfv

import (
	"fmt"
)

// OperationKind identifies a homomorphic operation.
type OperationKind int

const (
	OpEncrypt OperationKind = iota
	OpDecrypt
	OpAdd
	OpMultiply
	OpRelinearize
)

var operationKindNames = [...]string{"Encrypt", "Decrypt", "Add", "Multiply", "Relinearize"}

func (k OperationKind) String() string {
	if k < 0 || int(k) >= len(operationKindNames) {
		return fmt.Sprintf("OperationKind(%d)", int(k))
	}
	return operationKindNames[k]
}

// ParseOperationKind returns the kind named s.
func ParseOperationKind(s string) (OperationKind, error) {
	for i, name := range operationKindNames {
		if name == s {
			return OperationKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown operation kind %q", s)
}

// OperationRecord is the public trace of one operation: its kind, input
// and output ciphertexts, and the public material it involves. It holds
// deep copies of its operands.
type OperationRecord struct {
	Kind OperationKind

	// Inputs are the input ciphertexts. Encrypt has none.
	Inputs []*Ciphertext

	// Output is the output ciphertext. Decrypt has none.
	Output *Ciphertext

	// Plaintext is the encrypted or decrypted message.
	Plaintext *Plaintext

	// PublicKey is set for Encrypt and Decrypt.
	PublicKey *PublicKey

	// RelinearizationKey is set for Relinearize.
	RelinearizationKey *RelinearizationKey
}

// NewEncryptRecord records the encryption of pt into ct under pk.
func NewEncryptRecord(pk *PublicKey, pt *Plaintext, ct *Ciphertext) *OperationRecord {
	return &OperationRecord{Kind: OpEncrypt, Output: ct.CopyNew(), Plaintext: pt.CopyNew(), PublicKey: pk.CopyNew()}
}

// NewDecryptRecord records the decryption of ct into pt, with pk the public
// key of the decrypting secret.
func NewDecryptRecord(pk *PublicKey, ct *Ciphertext, pt *Plaintext) *OperationRecord {
	return &OperationRecord{Kind: OpDecrypt, Inputs: []*Ciphertext{ct.CopyNew()}, Plaintext: pt.CopyNew(), PublicKey: pk.CopyNew()}
}

// NewAddRecord records out = ct0 + ct1.
func NewAddRecord(ct0, ct1, out *Ciphertext) *OperationRecord {
	return &OperationRecord{Kind: OpAdd, Inputs: []*Ciphertext{ct0.CopyNew(), ct1.CopyNew()}, Output: out.CopyNew()}
}

// NewMulRecord records out = ct0 * ct1.
func NewMulRecord(ct0, ct1, out *Ciphertext) *OperationRecord {
	return &OperationRecord{Kind: OpMultiply, Inputs: []*Ciphertext{ct0.CopyNew(), ct1.CopyNew()}, Output: out.CopyNew()}
}

// NewRelinearizeRecord records out = Relinearize(ct, rlk).
func NewRelinearizeRecord(ct *Ciphertext, rlk *RelinearizationKey, out *Ciphertext) *OperationRecord {
	return &OperationRecord{Kind: OpRelinearize, Inputs: []*Ciphertext{ct.CopyNew()}, Output: out.CopyNew(), RelinearizationKey: rlk.CopyNew()}
}

// Check returns an error if the record does not have the shape of its kind
// or if one of its elements is not well formed for params.
func (rec OperationRecord) Check(params Parameters) (err error) {

	if err = rec.checkShape(); err != nil {
		return err
	}

	for i, ct := range rec.Inputs {
		if err = ct.Check(params); err != nil {
			return fmt.Errorf("invalid %s record: input %d: %w", rec.Kind, i, err)
		}
	}

	if rec.Output != nil {
		if err = rec.Output.Check(params); err != nil {
			return fmt.Errorf("invalid %s record: output: %w", rec.Kind, err)
		}
	}

	switch rec.Kind {
	case OpEncrypt, OpDecrypt:
		if rec.Plaintext == nil || rec.PublicKey == nil {
			return fmt.Errorf("invalid %s record: missing plaintext or public key", rec.Kind)
		}
		if err = rec.Plaintext.Check(params); err != nil {
			return fmt.Errorf("invalid %s record: %w", rec.Kind, err)
		}
		for i := range rec.PublicKey.Value {
			if err = params.RingQ().Check(rec.PublicKey.Value[i]); err != nil {
				return fmt.Errorf("invalid %s record: public key: %w", rec.Kind, err)
			}
		}
	case OpRelinearize:
		if rec.RelinearizationKey == nil {
			return fmt.Errorf("invalid %s record: missing relinearization key", rec.Kind)
		}
		if err = rec.RelinearizationKey.Check(params); err != nil {
			return fmt.Errorf("invalid %s record: %w", rec.Kind, err)
		}
	}

	return nil
}

func (rec OperationRecord) checkShape() error {

	for i, ct := range rec.Inputs {
		if ct == nil {
			return fmt.Errorf("invalid %s record: nil input %d", rec.Kind, i)
		}
	}

	degrees := func(cts ...*Ciphertext) (d []int) {
		for _, ct := range cts {
			if ct == nil {
				d = append(d, -1)
			} else {
				d = append(d, ct.Degree())
			}
		}
		return
	}

	var ok bool
	switch rec.Kind {
	case OpEncrypt:
		ok = len(rec.Inputs) == 0 && rec.Output != nil && rec.Output.Degree() == 1
	case OpDecrypt:
		ok = len(rec.Inputs) == 1 && rec.Output == nil
	case OpAdd:
		ok = len(rec.Inputs) == 2 && rec.Output != nil &&
			rec.Inputs[0].Degree() == rec.Inputs[1].Degree() && rec.Output.Degree() == rec.Inputs[0].Degree()
	case OpMultiply:
		ok = len(rec.Inputs) == 2 && rec.Output != nil &&
			rec.Inputs[0].Degree() == 1 && rec.Inputs[1].Degree() == 1 && rec.Output.Degree() == 2
	case OpRelinearize:
		ok = len(rec.Inputs) == 1 && rec.Output != nil && rec.Inputs[0].Degree() == 2 && rec.Output.Degree() == 1
	default:
		return fmt.Errorf("invalid record: %s", rec.Kind)
	}

	if !ok {
		return fmt.Errorf("%w: %s record with input degrees %v and output degree %v",
			ErrDegreeMismatch, rec.Kind, degrees(rec.Inputs...), degrees(rec.Output))
	}

	return nil
}
