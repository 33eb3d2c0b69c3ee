package circuit

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"github.com/tuneinsight/vbfv/bfv"
)

// KeyCommitment returns the MiMC digest over F_r of the coefficients of
// rlk, packed three per field element. It is the public commitment against
// which relinearization proofs are verified.
func KeyCommitment(rlk *bfv.RelinearizationKey) ([]byte, error) {

	var flat []uint64
	for _, p := range rlk.Polys() {
		flat = append(flat, p.Coeffs...)
	}

	h := mimc.NewMiMC()

	var e, slot fr.Element
	for i := 0; i < len(flat); i += coefficientsPerElement {

		e.SetZero()
		for k := 0; k < coefficientsPerElement && i+k < len(flat); k++ {
			slot.SetUint64(flat[i+k])
			for j := 0; j < k; j++ {
				slot.Mul(&slot, &twoTo64)
			}
			e.Add(&e, &slot)
		}

		b := e.Bytes()
		if _, err := h.Write(b[:]); err != nil {
			return nil, fmt.Errorf("mimc.Write: %w", err)
		}
	}

	return h.Sum(nil), nil
}

var twoTo64 = func() (e fr.Element) {
	e.SetUint64(1 << 32)
	return *e.Square(&e)
}()
