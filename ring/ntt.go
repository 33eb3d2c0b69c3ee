package ring

import (
	"sync"
)

// minButterfliesPerWorker is the smallest number of butterflies
// handed to a goroutine when an NTT stage is split.
const minButterfliesPerWorker = 64

// NTT returns the evaluation representation of p (forward negacyclic
// transform, Cooley-Tukey butterflies, output in bit-reversed order).
func (r *Ring) NTT(p Poly) NTTPoly {
	out := NTTPoly{Coeffs: append([]uint64{}, p.Coeffs...)}
	r.nttInPlace(out.Coeffs)
	return out
}

// INTT returns the coefficient representation of p (inverse negacyclic
// transform, Gentleman-Sande butterflies). INTT(NTT(p)) == p.
func (r *Ring) INTT(p NTTPoly) Poly {
	out := Poly{Coeffs: append([]uint64{}, p.Coeffs...)}
	r.inttInPlace(out.Coeffs)
	return out
}

func (r *Ring) nttInPlace(a []uint64) {

	Q, QInv := r.Modulus, r.MRedConstant
	roots := r.RootsForward

	for m, t := 1, r.N>>1; m < r.N; m, t = m<<1, t>>1 {

		r.runStage(func(lo, hi int) {
			for k := lo; k < hi; k++ {
				i := k / t
				j := 2*i*t + k%t
				a[j], a[j+t] = butterfly(a[j], a[j+t], roots[m+i], Q, QInv)
			}
		})
	}
}

func (r *Ring) inttInPlace(a []uint64) {

	Q, QInv := r.Modulus, r.MRedConstant
	roots := r.RootsBackward

	for h, t := r.N>>1, 1; h > 0; h, t = h>>1, t<<1 {

		r.runStage(func(lo, hi int) {
			for k := lo; k < hi; k++ {
				i := k / t
				j := 2*i*t + k%t
				a[j], a[j+t] = invbutterfly(a[j], a[j+t], roots[h+i], Q, QInv)
			}
		})
	}

	NInv := r.NInv
	for i := range a {
		a[i] = MRed(a[i], NInv, Q, QInv)
	}
}

// runStage applies the N/2 butterflies of one stage. Butterflies of a stage
// touch disjoint pairs of coefficients and may run concurrently; stages are
// sequential, runStage returns only once the whole stage is done.
func (r *Ring) runStage(stage func(lo, hi int)) {

	half := r.N >> 1

	if r.workers <= 1 || half < 2*minButterfliesPerWorker {
		stage(0, half)
		return
	}

	chunk := (half + r.workers - 1) / r.workers
	if chunk < minButterfliesPerWorker {
		chunk = minButterfliesPerWorker
	}

	var wg sync.WaitGroup
	for lo := 0; lo < half; lo += chunk {
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			stage(lo, hi)
		}(lo, min(lo+chunk, half))
	}
	wg.Wait()
}

// butterfly returns (U + V*psi, U - V*psi) mod Q, psi in Montgomery form.
func butterfly(U, V, psi, Q, QInv uint64) (X, Y uint64) {
	V = MRed(V, psi, Q, QInv)
	return CRed(U+V, Q), CRed(U+Q-V, Q)
}

// invbutterfly returns (U + V, (U - V)*psi) mod Q, psi in Montgomery form.
func invbutterfly(U, V, psi, Q, QInv uint64) (X, Y uint64) {
	return CRed(U+V, Q), MRed(CRed(U+Q-V, Q), psi, Q, QInv)
}
