package ring

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/vbfv/utils/buffer"
	"github.com/tuneinsight/vbfv/utils/sampling"
)

var testParameters = []struct {
	N int
	Q uint64
}{
	{4, 17},
	{8, 3329},
	{256, 7681},
	{1024, 12289},
	{1 << 11, 0x1fffffffffe00001},
}

func testString(opname string, r *Ring) string {
	return fmt.Sprintf("%s/N=%d/Q=%d", opname, r.N, r.Modulus)
}

func genTestRings(t *testing.T) (rings []*Ring) {
	for _, tc := range testParameters {
		r, err := NewRingFromNQ(tc.N, tc.Q)
		require.NoError(t, err)
		rings = append(rings, r)
	}
	return
}

func newTestPRNG(t *testing.T) sampling.PRNG {
	prng, err := sampling.NewKeyedPRNG([]byte{'r', 'i', 'n', 'g'})
	require.NoError(t, err)
	return prng
}

func TestRing(t *testing.T) {

	prng := newTestPRNG(t)

	for _, r := range genTestRings(t) {

		uniform := NewUniformSampler(prng, r)

		sample := func(t *testing.T) Poly {
			p, err := uniform.ReadNew()
			require.NoError(t, err)
			return p
		}

		t.Run(testString("NTT/RoundTrip", r), func(t *testing.T) {
			p := sample(t)
			pNTT := r.NTT(p)
			require.Equal(t, p, r.INTT(pNTT))
			require.NoError(t, r.CheckNTT(pNTT))
		})

		t.Run(testString("NTT/DoesNotMutate", r), func(t *testing.T) {
			p := sample(t)
			cpy := p.CopyNew()
			_ = r.INTT(r.NTT(p))
			require.True(t, cpy.Equal(p))
		})

		t.Run(testString("Mul/NTTvsNaive", r), func(t *testing.T) {
			if r.N > 1024 {
				t.Skip("schoolbook reference too slow")
			}
			a, b := sample(t), sample(t)
			require.Equal(t, r.MulNaive(a, b), r.Mul(a, b))
		})

		t.Run(testString("Mul/Negacyclic", r), func(t *testing.T) {
			// X^(N-1) * X = X^N = -1
			a, b := r.NewPoly(), r.NewPoly()
			a.Coeffs[r.N-1] = 1
			b.Coeffs[1] = 1
			want := r.NewPoly()
			want.Coeffs[0] = r.Modulus - 1
			require.Equal(t, want, r.Mul(a, b))
		})

		t.Run(testString("Mul/Homomorphism", r), func(t *testing.T) {
			a, b, c := sample(t), sample(t), sample(t)
			// a*(b+c) = a*b + a*c
			require.Equal(t, r.Add(r.Mul(a, b), r.Mul(a, c)), r.Mul(a, r.Add(b, c)))
			// NTT(a*b) = NTT(a) ⊙ NTT(b)
			require.Equal(t, r.NTT(r.Mul(a, b)), r.MulCoeffs(r.NTT(a), r.NTT(b)))
			// NTT(a+b) = NTT(a) + NTT(b)
			require.Equal(t, r.NTT(r.Add(a, b)), r.AddNTT(r.NTT(a), r.NTT(b)))
			require.Equal(t, r.NTT(r.Sub(a, b)), r.SubNTT(r.NTT(a), r.NTT(b)))
			require.Equal(t, r.NTT(r.MulScalar(a, 7)), r.MulScalarNTT(r.NTT(a), 7))
		})

		t.Run(testString("Add/Sub/Neg", r), func(t *testing.T) {
			a, b, c := sample(t), sample(t), sample(t)
			zero := r.NewPoly()

			require.Equal(t, r.Add(a, b), r.Add(b, a))
			require.Equal(t, r.Add(r.Add(a, b), c), r.Add(a, r.Add(b, c)))
			require.Equal(t, a, r.Add(a, zero))
			require.Equal(t, zero, r.Add(a, r.Neg(a)))
			require.Equal(t, r.Sub(a, b), r.Add(a, r.Neg(b)))
			require.Equal(t, a, r.Sub(r.Add(a, b), b))
			require.Equal(t, r.Add(a, a), r.MulScalar(a, 2))
			require.NoError(t, r.Check(r.Sub(zero, a)))
		})

		t.Run(testString("Centered", r), func(t *testing.T) {
			coeffs := make([]int64, r.N)
			for i := range coeffs {
				coeffs[i] = int64(i%5) - 2
			}
			p, err := r.NewPolyFromInt64(coeffs)
			require.NoError(t, err)
			require.NoError(t, r.Check(p))
			require.Equal(t, coeffs, r.Centered(p))
		})

		t.Run(testString("Marshaller", r), func(t *testing.T) {
			p := sample(t)

			data, err := p.MarshalBinary()
			require.NoError(t, err)
			require.Len(t, data, p.BinarySize())

			var q Poly
			require.NoError(t, q.UnmarshalBinary(data))
			require.Equal(t, p, q)

			pNTT := r.NTT(p)
			var buf bytes.Buffer
			_, err = pNTT.WriteTo(&buf)
			require.NoError(t, err)

			var qNTT NTTPoly
			_, err = qNTT.ReadFrom(&buf)
			require.NoError(t, err)
			require.True(t, pNTT.Equal(qNTT))
		})
	}
}

func TestRingParallel(t *testing.T) {

	params, err := Validate(1<<12, 0x1fffffffffe00001)
	require.NoError(t, err)

	seq, err := NewRing(params)
	require.NoError(t, err)

	par, err := NewRing(params, WithWorkers(4))
	require.NoError(t, err)
	require.Equal(t, 4, par.Workers())

	p, err := NewUniformSampler(newTestPRNG(t), seq).ReadNew()
	require.NoError(t, err)

	require.Equal(t, seq.NTT(p), par.NTT(p))
	require.Equal(t, p, par.INTT(par.NTT(p)))
	require.Equal(t, seq.Mul(p, p), par.Mul(p, p))
}

func TestCheck(t *testing.T) {

	r, err := NewRingFromNQ(4, 17)
	require.NoError(t, err)

	_, err = r.NewPolyFromCoeffs([]uint64{1, 2, 3, 17})
	require.Error(t, err)

	_, err = r.NewPolyFromCoeffs([]uint64{1, 2, 3})
	require.Error(t, err)

	p, err := r.NewPolyFromCoeffs([]uint64{1, 2, 3, 16})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3, -1}, r.Centered(p))

	require.Equal(t, uint64(0), r.ReduceInt64(-17))
	require.Equal(t, uint64(16), r.ReduceInt64(-18))
	require.Equal(t, uint64(1), r.ReduceInt64(35))

	require.Panics(t, func() { r.Add(p, NewPoly(8)) })
}

func TestSamplers(t *testing.T) {

	r, err := NewRingFromNQ(1024, 12289)
	require.NoError(t, err)

	prng := newTestPRNG(t)

	t.Run("Ternary", func(t *testing.T) {
		ts, err := NewTernarySampler(prng, r, 2.0/3.0)
		require.NoError(t, err)
		p, err := ts.ReadNew()
		require.NoError(t, err)
		var nonZero int
		for _, c := range r.Centered(p) {
			require.True(t, c >= -1 && c <= 1)
			if c != 0 {
				nonZero++
			}
		}
		require.Greater(t, nonZero, 0)

		_, err = NewTernarySampler(prng, r, 0)
		require.Error(t, err)
	})

	t.Run("Gaussian", func(t *testing.T) {
		gs, err := NewGaussianSampler(prng, r, 3.2, 0)
		require.NoError(t, err)
		require.Equal(t, uint64(20), gs.Bound)
		p, err := gs.ReadNew()
		require.NoError(t, err)
		for _, c := range r.Centered(p) {
			require.True(t, c >= -20 && c <= 20)
		}

		_, err = NewGaussianSampler(prng, r, 3.2, 7000)
		require.Error(t, err)
	})

	t.Run("Uniform", func(t *testing.T) {
		p, err := NewUniformSampler(prng, r).ReadNew()
		require.NoError(t, err)
		require.NoError(t, r.Check(p))
	})
}

func TestBuffer(t *testing.T) {
	// Writes through a buffer.Writer directly, without bufio wrapping.
	r, err := NewRingFromNQ(8, 3329)
	require.NoError(t, err)
	p, err := NewUniformSampler(newTestPRNG(t), r).ReadNew()
	require.NoError(t, err)
	buf := buffer.NewBufferSize(p.BinarySize())
	n, err := p.WriteTo(buf)
	require.NoError(t, err)
	require.Equal(t, int64(p.BinarySize()), n)
	var q Poly
	_, err = q.ReadFrom(buffer.NewBuffer(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, p, q)
}
