package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Reference vectors for N=8, Q=3329, psi=2699.
var (
	testRoots    = []uint64{1, 1729, 749, 40, 2699, 2642, 848, 1432}
	testInvRoots = []uint64{1, 1600, 3289, 2580, 1897, 2481, 687, 630}
	testNInv     = uint64(2913)
	testG        = []uint64{35, 1850, 948, 1099, 3090, 2420, 1584, 2455}
	testGHat     = []uint64{2262, 2435, 1226, 2464, 1780, 1017, 694, 1718}
)

func TestNTTVectors(t *testing.T) {

	r, err := NewRingFromNQ(8, 3329)
	require.NoError(t, err)

	Q, QInv := r.Modulus, r.MRedConstant

	t.Run("Tables", func(t *testing.T) {
		for i := range testRoots {
			require.Equal(t, testRoots[i], InvMForm(r.RootsForward[i], Q, QInv))
			require.Equal(t, testInvRoots[i], InvMForm(r.RootsBackward[i], Q, QInv))
		}
		require.Equal(t, testNInv, InvMForm(r.NInv, Q, QInv))
	})

	t.Run("Forward", func(t *testing.T) {
		g, err := r.NewPolyFromCoeffs(testG)
		require.NoError(t, err)
		require.Equal(t, testGHat, r.NTT(g).Coeffs)
	})

	t.Run("Backward", func(t *testing.T) {
		require.Equal(t, testG, r.INTT(NTTPoly{Coeffs: testGHat}).Coeffs)
	})
}

func TestModularReduction(t *testing.T) {

	for _, q := range []uint64{17, 3329, 0x1fffffffffe00001} {

		qInv := MRedParams(q)
		require.Equal(t, uint64(0), q*qInv+1)

		for _, x := range []uint64{0, 1, 2, q >> 1, q - 2, q - 1} {
			for _, y := range []uint64{0, 1, 3, q - 1} {
				require.Equal(t, MulMod(x, y, q), MRed(MForm(x, q), y, q, qInv))
			}
			require.Equal(t, x, InvMForm(MForm(x, q), q, qInv))
		}

		require.Equal(t, uint64(1), MulMod(ModInv(5, q), 5, q))
		require.Equal(t, uint64(1), ModExp(3, q-1, q))
	}

	require.Equal(t, uint64(3), CRed(20, 17))
	require.Equal(t, uint64(16), CRed(16, 17))
}
