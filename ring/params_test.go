package ring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {

	t.Run("Accept", func(t *testing.T) {
		for _, tc := range []struct {
			N int
			Q uint64
		}{
			{4, 17},
			{8, 3329},
			{1024, 12289},
			{1 << 12, 0x1fffffffffe00001},
		} {
			p, err := Validate(tc.N, tc.Q)
			require.NoError(t, err)
			require.True(t, p.Valid())
			require.Equal(t, tc.N, p.N())
			require.Equal(t, tc.Q, p.Q())
			require.Equal(t, uint64(1), ModExp(p.Psi(), p.NthRoot(), tc.Q))
			require.Equal(t, tc.Q-1, ModExp(p.Psi(), uint64(tc.N), tc.Q))
		}
	})

	t.Run("DerivedRoot", func(t *testing.T) {
		p, err := Validate(8, 3329)
		require.NoError(t, err)
		require.Equal(t, uint64(3), p.PrimitiveRoot())
		require.Equal(t, uint64(2699), p.Psi())
		require.Equal(t, []uint64{2, 13}, p.Factors())
		require.Equal(t, 3, p.LogN())

		p, err = Validate(4, 17)
		require.NoError(t, err)
		require.Equal(t, uint64(9), p.Psi())
	})

	t.Run("SuppliedRoot", func(t *testing.T) {
		p, err := ValidateWithRoot(8, 3329, 2699)
		require.NoError(t, err)
		require.Equal(t, uint64(2699), p.Psi())
		require.Equal(t, uint64(0), p.PrimitiveRoot())

		// 2642 = 2699^5 also has order 16.
		_, err = ValidateWithRoot(8, 3329, 2642)
		require.NoError(t, err)
	})

	t.Run("NotPowerOfTwo", func(t *testing.T) {
		for _, N := range []int{0, 1, 6, 12} {
			_, err := Validate(N, 97)
			require.ErrorIs(t, err, ErrNotPowerOfTwo)
		}
	})

	t.Run("NotPrime", func(t *testing.T) {
		for _, Q := range []uint64{0, 1, 15, 65536, 3327} {
			_, err := Validate(4, Q)
			require.ErrorIs(t, err, ErrNotPrime)
		}
	})

	t.Run("ModulusTooLarge", func(t *testing.T) {
		_, err := Validate(4, 0xffffffffffffffc5)
		require.ErrorIs(t, err, ErrModulusTooLarge)
	})

	t.Run("NoPrimitiveRoot", func(t *testing.T) {
		// 19 - 1 = 18 is not a multiple of 8.
		_, err := Validate(4, 19)
		require.ErrorIs(t, err, ErrNoPrimitiveRoot)
		// 3329 - 1 = 2^8 * 13 is not a multiple of 2*256.
		_, err = Validate(256, 3329)
		require.ErrorIs(t, err, ErrNoPrimitiveRoot)
	})

	t.Run("NotFullSplitting", func(t *testing.T) {
		// 13 has order 4 mod 17: it divides 2N=8 but is not 8.
		_, err := ValidateWithRoot(4, 17, 13)
		require.ErrorIs(t, err, ErrNotFullSplitting)
		// 16 has order 2.
		_, err = ValidateWithRoot(4, 17, 16)
		require.ErrorIs(t, err, ErrNotFullSplitting)
		// 3 has order 16, not a 8-th root at all.
		_, err = ValidateWithRoot(4, 17, 3)
		require.ErrorIs(t, err, ErrNotFullSplitting)
		_, err = ValidateWithRoot(4, 17, 26)
		require.ErrorIs(t, err, ErrNotFullSplitting)
		_, err = ValidateWithRoot(4, 17, 0)
		require.ErrorIs(t, err, ErrNotFullSplitting)
	})

	t.Run("ErrorDetails", func(t *testing.T) {
		_, err := Validate(4, 15)
		var perr *ParamError
		require.True(t, errors.As(err, &perr))
		require.Equal(t, NotPrime, perr.Kind)
		require.Equal(t, 4, perr.N)
		require.Equal(t, uint64(15), perr.Q)
		require.Contains(t, err.Error(), "NotPrime")
		require.False(t, errors.Is(err, ErrNoPrimitiveRoot))
	})

	t.Run("InvalidModulus", func(t *testing.T) {
		_, err := NewRing(Parameters{})
		require.ErrorIs(t, err, ErrInvalidModulus)
	})
}

func TestPrimes(t *testing.T) {

	t.Run("NextNTTPrime", func(t *testing.T) {
		q, err := NextNTTPrime(1156, 8)
		require.NoError(t, err)
		require.Equal(t, uint64(1193), q)

		q, err = NextNTTPrime(17, 8)
		require.NoError(t, err)
		require.Equal(t, uint64(41), q)

		_, err = NextNTTPrime(1<<61, 8)
		require.Error(t, err)
	})

	t.Run("PreviousNTTPrime", func(t *testing.T) {
		q, err := PreviousNTTPrime(41, 8)
		require.NoError(t, err)
		require.Equal(t, uint64(17), q)

		_, err = PreviousNTTPrime(17, 8)
		require.Error(t, err)
	})

	t.Run("GenerateNTTPrimes", func(t *testing.T) {
		primes, err := GenerateNTTPrimes(20, 2048, 4)
		require.NoError(t, err)
		require.Len(t, primes, 4)

		seen := map[uint64]bool{}
		for _, q := range primes {
			require.True(t, IsPrime(q))
			require.Equal(t, uint64(1), q%2048)
			require.Equal(t, uint64(1)<<19, q&(uint64(1)<<19))
			require.Less(t, q, uint64(1)<<20)
			require.False(t, seen[q])
			seen[q] = true
		}

		_, err = GenerateNTTPrimes(62, 16, 1)
		require.Error(t, err)

		_, err = GenerateNTTPrimes(5, 16, 100)
		require.Error(t, err)
	})
}
