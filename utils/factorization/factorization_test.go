package factorization_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/vbfv/utils/factorization"
)

const (
	prime uint64 = 0x1fffffffffe00001
)

func TestIsPrime(t *testing.T) {
	// 2^64 - 59 is prime
	require.True(t, factorization.IsPrime(new(big.Int).SetUint64(0xffffffffffffffc5)))
	require.True(t, factorization.IsPrime(big.NewInt(3329)))
	require.False(t, factorization.IsPrime(big.NewInt(3327)))
	// 2^64 - 1 is not prime
	require.False(t, factorization.IsPrime(new(big.Int).SetUint64(0xffffffffffffffff)))
}

func TestGetFactors(t *testing.T) {

	t.Run("GetFactors", func(t *testing.T) {
		m := new(big.Int).SetUint64(prime - 1)
		require.True(t, checkFactorization(new(big.Int).Set(m), factorization.GetFactors(m)))
	})

	t.Run("GetFactors/Small", func(t *testing.T) {
		// 3328 = 2^8 * 13
		factors := factorization.GetFactors(big.NewInt(3328))
		require.Len(t, factors, 2)
		require.True(t, checkFactorization(big.NewInt(3328), factors))
	})

	t.Run("GetFactors/LargeSemiprime", func(t *testing.T) {
		// 1000003 * 1000033
		m := new(big.Int).Mul(big.NewInt(1000003), big.NewInt(1000033))
		factors := factorization.GetFactors(m)
		require.Len(t, factors, 2)
		require.True(t, checkFactorization(m, factors))
	})

	t.Run("PollardRho", func(t *testing.T) {
		m := new(big.Int).Mul(big.NewInt(1000003), big.NewInt(999983))
		d := factorization.GetFactorPollardRho(m)
		require.Equal(t, 0, new(big.Int).Mod(m, d).Sign())
		require.NotEqual(t, 0, d.Cmp(big.NewInt(1)))
		require.NotEqual(t, 0, d.Cmp(m))
	})
}

func checkFactorization(p *big.Int, factors []*big.Int) bool {
	p = new(big.Int).Set(p)
	zero := new(big.Int)
	for _, factor := range factors {
		for new(big.Int).Mod(p, factor).Cmp(zero) == 0 {
			p.Quo(p, factor)
		}
	}

	return p.Cmp(new(big.Int).SetUint64(1)) == 0
}
