// Package factorization implements the integer factorization needed to find
// primitive roots of prime moduli.
package factorization

import (
	"math/big"
)

var smallPrimes = []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71, 73, 79, 83, 89, 97}

// IsPrime applies the Baillie-PSW primality test on m, which is
// exact for all values smaller than 2^64.
func IsPrime(m *big.Int) bool {
	return m.ProbablyPrime(0)
}

// GetFactors returns the distinct prime factors of m, in no particular order.
func GetFactors(m *big.Int) (factors []*big.Int) {

	m = new(big.Int).Set(m)

	one := big.NewInt(1)
	zero := new(big.Int)
	tmp := new(big.Int)

	for _, p := range smallPrimes {

		bp := new(big.Int).SetUint64(p)

		if tmp.Mod(m, bp).Cmp(zero) == 0 {
			factors = append(factors, bp)
			for tmp.Mod(m, bp).Cmp(zero) == 0 {
				m.Quo(m, bp)
			}
		}
	}

	var stack []*big.Int
	if m.Cmp(one) > 0 {
		stack = append(stack, m)
	}

	seen := map[string]bool{}

	for len(stack) > 0 {

		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Cmp(one) == 0 {
			continue
		}

		if IsPrime(n) {
			if key := n.String(); !seen[key] {
				seen[key] = true
				factors = append(factors, n)
			}
			continue
		}

		d := GetFactorPollardRho(n)
		stack = append(stack, d, new(big.Int).Quo(n, d))
	}

	return
}

// GetFactorPollardRho returns a non-trivial factor of the composite m using
// Pollard's rho algorithm with Brent's cycle detection.
// m must be composite and odd, otherwise the loop may not terminate.
func GetFactorPollardRho(m *big.Int) (d *big.Int) {

	if m.Bit(0) == 0 {
		return big.NewInt(2)
	}

	one := big.NewInt(1)
	x := new(big.Int)
	y := new(big.Int)
	tmp := new(big.Int)
	d = new(big.Int)

	f := func(v, c *big.Int) {
		v.Mul(v, v)
		v.Add(v, c)
		v.Mod(v, m)
	}

	for c := int64(1); ; c++ {

		bc := big.NewInt(c)
		x.SetInt64(2)
		y.SetInt64(2)
		d.SetInt64(1)

		for d.Cmp(one) == 0 {
			f(x, bc)
			f(y, bc)
			f(y, bc)
			d.GCD(nil, nil, tmp.Abs(tmp.Sub(x, y)), m)
		}

		if d.Cmp(m) != 0 {
			return
		}
	}
}
