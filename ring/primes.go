package ring

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/tuneinsight/vbfv/utils/factorization"
)

// IsPrime applies the Baillie-PSW, which is 100% accurate for numbers below 2^64.
func IsPrime(x uint64) bool {
	return factorization.IsPrime(new(big.Int).SetUint64(x))
}

// NextNTTPrime returns the smallest prime p > q with p = 1 mod NthRoot.
func NextNTTPrime(q uint64, NthRoot uint64) (qNext uint64, err error) {

	if NthRoot == 0 {
		return 0, fmt.Errorf("cannot NextNTTPrime: NthRoot is zero")
	}

	if q == 0 {
		q = 1
	}

	qNext = q - (q-1)%NthRoot + NthRoot

	for !IsPrime(qNext) {

		qNext += NthRoot

		if bits.Len64(qNext) > MaxModulusBits {
			return 0, fmt.Errorf("next NTT prime exceeds the maximum bit-size of %d bits", MaxModulusBits)
		}
	}

	if bits.Len64(qNext) > MaxModulusBits {
		return 0, fmt.Errorf("next NTT prime exceeds the maximum bit-size of %d bits", MaxModulusBits)
	}

	return qNext, nil
}

// PreviousNTTPrime returns the largest prime p < q with p = 1 mod NthRoot.
func PreviousNTTPrime(q uint64, NthRoot uint64) (qPrev uint64, err error) {

	if NthRoot == 0 || q <= NthRoot+1 {
		return 0, fmt.Errorf("previous NTT prime is smaller than NthRoot")
	}

	qPrev = q - (q-1)%NthRoot
	if qPrev == q {
		qPrev -= NthRoot
	}

	for !IsPrime(qPrev) {

		if qPrev <= NthRoot+1 {
			return 0, fmt.Errorf("previous NTT prime is smaller than NthRoot")
		}

		qPrev -= NthRoot
	}

	return qPrev, nil
}

// GenerateNTTPrimes generates n NthRoot NTT-friendly primes of logQ bits,
// starting from 2^(logQ-1) + 2^(logQ-2) and alternating between upward and
// downward so that all returned primes have exactly logQ bits.
func GenerateNTTPrimes(logQ int, NthRoot uint64, n int) (primes []uint64, err error) {

	if logQ < 2 || logQ > MaxModulusBits {
		return nil, fmt.Errorf("cannot GenerateNTTPrimes: logQ must be between 2 and %d", MaxModulusBits)
	}

	if NthRoot == 0 || bits.Len64(NthRoot) >= logQ {
		return nil, fmt.Errorf("cannot GenerateNTTPrimes: NthRoot=%d too large for logQ=%d", NthRoot, logQ)
	}

	lo := uint64(1) << (logQ - 1)
	hi := uint64(1)<<logQ - 1

	center := lo + lo>>1
	center -= center % NthRoot
	up, down := center+1, center+1

	checkUp, checkDown := true, true

	for len(primes) < n {

		if !(checkUp || checkDown) {
			return primes, fmt.Errorf("cannot GenerateNTTPrimes: not enough %d-bit primes with NthRoot=%d", logQ, NthRoot)
		}

		if checkUp {
			if up > hi {
				checkUp = false
			} else {
				if up >= lo && IsPrime(up) {
					primes = append(primes, up)
				}
				up += NthRoot
			}
		}

		if checkDown && len(primes) < n {
			down -= NthRoot
			if down < lo {
				checkDown = false
			} else if IsPrime(down) {
				primes = append(primes, down)
			}
		}
	}

	return
}
