// Package sampling implements secure sampling of bytes and integers.
package sampling

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
)

// ReadUint64 reads 8 bytes from prng and returns them as a little endian uint64.
func ReadUint64(prng PRNG) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(prng, b[:]); err != nil {
		return 0, fmt.Errorf("cannot ReadUint64: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// RandUniform returns a uniform value in [0, bound) by rejection sampling
// on the smallest power-of-two mask covering bound.
func RandUniform(prng PRNG, bound uint64) (uint64, error) {

	if bound == 0 {
		return 0, fmt.Errorf("cannot RandUniform: bound is zero")
	}

	mask := uint64(1)<<bits.Len64(bound-1) - 1

	for {
		v, err := ReadUint64(prng)
		if err != nil {
			return 0, err
		}
		if v &= mask; v < bound {
			return v, nil
		}
	}
}

// RandFloat64 returns a float in [0, 1) built from 53 random bits.
func RandFloat64(prng PRNG) (float64, error) {
	v, err := ReadUint64(prng)
	if err != nil {
		return 0, err
	}
	return float64(v>>11) / (1 << 53), nil
}
