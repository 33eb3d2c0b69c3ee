package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitReverse64(t *testing.T) {
	require.Equal(t, uint64(4), BitReverse64(1, 3))
	require.Equal(t, uint64(3), BitReverse64(6, 3))
	require.Equal(t, uint64(0), BitReverse64(0, 5))
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, x := range []int{1, 2, 4, 1024} {
		require.True(t, IsPowerOfTwo(x))
	}
	for _, x := range []int{0, -4, 3, 12} {
		require.False(t, IsPowerOfTwo(x))
	}
}

func TestZero(t *testing.T) {
	s := []uint64{1, 2, 3}
	Zero(s)
	require.Equal(t, []uint64{0, 0, 0}, s)
}

func TestGetSortedKeys(t *testing.T) {
	require.Equal(t, []int{1, 2, 5}, GetSortedKeys(map[int]bool{5: true, 1: false, 2: true}))
}
