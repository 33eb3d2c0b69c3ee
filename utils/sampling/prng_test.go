package sampling_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/vbfv/utils/sampling"
)

func TestPRNG(t *testing.T) {

	key := []byte{0x49, 0x0a, 0x42, 0x3d, 0x97, 0x9d, 0xc1, 0x07, 0xa1, 0xd7, 0xe9, 0x7b, 0x3b, 0xce, 0xa1, 0xdb,
		0x42, 0xf3, 0xa6, 0xd5, 0x75, 0xd2, 0x0c, 0x92, 0xb7, 0x35, 0xce, 0x0c, 0xee, 0x09, 0x7c, 0x98}

	t.Run("KeyedPRNG", func(t *testing.T) {

		Ha, err := sampling.NewKeyedPRNG(key)
		require.NoError(t, err)
		Hb, err := sampling.NewKeyedPRNG(key)
		require.NoError(t, err)
		Hc, err := sampling.NewKeyedPRNG(key[1:])
		require.NoError(t, err)

		sum0 := make([]byte, 512)
		sum1 := make([]byte, 512)
		sum2 := make([]byte, 512)

		for i := 0; i < 4; i++ {
			_, err = Ha.Read(sum0)
			require.NoError(t, err)
			_, err = Hb.Read(sum1)
			require.NoError(t, err)
			_, err = Hc.Read(sum2)
			require.NoError(t, err)

			require.Equal(t, sum0, sum1)
			require.NotEqual(t, sum0, sum2)
		}

		_, err = sampling.NewKeyedPRNG(make([]byte, 65))
		require.Error(t, err)
	})

	t.Run("RandUniform", func(t *testing.T) {

		prng, err := sampling.NewKeyedPRNG(key)
		require.NoError(t, err)

		for _, bound := range []uint64{1, 2, 17, 3329, 1 << 40} {
			for i := 0; i < 64; i++ {
				v, err := sampling.RandUniform(prng, bound)
				require.NoError(t, err)
				require.Less(t, v, bound)
			}
		}

		_, err = sampling.RandUniform(prng, 0)
		require.Error(t, err)
	})

	t.Run("RandFloat64", func(t *testing.T) {
		prng, err := sampling.NewPRNG()
		require.NoError(t, err)
		for i := 0; i < 64; i++ {
			f, err := sampling.RandFloat64(prng)
			require.NoError(t, err)
			require.GreaterOrEqual(t, f, 0.0)
			require.Less(t, f, 1.0)
		}
	})
}
