package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight/vbfv/bfv"
)

func TestParamgen(t *testing.T) {

	out := filepath.Join(t.TempDir(), "params.json")
	require.NoError(t, paramgen([]string{"-logn", "4", "-logq", "26", "-t", "8", "-out", out, "-log", "error"}))

	params, err := bfv.ReadParametersFile(out)
	require.NoError(t, err)
	require.Equal(t, 16, params.N())
	require.Equal(t, uint64(8), params.T())
	require.Equal(t, uint64(1), params.Q()%32)
	require.Positive(t, params.NoiseBudget())
}

func TestSplitList(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, splitList(" a, ,b,"))
	require.Nil(t, splitList(""))
}
