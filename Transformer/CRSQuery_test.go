package Transformer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryUTMCRSInfo(t *testing.T) {
	candidates, err := QueryUTMCRSInfo(12.0, 42.0)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 32633, candidates[0].Code)
	assert.Equal(t, "WGS 84 / UTM zone 33N", candidates[0].Name)

	candidates, err = QueryUTMCRSInfo(120.48, 42.0)
	require.NoError(t, err)
	assert.Equal(t, 32651, candidates[0].Code)

	candidates, err = QueryUTMCRSInfo(12.0, -42.0)
	require.NoError(t, err)
	assert.Equal(t, 32733, candidates[0].Code)
	assert.Equal(t, "WGS 84 / UTM zone 33S", candidates[0].Name)
}

func TestQueryUTMCRSInfoEdges(t *testing.T) {
	// the east edge of the valid range still lands in the last zone
	candidates, err := QueryUTMCRSInfo(180.0, 10.0)
	require.NoError(t, err)
	assert.Equal(t, 32660, candidates[0].Code)

	candidates, err = QueryUTMCRSInfo(-180.0, 10.0)
	require.NoError(t, err)
	assert.Equal(t, 32601, candidates[0].Code)
}

func TestQueryUTMCRSInfoInvalid(t *testing.T) {
	for _, point := range [][2]float64{
		{200.0, 10.0},
		{10.0, 89.0},
		{10.0, -85.0},
	} {
		_, err := QueryUTMCRSInfo(point[0], point[1])
		assert.ErrorIs(t, err, ErrNoCandidateCRS)
	}
}
