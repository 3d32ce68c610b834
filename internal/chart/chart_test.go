package chart

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderLineChart(t *testing.T) {
	xs := []float64{0, 5, 10, 15, 20, 25}

	png, err := RenderLineChart("Pepe", "Coin price", xs, []float64{0, 0, 1.5, 1.7, 1.6, 2})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))

	png, err = RenderLineChart("Flat", "Market cap", xs, []float64{0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestRenderLineChartRejectsMismatchedSeries(t *testing.T) {
	_, err := RenderLineChart("x", "y", []float64{1, 2}, []float64{1})
	assert.Error(t, err)

	_, err = RenderLineChart("x", "y", nil, nil)
	assert.Error(t, err)
}
