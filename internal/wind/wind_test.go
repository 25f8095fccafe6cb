package wind

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectorIndex(t *testing.T) {
	tests := []struct {
		deg  float64
		want int
	}{
		{0, 0},
		{11.24, 0},
		{11.25, 1},
		{350, 0},
		{348.74, 15},
		{90, 4},
		{180, 8},
		{270, 12},
		{360, 0},
		{-22.5, 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SectorIndex(tt.deg, 16), "deg=%v", tt.deg)
	}
	assert.Equal(t, 90.0, SectorCentre(4, 16))
}

func TestSpeedClass(t *testing.T) {
	edges := []float64{0, 2, 4}
	tests := []struct {
		v    float64
		want int
	}{
		{-1, 0},
		{0, 0},
		{1.99, 0},
		{2, 1},
		{3.5, 1},
		{4, 2},
		{40, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SpeedClass(tt.v, edges), "v=%v", tt.v)
	}
}

func TestNewRose(t *testing.T) {
	nan := math.NaN()
	ws := []float64{1, 3, 11, 5, nan}
	wd := []float64{0, 0, 90, nan, 180}

	r, err := NewRose(ws, wd, 16, DefaultSpeedEdges)
	require.NoError(t, err)

	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 1, r.Counts[0][0])
	assert.Equal(t, 1, r.Counts[0][1])
	assert.Equal(t, 1, r.Counts[4][5])
	assert.InDelta(t, 100.0/3, r.Percent(4, 5), 1e-9)
	assert.InDelta(t, 200.0/3, r.MaxSectorPercent(), 1e-9)
	assert.Equal(t, []string{"0-2", "2-4", "4-6", "6-8", "8-10", ">=10"}, r.ClassLabels())
}

func TestNewRose_Errors(t *testing.T) {
	_, err := NewRose([]float64{1}, nil, 16, DefaultSpeedEdges)
	assert.Error(t, err)
	_, err = NewRose(nil, nil, 0, DefaultSpeedEdges)
	assert.Error(t, err)
	_, err = NewRose(nil, nil, 16, []float64{2, 1})
	assert.Error(t, err)

	r, err := NewRose(nil, nil, 8, DefaultSpeedEdges)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Percent(0, 0))
}

func TestDirectionEdges(t *testing.T) {
	edges, err := DirectionEdges(DefaultBinWidth)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 30, 60, 90, 120, 150, 180, 210, 240, 270, 300, 330, 360}, edges)

	_, err = DirectionEdges(7)
	assert.Error(t, err)
	_, err = DirectionEdges(0)
	assert.Error(t, err)
}

func TestDirectionHistogram_Boundaries(t *testing.T) {
	edges, err := DirectionEdges(30)
	require.NoError(t, err)

	assert.Equal(t, 0, DirectionBin(0, edges), "lowest edge is inclusive")
	assert.Equal(t, 0, DirectionBin(30, edges), "bins are right-closed")
	assert.Equal(t, 1, DirectionBin(30.01, edges))
	assert.Equal(t, 11, DirectionBin(360, edges), "360 lands in the last bin")
	assert.Equal(t, -1, DirectionBin(-0.1, edges))
	assert.Equal(t, -1, DirectionBin(360.5, edges))
	assert.Equal(t, -1, DirectionBin(math.NaN(), edges))

	counts, err := DirectionHistogram([]float64{0, 15, 45, 360, 400, math.NaN()}, edges)
	require.NoError(t, err)
	require.Len(t, counts, 12)
	assert.Equal(t, 2, counts[0])
	assert.Equal(t, 1, counts[1])
	assert.Equal(t, 1, counts[11])

	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, 4, total)
}

func TestDirectionHistogram_Errors(t *testing.T) {
	_, err := DirectionHistogram(nil, []float64{0})
	assert.Error(t, err)
	_, err = DirectionHistogram(nil, nil)
	assert.Error(t, err)
}

func TestBinLabels(t *testing.T) {
	edges, _ := DirectionEdges(30)
	labels := BinLabels(edges)
	require.Len(t, labels, 12)
	assert.Equal(t, "0-30", labels[0])
	assert.Equal(t, "330-360", labels[11])
	assert.Nil(t, BinLabels([]float64{1}))
}
