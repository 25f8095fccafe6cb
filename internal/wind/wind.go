// Package wind bins wind speed and direction readings for the wind rose and
// the directional frequency chart.
package wind

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// DefaultSectors is the number of compass sectors in a wind rose.
const DefaultSectors = 16

// DefaultBinWidth is the width in degrees of a directional frequency bin.
const DefaultBinWidth = 30.0

// DefaultSpeedEdges are the lower edges (m/s) of the wind rose speed classes.
// The last class is open-ended.
var DefaultSpeedEdges = []float64{0, 2, 4, 6, 8, 10}

// SectorIndex returns the sector holding direction deg when the compass is
// split into n equal sectors with sector 0 centred on north.
func SectorIndex(deg float64, n int) int {
	w := 360.0 / float64(n)
	d := math.Mod(deg+w/2, 360)
	if d < 0 {
		d += 360
	}
	i := int(d / w)
	if i >= n {
		i = n - 1
	}
	return i
}

// SectorCentre returns the direction in degrees at the middle of sector i.
func SectorCentre(i, n int) float64 {
	return float64(i) * 360.0 / float64(n)
}

// SpeedClass returns the index of the speed class holding v: the last edge
// not greater than v. Values below the first edge fall into class 0.
func SpeedClass(v float64, edges []float64) int {
	i := sort.SearchFloat64s(edges, v)
	if i < len(edges) && edges[i] == v {
		return i
	}
	if i == 0 {
		return 0
	}
	return i - 1
}

// Rose holds wind observation counts per direction sector and speed class.
type Rose struct {
	Sectors    int
	SpeedEdges []float64
	// Counts is indexed [sector][class].
	Counts [][]int
	Total  int
}

// NewRose bins paired speed and direction readings. Pairs where either
// value is NaN are ignored.
func NewRose(ws, wd []float64, sectors int, speedEdges []float64) (*Rose, error) {
	if len(ws) != len(wd) {
		return nil, fmt.Errorf("speed has %d readings, direction has %d", len(ws), len(wd))
	}
	if sectors < 1 {
		return nil, fmt.Errorf("sector count must be positive, got %d", sectors)
	}
	if err := checkEdges(speedEdges); err != nil {
		return nil, err
	}

	r := &Rose{
		Sectors:    sectors,
		SpeedEdges: append([]float64(nil), speedEdges...),
		Counts:     make([][]int, sectors),
	}
	for i := range r.Counts {
		r.Counts[i] = make([]int, len(speedEdges))
	}
	for i := range ws {
		if math.IsNaN(ws[i]) || math.IsNaN(wd[i]) {
			continue
		}
		r.Counts[SectorIndex(wd[i], sectors)][SpeedClass(ws[i], speedEdges)]++
		r.Total++
	}
	return r, nil
}

// Percent returns the share of all observations in one sector and class.
func (r *Rose) Percent(sector, class int) float64 {
	if r.Total == 0 {
		return 0
	}
	return 100 * float64(r.Counts[sector][class]) / float64(r.Total)
}

// MaxSectorPercent returns the largest stacked sector share.
func (r *Rose) MaxSectorPercent() float64 {
	max := 0.0
	for s := range r.Counts {
		sum := 0.0
		for c := range r.Counts[s] {
			sum += r.Percent(s, c)
		}
		if sum > max {
			max = sum
		}
	}
	return max
}

// ClassLabels names the speed classes, e.g. "0-2" ... ">=10".
func (r *Rose) ClassLabels() []string {
	out := make([]string, len(r.SpeedEdges))
	for i, lo := range r.SpeedEdges {
		if i == len(r.SpeedEdges)-1 {
			out[i] = ">=" + formatEdge(lo)
			continue
		}
		out[i] = formatEdge(lo) + "-" + formatEdge(r.SpeedEdges[i+1])
	}
	return out
}

// DirectionEdges returns bin edges from 0 to 360 in steps of width.
func DirectionEdges(width float64) ([]float64, error) {
	if width <= 0 || width > 360 {
		return nil, fmt.Errorf("bin width must be in (0, 360], got %v", width)
	}
	n := int(math.Round(360 / width))
	if math.Abs(float64(n)*width-360) > 1e-9 {
		return nil, fmt.Errorf("bin width %v does not divide 360", width)
	}
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = float64(i) * width
	}
	return edges, nil
}

// DirectionHistogram counts directions per bin. Bins are right-closed with
// the lowest edge included: [e0,e1], (e1,e2], ..., (en-1,en]. Values
// outside [e0,en] and NaN are not counted.
func DirectionHistogram(wd []float64, edges []float64) ([]int, error) {
	if err := checkEdges(edges); err != nil {
		return nil, err
	}
	if len(edges) < 2 {
		return nil, errors.New("at least two edges are required")
	}
	counts := make([]int, len(edges)-1)
	for _, v := range wd {
		if i := DirectionBin(v, edges); i >= 0 {
			counts[i]++
		}
	}
	return counts, nil
}

// DirectionBin returns the bin of v under DirectionHistogram's rules, or -1.
func DirectionBin(v float64, edges []float64) int {
	if math.IsNaN(v) || len(edges) < 2 {
		return -1
	}
	if v == edges[0] {
		return 0
	}
	j := sort.SearchFloat64s(edges, v)
	if j == 0 || j >= len(edges) {
		return -1
	}
	return j - 1
}

// BinLabels names each bin by its edges, e.g. "0-30".
func BinLabels(edges []float64) []string {
	if len(edges) < 2 {
		return nil
	}
	out := make([]string, len(edges)-1)
	for i := range out {
		out[i] = formatEdge(edges[i]) + "-" + formatEdge(edges[i+1])
	}
	return out
}

func checkEdges(edges []float64) error {
	if len(edges) == 0 {
		return errors.New("no bin edges")
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return fmt.Errorf("bin edges must increase: %v", edges)
		}
	}
	return nil
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
