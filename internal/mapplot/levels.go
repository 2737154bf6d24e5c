package mapplot

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

// ErrNoData is returned when a slice has no finite value to contour.
var ErrNoData = errors.New("slice has no data")

// dataRange returns the extent of the finite values of g.
func dataRange(g plotter.GridXYZ) (lo, hi float64, err error) {
	lo, hi = math.Inf(1), math.Inf(-1)
	c, r := g.Dims()
	for i := 0; i < c; i++ {
		for j := 0; j < r; j++ {
			v := g.Z(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if lo > hi {
		return 0, 0, ErrNoData
	}
	return lo, hi, nil
}

// rangeLevels returns n evenly spaced levels from lo to hi.
func rangeLevels(vr ValueRange) ([]float64, error) {
	if vr.Levels < 2 {
		return nil, fmt.Errorf("value range needs at least 2 levels, got %d", vr.Levels)
	}
	if !(vr.Min < vr.Max) {
		return nil, fmt.Errorf("value range minimum %v not below maximum %v", vr.Min, vr.Max)
	}
	return span(vr.Levels, vr.Min, vr.Max), nil
}

// niceLevels returns at most n+1 bands of round width covering [lo, hi].
func niceLevels(lo, hi float64, n int) []float64 {
	if n < 1 {
		n = 1
	}
	if hi <= lo {
		lo, hi = lo-0.5, hi+0.5
	}
	raw := (hi - lo) / float64(n)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	var start, stop, step float64
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		step = m * mag
		start = math.Floor(lo/step) * step
		stop = math.Ceil(hi/step) * step
		if math.Round((stop-start)/step) <= float64(n+1) {
			break
		}
	}
	count := int(math.Round((stop-start)/step)) + 1
	if count < 2 {
		count = 2
	}
	return span(count, start, stop)
}

// span is floats.Span with exact end points.
func span(n int, lo, hi float64) []float64 {
	levels := floats.Span(make([]float64, n), lo, hi)
	levels[0], levels[n-1] = lo, hi
	return levels
}

// band returns the index of the band [levels[i], levels[i+1]) holding v, or
// NaN when v lies outside the levels. The top level belongs to the last band.
func band(levels []float64, v float64) float64 {
	last := len(levels) - 1
	if math.IsNaN(v) || v < levels[0] || v > levels[last] {
		return math.NaN()
	}
	i := sort.SearchFloat64s(levels, v)
	switch {
	case levels[i] != v:
		i--
	case i == last:
		i = last - 1
	}
	return float64(i)
}

// banded quantises a grid to contour band indices.
type banded struct {
	plotter.GridXYZ
	levels []float64
}

func (b banded) Z(c, r int) float64 {
	return band(b.levels, b.GridXYZ.Z(c, r))
}

// levelTicks labels the levels with three decimals, thinning the labels so
// that at most maxLabels are shown.
func levelTicks(levels []float64) plot.Ticker {
	const maxLabels = 8
	every := (len(levels) + maxLabels - 1) / maxLabels
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		ticks := make([]plot.Tick, 0, len(levels))
		for i, l := range levels {
			t := plot.Tick{Value: l}
			if i%every == 0 {
				t.Label = fmt.Sprintf("%.3f", l)
			}
			ticks = append(ticks, t)
		}
		return ticks
	})
}

func lonLabel(v float64) string {
	switch v = math.Round(v); {
	case v > 0:
		return fmt.Sprintf("%.0f°E", v)
	case v < 0:
		return fmt.Sprintf("%.0f°W", -v)
	}
	return "0°"
}

func latLabel(v float64) string {
	switch v = math.Round(v); {
	case v > 0:
		return fmt.Sprintf("%.0f°N", v)
	case v < 0:
		return fmt.Sprintf("%.0f°S", -v)
	}
	return "0°"
}

// degreeTicks relabels the default ticks with format.
func degreeTicks(format func(float64) string) plot.Ticker {
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		ticks := plot.DefaultTicks{}.Ticks(min, max)
		for i := range ticks {
			if ticks[i].Label != "" {
				ticks[i].Label = format(ticks[i].Value)
			}
		}
		return ticks
	})
}
