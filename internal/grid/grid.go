// Package grid pivots efficiency records into a 4-D array indexed by
// (time, depth, latitude, longitude).
package grid

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/ctessum/sparse"

	"github.com/rtm0/etagrid/internal/cftime"
	"github.com/rtm0/etagrid/internal/eta"
)

var (
	// ErrDuplicateKey is returned when two records share the same
	// (time, depth, latitude, longitude) coordinates.
	ErrDuplicateKey = errors.New("duplicate grid key")
	// ErrInvalidCoordinate is returned for NaN coordinates.
	ErrInvalidCoordinate = errors.New("invalid grid coordinate")
)

// Point is a single value at known coordinates. Time is in days since
// cftime.Epoch.
type Point struct {
	Time      float64
	Depth     float64
	Latitude  float64
	Longitude float64
	Eta       float64
}

// Grid is a dense (time, depth, latitude, longitude) array. The axes are
// sorted ascending and free of duplicates; cells without data hold NaN.
type Grid struct {
	Time      []float64
	Depth     []float64
	Latitude  []float64
	Longitude []float64

	Eta *sparse.DenseArray
}

// New returns a grid over the given axes with every cell missing.
func New(time, depth, latitude, longitude []float64) *Grid {
	g := &Grid{
		Time:      time,
		Depth:     depth,
		Latitude:  latitude,
		Longitude: longitude,
		Eta:       sparse.ZerosDense(len(time), len(depth), len(latitude), len(longitude)),
	}
	for i := range g.Eta.Elements {
		g.Eta.Elements[i] = math.NaN()
	}
	return g
}

// Shape returns the lengths of the four axes.
func (g *Grid) Shape() [4]int {
	return [4]int{len(g.Time), len(g.Depth), len(g.Latitude), len(g.Longitude)}
}

// At returns the value at the given axis indices.
func (g *Grid) At(t, d, la, lo int) float64 {
	return g.Eta.Get(t, d, la, lo)
}

// SetAt stores v at the given axis indices. DenseArray.Set ignores zeros,
// which would leave a genuine 0 reading as missing.
func (g *Grid) SetAt(v float64, t, d, la, lo int) {
	g.Eta.Elements[g.Eta.Index1d(t, d, la, lo)] = v
}

// Count returns the number of non-missing cells.
func (g *Grid) Count() int {
	n := 0
	for _, v := range g.Eta.Elements {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Nested returns the values as [time][depth][latitude][longitude].
func (g *Grid) Nested() [][][][]float64 {
	s := g.Shape()
	out := make([][][][]float64, s[0])
	for t := range out {
		out[t] = make([][][]float64, s[1])
		for d := range out[t] {
			out[t][d] = make([][]float64, s[2])
			for la := range out[t][d] {
				start := ((t*s[1]+d)*s[2] + la) * s[3]
				row := make([]float64, s[3])
				copy(row, g.Eta.Elements[start:start+s[3]])
				out[t][d][la] = row
			}
		}
	}
	return out
}

// Pivot builds a grid whose axes are the sorted distinct coordinates of
// points. Every point must have unique coordinates.
func Pivot(points []Point) (*Grid, error) {
	type key [4]float64
	seen := make(map[key]struct{}, len(points))
	for i, p := range points {
		k := key{p.Time, p.Depth, p.Latitude, p.Longitude}
		for _, c := range k {
			if math.IsNaN(c) {
				return nil, fmt.Errorf("%w: point %d has NaN coordinate", ErrInvalidCoordinate, i)
			}
		}
		if _, ok := seen[k]; ok {
			return nil, fmt.Errorf("%w: time=%v depth=%v latitude=%v longitude=%v",
				ErrDuplicateKey, p.Time, p.Depth, p.Latitude, p.Longitude)
		}
		seen[k] = struct{}{}
	}

	axis := func(f func(Point) float64) ([]float64, map[float64]int) {
		vals := make([]float64, 0, len(points))
		for _, p := range points {
			vals = append(vals, f(p))
		}
		slices.Sort(vals)
		vals = slices.Compact(vals)
		idx := make(map[float64]int, len(vals))
		for i, v := range vals {
			idx[v] = i
		}
		return vals, idx
	}
	times, ti := axis(func(p Point) float64 { return p.Time })
	depths, di := axis(func(p Point) float64 { return p.Depth })
	lats, lai := axis(func(p Point) float64 { return p.Latitude })
	lons, loi := axis(func(p Point) float64 { return p.Longitude })

	g := New(times, depths, lats, lons)
	for _, p := range points {
		g.SetAt(p.Eta, ti[p.Time], di[p.Depth], lai[p.Latitude], loi[p.Longitude])
	}
	return g, nil
}

// FromObservations pivots observations using each observation's own date as
// its time coordinate.
func FromObservations(obs []eta.Observation) (*Grid, error) {
	points := make([]Point, len(obs))
	for i, o := range obs {
		points[i] = Point{
			Time:      cftime.Days(o.Date),
			Depth:     o.Depth,
			Latitude:  o.Latitude,
			Longitude: o.Longitude,
			Eta:       o.Eta,
		}
	}
	return Pivot(points)
}

// FromAggregates pivots monthly means using the middle of each month as its
// time coordinate.
func FromAggregates(aggs []eta.Aggregate) (*Grid, error) {
	points := make([]Point, len(aggs))
	for i, a := range aggs {
		points[i] = Point{
			Time:      cftime.Days(a.Month.Midpoint()),
			Depth:     a.Depth,
			Latitude:  a.Latitude,
			Longitude: a.Longitude,
			Eta:       a.Eta,
		}
	}
	return Pivot(points)
}
