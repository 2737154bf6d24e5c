package eta

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month t falls in.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// First returns midnight of the first day of the month.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Last returns midnight of the last day of the month.
func (m Month) Last() time.Time {
	return m.First().AddDate(0, 1, -1)
}

// Midpoint returns the instant halfway between the first and the last day of
// the month.
func (m Month) Midpoint() time.Time {
	first := m.First()
	return first.Add(m.Last().Sub(first) / 2)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) compare(o Month) int {
	if c := cmp.Compare(m.Year, o.Year); c != 0 {
		return c
	}
	return cmp.Compare(m.Month, o.Month)
}

// Aggregate is the mean efficiency of one cell over one month.
type Aggregate struct {
	Month     Month
	Depth     float64
	Longitude float64
	Latitude  float64

	// Eta is NaN when every observation in the group was missing.
	Eta float64
}

type groupKey struct {
	month     Month
	depth     float64
	longitude float64
	latitude  float64
}

func (k groupKey) compare(o groupKey) int {
	if c := k.month.compare(o.month); c != 0 {
		return c
	}
	if c := cmp.Compare(k.depth, o.depth); c != 0 {
		return c
	}
	if c := cmp.Compare(k.longitude, o.longitude); c != 0 {
		return c
	}
	return cmp.Compare(k.latitude, o.latitude)
}

// MonthlyMean groups observations by (month, depth, longitude, latitude) and
// averages the non-missing values of each group. The result is ordered by
// group key.
func MonthlyMean(obs []Observation) []Aggregate {
	groups := make(map[groupKey][]float64)
	for _, o := range obs {
		k := groupKey{
			month:     MonthOf(o.Date),
			depth:     o.Depth,
			longitude: o.Longitude,
			latitude:  o.Latitude,
		}
		vals, ok := groups[k]
		if !ok {
			vals = []float64{}
		}
		if !o.Missing() {
			vals = append(vals, o.Eta)
		}
		groups[k] = vals
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, groupKey.compare)

	aggs := make([]Aggregate, len(keys))
	for i, k := range keys {
		mean := math.NaN()
		if vals := groups[k]; len(vals) > 0 {
			mean = stat.Mean(vals, nil)
		}
		aggs[i] = Aggregate{
			Month:     k.month,
			Depth:     k.depth,
			Longitude: k.longitude,
			Latitude:  k.latitude,
			Eta:       mean,
		}
	}
	return aggs
}
