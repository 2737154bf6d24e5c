// Package cftime converts between calendar timestamps and the numeric time
// coordinates stored in NetCDF files ("<unit> since <reference date>").
package cftime

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gonum.org/v1/gonum/floats"
)

// TZ=UTC date --date="1900-01-01 00:00:00" +%s
const unixSecs1900 = -2208988800

const (
	// Units is the units attribute written on every time axis.
	Units = "days since 1900-01-01 00:00:00"
	// Calendar is the calendar attribute written on every time axis.
	Calendar = "gregorian"

	secsPerDay = 86400
)

// Epoch is the reference timestamp all stored time values are counted from.
var Epoch = time.Unix(unixSecs1900, 0).UTC()

var (
	// ErrUnits is returned when a units attribute is not of the form
	// "<unit> since <date>".
	ErrUnits = errors.New("unsupported time units")
	// ErrCalendar is returned for calendars other than the Gregorian one.
	ErrCalendar = errors.New("unsupported calendar")
)

// Days returns the number of days between Epoch and t.
func Days(t time.Time) float64 {
	return float64(t.Unix()-unixSecs1900)/secsPerDay + float64(t.Nanosecond())/(secsPerDay*1e9)
}

// Time is the inverse of Days.
func Time(days float64) time.Time {
	return fromSeconds(unixSecs1900, days*secsPerDay)
}

func fromSeconds(epochUnix int64, secs float64) time.Time {
	whole := math.Floor(secs)
	nsec := math.Round((secs - whole) * 1e9)
	return time.Unix(epochUnix+int64(whole), int64(nsec)).UTC()
}

// Axis decodes the values of a time coordinate variable.
type Axis struct {
	Epoch time.Time
	Unit  time.Duration
}

var unitNames = map[string]time.Duration{
	"day":     24 * time.Hour,
	"days":    24 * time.Hour,
	"d":       24 * time.Hour,
	"hour":    time.Hour,
	"hours":   time.Hour,
	"h":       time.Hour,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"min":     time.Minute,
	"second":  time.Second,
	"seconds": time.Second,
	"s":       time.Second,
}

// NewAxis parses the units and calendar attributes of a time variable.
// An empty calendar means the standard (Gregorian) one.
func NewAxis(units, calendar string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(calendar)) {
	case "", "gregorian", "standard", "proleptic_gregorian":
	default:
		return Axis{}, fmt.Errorf("%w: %q", ErrCalendar, calendar)
	}

	fields := strings.Fields(units)
	if len(fields) < 3 || strings.ToLower(fields[1]) != "since" {
		return Axis{}, fmt.Errorf("%w: %q", ErrUnits, units)
	}
	unit, ok := unitNames[strings.ToLower(fields[0])]
	if !ok {
		return Axis{}, fmt.Errorf("%w: unknown unit %q", ErrUnits, fields[0])
	}
	ref := strings.Join(fields[2:], " ")
	epoch, err := cast.ToTimeInDefaultLocationE(ref, time.UTC)
	if err != nil {
		return Axis{}, fmt.Errorf("%w: reference date %q: %v", ErrUnits, ref, err)
	}
	return Axis{Epoch: epoch.UTC(), Unit: unit}, nil
}

// DefaultAxis is the axis described by Units and Calendar.
func DefaultAxis() Axis {
	return Axis{Epoch: Epoch, Unit: 24 * time.Hour}
}

// Equal reports whether a and b decode values identically.
func (a Axis) Equal(b Axis) bool {
	return a.Unit == b.Unit && a.Epoch.Equal(b.Epoch)
}

// Time converts a coordinate value to a timestamp.
func (a Axis) Time(v float64) time.Time {
	return fromSeconds(a.Epoch.Unix(), v*a.Unit.Seconds()).Add(time.Duration(a.Epoch.Nanosecond()))
}

// Times converts every coordinate value in vs.
func (a Axis) Times(vs []float64) []time.Time {
	ts := make([]time.Time, len(vs))
	for i, v := range vs {
		ts[i] = a.Time(v)
	}
	return ts
}

// Value converts a timestamp to a coordinate value.
func (a Axis) Value(t time.Time) float64 {
	return seconds(t, a.Epoch) / a.Unit.Seconds()
}

// seconds returns t-u in seconds without the 292 year limit of time.Duration.
func seconds(t, u time.Time) float64 {
	return float64(t.Unix()-u.Unix()) + float64(t.Nanosecond()-u.Nanosecond())/1e9
}

// Nearest returns the index of the timestamp closest to target, or -1 when
// times is empty. Ties go to the lowest index.
func Nearest(times []time.Time, target time.Time) int {
	if len(times) == 0 {
		return -1
	}
	deltas := make([]float64, len(times))
	for i, t := range times {
		deltas[i] = math.Abs(seconds(t, target))
	}
	return floats.MinIdx(deltas)
}
