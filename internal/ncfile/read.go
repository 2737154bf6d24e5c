package ncfile

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/rtm0/etagrid/internal/cftime"
	"github.com/rtm0/etagrid/internal/grid"
)

var (
	// ErrNoTimeAxis is returned when a file has no time variable.
	ErrNoTimeAxis = errors.New("no time variable")
	// ErrIndexOutOfRange is returned for time or depth indices outside the
	// axes of a file.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Dataset is an open efficiency file.
type Dataset struct {
	nc   api.Group
	path string
}

// Open opens the NetCDF file at path.
func Open(path string) (*Dataset, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &Dataset{nc: nc, path: path}, nil
}

// Close closes the dataset.
func (d *Dataset) Close() {
	d.nc.Close()
}

// Summary returns the summary information about the dataset suitable for
// logging.
func (d *Dataset) Summary() []any {
	summary := []any{"file", d.path, "vars", d.nc.ListVariables()}
	for _, name := range etaDims {
		if vg, err := d.nc.GetVarGetter(name); err == nil {
			summary = append(summary, name+"Cnt", vg.Len())
		}
	}
	return summary
}

func (d *Dataset) has(name string) bool {
	return slices.Contains(d.nc.ListVariables(), name)
}

// Axis returns the values of a 1-D coordinate variable.
func (d *Dataset) Axis(name string) ([]float64, error) {
	if !d.has(name) {
		return nil, fmt.Errorf("%s: no variable %q", d.path, name)
	}
	return dimValues(d.nc, name)
}

func dimValues(nc api.Group, name string) ([]float64, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, err
	}
	v, err := vg.Values()
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case []float64:
		return v, nil
	case []float32:
		return toFloat64s(v), nil
	case []int64:
		return toFloat64s(v), nil
	case []int32:
		return toFloat64s(v), nil
	case []int16:
		return toFloat64s(v), nil
	case []int8:
		return toFloat64s(v), nil
	}
	return nil, fmt.Errorf("variable %q: unsupported type %T", name, v)
}

func toFloat64s[T float32 | int64 | int32 | int16 | int8](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// TimeAxis returns the decoder described by the units and calendar
// attributes of the time variable. Missing attributes fall back to
// cftime.Units and the standard calendar.
func (d *Dataset) TimeAxis() (cftime.Axis, error) {
	if !d.has(VarTime) {
		return cftime.Axis{}, fmt.Errorf("%s: %w", d.path, ErrNoTimeAxis)
	}
	vg, err := d.nc.GetVarGetter(VarTime)
	if err != nil {
		return cftime.Axis{}, err
	}
	units, calendar := cftime.Units, ""
	if attrs := vg.Attributes(); attrs != nil {
		if v, ok := attrs.Get("units"); ok {
			if s, ok := v.(string); ok {
				units = s
			}
		}
		if v, ok := attrs.Get("calendar"); ok {
			if s, ok := v.(string); ok {
				calendar = s
			}
		}
	}
	return cftime.NewAxis(units, calendar)
}

// Times returns the time axis as timestamps.
func (d *Dataset) Times() ([]time.Time, error) {
	axis, err := d.TimeAxis()
	if err != nil {
		return nil, err
	}
	vals, err := dimValues(d.nc, VarTime)
	if err != nil {
		return nil, err
	}
	return axis.Times(vals), nil
}

// TimeIndex returns the index of the time step closest to target.
func (d *Dataset) TimeIndex(target time.Time) (int, error) {
	times, err := d.Times()
	if err != nil {
		return 0, err
	}
	i := cftime.Nearest(times, target)
	if i < 0 {
		return 0, fmt.Errorf("%s: time axis is empty: %w", d.path, ErrIndexOutOfRange)
	}
	return i, nil
}

// TimeIndex opens path and returns the index of the time step closest to
// target.
func TimeIndex(path string, target time.Time) (int, error) {
	d, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer d.Close()
	return d.TimeIndex(target)
}

func (d *Dataset) axes() (times, depths, lats, lons []float64, err error) {
	if !d.has(VarTime) {
		return nil, nil, nil, nil, fmt.Errorf("%s: %w", d.path, ErrNoTimeAxis)
	}
	vals := make([][]float64, len(etaDims))
	for i, name := range etaDims {
		vals[i], err = d.Axis(name)
		if err != nil {
			return nil, nil, nil, nil, err
		}
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}

func (d *Dataset) etaGetter() (api.VarGetter, error) {
	vg, err := d.nc.GetVarGetter(VarEta)
	if err != nil {
		return nil, fmt.Errorf("%s: variable %q: %w", d.path, VarEta, err)
	}
	if dims := vg.Dimensions(); !slices.Equal(dims, etaDims) {
		return nil, fmt.Errorf("%s: variable %q has dimensions %v, want %v", d.path, VarEta, dims, etaDims)
	}
	return vg, nil
}

// Grid reads the whole file. The time axis is converted to days since
// cftime.Epoch if the file uses a different encoding.
func (d *Dataset) Grid() (*grid.Grid, error) {
	times, depths, lats, lons, err := d.axes()
	if err != nil {
		return nil, err
	}
	axis, err := d.TimeAxis()
	if err != nil {
		return nil, err
	}
	if !axis.Equal(cftime.DefaultAxis()) {
		for i, v := range times {
			times[i] = cftime.Days(axis.Time(v))
		}
	}
	vg, err := d.etaGetter()
	if err != nil {
		return nil, err
	}
	v, err := vg.Values()
	if err != nil {
		return nil, err
	}
	vals, ok := v.([][][][]float64)
	if !ok {
		return nil, fmt.Errorf("%s: variable %q: unsupported type %T", d.path, VarEta, v)
	}

	g := grid.New(times, depths, lats, lons)
	for t := range vals {
		for dp := range vals[t] {
			for la := range vals[t][dp] {
				for lo, x := range vals[t][dp][la] {
					g.SetAt(x, t, dp, la, lo)
				}
			}
		}
	}
	return g, nil
}

// Slice is a latitude × longitude section of a file at one time and depth.
// It implements plotter.GridXYZ with columns along longitude and rows along
// latitude.
type Slice struct {
	Time      time.Time
	Depth     float64
	Latitude  []float64
	Longitude []float64
	// Eta is indexed [latitude][longitude]; NaN marks missing cells.
	Eta [][]float64
}

// Dims returns the number of longitudes and latitudes.
func (s *Slice) Dims() (c, r int) { return len(s.Longitude), len(s.Latitude) }

// Z returns the value at longitude c and latitude r.
func (s *Slice) Z(c, r int) float64 { return s.Eta[r][c] }

// X returns longitude c.
func (s *Slice) X(c int) float64 { return s.Longitude[c] }

// Y returns latitude r.
func (s *Slice) Y(r int) float64 { return s.Latitude[r] }

// Slice reads the section at the given time and depth indices. Only the
// requested time step is loaded from disk.
func (d *Dataset) Slice(timeIndex, depthIndex int) (*Slice, error) {
	times, depths, lats, lons, err := d.axes()
	if err != nil {
		return nil, err
	}
	if timeIndex < 0 || timeIndex >= len(times) {
		return nil, fmt.Errorf("time index %d of %d: %w", timeIndex, len(times), ErrIndexOutOfRange)
	}
	if depthIndex < 0 || depthIndex >= len(depths) {
		return nil, fmt.Errorf("depth index %d of %d: %w", depthIndex, len(depths), ErrIndexOutOfRange)
	}
	axis, err := d.TimeAxis()
	if err != nil {
		return nil, err
	}
	vg, err := d.etaGetter()
	if err != nil {
		return nil, err
	}

	begin := int64(timeIndex)
	v, err := vg.GetSlice(begin, begin+1)
	if err != nil {
		return nil, err
	}
	vals, ok := v.([][][][]float64)
	if !ok || len(vals) != 1 {
		return nil, fmt.Errorf("%s: variable %q: unsupported slice %T", d.path, VarEta, v)
	}
	return &Slice{
		Time:      axis.Time(times[timeIndex]),
		Depth:     depths[depthIndex],
		Latitude:  lats,
		Longitude: lons,
		Eta:       vals[0][depthIndex],
	}, nil
}

// ReadSlice opens path and reads one section.
func ReadSlice(path string, timeIndex, depthIndex int) (*Slice, error) {
	d, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.Slice(timeIndex, depthIndex)
}
