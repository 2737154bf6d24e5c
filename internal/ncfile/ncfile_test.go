package ncfile

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/etagrid/internal/cftime"
	"github.com/rtm0/etagrid/internal/eta"
	"github.com/rtm0/etagrid/internal/grid"
)

func testGrid(t *testing.T) (*grid.Grid, []eta.Observation) {
	t.Helper()
	obs := []eta.Observation{
		{Date: time.Date(2004, 1, 16, 0, 0, 0, 0, time.UTC), Depth: 5, Longitude: -20, Latitude: 10, Eta: 0.125},
		{Date: time.Date(2004, 1, 16, 0, 0, 0, 0, time.UTC), Depth: 5, Longitude: -19.5, Latitude: 10, Eta: 0},
		{Date: time.Date(2004, 1, 16, 0, 0, 0, 0, time.UTC), Depth: 5, Longitude: -20, Latitude: 10.5, Eta: math.NaN()},
		{Date: time.Date(2004, 2, 15, 12, 0, 0, 0, time.UTC), Depth: 5, Longitude: -19.5, Latitude: 10.5, Eta: 0.375},
		{Date: time.Date(2004, 2, 15, 12, 0, 0, 0, time.UTC), Depth: 10, Longitude: -20, Latitude: 10, Eta: 0.25},
	}
	g, err := grid.FromObservations(obs)
	require.NoError(t, err)
	return g, obs
}

func TestRoundTrip(t *testing.T) {
	g, obs := testGrid(t)
	path := filepath.Join(t.TempDir(), "out.nc")
	require.NoError(t, Write(path, g, Metadata{Title: "test", Source: "unit test"}))

	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()

	got, err := d.Grid()
	require.NoError(t, err)
	assert.Equal(t, g.Time, got.Time)
	assert.Equal(t, g.Depth, got.Depth)
	assert.Equal(t, g.Latitude, got.Latitude)
	assert.Equal(t, g.Longitude, got.Longitude)
	assert.Equal(t, g.Count(), got.Count())
	for i, want := range g.Eta.Elements {
		if math.IsNaN(want) {
			assert.True(t, math.IsNaN(got.Eta.Elements[i]), "cell %d", i)
			continue
		}
		assert.Equal(t, want, got.Eta.Elements[i], "cell %d", i)
	}

	axis, err := d.TimeAxis()
	require.NoError(t, err)
	assert.True(t, axis.Equal(cftime.DefaultAxis()))

	times, err := d.Times()
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.WithinDuration(t, obs[0].Date, times[0], time.Second)
	assert.WithinDuration(t, obs[3].Date, times[1], time.Second)
}

func TestTimeAttributes(t *testing.T) {
	g, _ := testGrid(t)
	path := filepath.Join(t.TempDir(), "out.nc")
	require.NoError(t, Write(path, g, Metadata{}))

	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()

	vg, err := d.nc.GetVarGetter(VarTime)
	require.NoError(t, err)
	units, ok := vg.Attributes().Get("units")
	require.True(t, ok)
	assert.Equal(t, "days since 1900-01-01 00:00:00", units)
	calendar, ok := vg.Attributes().Get("calendar")
	require.True(t, ok)
	assert.Equal(t, "gregorian", calendar)
}

func TestSlice(t *testing.T) {
	g, _ := testGrid(t)
	path := filepath.Join(t.TempDir(), "out.nc")
	require.NoError(t, Write(path, g, Metadata{}))

	s, err := ReadSlice(path, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2004, 2, 15, 12, 0, 0, 0, time.UTC), s.Time)
	assert.Equal(t, 5.0, s.Depth)
	assert.Equal(t, []float64{10, 10.5}, s.Latitude)
	assert.Equal(t, []float64{-20, -19.5}, s.Longitude)

	c, r := s.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)
	assert.Equal(t, 0.375, s.Z(1, 1))
	assert.Equal(t, -19.5, s.X(1))
	assert.Equal(t, 10.5, s.Y(1))
	assert.True(t, math.IsNaN(s.Z(0, 0)))

	_, err = ReadSlice(path, 2, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = ReadSlice(path, 0, -1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestTimeIndex(t *testing.T) {
	g := grid.New([]float64{0, 30, 60}, []float64{5}, []float64{1}, []float64{2})
	g.SetAt(1, 0, 0, 0, 0)
	path := filepath.Join(t.TempDir(), "out.nc")
	require.NoError(t, Write(path, g, Metadata{}))

	i, err := TimeIndex(path, cftime.Epoch.AddDate(0, 0, 40))
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	i, err = TimeIndex(path, cftime.Epoch.AddDate(0, 0, 59))
	require.NoError(t, err)
	assert.Equal(t, 2, i)
}

func TestTimeIndexNoTimeAxis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notime.nc")
	cw, err := cdf.OpenWriter(path)
	require.NoError(t, err)
	attrs, err := util.NewOrderedMap(nil, map[string]interface{}{})
	require.NoError(t, err)
	require.NoError(t, cw.AddVar(VarEta, api.Variable{
		Values:     []float64{1, 2, 3},
		Dimensions: []string{"x"},
		Attributes: attrs,
	}))
	require.NoError(t, cw.Close())

	_, err = TimeIndex(path, cftime.Epoch)
	assert.ErrorIs(t, err, ErrNoTimeAxis)

	_, err = ReadSlice(path, 0, 0)
	assert.ErrorIs(t, err, ErrNoTimeAxis)
}

func TestWriteEmptyGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.nc")
	err := Write(path, grid.New(nil, nil, nil, nil), Metadata{})
	assert.ErrorIs(t, err, ErrEmptyGrid)
	assert.NoFileExists(t, path)
}
