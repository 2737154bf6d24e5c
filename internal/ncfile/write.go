// Package ncfile stores efficiency grids in NetCDF files and reads them back.
package ncfile

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"github.com/rtm0/etagrid/internal/cftime"
	"github.com/rtm0/etagrid/internal/grid"
)

// Variable and dimension names.
const (
	VarTime      = "time"
	VarDepth     = "depth"
	VarLatitude  = "latitude"
	VarLongitude = "longitude"
	VarEta       = "eta"
)

// ErrEmptyGrid is returned when a grid without cells is written.
var ErrEmptyGrid = errors.New("grid has no cells")

var etaDims = []string{VarTime, VarDepth, VarLatitude, VarLongitude}

// Metadata holds the optional global attributes of a file.
type Metadata struct {
	Title   string
	Source  string
	History string
}

func (m Metadata) attributes() (api.AttributeMap, error) {
	var keys []string
	vals := map[string]interface{}{}
	for _, kv := range [][2]string{{"title", m.Title}, {"source", m.Source}, {"history", m.History}} {
		if kv[1] == "" {
			continue
		}
		keys = append(keys, kv[0])
		vals[kv[0]] = kv[1]
	}
	return util.NewOrderedMap(keys, vals)
}

type variable struct {
	name   string
	values interface{}
	dims   []string
	keys   []string
	attrs  map[string]interface{}
}

// Write stores g at path. The time axis is annotated with cftime.Units and
// cftime.Calendar. A partially written file is removed on failure.
func Write(path string, g *grid.Grid, meta Metadata) (err error) {
	// NetCDF classic files cannot hold zero-length fixed dimensions.
	for _, n := range g.Shape() {
		if n == 0 {
			return ErrEmptyGrid
		}
	}
	vars := []variable{
		{
			name:   VarTime,
			values: g.Time,
			dims:   []string{VarTime},
			keys:   []string{"standard_name", "units", "calendar", "axis"},
			attrs: map[string]interface{}{
				"standard_name": "time",
				"units":         cftime.Units,
				"calendar":      cftime.Calendar,
				"axis":          "T",
			},
		},
		{
			name:   VarDepth,
			values: g.Depth,
			dims:   []string{VarDepth},
			keys:   []string{"standard_name", "positive", "axis"},
			attrs: map[string]interface{}{
				"standard_name": "depth",
				"positive":      "down",
				"axis":          "Z",
			},
		},
		{
			name:   VarLatitude,
			values: g.Latitude,
			dims:   []string{VarLatitude},
			keys:   []string{"standard_name", "units", "axis"},
			attrs: map[string]interface{}{
				"standard_name": "latitude",
				"units":         "degrees_north",
				"axis":          "Y",
			},
		},
		{
			name:   VarLongitude,
			values: g.Longitude,
			dims:   []string{VarLongitude},
			keys:   []string{"standard_name", "units", "axis"},
			attrs: map[string]interface{}{
				"standard_name": "longitude",
				"units":         "degrees_east",
				"axis":          "X",
			},
		},
		{
			name:   VarEta,
			values: g.Nested(),
			dims:   etaDims,
			keys:   []string{"long_name", "_FillValue"},
			attrs: map[string]interface{}{
				"long_name":  "Carnot efficiency",
				"_FillValue": math.NaN(),
			},
		},
	}

	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cw.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	global, err := meta.attributes()
	if err != nil {
		return err
	}
	if err := cw.AddGlobalAttrs(global); err != nil {
		return fmt.Errorf("global attributes: %w", err)
	}
	for _, v := range vars {
		attrs, err := util.NewOrderedMap(v.keys, v.attrs)
		if err != nil {
			return fmt.Errorf("%s attributes: %w", v.name, err)
		}
		if err := cw.AddVar(v.name, api.Variable{
			Values:     v.values,
			Dimensions: v.dims,
			Attributes: attrs,
		}); err != nil {
			return fmt.Errorf("variable %s: %w", v.name, err)
		}
	}
	return nil
}
