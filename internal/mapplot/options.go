package mapplot

import (
	"fmt"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/vg"
)

// Orientation is the placement of the colorbar.
type Orientation int

const (
	// Horizontal puts the colorbar below the map.
	Horizontal Orientation = iota
	// Vertical puts the colorbar right of the map.
	Vertical
)

// ParseOrientation parses "horizontal" or "vertical".
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(s) {
	case "horizontal", "h", "":
		return Horizontal, nil
	case "vertical", "v":
		return Vertical, nil
	}
	return Horizontal, fmt.Errorf("unknown colorbar orientation %q", s)
}

// FontSizes are the text sizes of the figure.
type FontSizes struct {
	Title    vg.Length
	Labels   vg.Length
	ColorBar vg.Length
}

// ValueRange fixes the contour levels to Levels evenly spaced values from Min
// to Max inclusive.
type ValueRange struct {
	Min, Max float64
	Levels   int
}

// Basemap holds the shapefiles drawn over the data. Empty paths are skipped.
type Basemap struct {
	Land       string
	Coastlines string
	Borders    string
}

// Options control the figure.
type Options struct {
	Title       string
	ColorMap    string
	Orientation Orientation
	FontSizes   FontSizes
	// Range, if set, overrides Levels.
	Range *ValueRange
	// Levels is the approximate number of automatically chosen levels.
	Levels  int
	Basemap Basemap
	Width   vg.Length
	Height  vg.Length
	DPI     int
}

const (
	defaultLevels = 15
	defaultDPI    = 500
)

// DefaultOptions returns the options used for unset fields.
func DefaultOptions() Options {
	return Options{
		Title:    "Map of Eta",
		ColorMap: "kindlmann",
		FontSizes: FontSizes{
			Title:    vg.Points(14),
			Labels:   vg.Points(12),
			ColorBar: vg.Points(12),
		},
		Levels: defaultLevels,
		Width:  12 * vg.Inch,
		Height: 8 * vg.Inch,
		DPI:    defaultDPI,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Title == "" {
		o.Title = d.Title
	}
	if o.ColorMap == "" {
		o.ColorMap = d.ColorMap
	}
	if o.FontSizes.Title <= 0 {
		o.FontSizes.Title = d.FontSizes.Title
	}
	if o.FontSizes.Labels <= 0 {
		o.FontSizes.Labels = d.FontSizes.Labels
	}
	if o.FontSizes.ColorBar <= 0 {
		o.FontSizes.ColorBar = d.FontSizes.ColorBar
	}
	if o.Levels <= 0 {
		o.Levels = d.Levels
	}
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.DPI <= 0 {
		o.DPI = d.DPI
	}
	return o
}

var colorMaps = map[string]func() palette.ColorMap{
	"kindlmann":          moreland.Kindlmann,
	"extendedkindlmann":  moreland.ExtendedKindlmann,
	"blackbody":          moreland.BlackBody,
	"extendedblackbody":  moreland.ExtendedBlackBody,
	"smoothbluered":      moreland.SmoothBlueRed,
	"smoothbluetan":      moreland.SmoothBlueTan,
	"smoothgreenpurple":  moreland.SmoothGreenPurple,
	"smoothgreenred":     moreland.SmoothGreenRed,
	"smoothpurpleorange": moreland.SmoothPurpleOrange,
}

// ColorMap returns the named color map. A "_r" suffix reverses it.
func ColorMap(name string) (palette.ColorMap, error) {
	name = strings.ToLower(name)
	base, reversed := strings.CutSuffix(name, "_r")
	f, ok := colorMaps[base]
	if !ok {
		return nil, fmt.Errorf("unknown color map %q", name)
	}
	if reversed {
		return palette.Reverse(f()), nil
	}
	return f(), nil
}
