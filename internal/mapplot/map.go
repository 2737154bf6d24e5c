// Package mapplot renders latitude × longitude slices of efficiency files as
// filled contour maps on a plate carrée frame.
package mapplot

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/skratchdot/open-golang/open"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const colorBarLabel = "η Carnot"

var (
	// ErrEmptySlice is returned for a slice without rows or columns.
	ErrEmptySlice = errors.New("slice has no cells")
	// ErrFormat is returned for image file extensions that cannot be written.
	ErrFormat = errors.New("unsupported image format")
)

var gridStyle = draw.LineStyle{
	Color:  color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0x80},
	Width:  vg.Points(0.5),
	Dashes: []vg.Length{vg.Points(4), vg.Points(2)},
}

// bandPalette is a palette holding one color per contour band.
type bandPalette []color.Color

func (p bandPalette) Colors() []color.Color { return p }

// Levels returns the contour levels Draw would use for g.
func Levels(g plotter.GridXYZ, opts Options) ([]float64, error) {
	opts = opts.withDefaults()
	if opts.Range != nil {
		return rangeLevels(*opts.Range)
	}
	lo, hi, err := dataRange(g)
	if err != nil {
		return nil, err
	}
	return niceLevels(lo, hi, opts.Levels), nil
}

// Draw renders g. Columns of g are longitudes and rows latitudes, in degrees.
func Draw(g plotter.GridXYZ, opts Options) (*vgimg.Canvas, error) {
	opts = opts.withDefaults()
	if c, r := g.Dims(); c == 0 || r == 0 {
		return nil, ErrEmptySlice
	}
	levels, err := Levels(g, opts)
	if err != nil {
		return nil, err
	}
	cm, err := ColorMap(opts.ColorMap)
	if err != nil {
		return nil, err
	}
	nBands := len(levels) - 1
	cm.SetMin(levels[0])
	cm.SetMax(levels[nBands])
	bands := make(bandPalette, nBands)
	for i := range bands {
		bands[i], err = cm.At((levels[i] + levels[i+1]) / 2)
		if err != nil {
			return nil, err
		}
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.Title.TextStyle.Font.Size = opts.FontSizes.Title
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	for _, a := range []*plot.Axis{&p.X, &p.Y} {
		a.Label.TextStyle.Font.Size = opts.FontSizes.Labels
		a.Tick.Label.Font.Size = opts.FontSizes.Labels
	}
	p.X.Tick.Marker = degreeTicks(lonLabel)
	p.Y.Tick.Marker = degreeTicks(latLabel)

	hm := plotter.NewHeatMap(banded{GridXYZ: g, levels: levels}, bands)
	hm.Min, hm.Max = 0, math.Max(float64(nBands-1), 1)
	hm.NaN = color.Transparent
	p.Add(hm)

	xmin, xmax, ymin, ymax := hm.DataRange()
	extent := &geom.Bounds{
		Min: geom.Point{X: xmin, Y: ymin},
		Max: geom.Point{X: xmax, Y: ymax},
	}
	if err := addBasemap(p, opts.Basemap, extent); err != nil {
		return nil, err
	}

	grid := plotter.NewGrid()
	grid.Vertical = gridStyle
	grid.Horizontal = gridStyle
	p.Add(grid)

	p.X.Min, p.X.Max = xmin, xmax
	p.Y.Min, p.Y.Max = ymin, ymax

	cb := plot.New()
	cb.Add(&plotter.ColorBar{
		ColorMap: cm,
		Vertical: opts.Orientation == Vertical,
		Colors:   nBands,
	})
	axis := &cb.X
	if opts.Orientation == Vertical {
		cb.HideX()
		axis = &cb.Y
	} else {
		cb.HideY()
	}
	axis.Label.Text = colorBarLabel
	axis.Label.TextStyle.Font.Size = opts.FontSizes.ColorBar
	axis.Tick.Label.Font.Size = opts.FontSizes.ColorBar
	axis.Tick.Marker = levelTicks(levels)

	c := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseDPI(opts.DPI))
	mapArea, barArea := layout(draw.New(c), opts)
	p.Draw(fitAspect(mapArea, (xmax-xmin)/(ymax-ymin)))
	cb.Draw(barArea)
	return c, nil
}

// layout splits the figure between the map and the colorbar.
func layout(dc draw.Canvas, opts Options) (mapArea, barArea draw.Canvas) {
	w, h := opts.Width, opts.Height
	if opts.Orientation == Vertical {
		bw := w * 0.12
		return draw.Crop(dc, 0, -bw, 0, 0), draw.Crop(dc, w-bw, 0, h*0.1, -h*0.1)
	}
	bh := h * 0.15
	return draw.Crop(dc, 0, 0, bh, 0), draw.Crop(dc, w*0.1, -w*0.1, 0, -(h - bh))
}

// fitAspect shrinks c around its center so that one degree of longitude and
// one of latitude have the same length.
func fitAspect(c draw.Canvas, aspect float64) draw.Canvas {
	size := c.Rectangle.Size()
	if aspect <= 0 || math.IsInf(aspect, 0) || math.IsNaN(aspect) {
		return c
	}
	if float64(size.X/size.Y) > aspect {
		pad := (size.X - size.Y*vg.Length(aspect)) / 2
		return draw.Crop(c, pad, -pad, 0, 0)
	}
	pad := (size.Y - size.X/vg.Length(aspect)) / 2
	return draw.Crop(c, 0, 0, pad, -pad)
}

// Save writes the figure to path as PNG, JPEG or TIFF depending on the file
// extension.
func Save(path string, c *vgimg.Canvas) error {
	var w io.WriterTo
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		w = vgimg.PngCanvas{Canvas: c}
	case ".jpg", ".jpeg":
		w = vgimg.JpegCanvas{Canvas: c}
	case ".tif", ".tiff":
		w = vgimg.TiffCanvas{Canvas: c}
	default:
		return fmt.Errorf("%w: %q", ErrFormat, ext)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := w.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Plot draws g and saves it to path.
func Plot(path string, g plotter.GridXYZ, opts Options) error {
	c, err := Draw(g, opts)
	if err != nil {
		return err
	}
	return Save(path, c)
}

// Show opens an image file in the system viewer.
func Show(path string) error {
	return open.Run(path)
}
