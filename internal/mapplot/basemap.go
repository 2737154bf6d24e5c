package mapplot

import (
	"fmt"
	"image/color"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	landColor   = color.Gray{Y: 0xd3} // lightgray
	borderStyle = draw.LineStyle{
		Color:  color.Black,
		Width:  vg.Points(0.75),
		Dashes: []vg.Length{vg.Points(1), vg.Points(2)},
	}
	coastStyle = draw.LineStyle{
		Color: color.Black,
		Width: vg.Points(1),
	}
)

// readShapes returns the geometries of a shapefile that overlap extent.
func readShapes(path string, extent *geom.Bounds) ([]geom.Geom, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer d.Close()

	var gs []geom.Geom
	for {
		g, _, more := d.DecodeRowFields()
		if !more || d.Error() != nil {
			break
		}
		if g == nil || !g.Bounds().Overlaps(extent) {
			continue
		}
		gs = append(gs, g)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return gs, nil
}

func toXYs(pts []geom.Point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, p := range pts {
		xys[i].X, xys[i].Y = p.X, p.Y
	}
	return xys
}

// polygons returns the rings of every polygon in g, grouped by polygon.
func polygons(g geom.Geom) [][]plotter.XYer {
	var polys []geom.Polygon
	switch t := g.(type) {
	case geom.Polygon:
		polys = []geom.Polygon{t}
	case geom.MultiPolygon:
		polys = t
	}
	out := make([][]plotter.XYer, 0, len(polys))
	for _, p := range polys {
		var rings []plotter.XYer
		for _, r := range p {
			if len(r) > 2 {
				rings = append(rings, toXYs(r))
			}
		}
		if len(rings) > 0 {
			out = append(out, rings)
		}
	}
	return out
}

// lines returns every line of g; polygon rings are returned as closed lines.
func lines(g geom.Geom) []plotter.XYs {
	var paths [][]geom.Point
	switch t := g.(type) {
	case geom.LineString:
		paths = append(paths, t)
	case geom.MultiLineString:
		for _, l := range t {
			paths = append(paths, l)
		}
	case geom.Polygon:
		for _, r := range t {
			paths = append(paths, r)
		}
	case geom.MultiPolygon:
		for _, p := range t {
			for _, r := range p {
				paths = append(paths, r)
			}
		}
	}
	out := make([]plotter.XYs, 0, len(paths))
	for _, p := range paths {
		if len(p) > 1 {
			out = append(out, toXYs(p))
		}
	}
	return out
}

// fillLayer adds the polygons of a shapefile filled with fill.
func fillLayer(p *plot.Plot, path string, extent *geom.Bounds, fill color.Color) error {
	gs, err := readShapes(path, extent)
	if err != nil {
		return err
	}
	for _, g := range gs {
		for _, rings := range polygons(g) {
			poly, err := plotter.NewPolygon(rings...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			poly.Color = fill
			poly.LineStyle.Width = 0
			p.Add(poly)
		}
	}
	return nil
}

// lineLayer adds the outlines of a shapefile drawn with style.
func lineLayer(p *plot.Plot, path string, extent *geom.Bounds, style draw.LineStyle) error {
	gs, err := readShapes(path, extent)
	if err != nil {
		return err
	}
	for _, g := range gs {
		for _, xys := range lines(g) {
			l, err := plotter.NewLine(xys)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			l.LineStyle = style
			p.Add(l)
		}
	}
	return nil
}

// addBasemap draws land, borders and coastlines in that order.
func addBasemap(p *plot.Plot, b Basemap, extent *geom.Bounds) error {
	if b.Land != "" {
		if err := fillLayer(p, b.Land, extent, landColor); err != nil {
			return err
		}
	}
	if b.Borders != "" {
		if err := lineLayer(p, b.Borders, extent, borderStyle); err != nil {
			return err
		}
	}
	if b.Coastlines != "" {
		if err := lineLayer(p, b.Coastlines, extent, coastStyle); err != nil {
			return err
		}
	}
	return nil
}
