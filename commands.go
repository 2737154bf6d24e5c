package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gonum.org/v1/plot/vg"

	"github.com/rtm0/etagrid/internal/mapplot"
	"github.com/rtm0/etagrid/internal/ncfile"
	"github.com/rtm0/etagrid/internal/pipeline"
)

func (a *app) pipeline() (*pipeline.Pipeline, error) {
	comma, err := parseDelimiter(a.cfg.GetString("delimiter"))
	if err != nil {
		return nil, err
	}
	return pipeline.New(a.logger, afero.NewOsFs(), comma), nil
}

func yearFlags(f *pflag.FlagSet) {
	f.String("input-dir", ".", "directory holding {year}_{depth}_MaxEficiency.txt files")
	f.String("depth", "", "depth selector used in the file names")
	f.Int("start-year", 0, "first year, inclusive")
	f.Int("end-year", 0, "last year, inclusive")
}

func (a *app) years() (start, end int, err error) {
	if start, err = cast.ToIntE(a.cfg.Get("start-year")); err != nil {
		return 0, 0, fmt.Errorf("start-year: %w", err)
	}
	if end, err = cast.ToIntE(a.cfg.Get("end-year")); err != nil {
		return 0, 0, fmt.Errorf("end-year: %w", err)
	}
	if a.cfg.GetString("depth") == "" {
		return 0, 0, fmt.Errorf("depth is required")
	}
	return start, end, nil
}

func (a *app) bulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Concatenate yearly files into one NetCDF grid keyed on observation dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := a.years()
			if err != nil {
				return err
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			return p.Bulk(a.cfg.GetString("input-dir"), a.cfg.GetString("depth"), start, end, a.cfg.GetString("output"))
		},
	}
	yearFlags(cmd.Flags())
	cmd.Flags().String("output", "combined.nc", "output NetCDF file")
	return cmd
}

func (a *app) monthlyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Write one NetCDF file of monthly means per year",
		Long: "Averages each yearly file per month and cell and writes " +
			"{year}_{depth}_MeanMaxEficiency.nc files. Missing years are skipped.\n" +
			"With --input, a single file is processed into --output instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			if in := a.cfg.GetString("input"); in != "" {
				out := a.cfg.GetString("output")
				if out == "" {
					return fmt.Errorf("output is required with input")
				}
				return p.MonthlyFile(in, out)
			}
			start, end, err := a.years()
			if err != nil {
				return err
			}
			rep, err := p.MonthlyYears(a.cfg.GetString("input-dir"), a.cfg.GetString("output-dir"),
				a.cfg.GetString("depth"), start, end)
			a.logger.Info("Monthly means done", "report", rep.String())
			return err
		},
	}
	yearFlags(cmd.Flags())
	cmd.Flags().String("output-dir", ".", "directory for the monthly mean files")
	cmd.Flags().String("input", "", "single input file")
	cmd.Flags().String("output", "", "output file for --input")
	return cmd
}

func (a *app) targetDate() (time.Time, error) {
	s := a.cfg.GetString("date")
	t, err := cast.ToTimeInDefaultLocationE(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}
	return t.UTC(), nil
}

func (a *app) timeIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeindex",
		Short: "Print the time index closest to a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := a.targetDate()
			if err != nil {
				return err
			}
			i, err := ncfile.TimeIndex(a.cfg.GetString("file"), target)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i)
			return nil
		},
	}
	cmd.Flags().String("file", "", "NetCDF file")
	cmd.Flags().String("date", "", "target date, e.g. 2004-06-15")
	return cmd
}

func (a *app) plotOptions() (mapplot.Options, error) {
	orientation, err := mapplot.ParseOrientation(a.cfg.GetString("orientation"))
	if err != nil {
		return mapplot.Options{}, err
	}
	opts := mapplot.Options{
		Title:       a.cfg.GetString("title"),
		ColorMap:    a.cfg.GetString("colormap"),
		Orientation: orientation,
		FontSizes: mapplot.FontSizes{
			Title:    vg.Points(a.cfg.GetFloat64("title-size")),
			Labels:   vg.Points(a.cfg.GetFloat64("label-size")),
			ColorBar: vg.Points(a.cfg.GetFloat64("colorbar-size")),
		},
		Levels: a.cfg.GetInt("auto-levels"),
		Basemap: mapplot.Basemap{
			Land:       a.cfg.GetString("land"),
			Coastlines: a.cfg.GetString("coastlines"),
			Borders:    a.cfg.GetString("borders"),
		},
		DPI: a.cfg.GetInt("dpi"),
	}
	if a.cfg.IsSet("vmin") || a.cfg.IsSet("vmax") {
		opts.Range = &mapplot.ValueRange{
			Min:    a.cfg.GetFloat64("vmin"),
			Max:    a.cfg.GetFloat64("vmax"),
			Levels: a.cfg.GetInt("levels"),
		}
	}
	return opts, nil
}

func (a *app) plotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render a time and depth slice of a NetCDF file as a map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := a.plotOptions()
			if err != nil {
				return err
			}
			d, err := ncfile.Open(a.cfg.GetString("file"))
			if err != nil {
				return err
			}
			defer d.Close()
			a.logger.Debug("Opened dataset", d.Summary()...)

			ti := a.cfg.GetInt("time-index")
			if a.cfg.GetString("date") != "" {
				target, err := a.targetDate()
				if err != nil {
					return err
				}
				if ti, err = d.TimeIndex(target); err != nil {
					return err
				}
			}
			s, err := d.Slice(ti, a.cfg.GetInt("depth-index"))
			if err != nil {
				return err
			}

			out := a.cfg.GetString("output")
			show := a.cfg.GetBool("show")
			if out == "" {
				if !show {
					return fmt.Errorf("nothing to do: set output or show")
				}
				f, err := os.CreateTemp("", "etagrid-*.png")
				if err != nil {
					return err
				}
				f.Close()
				out = f.Name()
			}
			if err := mapplot.Plot(out, s, opts); err != nil {
				return err
			}
			a.logger.Info("Map saved", "file", filepath.Clean(out), "time", s.Time, "depth", s.Depth)
			if show {
				return mapplot.Show(out)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.String("file", "", "NetCDF file")
	f.Int("time-index", 0, "time index of the slice")
	f.String("date", "", "pick the time index closest to this date instead of --time-index")
	f.Int("depth-index", 0, "depth index of the slice")
	f.String("output", "", "image file (.png, .jpg or .tif)")
	f.Bool("show", false, "open the image in the system viewer")
	f.String("title", "Map of Eta", "map title")
	f.String("colormap", "kindlmann", "color map; append _r to reverse")
	f.String("orientation", "horizontal", "colorbar orientation: horizontal or vertical")
	f.Float64("title-size", 14, "title font size in points")
	f.Float64("label-size", 12, "axis label font size in points")
	f.Float64("colorbar-size", 12, "colorbar font size in points")
	f.Float64("vmin", 0, "lower end of a fixed value range")
	f.Float64("vmax", 0, "upper end of a fixed value range")
	f.Int("levels", 15, "number of levels in a fixed value range")
	f.Int("auto-levels", 15, "approximate number of automatic levels")
	f.String("land", "", "land polygons shapefile")
	f.String("coastlines", "", "coastline shapefile")
	f.String("borders", "", "country borders shapefile")
	f.Int("dpi", 500, "image resolution")
	return cmd
}
