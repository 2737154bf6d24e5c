// Package pipeline turns yearly observation files into NetCDF grids.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/afero"

	"github.com/rtm0/etagrid/internal/eta"
	"github.com/rtm0/etagrid/internal/grid"
	"github.com/rtm0/etagrid/internal/ncfile"
)

// OutputName returns the name of the monthly mean file for a year and depth.
func OutputName(year int, depth string) string {
	return fmt.Sprintf("%d_%s_MeanMaxEficiency.nc", year, depth)
}

// Pipeline runs the ingestion pipelines. Inputs are read through fs; outputs
// are always written to the local filesystem.
type Pipeline struct {
	logger *slog.Logger
	reader *eta.Reader
}

// New creates a new Pipeline. comma is the input column delimiter; zero
// means ','.
func New(logger *slog.Logger, fs afero.Fs, comma rune) *Pipeline {
	return &Pipeline{
		logger: logger,
		reader: eta.NewReader(logger, fs, comma),
	}
}

func history(op string) string {
	return fmt.Sprintf("%s etagrid %s", time.Now().UTC().Format(time.RFC3339), op)
}

// Bulk concatenates the files of every year in [startYear, endYear], pivots
// them using each observation's own date and writes a single file to out.
// Nothing is written when no input file exists.
func (p *Pipeline) Bulk(dir, depth string, startYear, endYear int, out string) error {
	obs, err := p.reader.ReadYears(dir, depth, startYear, endYear)
	if err != nil {
		return err
	}
	g, err := grid.FromObservations(obs)
	if err != nil {
		return err
	}
	meta := ncfile.Metadata{
		Title:   fmt.Sprintf("Maximum Carnot efficiency at depth %s, %d-%d", depth, startYear, endYear),
		Source:  dir,
		History: history("bulk"),
	}
	if err := ncfile.Write(out, g, meta); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	p.logger.Info("Data saved", "file", out, "records", len(obs), "shape", g.Shape())
	return nil
}

// errNoRows marks an input file without observations.
var errNoRows = errors.New("no observations")

// MonthlyFile averages the observations in one file per month and cell and
// writes the result to out.
func (p *Pipeline) MonthlyFile(in, out string) error {
	obs, err := p.reader.ReadFile(in)
	if err != nil {
		return err
	}
	if len(obs) == 0 {
		return fmt.Errorf("%s: %w", in, errNoRows)
	}
	aggs := eta.MonthlyMean(obs)
	g, err := grid.FromAggregates(aggs)
	if err != nil {
		return err
	}
	meta := ncfile.Metadata{
		Title:   "Monthly mean of maximum Carnot efficiency",
		Source:  in,
		History: history("monthly"),
	}
	if err := ncfile.Write(out, g, meta); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	p.logger.Info("Data saved", "file", out, "records", len(obs), "groups", len(aggs), "shape", g.Shape())
	return nil
}

// Report lists what MonthlyYears did for each year.
type Report struct {
	Written []string
	Skipped []int
	Failed  map[int]error
}

func (r Report) String() string {
	return fmt.Sprintf("written=%d skipped=%v failed=%v", len(r.Written), r.Skipped, slices.Sorted(maps.Keys(r.Failed)))
}

// MonthlyYears runs MonthlyFile for every year in [startYear, endYear],
// writing {year}_{depth}_MeanMaxEficiency.nc files into outDir. Missing or
// empty input files are skipped. A failing year does not stop the others;
// the failures are joined into the returned error.
func (p *Pipeline) MonthlyYears(inDir, outDir, depth string, startYear, endYear int) (Report, error) {
	rep := Report{Failed: map[int]error{}}
	if startYear > endYear {
		return rep, fmt.Errorf("%w: %d > %d", eta.ErrYearRange, startYear, endYear)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return rep, err
	}

	var errs []error
	for year := startYear; year <= endYear; year++ {
		in := filepath.Join(inDir, eta.FileName(year, depth))
		out := filepath.Join(outDir, OutputName(year, depth))

		ok, err := p.reader.Exists(in)
		if err == nil && !ok {
			p.logger.Warn("File not found, skipping", "file", in)
			rep.Skipped = append(rep.Skipped, year)
			continue
		}
		if err == nil {
			p.logger.Info("Processing", "in", in, "out", out)
			err = p.MonthlyFile(in, out)
		}
		switch {
		case err == nil:
			rep.Written = append(rep.Written, out)
		case errors.Is(err, errNoRows):
			p.logger.Warn("File has no observations, skipping", "file", in)
			rep.Skipped = append(rep.Skipped, year)
		default:
			p.logger.Error("Could not process year", "year", year, "err", err)
			rep.Failed[year] = err
			errs = append(errs, fmt.Errorf("year %d: %w", year, err))
		}
	}
	return rep, errors.Join(errs...)
}
