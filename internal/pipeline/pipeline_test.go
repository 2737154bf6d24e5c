package pipeline

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/etagrid/internal/cftime"
	"github.com/rtm0/etagrid/internal/eta"
	"github.com/rtm0/etagrid/internal/ncfile"
)

func testPipeline() *Pipeline {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), afero.NewOsFs(), 0)
}

func writeInput(t *testing.T, dir string, year int, depth, content string) {
	t.Helper()
	path := filepath.Join(dir, eta.FileName(year, depth))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "2004_5_MeanMaxEficiency.nc", OutputName(2004, "5"))
}

func TestBulk(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, 2004, "5", ""+
		"2004-01-01,5,-20,10,0.1\n"+
		"2004-01-01,5,-19.5,10,-32767\n")
	writeInput(t, dir, 2006, "5", "2006-01-01,5,-20,10,0.3\n")
	out := filepath.Join(dir, "all.nc")

	require.NoError(t, testPipeline().Bulk(dir, "5", 2004, 2006, out))

	d, err := ncfile.Open(out)
	require.NoError(t, err)
	defer d.Close()
	g, err := d.Grid()
	require.NoError(t, err)

	assert.Equal(t, []float64{
		cftime.Days(time.Date(2004, 1, 1, 0, 0, 0, 0, time.UTC)),
		cftime.Days(time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC)),
	}, g.Time)
	assert.Equal(t, []float64{-20, -19.5}, g.Longitude)
	assert.Equal(t, 0.1, g.At(0, 0, 0, 0))
	assert.True(t, math.IsNaN(g.At(0, 0, 0, 1)))
	assert.Equal(t, 0.3, g.At(1, 0, 0, 0))
}

func TestBulkEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "all.nc")

	err := testPipeline().Bulk(dir, "5", 2000, 2010, out)
	assert.ErrorIs(t, err, eta.ErrEmptyInput)
	assert.NoFileExists(t, out)
}

func TestMonthlyFile(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, 2000, "5", ""+
		"2000-01-01,5,-20,10,1.0\n"+
		"2000-01-08,5,-20,10,2.0\n"+
		"2000-01-15,5,-20,10,-32767\n"+
		"2000-01-22,5,-20,10,3.0\n"+
		"2000-02-01,5,-20,10,-32767\n")
	in := filepath.Join(dir, eta.FileName(2000, "5"))
	out := filepath.Join(dir, OutputName(2000, "5"))

	require.NoError(t, testPipeline().MonthlyFile(in, out))

	d, err := ncfile.Open(out)
	require.NoError(t, err)
	defer d.Close()

	times, err := d.Times()
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.WithinDuration(t, time.Date(2000, 1, 16, 0, 0, 0, 0, time.UTC), times[0], time.Second)
	assert.WithinDuration(t, time.Date(2000, 2, 15, 0, 0, 0, 0, time.UTC), times[1], time.Second)

	g, err := d.Grid()
	require.NoError(t, err)
	assert.Equal(t, 2.0, g.At(0, 0, 0, 0))
	assert.True(t, math.IsNaN(g.At(1, 0, 0, 0)))
}

func TestMonthlyYearsSkipsMissingYear(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writeInput(t, in, 2004, "5", "2004-03-01,5,-20,10,0.4\n")
	writeInput(t, in, 2006, "5", "2006-03-01,5,-20,10,0.6\n")

	rep, err := testPipeline().MonthlyYears(in, out, "5", 2004, 2006)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(out, "2004_5_MeanMaxEficiency.nc"),
		filepath.Join(out, "2006_5_MeanMaxEficiency.nc"),
	}, rep.Written)
	assert.Equal(t, []int{2005}, rep.Skipped)
	assert.Empty(t, rep.Failed)
	for _, path := range rep.Written {
		assert.FileExists(t, path)
	}
	assert.NoFileExists(t, filepath.Join(out, "2005_5_MeanMaxEficiency.nc"))
}

func TestMonthlyYearsContinuesAfterFailure(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeInput(t, in, 2004, "5", "garbage\n")
	writeInput(t, in, 2005, "5", "")
	writeInput(t, in, 2006, "5", "2006-03-01,5,-20,10,0.6\n")

	rep, err := testPipeline().MonthlyYears(in, out, "5", 2004, 2006)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year 2004")

	assert.Equal(t, []string{filepath.Join(out, "2006_5_MeanMaxEficiency.nc")}, rep.Written)
	assert.Equal(t, []int{2005}, rep.Skipped)
	assert.Contains(t, rep.Failed, 2004)
	assert.Equal(t, "written=1 skipped=[2005] failed=[2004]", rep.String())
}

func TestMonthlyYearsRange(t *testing.T) {
	_, err := testPipeline().MonthlyYears(t.TempDir(), t.TempDir(), "5", 2006, 2004)
	assert.ErrorIs(t, err, eta.ErrYearRange)
}
