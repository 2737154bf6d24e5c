package eta

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
)

var (
	// ErrEmptyInput is returned when no input file exists in a year range.
	ErrEmptyInput = errors.New("no input files found")
	// ErrYearRange is returned when the start year is after the end year.
	ErrYearRange = errors.New("start year after end year")
)

// FileName returns the name of the yearly input file for the given depth.
func FileName(year int, depth string) string {
	return fmt.Sprintf("%d_%s_MaxEficiency.txt", year, depth)
}

// Reader loads observation files.
type Reader struct {
	logger *slog.Logger
	fs     afero.Fs
	comma  rune
}

// NewReader creates a new Reader. comma is the column delimiter; zero means ','.
func NewReader(logger *slog.Logger, fs afero.Fs, comma rune) *Reader {
	return &Reader{logger: logger, fs: fs, comma: comma}
}

// Exists reports whether path names an existing regular file.
func (r *Reader) Exists(path string) (bool, error) {
	fi, err := r.fs.Stat(path)
	if err == nil {
		return !fi.IsDir(), nil
	}
	if errors.Is(err, afero.ErrFileNotFound) {
		return false, nil
	}
	return false, err
}

// ReadFile returns every observation in path, in file order.
func (r *Reader) ReadFile(path string) ([]Observation, error) {
	s, err := NewScanner(r.fs, path, r.comma)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var obs []Observation
	for s.Scan() {
		obs = append(obs, s.Observation())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return obs, nil
}

// ReadYears reads the file of every year in [startYear, endYear] from dir and
// concatenates them in year order. Years without a file are skipped; if no
// year has one, ErrEmptyInput is returned.
func (r *Reader) ReadYears(dir, depth string, startYear, endYear int) ([]Observation, error) {
	if startYear > endYear {
		return nil, fmt.Errorf("%w: %d > %d", ErrYearRange, startYear, endYear)
	}
	var (
		obs   []Observation
		found int
	)
	for year := startYear; year <= endYear; year++ {
		path := filepath.Join(dir, FileName(year, depth))
		ok, err := r.Exists(path)
		if err != nil {
			return nil, err
		}
		if !ok {
			r.logger.Warn("File not found, skipping", "file", path)
			continue
		}
		r.logger.Info("Reading file", "file", path)
		recs, err := r.ReadFile(path)
		if err != nil {
			return nil, err
		}
		obs = append(obs, recs...)
		found++
	}
	if found == 0 {
		return nil, fmt.Errorf("%w in %s for years %d-%d", ErrEmptyInput, dir, startYear, endYear)
	}
	return obs, nil
}
