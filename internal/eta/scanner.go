package eta

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
)

const numColumns = 5

// Scanner reads observations from a delimited text file one row at a time.
// The file has five unlabeled columns: date, depth, longitude, latitude, eta.
type Scanner struct {
	f    afero.File
	r    *csv.Reader
	path string
	line int
	obs  Observation
	err  error
}

// NewScanner creates a new scanner over the file at path. comma is the
// column delimiter; zero means ','.
func NewScanner(fs afero.Fs, path string, comma rune) (*Scanner, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(f)
	if comma != 0 {
		r.Comma = comma
	}
	r.FieldsPerRecord = numColumns
	r.TrimLeadingSpace = true
	r.ReuseRecord = true
	return &Scanner{f: f, r: r, path: path}, nil
}

// Close closes the underlying file.
func (s *Scanner) Close() {
	s.f.Close()
}

// Scan reads the next row. It returns false at the end of the file or on the
// first malformed row, after which Err reports the cause.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	fields, err := s.r.Read()
	if errors.Is(err, io.EOF) {
		return false
	}
	s.line++
	if err != nil {
		s.err = fmt.Errorf("%s: %w", s.path, err)
		return false
	}
	obs, err := parseRow(fields)
	if err != nil {
		s.err = fmt.Errorf("%s:%d: %w", s.path, s.line, err)
		return false
	}
	s.obs = obs
	return true
}

// Observation returns the observation read by the last Scan.
func (s *Scanner) Observation() Observation {
	return s.obs
}

// Err returns the first error encountered while scanning.
func (s *Scanner) Err() error {
	return s.err
}

// Line returns the number of rows read so far.
func (s *Scanner) Line() int {
	return s.line
}

func parseRow(fields []string) (Observation, error) {
	date, err := cast.ToTimeInDefaultLocationE(strings.TrimSpace(fields[0]), time.UTC)
	if err != nil {
		return Observation{}, fmt.Errorf("date: %w", err)
	}
	var nums [numColumns - 1]float64
	for i, name := range []string{"depth", "longitude", "latitude", "eta"} {
		nums[i], err = strconv.ParseFloat(strings.TrimSpace(fields[i+1]), 64)
		if err != nil {
			return Observation{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	return Observation{
		Date:      date.UTC(),
		Depth:     nums[0],
		Longitude: nums[1],
		Latitude:  nums[2],
		Eta:       etaValue(nums[3]),
	}, nil
}
