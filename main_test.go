package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	return out.String(), err
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{",": ',', "tab": '\t', `\t`: '\t', ";": ';', "": ','} {
		got, err := parseDelimiter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseDelimiter(",,")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("debug")
	assert.NoError(t, err)
	_, err = newLogger("loud")
	assert.Error(t, err)
}

func TestMonthlyAndTimeIndexCommands(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "2004_5_MaxEficiency.txt"),
		[]byte("2004-01-10;5;-20;10;0.2\n2004-03-10;5;-20;10;0.4\n"), 0o644))

	_, err := run(t, "monthly", "--input-dir", in, "--output-dir", out, "--depth", "5",
		"--start-year", "2003", "--end-year", "2004", "--delimiter", ";")
	require.NoError(t, err)
	nc := filepath.Join(out, "2004_5_MeanMaxEficiency.nc")
	require.FileExists(t, nc)

	stdout, err := run(t, "timeindex", "--file", nc, "--date", "2004-03-01")
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(stdout))
}

func TestBulkCommandEmptyInput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "all.nc")
	_, err := run(t, "bulk", "--input-dir", dir, "--depth", "5",
		"--start-year", "2000", "--end-year", "2001", "--output", out)
	require.Error(t, err)
	assert.NoFileExists(t, out)
}

func TestConfigFile(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "all.nc")
	require.NoError(t, os.WriteFile(filepath.Join(in, "2004_5_MaxEficiency.txt"),
		[]byte("2004-01-10,5,-20,10,0.2\n"), 0o644))
	cfg := filepath.Join(t.TempDir(), "etagrid.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(strings.Join([]string{
		`input-dir = "` + filepath.ToSlash(in) + `"`,
		`depth = "5"`,
		`start-year = 2004`,
		`end-year = 2004`,
		`output = "` + filepath.ToSlash(out) + `"`,
	}, "\n")), 0o644))

	_, err := run(t, "bulk", "--config", cfg)
	require.NoError(t, err)
	assert.FileExists(t, out)
}
