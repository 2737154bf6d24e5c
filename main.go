package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by all commands.
type app struct {
	cfg    *viper.Viper
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: viper.New()}
	a.cfg.SetEnvPrefix("ETAGRID")
	a.cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.cfg.AutomaticEnv()

	root := &cobra.Command{
		Use:          "etagrid",
		Short:        "Grid, persist and map ocean Carnot efficiency measurements",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if path := a.cfg.GetString("config"); path != "" {
				a.cfg.SetConfigFile(path)
				if err := a.cfg.ReadInConfig(); err != nil {
					return fmt.Errorf("reading config %s: %w", path, err)
				}
			}
			logger, err := newLogger(a.cfg.GetString("log-level"))
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.String("config", "", "path to a TOML/YAML/JSON config file whose keys match the flag names")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("delimiter", ",", `input column delimiter; "tab" or "\t" for tabs`)

	root.AddCommand(
		a.bulkCmd(),
		a.monthlyCmd(),
		a.plotCmd(),
		a.timeIndexCmd(),
	)
	return root
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})), nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "tab", `\t`:
		return '\t', nil
	case "":
		return ',', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("delimiter %q must be a single character", s)
	}
	return r, nil
}
