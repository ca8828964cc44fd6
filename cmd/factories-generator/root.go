package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"factories-generator/internal/config"
)

// defaultConfigFile is loaded when present and --config is not given.
const defaultConfigFile = "factories.yaml"

// options are the flags shared by all commands.
type options struct {
	configFile  string
	dir         string
	out         string
	verbose     bool
	logMode     string
	metricsFile string
	traceFile   string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "factories-generator",
		Short:        "Aggregate provider registries from annotated Go types",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "configuration file (default "+defaultConfigFile+" when present)")
	flags.StringVar(&opts.dir, "dir", "", "directory to load packages from")
	flags.StringVarP(&opts.out, "out", "o", "", "generated resources root (default "+config.DefaultOutput+")")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&opts.logMode, "log-mode", "", "log mode: development or production")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	flags.StringVar(&opts.traceFile, "trace-file", "", "write OpenTelemetry spans to this file")

	root.AddCommand(newGenCommand(opts), newCheckCommand(opts))

	return root
}

// loadConfig reads the configuration and applies command-line overrides.
func (o *options) loadConfig(cmd *cobra.Command, patterns []string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	switch {
	case o.configFile != "":
		cfg, err = config.LoadFile(o.configFile)
	case fileExists(defaultConfigFile):
		cfg, err = config.LoadFile(defaultConfigFile)
	default:
		cfg = config.Default()
	}

	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Dir = o.dir
	}

	if flags.Changed("out") {
		cfg.Output = o.out
	}

	if flags.Changed("verbose") {
		cfg.Log.Verbose = o.verbose
	}

	if flags.Changed("log-mode") {
		cfg.Log.Mode = o.logMode
	}

	if flags.Changed("metrics-file") {
		cfg.MetricsFile = o.metricsFile
	}

	if len(patterns) > 0 {
		cfg.Patterns = patterns
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !errors.Is(err, os.ErrNotExist)
}
