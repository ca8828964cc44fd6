package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"factories-generator/internal/analyze"
	"factories-generator/internal/config"
	"factories-generator/internal/diagnostic"
	"factories-generator/internal/emit"
	"factories-generator/internal/logger"
	"factories-generator/internal/metrics"
	"factories-generator/internal/processor"
)

// outputRoot returns the generated resources root, relative to the package
// directory when one is configured.
func outputRoot(cfg *config.Config) string {
	if cfg.Dir != "" && !filepath.IsAbs(cfg.Output) {
		return filepath.Join(cfg.Dir, cfg.Output)
	}

	return cfg.Output
}

// generate loads the configured packages and drives one build through gen.
// Only loading failures are returned as errors; everything else ends up in
// the processor's diagnostics.
func generate(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts *options, log *logger.Logger, gen emit.CodeGenerator) (*processor.Processor, error) {
	tracer, shutdown, err := newTracer(opts.traceFile)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn("failed to flush traces", "error", err)
		}
	}()

	diags := diagnostic.NewCollector()
	m := metrics.New()

	loader := analyze.NewLoader(analyze.LoaderConfig{
		Dir:       cfg.Dir,
		Tests:     cfg.Tests,
		BuildTags: cfg.BuildTags,
	})

	prog, err := loader.Load(ctx, cfg.Patterns...)
	if err != nil {
		return nil, err
	}

	proc := processor.New(gen,
		processor.WithLogger(log),
		processor.WithDiagnostics(diags),
		processor.WithMetrics(m),
		processor.WithTracer(tracer),
	)
	log = log.With("build", proc.BuildID())

	table := analyze.NewTable(prog, analyze.TableConfig{
		Namespace:   cfg.Namespace,
		Annotations: cfg.Annotations,
	}, log, diags)

	log.Info("packages loaded", "packages", len(prog.Packages), "annotations", len(table.Annotations()))

	src := analyze.NewSource(prog, table, analyze.SourceConfig{
		RoundSize: cfg.RoundSize,
		Workers:   cfg.Workers,
	}, log)

	if err := src.Drive(ctx, proc); err != nil {
		return nil, err
	}

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn("failed to write metrics", "error", err)
		}
	}

	printSummary(cmd.ErrOrStderr(), proc, cfg.Log.Verbose)

	return proc, nil
}

// printSummary reports what was written and every warning or error. Info
// diagnostics are only listed in verbose mode.
func printSummary(w io.Writer, proc *processor.Processor, verbose bool) {
	for _, res := range proc.Results() {
		if !res.Written {
			continue
		}

		_, _ = fmt.Fprintf(w, "%s: %d keys, %d implementors\n", res.Location, res.Keys, res.Implementors)
	}

	d := proc.Diagnostics()
	_, _ = fmt.Fprintf(w, "diagnostics: %d errors, %d warnings, %d infos\n", len(d.Errors), len(d.Warnings), len(d.Infos))

	for _, e := range d.Errors {
		_, _ = fmt.Fprintf(w, "  error: %s\n", e)
	}

	for _, e := range d.Warnings {
		_, _ = fmt.Fprintf(w, "  warning: %s\n", e)
	}

	if verbose {
		for _, e := range d.Infos {
			_, _ = fmt.Fprintf(w, "  info: %s\n", e)
		}
	}
}
