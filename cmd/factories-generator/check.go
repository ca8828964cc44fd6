package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"factories-generator/internal/emit"
	"factories-generator/internal/logger"
)

// errStale makes check exit non-zero.
var errStale = errors.New("generated registries are out of date")

func newCheckCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [patterns...]",
		Short: "Verify that the registries on disk are up to date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd, args)
			if err != nil {
				return err
			}

			log, err := logger.New(cfg.Log.Mode, cfg.Log.Verbose)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer log.Sync()

			mem := emit.NewMemory()
			if _, err := generate(cmd.Context(), cmd, cfg, opts, log, mem); err != nil {
				return err
			}

			stale := compareOutputs(mem, outputRoot(cfg))
			for _, s := range stale {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stale: %s\n", s)
			}

			if len(stale) > 0 {
				return errStale
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "registries are up to date")

			return nil
		},
	}
}

// compareOutputs lists every registry whose file under root differs from
// what mem holds, including files that should not exist any more.
func compareOutputs(mem *emit.Memory, root string) []string {
	var stale []string

	for _, location := range []string{emit.StandardLocation, emit.AOTLocation} {
		want, generated := mem.Content(location)

		have, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(location)))
		exists := err == nil

		switch {
		case generated && !exists:
			stale = append(stale, location+" (missing)")
		case generated && !bytes.Equal(want, have):
			stale = append(stale, location+" (changed)")
		case !generated && exists:
			stale = append(stale, location+" (no longer generated)")
		}
	}

	return stale
}
