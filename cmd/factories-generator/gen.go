package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"factories-generator/internal/emit"
	"factories-generator/internal/logger"
)

func newGenCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "gen [patterns...]",
		Short: "Generate the registries and the dependency manifest",
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

			root := outputRoot(cfg)

			previous, err := emit.ReadManifest(filepath.Join(root, filepath.FromSlash(emit.ManifestLocation)))
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					log.Warn("ignoring unreadable manifest", "error", err)
				}
				previous = nil
			}

			fs := emit.NewFileSystem(root)
			if _, err := generate(cmd.Context(), cmd, cfg, opts, log, fs); err != nil {
				return err
			}

			removed, err := fs.Prune(previous)
			if err != nil {
				log.Error("failed to remove stale registries", "error", err)
			}

			for _, p := range removed {
				log.Info("removed stale registry", "resource", p)
			}

			if cfg.WriteManifest() {
				if err := fs.WriteManifest(); err != nil {
					log.Error("failed to write manifest", "error", err)
				}
			}

			return nil
		},
	}
}
