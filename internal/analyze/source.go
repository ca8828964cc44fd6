package analyze

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"factories-generator/internal/logger"
	"factories-generator/internal/symbols"
)

// RoundProcessor consumes rounds.
type RoundProcessor interface {
	Process(ctx context.Context, round symbols.Round) error
}

// SourceConfig controls how packages are split into rounds.
type SourceConfig struct {
	RoundSize int // packages per round
	Workers   int // packages scanned concurrently within a round
}

// Source feeds the declarations of a Program to a processor round by round.
type Source struct {
	prog   *Program
	table  *Table
	cfg    SourceConfig
	logger *logger.Logger
}

// NewSource creates a Source. Non-positive sizes fall back to 1.
func NewSource(prog *Program, table *Table, cfg SourceConfig, log *logger.Logger) *Source {
	if cfg.RoundSize <= 0 {
		cfg.RoundSize = 1
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	if log == nil {
		log = logger.Nop()
	}

	return &Source{prog: prog, table: table, cfg: cfg, logger: log}
}

// Table returns the symbol table the rounds refer to.
func (s *Source) Table() *Table {
	return s.table
}

// packagePaths lists each root package path once, in load order.
func (s *Source) packagePaths() []string {
	seen := make(map[string]bool)

	var paths []string
	for _, pkg := range s.prog.Packages {
		if seen[pkg.PkgPath] {
			continue
		}

		seen[pkg.PkgPath] = true
		paths = append(paths, pkg.PkgPath)
	}

	return paths
}

// Drive splits the packages into rounds of RoundSize packages. Within a round
// every package with declarations is handed to proc as its own round value,
// up to Workers at a time. After the last round completes, a terminal round
// without declarations is issued. The first processing error stops the
// drive.
func (s *Source) Drive(ctx context.Context, proc RoundProcessor) error {
	paths := s.packagePaths()
	number := 0

	for start := 0; start < len(paths); start += s.cfg.RoundSize {
		batch := paths[start:min(start+s.cfg.RoundSize, len(paths))]
		number++

		n := number
		s.logger.Debug("starting round", "round", n, "packages", batch)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.Workers)

		for _, pkgPath := range batch {
			decls := s.table.Declarations(pkgPath)
			if len(decls) == 0 {
				continue
			}

			g.Go(func() error {
				return proc.Process(gctx, symbols.Round{
					Number:       n,
					Declarations: decls,
					Symbols:      s.table,
				})
			})
		}

		if err := g.Wait(); err != nil {
			return fmt.Errorf("round %d: %w", n, err)
		}
	}

	s.logger.Debug("issuing terminal round", "round", number+1)

	return proc.Process(ctx, symbols.Round{Number: number + 1, Symbols: s.table, Last: true})
}
