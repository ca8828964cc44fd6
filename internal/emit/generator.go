package emit

//go:generate mockgen -source=generator.go -destination=mocks/mocks.go -package=mocks CodeGenerator

import (
	"io"
)

// Dependencies describes which inputs an output artifact is derived from.
type Dependencies struct {
	// Aggregating is true when the output merges many inputs, so a change to
	// any of them (or a new input) requires regeneration.
	Aggregating bool
	// Sources are the contributing source files.
	Sources []string
}

// CodeGenerator creates output artifacts for the host build.
type CodeGenerator interface {
	// CreateNewFile opens a new artifact at the resource path, recording deps.
	CreateNewFile(deps Dependencies, path string) (io.WriteCloser, error)
}
