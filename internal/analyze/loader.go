package analyze

import (
	"context"
	"errors"
	"fmt"
	"go/types"
	"slices"
	"strings"

	"golang.org/x/tools/go/packages"

	"factories-generator/internal/common"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// ErrNoPackages is returned when the patterns match nothing.
var ErrNoPackages = errors.New("no packages matched")

// LoaderConfig controls package loading.
type LoaderConfig struct {
	Dir       string   // working directory for the build system; "" means current
	Tests     bool     // include test files
	BuildTags []string // extra build tags
}

// Loader loads Go packages.
type Loader struct {
	cfg LoaderConfig
}

// NewLoader creates a Loader.
func NewLoader(cfg LoaderConfig) *Loader {
	return &Loader{cfg: cfg}
}

// Load loads the packages matching patterns, e.g. "./..." or
// "factories-generator/examples/catalog/...". Any package error fails the
// load.
func (l *Loader) Load(ctx context.Context, patterns ...string) (*Program, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode:    LoadMode,
		Dir:     l.cfg.Dir,
		Tests:   l.cfg.Tests,
	}

	if len(l.cfg.BuildTags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(l.cfg.BuildTags, ",")}
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	var errs []error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %w", errors.Join(errs...))
	}

	if len(pkgs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPackages, strings.Join(patterns, " "))
	}

	return newProgram(pkgs), nil
}

// Program is a set of loaded root packages.
type Program struct {
	// Packages are the root packages ordered by import path. With Tests set a
	// path can occur more than once (package and its test variant).
	Packages []*packages.Package

	// byLastElem maps the last import path element of every root package and
	// of every package they import to the matching import paths.
	byLastElem map[string][]string
	byPath     map[string]*types.Package
}

func newProgram(pkgs []*packages.Package) *Program {
	sorted := slices.Clone(pkgs)
	slices.SortStableFunc(sorted, func(a, b *packages.Package) int {
		return strings.Compare(a.ID, b.ID)
	})

	p := &Program{
		Packages:   sorted,
		byLastElem: make(map[string][]string),
		byPath:     make(map[string]*types.Package),
	}

	for _, pkg := range sorted {
		if pkg.Types == nil {
			continue
		}

		p.index(pkg.Types)

		for _, imp := range pkg.Types.Imports() {
			p.index(imp)
		}
	}

	return p
}

func (p *Program) index(pkg *types.Package) {
	if _, ok := p.byPath[pkg.Path()]; ok {
		return
	}

	p.byPath[pkg.Path()] = pkg

	last := common.PkgAlias(pkg.Path())
	p.byLastElem[last] = append(p.byLastElem[last], pkg.Path())
}

// TypesPackage returns the type information of a loaded or imported package.
func (p *Program) TypesPackage(pkgPath string) (*types.Package, bool) {
	pkg, ok := p.byPath[pkgPath]

	return pkg, ok
}

// PackagesNamed returns the import paths whose last element is name.
func (p *Program) PackagesNamed(name string) []string {
	return p.byLastElem[name]
}
