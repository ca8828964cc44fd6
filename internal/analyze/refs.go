package analyze

import (
	"errors"
	"fmt"
	"go/ast"
	"go/types"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"factories-generator/internal/common"
	"factories-generator/internal/match"
	"factories-generator/internal/symbols"
)

var (
	// ErrUnknownType is returned for a type reference that names nothing.
	ErrUnknownType = errors.New("unknown type")
	// ErrAmbiguousType is returned when a package qualifier matches several
	// loaded packages.
	ErrAmbiguousType = errors.New("ambiguous type reference")
)

// site is where a type reference is written.
type site struct {
	pkg  *packages.Package
	file *ast.File
}

// resolveRef resolves a type reference written at s. Forms, in order:
// a bare Name of the declaring package, alias.Name with an import of the
// declaring file, alias.Name with the last path element of a loaded package,
// and path/to/pkg.Name. Only the form with a slash is accepted as is when
// the package was never loaded; an unmatched short qualifier is an error.
func (p *Program) resolveRef(ref string, s site) (symbols.TypeID, error) {
	dot := strings.LastIndex(ref, ".")
	if dot < 0 {
		if s.pkg == nil {
			return symbols.TypeID{}, fmt.Errorf("%w: %s is not qualified", ErrUnknownType, ref)
		}

		if isTypeName(s.pkg.Types, ref) {
			return symbols.TypeID{PkgPath: s.pkg.PkgPath, Name: ref}, nil
		}

		return symbols.TypeID{}, fmt.Errorf("%w: %s in package %s%s", ErrUnknownType, ref, s.pkg.PkgPath, didYouMean(s.pkg.Types, ref))
	}

	qualifier, name := ref[:dot], ref[dot+1:]
	if qualifier == "" || name == "" {
		return symbols.TypeID{}, fmt.Errorf("%w: %q", ErrUnknownType, ref)
	}

	if strings.Contains(qualifier, "/") {
		return p.qualified(qualifier, name)
	}

	if pkgPath, ok := importPath(s, qualifier); ok {
		return p.lookup(pkgPath, name)
	}

	candidates := p.PackagesNamed(qualifier)
	switch len(candidates) {
	case 0:
		return symbols.TypeID{}, fmt.Errorf("%w: %s, no package named %s%s",
			ErrUnknownType, ref, qualifier, p.didYouMeanPackage(qualifier))
	case 1:
		return p.lookup(candidates[0], name)
	default:
		return symbols.TypeID{}, fmt.Errorf("%w: %s matches %s", ErrAmbiguousType, ref, strings.Join(candidates, ", "))
	}
}

func (p *Program) qualified(pkgPath, name string) (symbols.TypeID, error) {
	if _, ok := p.TypesPackage(pkgPath); ok {
		return p.lookup(pkgPath, name)
	}

	return symbols.TypeID{PkgPath: pkgPath, Name: name}, nil
}

func (p *Program) lookup(pkgPath, name string) (symbols.TypeID, error) {
	pkg, ok := p.TypesPackage(pkgPath)
	if !ok || !isTypeName(pkg, name) {
		return symbols.TypeID{}, fmt.Errorf("%w: %s.%s%s", ErrUnknownType, pkgPath, name, didYouMean(pkg, name))
	}

	return symbols.TypeID{PkgPath: pkgPath, Name: name}, nil
}

func isTypeName(pkg *types.Package, name string) bool {
	if pkg == nil {
		return false
	}

	_, ok := pkg.Scope().Lookup(name).(*types.TypeName)

	return ok
}

// didYouMean suggests the type name of pkg closest to name.
func didYouMean(pkg *types.Package, name string) string {
	if pkg == nil {
		return ""
	}

	var names []string
	for _, n := range pkg.Scope().Names() {
		if isTypeName(pkg, n) {
			names = append(names, n)
		}
	}

	if best, ok := match.Closest(name, names); ok {
		return " (did you mean " + best + "?)"
	}

	return ""
}

// didYouMeanPackage suggests the package name closest to qualifier.
func (p *Program) didYouMeanPackage(qualifier string) string {
	if best, ok := match.Closest(qualifier, common.SortedKeys(p.byLastElem)); ok {
		return " (did you mean " + best + "?)"
	}

	return ""
}

// importPath maps an import name of the file at s to its import path.
func importPath(s site, alias string) (string, bool) {
	if s.pkg == nil || s.file == nil {
		return "", false
	}

	for _, spec := range s.file.Imports {
		pkgPath, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}

		if localName(s.pkg, spec, pkgPath) == alias {
			return pkgPath, true
		}
	}

	return "", false
}

func localName(pkg *packages.Package, spec *ast.ImportSpec, pkgPath string) string {
	if spec.Name != nil {
		return spec.Name.Name
	}

	if pkg.Types != nil {
		for _, imp := range pkg.Types.Imports() {
			if imp.Path() == pkgPath {
				return imp.Name()
			}
		}
	}

	return common.PkgAlias(pkgPath)
}
