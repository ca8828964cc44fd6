package analyze

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"factories-generator/internal/annotation"
	"factories-generator/internal/common"
	"factories-generator/internal/config"
	"factories-generator/internal/diagnostic"
	"factories-generator/internal/logger"
	"factories-generator/internal/symbols"
)

var (
	// ErrUnknownDeclaration is returned for a declaration the table never
	// discovered.
	ErrUnknownDeclaration = errors.New("unknown declaration")
	// ErrNotAnnotation is returned when a directive names a type that is not
	// an annotation type.
	ErrNotAnnotation = errors.New("not an annotation type")
)

// TableConfig configures discovery.
type TableConfig struct {
	Namespace   string
	Annotations []config.AnnotationDef // annotation types declared outside the scanned code
}

// annotationType is a type declared with //<ns>:annotation, or one from
// TableConfig.Annotations.
type annotationType struct {
	id         symbols.TypeID
	site       site
	directives []annotation.Directive
}

// declaration is a discovered type carrying directives.
type declaration struct {
	decl       symbols.Declaration
	site       site
	directives []annotation.Directive
	supertypes []symbols.Supertype
}

// Table implements symbols.SymbolTable over a Program. It is read-only after
// NewTable returns and safe for concurrent use.
type Table struct {
	prog        *Program
	parser      *annotation.Parser
	logger      *logger.Logger
	diags       *diagnostic.Collector
	annotations map[symbols.TypeID]*annotationType
	decls       map[symbols.TypeID]*declaration
	byPackage   map[string][]symbols.Declaration
}

var _ symbols.SymbolTable = (*Table)(nil)

// NewTable indexes annotation types and discovers declarations in every root
// package of prog. Malformed directives are reported as diagnostics and
// skipped.
func NewTable(prog *Program, cfg TableConfig, log *logger.Logger, diags *diagnostic.Collector) *Table {
	if log == nil {
		log = logger.Nop()
	}

	if diags == nil {
		diags = diagnostic.NewCollector()
	}

	t := &Table{
		prog:        prog,
		parser:      annotation.NewParser(cfg.Namespace),
		logger:      log,
		diags:       diags,
		annotations: make(map[symbols.TypeID]*annotationType),
		decls:       make(map[symbols.TypeID]*declaration),
		byPackage:   make(map[string][]symbols.Declaration),
	}

	for _, def := range cfg.Annotations {
		t.addExternal(def)
	}

	for _, pkg := range prog.Packages {
		t.discover(pkg)
	}

	return t
}

func (t *Table) addExternal(def config.AnnotationDef) {
	id, err := t.prog.resolveRef(def.Name, site{})
	if err != nil {
		t.diags.Warn(diagnostic.CodeInvalidDirective, err.Error(), def.Name, "configuration")
		t.logger.Warn("ignoring configured annotation", "annotation", def.Name, "error", err)

		return
	}

	marker := annotation.Directive{
		Name: annotation.NameProvider,
		Args: map[string]string{annotation.ArgAOT: strconv.FormatBool(def.AOT)},
		Line: "configuration annotation " + def.Name,
	}
	if def.Value != "" {
		marker.Args[annotation.ArgValue] = def.Value
	}

	t.annotations[id] = &annotationType{id: id, directives: []annotation.Directive{marker}}
}

// discover walks the type declarations of pkg.
func (t *Table) discover(pkg *packages.Package) {
	if pkg.Types == nil || pkg.TypesInfo == nil {
		return
	}

	asserted := assertions(pkg)

	for _, file := range pkg.Syntax {
		for _, d := range file.Decls {
			gen, ok := d.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}

			for _, spec := range gen.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}

				doc := ts.Doc
				if doc == nil && common.IsSingle(gen.Specs) {
					doc = gen.Doc
				}

				t.discoverType(pkg, file, ts, doc, asserted)
			}
		}
	}
}

func (t *Table) discoverType(pkg *packages.Package, file *ast.File, ts *ast.TypeSpec, doc *ast.CommentGroup, asserted map[string][]symbols.Supertype) {
	id := symbols.TypeID{PkgPath: pkg.PkgPath, Name: ts.Name.Name}
	pos := pkg.Fset.Position(ts.Name.Pos())

	directives, err := t.parser.Parse(doc)
	if err != nil {
		t.logger.Info("skipping malformed directive", "type", id.String(), "position", pos.String(), "error", err)
		t.diags.Info(diagnostic.CodeInvalidDirective, err.Error(), id.String(), pos.String())
	}

	if len(directives) == 0 {
		return
	}

	s := site{pkg: pkg, file: file}

	if annotation.HasAnnotationDecl(directives) {
		if _, seen := t.annotations[id]; !seen {
			t.annotations[id] = &annotationType{id: id, site: s, directives: directives}
		}

		return
	}

	if _, seen := t.decls[id]; seen {
		return
	}

	var supertypes []symbols.Supertype
	if obj, ok := pkg.Types.Scope().Lookup(ts.Name.Name).(*types.TypeName); ok {
		supertypes = append(embedded(obj), asserted[ts.Name.Name]...)
	}

	decl := symbols.Declaration{ID: id, File: pos.Filename, Pos: pos}
	t.decls[id] = &declaration{decl: decl, site: s, directives: directives, supertypes: supertypes}
	t.byPackage[pkg.PkgPath] = append(t.byPackage[pkg.PkgPath], decl)
}

// Declarations returns the declarations discovered in a package, in source
// order.
func (t *Table) Declarations(pkgPath string) []symbols.Declaration {
	return t.byPackage[pkgPath]
}

// Annotations returns the ids of all known annotation types, sorted.
func (t *Table) Annotations() []symbols.TypeID {
	ids := make([]symbols.TypeID, 0, len(t.annotations))
	for id := range t.annotations {
		ids = append(ids, id)
	}

	slices.SortFunc(ids, func(a, b symbols.TypeID) int {
		return strings.Compare(a.String(), b.String())
	})

	return ids
}

// Arguments implements symbols.SymbolTable.
func (t *Table) Arguments(decl symbols.Declaration) ([]symbols.Arguments, error) {
	info, ok := t.decls[decl.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDeclaration, decl.ID)
	}

	var (
		out  []symbols.Arguments
		errs []error
	)

	for _, dir := range info.directives {
		switch {
		case dir.IsMarker():
			args, err := t.markerArguments(dir, info.site)
			if err != nil {
				errs = append(errs, err)
				continue
			}

			out = append(out, args)
		case dir.IsAnnotationDecl():
		default:
			ann, err := t.annotationFor(dir, info.site)
			if err != nil {
				errs = append(errs, err)
				continue
			}

			found, err := t.expand(ann, make(map[symbols.TypeID]bool))
			if err != nil {
				errs = append(errs, err)
			}

			for _, args := range found {
				args.Via = ann.id
				out = append(out, args)
			}
		}
	}

	return out, errors.Join(errs...)
}

// expand collects the marker usages reachable from an annotation type.
// Every annotation type is visited at most once, which also stops cycles.
func (t *Table) expand(ann *annotationType, visited map[symbols.TypeID]bool) ([]symbols.Arguments, error) {
	if visited[ann.id] {
		return nil, nil
	}
	visited[ann.id] = true

	var (
		out  []symbols.Arguments
		errs []error
	)

	for _, dir := range ann.directives {
		switch {
		case dir.IsMarker():
			args, err := t.markerArguments(dir, ann.site)
			if err != nil {
				errs = append(errs, err)
				continue
			}

			out = append(out, args)
		case dir.IsAnnotationDecl():
		default:
			meta, err := t.annotationFor(dir, ann.site)
			if err != nil {
				errs = append(errs, err)
				continue
			}

			found, err := t.expand(meta, visited)
			if err != nil {
				errs = append(errs, err)
			}

			out = append(out, found...)
		}
	}

	return out, errors.Join(errs...)
}

func (t *Table) annotationFor(dir annotation.Directive, s site) (*annotationType, error) {
	id, err := t.prog.resolveRef(dir.Name, s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir.Line, err)
	}

	ann, ok := t.annotations[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", dir.Line, ErrNotAnnotation, id)
	}

	return ann, nil
}

func (t *Table) markerArguments(dir annotation.Directive, s site) (symbols.Arguments, error) {
	aot, err := dir.AOT()
	if err != nil {
		return symbols.Arguments{}, fmt.Errorf("%s: %w", dir.Line, err)
	}

	args := symbols.Arguments{AOT: aot}

	if v := dir.Value(); v != "" {
		id, err := t.prog.resolveRef(v, s)
		if err != nil {
			return symbols.Arguments{}, fmt.Errorf("%s: value: %w", dir.Line, err)
		}

		args.Value = id
	}

	return args, nil
}

// Supertypes implements symbols.SymbolTable.
func (t *Table) Supertypes(decl symbols.Declaration) []symbols.Supertype {
	info, ok := t.decls[decl.ID]
	if !ok {
		return nil
	}

	return append([]symbols.Supertype(nil), info.supertypes...)
}

// CanonicalName implements symbols.SymbolTable.
func (t *Table) CanonicalName(decl symbols.Declaration) string {
	return decl.ID.String()
}
