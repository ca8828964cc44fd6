package analyze

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/packages"

	"factories-generator/internal/symbols"
)

// assertions collects compile-time interface assertions of pkg, such as
//
//	var _ spi.Codec = JSON{}
//	var _ spi.Codec = (*JSON)(nil)
//
// keyed by the local name of the asserting type.
func assertions(pkg *packages.Package) map[string][]symbols.Supertype {
	out := make(map[string][]symbols.Supertype)

	for _, file := range pkg.Syntax {
		for _, d := range file.Decls {
			gen, ok := d.(*ast.GenDecl)
			if !ok || gen.Tok != token.VAR {
				continue
			}

			for _, spec := range gen.Specs {
				vs, ok := spec.(*ast.ValueSpec)
				if !ok || vs.Type == nil {
					continue
				}

				super, ok := supertypeOf(pkg.TypesInfo.TypeOf(vs.Type))
				if !ok {
					continue
				}

				for i, name := range vs.Names {
					if name.Name != "_" || i >= len(vs.Values) {
						continue
					}

					impl := namedOf(pkg.TypesInfo.TypeOf(vs.Values[i]))
					if impl == nil || impl.Obj().Pkg() == nil || impl.Obj().Pkg().Path() != pkg.PkgPath {
						continue
					}

					out[impl.Obj().Name()] = append(out[impl.Obj().Name()], super)
				}
			}
		}
	}

	return out
}

// embedded returns the named types embedded in obj's struct or interface.
func embedded(obj *types.TypeName) []symbols.Supertype {
	var out []symbols.Supertype

	switch u := obj.Type().Underlying().(type) {
	case *types.Struct:
		for i := range u.NumFields() {
			field := u.Field(i)
			if !field.Embedded() {
				continue
			}

			if super, ok := supertypeOf(field.Type()); ok {
				out = append(out, super)
			}
		}
	case *types.Interface:
		for i := range u.NumEmbeddeds() {
			if super, ok := supertypeOf(u.EmbeddedType(i)); ok {
				out = append(out, super)
			}
		}
	}

	return out
}

// supertypeOf describes the named type behind t, looking through one pointer.
func supertypeOf(t types.Type) (symbols.Supertype, bool) {
	named := namedOf(t)
	if named == nil || named.Obj().Pkg() == nil {
		return symbols.Supertype{}, false
	}

	return symbols.Supertype{
		ID:   symbols.TypeID{PkgPath: named.Obj().Pkg().Path(), Name: named.Obj().Name()},
		Kind: kindOf(named),
	}, true
}

func namedOf(t types.Type) *types.Named {
	if t == nil {
		return nil
	}

	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}

	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return nil
	}

	return named.Origin()
}

func kindOf(named *types.Named) symbols.Kind {
	switch named.Underlying().(type) {
	case *types.Interface:
		return symbols.KindInterface
	case *types.Struct:
		return symbols.KindStruct
	default:
		return symbols.KindOther
	}
}
