// Package resolve computes the registry key of an annotated declaration.
package resolve

import (
	"errors"
	"fmt"

	"factories-generator/internal/common"
	"factories-generator/internal/symbols"
)

// ErrUnresolvableProviderInterface is returned when no registry key can be
// determined for a declaration. The declaration is skipped; this never fails
// a build.
var ErrUnresolvableProviderInterface = errors.New("unresolvable provider interface")

// Distinct causes, both wrapping ErrUnresolvableProviderInterface.
var (
	ErrNoProviderInterface        = fmt.Errorf("%w: no directly implemented interface", ErrUnresolvableProviderInterface)
	ErrAmbiguousProviderInterface = fmt.Errorf("%w: more than one directly implemented interface", ErrUnresolvableProviderInterface)
)

// Resolver implements the provider interface heuristic.
type Resolver struct{}

// New creates a Resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve returns the registry key for one marker usage on decl.
//
// An explicit value wins. Otherwise the single interface among the direct
// supertypes of decl is used.
func (r *Resolver) Resolve(table symbols.SymbolTable, decl symbols.Declaration, args symbols.Arguments) (string, error) {
	if !args.Value.IsZero() {
		return args.Value.String(), nil
	}

	candidates := Interfaces(table.Supertypes(decl))

	switch {
	case common.IsEmpty(candidates):
		return "", fmt.Errorf("%s: %w", table.CanonicalName(decl), ErrNoProviderInterface)
	case common.IsMultiple(candidates):
		return "", fmt.Errorf("%s: %w (%s)", table.CanonicalName(decl), ErrAmbiguousProviderInterface, describe(candidates))
	}

	only, _ := common.First(candidates)

	return only.ID.String(), nil
}

// Interfaces filters supertypes down to interfaces, dropping repeats.
func Interfaces(supertypes []symbols.Supertype) []symbols.Supertype {
	var out []symbols.Supertype

	for _, s := range supertypes {
		if s.Kind == symbols.KindInterface {
			out = append(out, s)
		}
	}

	return common.UniqueBy(out, func(s symbols.Supertype) symbols.TypeID { return s.ID })
}

func describe(candidates []symbols.Supertype) string {
	var s string

	for i, c := range candidates {
		if i > 0 {
			s += ", "
		}

		s += c.ID.String()
	}

	return s
}
