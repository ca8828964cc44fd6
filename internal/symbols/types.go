package symbols

import (
	"go/token"
)

// TypeID uniquely identifies a type by its package path and name.
type TypeID struct {
	PkgPath string // e.g., "example.com/app/spi"
	Name    string // e.g., "Codec"
}

// String returns the canonical name of the type.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// IsZero reports whether t is the unset sentinel.
func (t TypeID) IsZero() bool {
	return t == TypeID{}
}

//go:generate go tool stringer -type=Kind -linecomment -output=kind_string.go

// Kind classifies a supertype.
type Kind int

const (
	KindUnknown   Kind = iota // unknown
	KindInterface             // interface
	KindStruct                // struct
	KindOther                 // other
)

// Supertype is one direct supertype of a declaration.
type Supertype struct {
	ID   TypeID
	Kind Kind
}

// Target selects one of the two aggregation maps.
type Target int

const (
	TargetStandard Target = iota
	TargetAOT
)

// String returns a human-readable target name.
func (t Target) String() string {
	if t == TargetAOT {
		return "aot"
	}

	return "standard"
}

// Arguments are the resolved arguments of one marker usage.
type Arguments struct {
	// Value is the explicit provider interface; zero when unset.
	Value TypeID
	// AOT routes the implementor to the ahead-of-time registry.
	AOT bool
	// Via is the annotation type through which the marker was reached; zero
	// when the declaration carries the marker directly.
	Via TypeID
}

// Target returns the aggregation map these arguments select.
func (a Arguments) Target() Target {
	if a.AOT {
		return TargetAOT
	}

	return TargetStandard
}

// Declaration is an annotated type declaration.
type Declaration struct {
	ID   TypeID
	File string         // source file declaring the type
	Pos  token.Position // for diagnostics
}

// SymbolTable resolves facts about declarations for the processor.
type SymbolTable interface {
	// Arguments returns the marker arguments of decl, one entry per marker
	// usage. An error means a usage could not be resolved; any usages that
	// could be resolved are still returned.
	Arguments(decl Declaration) ([]Arguments, error)
	// Supertypes lists the direct supertypes of decl.
	Supertypes(decl Declaration) []Supertype
	// CanonicalName returns the canonical name of decl.
	CanonicalName(decl Declaration) string
}

// Round is one incremental scanning pass.
type Round struct {
	Number       int
	Declarations []Declaration
	Symbols      SymbolTable
	// Last marks the terminal round, after which no more scanning happens.
	Last bool
}
