package annotation

import (
	"errors"
	"fmt"
	"go/ast"
	"strconv"
	"strings"
)

// DefaultNamespace is the directive prefix used when none is configured.
const DefaultNamespace = "factories"

// Directive names with a fixed meaning.
const (
	NameProvider   = "provider"   // //factories:provider value=spi.Codec aot=true
	NameAnnotation = "annotation" // //factories:annotation
)

// Argument keys understood on the marker.
const (
	ArgValue = "value"
	ArgAOT   = "aot"
)

// VoidValue is the explicit spelling of the unset value sentinel.
const VoidValue = "void"

// ErrMalformed is wrapped by every parse error.
var ErrMalformed = errors.New("malformed directive")

// Directive is one parsed //<namespace>: comment line.
type Directive struct {
	Name string            // provider, annotation, or an annotation type reference
	Args map[string]string // raw argument values by key
	Line string            // original comment text, for diagnostics
}

// IsMarker reports whether d is the provider marker itself.
func (d Directive) IsMarker() bool {
	return d.Name == NameProvider
}

// IsAnnotationDecl reports whether d declares its type as an annotation type.
func (d Directive) IsAnnotationDecl() bool {
	return d.Name == NameAnnotation
}

// Value returns the value argument, or "" when it is unset or the void sentinel.
func (d Directive) Value() string {
	v := d.Args[ArgValue]
	if v == VoidValue {
		return ""
	}

	return v
}

// AOT returns the aot argument, defaulting to false.
func (d Directive) AOT() (bool, error) {
	raw, ok := d.Args[ArgAOT]
	if !ok || raw == "" {
		return false, nil
	}

	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: aot=%q is not a boolean", ErrMalformed, raw)
	}

	return b, nil
}

// Parser extracts directives of a single namespace.
type Parser struct {
	prefix string
}

// NewParser creates a parser for //<namespace>: directives.
func NewParser(namespace string) *Parser {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return &Parser{prefix: "//" + namespace + ":"}
}

// Parse extracts all directives from a doc comment. Malformed lines are
// skipped and reported through the joined error; well-formed directives are
// always returned.
func (p *Parser) Parse(doc *ast.CommentGroup) ([]Directive, error) {
	if doc == nil {
		return nil, nil
	}

	var (
		directives []Directive
		errs       []error
	)

	for _, comment := range doc.List {
		d, ok, err := p.ParseLine(comment.Text)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if ok {
			directives = append(directives, d)
		}
	}

	return directives, errors.Join(errs...)
}

// ParseLine parses a single comment line. ok is false when the line is not a
// directive of this namespace.
func (p *Parser) ParseLine(text string) (d Directive, ok bool, err error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, p.prefix) {
		return Directive{}, false, nil
	}

	fields := strings.Fields(strings.TrimPrefix(text, p.prefix))
	if len(fields) == 0 {
		return Directive{}, false, fmt.Errorf("%w: %q has no name", ErrMalformed, text)
	}

	d = Directive{
		Name: fields[0],
		Args: make(map[string]string),
		Line: text,
	}

	for _, field := range fields[1:] {
		key, value, found := strings.Cut(field, "=")
		if !found {
			// Positional shorthand for value=.
			key, value = ArgValue, field
		}

		switch key {
		case ArgValue, ArgAOT:
		default:
			return Directive{}, false, fmt.Errorf("%w: unknown argument %q in %q", ErrMalformed, key, text)
		}

		if _, dup := d.Args[key]; dup {
			return Directive{}, false, fmt.Errorf("%w: duplicate argument %q in %q", ErrMalformed, key, text)
		}

		d.Args[key] = value
	}

	if !d.IsMarker() && len(d.Args) > 0 {
		return Directive{}, false, fmt.Errorf("%w: arguments are only allowed on %s in %q", ErrMalformed, NameProvider, text)
	}

	if _, err := d.AOT(); err != nil {
		return Directive{}, false, fmt.Errorf("%w in %q", err, text)
	}

	return d, true, nil
}

// HasAnnotationDecl reports whether any directive declares an annotation type.
func HasAnnotationDecl(directives []Directive) bool {
	for _, d := range directives {
		if d.IsAnnotationDecl() {
			return true
		}
	}

	return false
}
