// Package annotation parses the doc-comment directives that play the role of
// annotations in Go source.
//
// A directive is a comment line of the form
//
//	//factories:<name> [value=<TypeRef>] [aot=<bool>]
//
// where <name> is "provider" for the marker itself, "annotation" to declare an
// annotation type, or a reference to an annotation type (meta-annotation use).
// A bare argument without "=" is shorthand for value=.
package annotation
