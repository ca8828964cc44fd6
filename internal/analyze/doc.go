// Package analyze turns Go source into rounds for the processor.
//
// It loads packages with golang.org/x/tools/go/packages, indexes annotation
// types, discovers declarations carrying //factories: directives and answers
// symbol queries about them:
//   - Loader: package loading
//   - Table: the symbols.SymbolTable over the loaded packages
//   - Source: splits packages into rounds and drives a processor
package analyze
