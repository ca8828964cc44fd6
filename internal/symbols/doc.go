// Package symbols defines the symbol-table abstraction the generator consumes.
//
// A Symbol Source (see package analyze) supplies, round by round, the
// declarations that carry the provider marker together with a SymbolTable
// that answers three questions about each of them:
//   - Arguments: the resolved marker arguments, direct or via meta-annotations
//   - Supertypes: the direct supertypes, classified by kind
//   - CanonicalName: the canonical name of the declaration
package symbols
