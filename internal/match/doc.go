// Package match finds near misses among identifiers, so an unknown type
// reference can be reported together with the name that was probably meant.
//
// Key functions:
//   - Levenshtein: edit distance between strings
//   - Similarity: normalized similarity of two identifiers
//   - Closest: the best candidate for a misspelled name
package match
