// Package emit writes the aggregated registries.
//
// One output resource is produced per non-empty target registry. Each record
// has the form
//
//	<registry key>=\
//	<implementor 1>,\
//	<implementor 2>
//	<blank line>
//
// with keys and implementors sorted, so unchanged inputs always produce
// byte-identical files. Every artifact is created through a CodeGenerator
// together with the list of source files it depends on.
package emit
