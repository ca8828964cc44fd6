// Package diagnostic provides structured records of everything the generator
// skipped or failed to write, so a run can be summarized after the fact.
//
// Codes:
//   - UnresolvableProviderInterface: no registry key for a declaration
//   - InvalidDirective: a directive or type reference could not be parsed or resolved
//   - OutputWriteFailure: an output file or one of its records could not be written
//   - EmptyAggregation: a target registry had nothing to write
package diagnostic
