// Package processor drives one build through its rounds.
//
// A Processor starts in StateScanning. Every round resolves the registry key
// of each marker usage and records the declaration in a build-scoped store.
// The terminal round (Round.Last) moves it to StateFinalizing, both registry
// files are emitted, and it ends in StateFinished.
package processor
