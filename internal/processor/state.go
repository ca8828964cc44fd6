package processor

//go:generate go tool stringer -type=State -linecomment

// State is the lifecycle state of a Processor.
type State int32

const (
	StateScanning   State = iota // scanning
	StateFinalizing              // finalizing
	StateFinished                // finished
)
