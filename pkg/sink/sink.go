// Package sink holds the destinations a Dumper mirrors its blocks to, and
// that the relay forwards received blocks to.
package sink

// Sink receives encoded dump blocks.
type Sink interface {
	// Write handles one block. Implementations must not retain data.
	Write(data []byte) error
	// Close releases connections or files held by the sink.
	Close() error
}
