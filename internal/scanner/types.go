// internal/scanner/types.go
package scanner

import "time"

// Function selects which bank a read block refreshes.
type Function string

const (
	Coil            Function = "coil"
	HoldingRegister Function = "holding_register"
)

// ReadBlock describes one polling job.
// Length counts coils or words, not bytes.
type ReadBlock struct {
	Function Function
	Unit     uint8
	Start    uint16
	Length   uint16
}

// BlockResult is the outcome of one block within a cycle.
type BlockResult struct {
	Block   ReadBlock
	Err     error // non-nil means the block failed or was skipped
	Skipped bool  // configuration error, no bus traffic happened
}

// CycleResult is what one pass over the configured blocks produced.
type CycleResult struct {
	At     time.Time
	Blocks []BlockResult

	// Interrupted is set when shutdown stopped the cycle before every block ran.
	Interrupted bool
}

// Failed counts blocks that did not refresh the image.
func (r CycleResult) Failed() int {
	n := 0
	for _, b := range r.Blocks {
		if b.Err != nil {
			n++
		}
	}
	return n
}
