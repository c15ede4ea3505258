//go:build !tinygo

package core

import "sync/atomic"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// maskDepth counts nested critical sections so tests can check that every
// path restores the mask. Exclusion against simulated interrupt handlers is
// provided by the host simulator, not here.
var maskDepth atomic.Int32

// disableInterrupts enters a critical section (bookkeeping only on regular Go)
func disableInterrupts() State {
	return State(maskDepth.Add(1) - 1)
}

// restoreInterrupts leaves the critical section entered by disableInterrupts
func restoreInterrupts(state State) {
	maskDepth.Add(-1)
}

// InterruptsMasked reports whether any critical section is still open
func InterruptsMasked() bool {
	return maskDepth.Load() != 0
}
