package protocol

// EscapeState is the one-character lookback of the EscapeFilter.
type EscapeState uint8

const (
	// EscapeIdle means the previous character was not an escape marker.
	EscapeIdle EscapeState = iota
	// EscapePending means an escape marker was swallowed and the next
	// character decides between cancel and pass-through.
	EscapePending
)

// String implements fmt.Stringer.
func (s EscapeState) String() string {
	switch s {
	case EscapeIdle:
		return "idle"
	case EscapePending:
		return "pending"
	default:
		return "unknown"
	}
}

// EscapeFilter recognizes EscapeMarker followed by CancelMarker in the
// outgoing character stream.
//
// Neither character of a complete sequence is transmitted; instead the
// filter reports a cancel. A lone escape marker transmits nothing. Any other
// character after an escape marker clears the lookback and is transmitted.
type EscapeFilter struct {
	state EscapeState
}

// State returns the current lookback state.
func (f *EscapeFilter) State() EscapeState {
	return f.state
}

// Filter feeds one outgoing character through the filter. emit reports
// whether out should be transmitted, cancel whether the cancel sequence has
// just completed.
func (f *EscapeFilter) Filter(c byte) (out byte, emit bool, cancel bool) {
	if f.state == EscapePending {
		f.state = EscapeIdle
		if c == CancelMarker {
			return 0, false, true
		}
		return c, true, false
	}
	if c == EscapeMarker {
		f.state = EscapePending
		return 0, false, false
	}
	return c, true, false
}
