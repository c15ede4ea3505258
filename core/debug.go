package core

import "io"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a console or sampler event for post-mortem analysis
type Event struct {
	Kind  uint8  // Event kind code
	Value uint32 // Context-dependent value
	Seq   uint32 // Monotonic event number
}

// Event kind codes
const (
	EvtRXOverrun     = 1 // RX byte dropped, ring full
	EvtTXDrop        = 2 // TX byte dropped, ring full
	EvtCancel        = 3 // Cancel sequence seen on output
	EvtUnknownCmd    = 4 // Line named no registered command
	EvtLineOverflow  = 5 // Line longer than the accumulator
	EvtSamplerStart  = 6 // Sampler armed by a start request
	EvtSamplerStop   = 7 // Sampler stopped after a cancel
	EvtCommandFailed = 8 // Handler returned an error
)

const (
	EventRingSize = 32 // Keep last 32 events
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Event ring (written from interrupt and foreground context)
	eventRing     [EventRingSize]Event
	eventRingHead uint8
	eventSeq      uint32
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to a second UART, SWO, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent captures an event in the ring buffer.
// Non-blocking and allocation-free; safe from interrupt context.
func RecordEvent(kind uint8, value uint32) {
	state := disableInterrupts()
	eventSeq++
	eventRing[eventRingHead] = Event{Kind: kind, Value: value, Seq: eventSeq}
	eventRingHead = (eventRingHead + 1) % EventRingSize
	restoreInterrupts(state)
}

// Events returns the recorded events, oldest first
func Events() []Event {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	events := make([]Event, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Kind == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// EventName returns a short label for an event kind
func EventName(kind uint8) string {
	switch kind {
	case EvtRXOverrun:
		return "RX_OVERRUN"
	case EvtTXDrop:
		return "TX_DROP"
	case EvtCancel:
		return "CANCEL"
	case EvtUnknownCmd:
		return "UNKNOWN_CMD"
	case EvtLineOverflow:
		return "LINE_OVERFLOW"
	case EvtSamplerStart:
		return "SAMPLER_START"
	case EvtSamplerStop:
		return "SAMPLER_STOP"
	case EvtCommandFailed:
		return "CMD_FAILED"
	default:
		return "UNKNOWN"
	}
}

// DumpEvents writes the event ring, oldest first
func DumpEvents(w io.Writer) {
	for _, evt := range Events() {
		io.WriteString(w, "  #"+utoa(evt.Seq)+" "+EventName(evt.Kind)+" v="+utoa(evt.Value)+"\n")
	}
}

// ClearEvents clears the event ring
func ClearEvents() {
	state := disableInterrupts()
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
	eventSeq = 0
	restoreInterrupts(state)
}
