package core

import (
	"io"
	"sync/atomic"
)

// SamplerState is the state of the periodic sampler
type SamplerState uint32

// Sampler states
const (
	SamplerIdle     SamplerState = iota // Ready interrupt masked, nothing in flight
	SamplerArmed                        // One conversion in flight
	SamplerSettling                     // Sample emitted, settle delay running
	SamplerStopped                      // Cancel observed, tearing down
)

// String implements fmt.Stringer
func (s SamplerState) String() string {
	switch s {
	case SamplerIdle:
		return "idle"
	case SamplerArmed:
		return "armed"
	case SamplerSettling:
		return "settling"
	case SamplerStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// DefaultSettleIterations is the busy-wait length between samples
const DefaultSettleIterations = 2000000

// ScaleFunc converts a raw conversion into the value printed on the console
type ScaleFunc func(raw ADCValue) uint32

// ScaleCentivolts maps a 12-bit conversion against a 3.3V reference to
// hundredths of a volt.
func ScaleCentivolts(raw ADCValue) uint32 {
	return (330 * uint32(raw)) >> 12
}

// Sampler runs back-to-back conversions, printing one scaled value per
// completed conversion until cancelled.
//
// Start and Cancel run in the foreground (or wherever the console is
// written). HandleConversionComplete runs in the conversion-ready
// interrupt. A cancel is advisory: it is only looked at after the next
// sample has been printed, so one more sample can follow a cancel request.
type Sampler struct {
	adc    ADCDriver
	out    io.Writer
	scale  ScaleFunc
	settle uint32

	// overwrite toggles single-line output on the console while running
	overwrite func(bool)

	state   uint32 // atomic SamplerState
	cancel  uint32 // atomic bool
	first   uint32 // atomic bool: next sample is the first of the run
	samples uint32 // atomic

	line [16]byte // Sample formatting scratch, interrupt context only
}

// NewSampler creates a sampler reading adc and printing to out
func NewSampler(adc ADCDriver, out io.Writer, settleIterations uint32) *Sampler {
	return &Sampler{
		adc:    adc,
		out:    out,
		scale:  ScaleCentivolts,
		settle: settleIterations,
	}
}

// SetScale replaces the raw-to-printed conversion
func (s *Sampler) SetScale(fn ScaleFunc) {
	s.scale = fn
}

// SetOverwriteFunc sets the hook used to enter and leave single-line output
func (s *Sampler) SetOverwriteFunc(fn func(bool)) {
	s.overwrite = fn
}

// State returns the current state
func (s *Sampler) State() SamplerState {
	return SamplerState(atomic.LoadUint32(&s.state))
}

// Samples returns the number of samples printed since start-up
func (s *Sampler) Samples() uint32 {
	return atomic.LoadUint32(&s.samples)
}

// CancelPending reports whether a cancel request is waiting to be observed
func (s *Sampler) CancelPending() bool {
	return atomic.LoadUint32(&s.cancel) != 0
}

// Start arms the conversion-ready interrupt and begins the first
// conversion. It returns false if the sampler is already running.
// Single-line output starts once the first sample is printed.
func (s *Sampler) Start() bool {
	if !atomic.CompareAndSwapUint32(&s.state, uint32(SamplerIdle), uint32(SamplerArmed)) {
		return false
	}
	// A cancel left over from an idle period must not stop this run
	atomic.StoreUint32(&s.cancel, 0)
	atomic.StoreUint32(&s.first, 1)
	RecordEvent(EvtSamplerStart, 0)

	s.adc.EnableReadyInterrupt()
	s.adc.Start()
	return true
}

// Cancel asks the sampler to stop after the conversion in flight.
// It does nothing while idle.
func (s *Sampler) Cancel() {
	if s.State() == SamplerIdle {
		return
	}
	atomic.StoreUint32(&s.cancel, 1)
}

// HandleConversionComplete is called from the conversion-ready interrupt
func (s *Sampler) HandleConversionComplete() {
	if s.State() != SamplerArmed {
		// Spurious or late completion
		return
	}

	raw := s.adc.Result()
	line := append(s.line[:0], '\n')
	line = appendUint(line, s.scale(raw))
	s.out.Write(line)
	atomic.AddUint32(&s.samples, 1)

	// The first sample of a run keeps its own line, later ones overwrite it
	if atomic.SwapUint32(&s.first, 0) != 0 && s.overwrite != nil {
		s.overwrite(true)
	}

	atomic.StoreUint32(&s.state, uint32(SamplerSettling))
	settleDelay(s.settle)

	// Observe the cancel exactly once per completion
	if atomic.SwapUint32(&s.cancel, 0) != 0 {
		atomic.StoreUint32(&s.state, uint32(SamplerStopped))
		s.adc.DisableReadyInterrupt()
		if s.overwrite != nil {
			s.overwrite(false)
		}
		RecordEvent(EvtSamplerStop, atomic.LoadUint32(&s.samples))
		atomic.StoreUint32(&s.state, uint32(SamplerIdle))
		return
	}

	atomic.StoreUint32(&s.state, uint32(SamplerArmed))
	s.adc.Start()
}

// settleSink keeps the delay loop from being optimized away
var settleSink uint32

// settleDelay runs between printing a sample and deciding whether to re-arm
var settleDelay = busyWait

// busyWait spins for a fixed number of iterations
func busyWait(iterations uint32) {
	var acc uint32
	for i := uint32(0); i < iterations; i++ {
		acc += i
	}
	atomic.StoreUint32(&settleSink, acc)
}
