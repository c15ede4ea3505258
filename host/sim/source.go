package sim

import (
	"math"
	"sync/atomic"
	"time"

	"serialsh/core"
)

// Source produces the analog level seen by the simulated converter
type Source interface {
	Read() core.ADCValue
}

// SourceFunc adapts a function to Source
type SourceFunc func() core.ADCValue

// Read implements Source
func (f SourceFunc) Read() core.ADCValue { return f() }

// Constant returns a source fixed at v
func Constant(v core.ADCValue) Source {
	return SourceFunc(func() core.ADCValue { return v })
}

// Sine returns a full-scale sine wave with the given period
func Sine(period time.Duration) Source {
	start := time.Now()
	return SourceFunc(func() core.ADCValue {
		phase := 2 * math.Pi * float64(time.Since(start)) / float64(period)
		return core.ADCValue(math.Round((math.Sin(phase) + 1) / 2 * core.ADCMax))
	})
}

// Ramp returns a source that steps by step on every read, wrapping at full scale
func Ramp(step core.ADCValue) Source {
	var level atomic.Uint32
	return SourceFunc(func() core.ADCValue {
		v := level.Add(uint32(step)) - uint32(step)
		return core.ADCValue(v % (core.ADCMax + 1))
	})
}
