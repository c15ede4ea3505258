package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScaleCentivolts(t *testing.T) {
	tests := []struct {
		raw  ADCValue
		want uint32
	}{
		{0, 0},
		{2048, 165},
		{ADCMax, 329},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ScaleCentivolts(tt.raw), "raw %d", tt.raw)
	}
}

func TestSamplerStateString(t *testing.T) {
	require.Equal(t, "idle", SamplerIdle.String())
	require.Equal(t, "armed", SamplerArmed.String())
	require.Equal(t, "settling", SamplerSettling.String())
	require.Equal(t, "stopped", SamplerStopped.String())
	require.Equal(t, "unknown", SamplerState(42).String())
}

func TestSamplerSampleCycle(t *testing.T) {
	var out bytes.Buffer
	adc := &fakeADC{value: ADCMax}
	s := NewSampler(adc, &out, 10)

	var during SamplerState
	var iterations uint32
	withSettleDelay(t, func(n uint32) {
		during = s.State()
		iterations = n
	})

	require.Equal(t, SamplerIdle, s.State())
	require.True(t, s.Start())
	require.Equal(t, SamplerArmed, s.State())
	require.True(t, adc.readyEnabled)
	require.Equal(t, 1, adc.starts)

	s.HandleConversionComplete()
	require.Equal(t, SamplerSettling, during)
	require.Equal(t, uint32(10), iterations)
	require.Equal(t, SamplerArmed, s.State())
	require.Equal(t, 2, adc.starts, "next conversion started after settling")
	require.Equal(t, "\n329", out.String())
	require.Equal(t, uint32(1), s.Samples())
}

func TestSamplerOverwriteAfterFirstSample(t *testing.T) {
	withSettleDelay(t, func(uint32) {})
	s := NewSampler(&fakeADC{}, &bytes.Buffer{}, 0)

	var overwrite []bool
	s.SetOverwriteFunc(func(en bool) { overwrite = append(overwrite, en) })

	require.True(t, s.Start())
	require.Empty(t, overwrite, "first sample gets its own line")

	s.HandleConversionComplete()
	require.Equal(t, []bool{true}, overwrite)
	s.HandleConversionComplete()
	require.Equal(t, []bool{true}, overwrite)

	s.Cancel()
	s.HandleConversionComplete()
	require.Equal(t, []bool{true, false}, overwrite)

	// A new run starts on a fresh line again
	require.True(t, s.Start())
	require.Equal(t, []bool{true, false}, overwrite)
	s.HandleConversionComplete()
	require.Equal(t, []bool{true, false, true}, overwrite)
}

func TestSamplerStartWhileRunning(t *testing.T) {
	withSettleDelay(t, func(uint32) {})
	s := NewSampler(&fakeADC{}, &bytes.Buffer{}, 0)

	require.True(t, s.Start())
	require.False(t, s.Start())
}

func TestSamplerCancelDuringSettle(t *testing.T) {
	var out bytes.Buffer
	adc := &fakeADC{value: 2048}
	s := NewSampler(adc, &out, 0)

	var overwrite []bool
	var stateAtStop SamplerState
	s.SetOverwriteFunc(func(en bool) {
		overwrite = append(overwrite, en)
		if !en {
			stateAtStop = s.State()
		}
	})
	withSettleDelay(t, func(uint32) { s.Cancel() })

	require.True(t, s.Start())
	s.HandleConversionComplete()

	require.Equal(t, SamplerStopped, stateAtStop)
	require.Equal(t, SamplerIdle, s.State())
	require.Equal(t, []bool{true, false}, overwrite)
	require.False(t, adc.readyEnabled)
	require.Equal(t, 1, adc.starts, "no conversion started after cancel")
	require.False(t, s.CancelPending())

	// A late completion prints nothing
	s.HandleConversionComplete()
	require.Equal(t, "\n165", out.String())
	require.Equal(t, uint32(1), s.Samples())
}

func TestSamplerCancelBeforeCompletion(t *testing.T) {
	withSettleDelay(t, func(uint32) {})
	var out bytes.Buffer
	adc := &fakeADC{value: 0}
	s := NewSampler(adc, &out, 0)

	require.True(t, s.Start())
	s.Cancel()
	require.True(t, s.CancelPending())
	require.Equal(t, SamplerArmed, s.State())

	// The conversion in flight is still printed
	s.HandleConversionComplete()
	require.Equal(t, "\n0", out.String())
	require.Equal(t, SamplerIdle, s.State())
	require.Equal(t, 1, adc.disables)
}

func TestSamplerCancelWhileIdle(t *testing.T) {
	withSettleDelay(t, func(uint32) {})
	adc := &fakeADC{}
	s := NewSampler(adc, &bytes.Buffer{}, 0)

	s.Cancel()
	require.False(t, s.CancelPending())

	require.True(t, s.Start())
	s.HandleConversionComplete()
	require.Equal(t, SamplerArmed, s.State(), "idle cancel does not stop a later run")
}

func TestSamplerCustomScale(t *testing.T) {
	withSettleDelay(t, func(uint32) {})
	var out bytes.Buffer
	s := NewSampler(&fakeADC{value: 7}, &out, 0)
	s.SetScale(func(raw ADCValue) uint32 { return uint32(raw) * 2 })

	s.Start()
	s.HandleConversionComplete()
	require.Equal(t, "\n14", out.String())
}
