//go:build rp2040 && !accel

package main

import (
	"device/rp"
	"io"
	"machine"
	"runtime/interrupt"

	"serialsh/core"
)

// sampleADC runs single conversions on one input and reports completion
// through the ADC FIFO interrupt.
type sampleADC struct {
	channel uint32
	result  core.ADCValue
	sampler *core.Sampler
}

var adc0 = &sampleADC{}

func init() {
	core.RegisterCommand("source", func(w io.Writer, args []string) error {
		io.WriteString(w, "  adc0 on GPIO26, 12-bit, 3.3V reference\n")
		return nil
	}, "Show the sample source", "usage: source")
}

// newSource configures the analog input on GPIO26
func newSource() sampleSource {
	adc0.Configure(machine.ADC0)
	return adc0
}

// Configure selects the input pin and enables the FIFO interrupt path.
// The FIFO threshold of one makes every conversion raise the interrupt.
func (a *sampleADC) Configure(pin machine.Pin) {
	machine.InitADC()
	adc := machine.ADC{Pin: pin}
	adc.Configure(machine.ADCConfig{})

	// GPIO26..29 are ADC0..3
	a.channel = uint32(pin) - 26
	rp.ADC.CS.ReplaceBits(a.channel<<rp.ADC_CS_AINSEL_Pos, rp.ADC_CS_AINSEL_Msk, 0)

	rp.ADC.FCS.Set(rp.ADC_FCS_EN | 1<<rp.ADC_FCS_THRESH_Pos)

	intr := interrupt.New(rp.IRQ_ADC_IRQ_FIFO, handleADC)
	intr.SetPriority(0xc0)
	intr.Enable()
}

// Attach connects the sampler notified on completion
func (a *sampleADC) Attach(s *core.Sampler) {
	a.sampler = s
}

// Poll implements sampleSource. Completion is interrupt driven.
func (a *sampleADC) Poll() {}

// Start implements core.ADCDriver
func (a *sampleADC) Start() {
	rp.ADC.CS.SetBits(rp.ADC_CS_START_ONCE)
}

// Result implements core.ADCDriver
func (a *sampleADC) Result() core.ADCValue {
	return a.result
}

// EnableReadyInterrupt implements core.ADCDriver
func (a *sampleADC) EnableReadyInterrupt() {
	rp.ADC.INTE.SetBits(rp.ADC_INTE_FIFO)
}

// DisableReadyInterrupt implements core.ADCDriver
func (a *sampleADC) DisableReadyInterrupt() {
	rp.ADC.INTE.ClearBits(rp.ADC_INTE_FIFO)
}

func handleADC(interrupt.Interrupt) {
	a := adc0
	// Reading the FIFO drops the level below threshold and clears the request
	for rp.ADC.FCS.Get()&rp.ADC_FCS_LEVEL_Msk != 0 {
		a.result = core.ADCValue(rp.ADC.FIFO.Get() & core.ADCMax)
	}
	if a.sampler != nil {
		a.sampler.HandleConversionComplete()
	}
}
