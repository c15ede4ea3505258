//go:build rp2040 && accel

package main

import (
	"io"
	"machine"

	"tinygo.org/x/drivers/adxl345"

	"serialsh/core"
)

const (
	accelI2CFrequency = 400 * machine.KHz
	accelFullScale    = 512 // Raw counts for +/-2g in 10-bit mode
)

// accelSource samples the X axis of an ADXL345 on I2C0 (SDA=GP4, SCL=GP5).
// I2C cannot run in interrupt context, so a started conversion is completed
// from the main loop by Poll.
type accelSource struct {
	sensor  adxl345.Device
	result  core.ADCValue
	pending bool
	ready   bool
	sampler *core.Sampler
}

func init() {
	core.RegisterCommand("source", func(w io.Writer, args []string) error {
		io.WriteString(w, "  adxl345 X axis on I2C0 (GP4/GP5), +/-2g\n")
		return nil
	}, "Show the sample source", "usage: source")
}

// newSource configures the accelerometer
func newSource() sampleSource {
	machine.I2C0.Configure(machine.I2CConfig{
		Frequency: accelI2CFrequency,
		SDA:       machine.GP4,
		SCL:       machine.GP5,
	})

	a := &accelSource{sensor: adxl345.New(machine.I2C0)}
	a.sensor.Configure()
	a.sensor.SetRate(adxl345.RATE_100HZ)
	a.sensor.SetRange(adxl345.RANGE_2G)
	return a
}

// Attach connects the sampler notified on completion
func (a *accelSource) Attach(s *core.Sampler) {
	a.sampler = s
}

// Start implements core.ADCDriver
func (a *accelSource) Start() {
	a.pending = true
}

// Result implements core.ADCDriver
func (a *accelSource) Result() core.ADCValue {
	return a.result
}

// EnableReadyInterrupt implements core.ADCDriver
func (a *accelSource) EnableReadyInterrupt() {
	a.ready = true
}

// DisableReadyInterrupt implements core.ADCDriver
func (a *accelSource) DisableReadyInterrupt() {
	a.ready = false
}

// Poll completes a started conversion
func (a *accelSource) Poll() {
	if !a.pending {
		return
	}
	a.pending = false

	x, _, _ := a.sensor.ReadRawAcceleration()
	a.result = scaleAccel(x)
	if a.ready && a.sampler != nil {
		a.sampler.HandleConversionComplete()
	}
}

// scaleAccel maps a signed reading onto the converter's 0..ADCMax range
func scaleAccel(raw int32) core.ADCValue {
	v := (raw + accelFullScale) * (core.ADCMax + 1) / (2 * accelFullScale)
	switch {
	case v < 0:
		return 0
	case v > core.ADCMax:
		return core.ADCMax
	}
	return core.ADCValue(v)
}
