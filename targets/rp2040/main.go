//go:build rp2040

package main

import (
	"machine"
	"time"

	"serialsh/core"
)

// sampleSource is the converter behind the sampler
type sampleSource interface {
	core.ADCDriver
	Attach(s *core.Sampler)
	Poll() // Foreground work for sources without a completion interrupt
}

var panics uint32

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	// Debug output goes to the default serial (USB CDC), the console owns UART0
	core.SetDebugWriter(func(s string) { println(s) })

	uart0.Configure(115200, machine.UART0_TX_PIN, machine.UART0_RX_PIN)
	src := newSource()

	fw := core.InitFirmware(uart0, src, core.DefaultConfig())
	uart0.Attach(fw.Console())
	src.Attach(fw.Sampler())

	fw.Start()
	core.DebugPrintln("serialsh console on UART0")

	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					panics++
					core.DebugPrintln("main loop panic")
				}
			}()

			for fw.Poll() {
			}
			src.Poll()
		}()

		// Yield to other goroutines
		time.Sleep(10 * time.Microsecond)
	}
}
