//go:build rp2040

package main

import (
	"device/arm"
	"device/rp"
	"machine"
	"runtime/interrupt"

	"serialsh/core"
)

// consoleUART drives UART0 for the console. FIFOs are disabled so the TX
// interrupt means "holding register empty" and each RX interrupt carries
// one byte.
type consoleUART struct {
	bus     *rp.UART0_Type
	console *core.Console
}

var uart0 = &consoleUART{bus: rp.UART0}

// Configure resets UART0, sets 8N1 at baud and installs the interrupt handler
func (u *consoleUART) Configure(baud uint32, tx, rx machine.Pin) {
	rp.RESETS.RESET.SetBits(rp.RESETS_RESET_UART0)
	rp.RESETS.RESET.ClearBits(rp.RESETS_RESET_UART0)
	for !rp.RESETS.RESET_DONE.HasBits(rp.RESETS_RESET_UART0) {
	}

	u.setBaudRate(baud)
	// 8 data bits, 1 stop bit, no parity, FIFOs off
	u.bus.UARTLCR_H.Set(3 << rp.UART0_UARTLCR_H_WLEN_Pos)
	u.bus.UARTCR.Set(rp.UART0_UARTCR_UARTEN | rp.UART0_UARTCR_RXE | rp.UART0_UARTCR_TXE)

	tx.Configure(machine.PinConfig{Mode: machine.PinUART})
	rx.Configure(machine.PinConfig{Mode: machine.PinUART})

	intr := interrupt.New(rp.IRQ_UART0_IRQ, handleUART0)
	// Above the ADC so reception continues during the sample settle delay
	intr.SetPriority(0x40)
	intr.Enable()
}

func (u *consoleUART) setBaudRate(br uint32) {
	div := 8 * machine.CPUFrequency() / br
	ibrd := div >> 7
	var fbrd uint32
	switch {
	case ibrd == 0:
		ibrd, fbrd = 1, 0
	case ibrd >= 65535:
		ibrd, fbrd = 65535, 0
	default:
		fbrd = ((div & 0x7f) + 1) / 2
	}
	u.bus.UARTIBRD.Set(ibrd)
	u.bus.UARTFBRD.Set(fbrd)
	u.bus.UARTLCR_H.SetBits(0) // PL011 latches divisors on an LCR_H write
}

// Attach connects the console whose rings the interrupt handler services
func (u *consoleUART) Attach(c *core.Console) {
	u.console = c
}

// SendByte implements core.UARTDriver
func (u *consoleUART) SendByte(b byte) {
	u.bus.UARTDR.Set(uint32(b))
}

// EnableRXInterrupt implements core.UARTDriver
func (u *consoleUART) EnableRXInterrupt() {
	u.bus.UARTIMSC.SetBits(rp.UART0_UARTIMSC_RXIM)
}

// EnableTXInterrupt implements core.UARTDriver. The PL011 raises TXRIS on
// the transition to empty, so an idle transmitter is started by pending
// the interrupt by hand.
func (u *consoleUART) EnableTXInterrupt() {
	if u.bus.UARTIMSC.HasBits(rp.UART0_UARTIMSC_TXIM) {
		return
	}
	u.bus.UARTIMSC.SetBits(rp.UART0_UARTIMSC_TXIM)
	if u.bus.UARTFR.HasBits(rp.UART0_UARTFR_TXFE) {
		arm.NVIC.ISPR[0].Set(1 << rp.IRQ_UART0_IRQ)
	}
}

// DisableTXInterrupt implements core.UARTDriver
func (u *consoleUART) DisableTXInterrupt() {
	u.bus.UARTIMSC.ClearBits(rp.UART0_UARTIMSC_TXIM)
}

// handleUART0 services receive then transmit in one entry
func handleUART0(interrupt.Interrupt) {
	u := uart0
	if u.console == nil {
		u.bus.UARTICR.Set(0x7ff)
		return
	}

	for !u.bus.UARTFR.HasBits(rp.UART0_UARTFR_RXFE) {
		u.console.HandleRX(byte(u.bus.UARTDR.Get() & 0xff))
	}

	if u.bus.UARTIMSC.HasBits(rp.UART0_UARTIMSC_TXIM) && u.bus.UARTFR.HasBits(rp.UART0_UARTFR_TXFE) {
		u.bus.UARTICR.Set(rp.UART0_UARTICR_TXIC)
		u.console.HandleTX()
	}
}
