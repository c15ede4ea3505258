package core

// UARTDriver is the abstract serial interface the console uses.
// The platform calls Console.HandleRX from its receive-ready interrupt and
// Console.HandleTX from its transmit-ready interrupt.
type UARTDriver interface {
	// SendByte puts one byte on the wire. Only called from the
	// transmit-ready interrupt, so the hardware is always ready.
	SendByte(b byte)

	// EnableRXInterrupt unmasks the receive-ready interrupt.
	EnableRXInterrupt()

	// EnableTXInterrupt unmasks the transmit-ready interrupt. If the
	// transmitter is idle this makes the interrupt fire right away.
	EnableTXInterrupt()

	// DisableTXInterrupt masks the transmit-ready interrupt.
	DisableTXInterrupt()
}
