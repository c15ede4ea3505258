package core

import (
	"io"
	"sync/atomic"

	"serialsh/protocol"
)

// ConsoleStats holds the console's error counters
type ConsoleStats struct {
	RXOverruns uint32 // Bytes lost because the RX ring was full
	TXDrops    uint32 // Bytes lost because the TX ring was full
	Cancels    uint32 // Cancel sequences seen on output
}

// Console is the non-blocking character channel between the UART
// interrupt handlers and the foreground loop.
//
// RX: HandleRX (interrupt) produces, Getc (foreground) consumes.
// TX: Putc produces from the foreground and Raw from the sampler interrupt,
// HandleTX (interrupt) consumes. Because TX has two producers, every push
// happens with interrupts masked.
type Console struct {
	rx     *protocol.RingBuffer
	tx     *protocol.RingBuffer
	uart   UARTDriver
	filter protocol.EscapeFilter

	autoCRLF  bool
	overwrite uint32 // atomic bool: newline emits CR only
	onCancel  func()

	rxOverruns uint32 // atomic
	txDrops    uint32 // atomic
	cancels    uint32 // atomic
}

// NewConsole creates a console over uart with queueSize-slot RX and TX rings
func NewConsole(uart UARTDriver, queueSize int, autoCRLF bool) *Console {
	return &Console{
		rx:       protocol.NewRingBuffer(queueSize),
		tx:       protocol.NewRingBuffer(queueSize),
		uart:     uart,
		autoCRLF: autoCRLF,
	}
}

// OnCancel sets the function called when the cancel sequence is written.
// It runs in the context of the writer.
func (c *Console) OnCancel(fn func()) {
	c.onCancel = fn
}

// SetOverwrite switches newline handling so a newline emits a carriage
// return only, letting periodic output overwrite one terminal line.
func (c *Console) SetOverwrite(en bool) {
	if en {
		atomic.StoreUint32(&c.overwrite, 1)
	} else {
		atomic.StoreUint32(&c.overwrite, 0)
	}
}

// Getc returns the next received byte, or false if none is buffered.
// It never blocks.
func (c *Console) Getc() (byte, bool) {
	if c.rx.IsEmpty() {
		return 0, false
	}
	state := disableInterrupts()
	b, ok := c.rx.Pop()
	restoreInterrupts(state)
	return b, ok
}

// Putc queues one byte for transmission. Bytes that do not fit are dropped.
// Only the foreground writes through here, so the escape filter has a
// single owner.
func (c *Console) Putc(ch byte) {
	if ch == protocol.CharLF && c.autoCRLF {
		c.Putc(protocol.CharCR)
		if atomic.LoadUint32(&c.overwrite) != 0 {
			return
		}
	}

	state := disableInterrupts()
	out, emit, cancel := c.filter.Filter(ch)
	if !emit {
		restoreInterrupts(state)
		if cancel {
			atomic.AddUint32(&c.cancels, 1)
			RecordEvent(EvtCancel, 0)
			if c.onCancel != nil {
				c.onCancel()
			}
		}
		return
	}
	pushed := c.tx.Push(out)
	restoreInterrupts(state)
	c.kick(out, pushed)
}

// putRaw queues one byte without passing it through the escape filter.
// Newline handling still applies.
func (c *Console) putRaw(ch byte) {
	if ch == protocol.CharLF && c.autoCRLF {
		c.putRaw(protocol.CharCR)
		if atomic.LoadUint32(&c.overwrite) != 0 {
			return
		}
	}

	state := disableInterrupts()
	pushed := c.tx.Push(ch)
	restoreInterrupts(state)
	c.kick(ch, pushed)
}

// kick starts the transmitter after a push, or counts the drop
func (c *Console) kick(b byte, pushed bool) {
	if !pushed {
		atomic.AddUint32(&c.txDrops, 1)
		RecordEvent(EvtTXDrop, uint32(b))
		return
	}

	// The transmitter may have drained and masked itself
	c.uart.EnableTXInterrupt()
}

// Raw returns a writer for interrupt-side output. It bypasses the escape
// filter, so it cannot split a cancel sequence the foreground is writing.
func (c *Console) Raw() io.Writer {
	return rawWriter{c}
}

type rawWriter struct {
	c *Console
}

func (w rawWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		w.c.putRaw(b)
	}
	return len(p), nil
}

// Write implements io.Writer. Output is best-effort: it always reports
// len(p) bytes written and a nil error, even if some were dropped.
func (c *Console) Write(p []byte) (int, error) {
	for _, b := range p {
		c.Putc(b)
	}
	return len(p), nil
}

// WriteString implements io.StringWriter
func (c *Console) WriteString(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		c.Putc(s[i])
	}
	return len(s), nil
}

// HandleRX is called from the receive-ready interrupt with the received byte
func (c *Console) HandleRX(b byte) {
	// Some parts drop the RX enable unexpectedly; re-arm on every entry
	c.uart.EnableRXInterrupt()

	if !c.rx.Push(b) {
		atomic.AddUint32(&c.rxOverruns, 1)
		RecordEvent(EvtRXOverrun, uint32(b))
	}
}

// HandleTX is called from the transmit-ready interrupt. It sends one
// queued byte, or masks the interrupt when nothing is left.
func (c *Console) HandleTX() {
	if b, ok := c.tx.Pop(); ok {
		c.uart.SendByte(b)
		return
	}
	c.uart.DisableTXInterrupt()
}

// TXPending returns the number of bytes waiting to be transmitted
func (c *Console) TXPending() int {
	return c.tx.Len()
}

// RXPending returns the number of received bytes not yet read
func (c *Console) RXPending() int {
	return c.rx.Len()
}

// Stats returns a snapshot of the error counters
func (c *Console) Stats() ConsoleStats {
	return ConsoleStats{
		RXOverruns: atomic.LoadUint32(&c.rxOverruns),
		TXDrops:    atomic.LoadUint32(&c.txDrops),
		Cancels:    atomic.LoadUint32(&c.cancels),
	}
}
