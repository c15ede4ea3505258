package core

import (
	"bytes"
	"testing"
)

// fakeUART records transmitted bytes and interrupt enables
type fakeUART struct {
	sent      bytes.Buffer
	txEnabled bool
	rxEnables int
}

func (u *fakeUART) SendByte(b byte)     { u.sent.WriteByte(b) }
func (u *fakeUART) EnableRXInterrupt()  { u.rxEnables++ }
func (u *fakeUART) EnableTXInterrupt()  { u.txEnabled = true }
func (u *fakeUART) DisableTXInterrupt() { u.txEnabled = false }

func (u *fakeUART) drain(c *Console) string {
	for u.txEnabled {
		c.HandleTX()
	}
	out := u.sent.String()
	u.sent.Reset()
	return out
}

// fakeADC returns a fixed conversion result
type fakeADC struct {
	value        ADCValue
	starts       int
	readyEnabled bool
	disables     int
}

func (a *fakeADC) Start()                { a.starts++ }
func (a *fakeADC) Result() ADCValue      { return a.value }
func (a *fakeADC) EnableReadyInterrupt() { a.readyEnabled = true }

func (a *fakeADC) DisableReadyInterrupt() {
	a.readyEnabled = false
	a.disables++
}

// fakeTerm is an in-memory Terminal
type fakeTerm struct {
	in  []byte
	out bytes.Buffer
}

func (f *fakeTerm) Getc() (byte, bool) {
	if len(f.in) == 0 {
		return 0, false
	}
	b := f.in[0]
	f.in = f.in[1:]
	return b, true
}

func (f *fakeTerm) Write(p []byte) (int, error) { return f.out.Write(p) }

// withSettleDelay swaps the sampler settle delay for the duration of a test
func withSettleDelay(t *testing.T, fn func(uint32)) {
	t.Helper()
	old := settleDelay
	settleDelay = fn
	t.Cleanup(func() { settleDelay = old })
}

// withGlobalRegistry gives a test its own global command registry
func withGlobalRegistry(t *testing.T) {
	t.Helper()
	old := globalRegistry
	globalRegistry = NewCommandRegistry()
	t.Cleanup(func() { globalRegistry = old })
}

// testFirmware bundles a firmware with its fake drivers
type testFirmware struct {
	fw   *Firmware
	uart *fakeUART
	adc  *fakeADC
}

func newTestFirmware(t *testing.T) *testFirmware {
	t.Helper()
	ClearEvents()
	withSettleDelay(t, func(uint32) {})

	uart := &fakeUART{}
	adc := &fakeADC{value: 2048}
	cfg := DefaultConfig()
	cfg.Prompt = ""
	return &testFirmware{
		fw:   NewFirmware(uart, adc, cfg),
		uart: uart,
		adc:  adc,
	}
}

// typeLine feeds input through the RX interrupt path, polls the shell until
// idle and returns everything transmitted.
func (tf *testFirmware) typeLine(s string) string {
	for i := 0; i < len(s); i++ {
		tf.fw.Console().HandleRX(s[i])
	}
	for tf.fw.Poll() {
	}
	return tf.uart.drain(tf.fw.Console())
}
