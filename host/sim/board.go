// Package sim runs the console firmware on the host against simulated
// UART and ADC peripherals.
//
// A single CPU lock stands in for the processor: the foreground loop holds
// it for each shell step and every simulated interrupt handler holds it
// while it runs, so handlers only preempt between foreground steps.
package sim

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"serialsh/core"
)

// Config holds simulator settings
type Config struct {
	Firmware           core.Config
	ConversionInterval time.Duration // Time from converter start to result ready
}

// DefaultConfig returns the simulator defaults
func DefaultConfig() Config {
	return Config{
		Firmware:           core.DefaultConfig(),
		ConversionInterval: 100 * time.Millisecond,
	}
}

// Board is a virtual board running one firmware instance
type Board struct {
	cpu sync.Mutex

	cfg  Config
	fw   *core.Firmware
	uart *uart
	adc  *adc
	out  io.Writer
	log  zerolog.Logger

	rxKick chan struct{}
}

// NewBoard builds a board whose console output goes to out
func NewBoard(cfg Config, src Source, out io.Writer, log zerolog.Logger) *Board {
	b := &Board{
		cfg:    cfg,
		out:    out,
		log:    log.With().Str("component", "sim").Logger(),
		rxKick: make(chan struct{}, 1),
	}
	b.uart = &uart{kick: make(chan struct{}, 1)}
	b.adc = &adc{src: src, startc: make(chan struct{}, 1)}
	b.fw = core.NewFirmware(b.uart, b.adc, cfg.Firmware)
	return b
}

// Firmware returns the firmware running on the board
func (b *Board) Firmware() *core.Firmware {
	return b.fw
}

// Feed delivers p to the board one receive interrupt per byte
func (b *Board) Feed(p []byte) {
	for _, c := range p {
		b.cpu.Lock()
		b.uart.rxInterrupts++
		b.fw.Console().HandleRX(c)
		b.cpu.Unlock()
	}
	select {
	case b.rxKick <- struct{}{}:
	default:
	}
}

// Write implements io.Writer by feeding p to the board
func (b *Board) Write(p []byte) (int, error) {
	b.Feed(p)
	return len(p), nil
}

// Run starts the firmware and runs the foreground loop and the peripheral
// models until ctx is done.
func (b *Board) Run(ctx context.Context) error {
	b.cpu.Lock()
	b.fw.Start()
	b.cpu.Unlock()

	b.log.Info().
		Int("queue_size", b.cfg.Firmware.QueueSize).
		Uint32("settle_iterations", b.cfg.Firmware.SettleIterations).
		Dur("conversion_interval", b.cfg.ConversionInterval).
		Msg("board started")
	defer b.log.Info().Msg("board stopped")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.foreground(ctx) })
	g.Go(func() error { return b.transmitter(ctx) })
	g.Go(func() error { return b.converter(ctx) })
	return g.Wait()
}

func (b *Board) foreground(ctx context.Context) error {
	for {
		b.cpu.Lock()
		worked := b.fw.Poll()
		b.cpu.Unlock()
		if worked {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-b.rxKick:
		}
	}
}

// transmitter drains the TX ring while the TX interrupt is enabled
func (b *Board) transmitter(ctx context.Context) error {
	var pending bytes.Buffer
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.uart.kick:
		}

		b.cpu.Lock()
		for b.uart.txEnabled {
			b.fw.Console().HandleTX()
		}
		pending.Write(b.uart.shift.Bytes())
		b.uart.shift.Reset()
		b.cpu.Unlock()

		if pending.Len() == 0 {
			continue
		}
		if _, err := b.out.Write(pending.Bytes()); err != nil {
			b.log.Warn().Err(err).Msg("console output failed")
		}
		pending.Reset()
	}
}

// converter completes each started conversion after the conversion interval
func (b *Board) converter(ctx context.Context) error {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.adc.startc:
		}

		timer.Reset(b.cfg.ConversionInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		b.cpu.Lock()
		b.adc.result = b.adc.src.Read()
		if b.adc.readyEnabled {
			b.fw.Sampler().HandleConversionComplete()
		}
		b.cpu.Unlock()
	}
}

// uart models a UART whose TX interrupt fires while enabled and the
// transmitter is idle. Fields are guarded by the board CPU lock.
type uart struct {
	shift        bytes.Buffer
	txEnabled    bool
	rxEnabled    bool
	rxInterrupts int
	kick         chan struct{}
}

func (u *uart) SendByte(c byte)     { u.shift.WriteByte(c) }
func (u *uart) EnableRXInterrupt()  { u.rxEnabled = true }
func (u *uart) DisableTXInterrupt() { u.txEnabled = false }

func (u *uart) EnableTXInterrupt() {
	u.txEnabled = true
	select {
	case u.kick <- struct{}{}:
	default:
	}
}

// adc models a single-channel converter. Fields are guarded by the board
// CPU lock.
type adc struct {
	src          Source
	result       core.ADCValue
	readyEnabled bool
	startc       chan struct{}
}

func (a *adc) Result() core.ADCValue  { return a.result }
func (a *adc) EnableReadyInterrupt()  { a.readyEnabled = true }
func (a *adc) DisableReadyInterrupt() { a.readyEnabled = false }

func (a *adc) Start() {
	select {
	case a.startc <- struct{}{}:
	default:
	}
}
