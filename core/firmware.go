package core

import (
	"io"

	"serialsh/protocol"
)

// Config holds firmware build-time settings
type Config struct {
	QueueSize        int    // Slots per RX/TX ring, one is kept free
	LineMax          int    // Longest accepted command line
	AutoCRLF         bool   // Emit CR before every LF
	Echo             bool   // Echo typed characters
	Prompt           string // Printed before each line, empty for none
	SettleIterations uint32 // Busy-wait between samples
}

// DefaultConfig returns the standard console settings
func DefaultConfig() Config {
	return Config{
		QueueSize:        protocol.QueueSize,
		LineMax:          protocol.LineMax,
		AutoCRLF:         true,
		Echo:             true,
		Prompt:           "> ",
		SettleIterations: DefaultSettleIterations,
	}
}

// Firmware ties the console, sampler and shell together
type Firmware struct {
	uart     UARTDriver
	console  *Console
	sampler  *Sampler
	registry *CommandRegistry
	shell    *Shell
}

var firmware *Firmware

// NewFirmware builds a firmware instance over the given drivers.
// Commands registered on the global registry are added after the built-ins.
func NewFirmware(uart UARTDriver, adc ADCDriver, cfg Config) *Firmware {
	if cfg.QueueSize < 2 {
		panic("firmware: QueueSize must be at least 2")
	}

	fw := &Firmware{
		uart:     uart,
		console:  NewConsole(uart, cfg.QueueSize, cfg.AutoCRLF),
		registry: NewCommandRegistry(),
	}
	fw.sampler = NewSampler(adc, fw.console.Raw(), cfg.SettleIterations)
	fw.sampler.SetOverwriteFunc(fw.console.SetOverwrite)
	fw.console.OnCancel(fw.sampler.Cancel)

	registerBuiltins(fw.registry, fw)
	for _, cmd := range globalRegistry.Commands() {
		if err := fw.registry.Register(*cmd); err != nil {
			panic("register " + cmd.Name + ": " + err.Error())
		}
	}

	fw.shell = NewShell(fw.console, fw.registry, cfg.LineMax)
	fw.shell.SetEcho(cfg.Echo)
	fw.shell.SetPrompt(cfg.Prompt)
	return fw
}

// InitFirmware creates the process-wide firmware instance.
// Calling it twice is a programming error.
func InitFirmware(uart UARTDriver, adc ADCDriver, cfg Config) *Firmware {
	if firmware != nil {
		panic("firmware already initialized")
	}
	firmware = NewFirmware(uart, adc, cfg)
	return firmware
}

// GetFirmware returns the process-wide firmware instance, or nil
func GetFirmware() *Firmware {
	return firmware
}

// Start freezes the command set, enables reception and prints the banner
func (fw *Firmware) Start() {
	fw.registry.Freeze()
	globalRegistry.Freeze()
	fw.uart.EnableRXInterrupt()

	io.WriteString(fw.console, "\nserialsh "+protocol.Version+" ("+Platform+")\n")
	fw.shell.Prompt()
}

// Poll runs one foreground step. It returns false when there was no input.
func (fw *Firmware) Poll() bool {
	return fw.shell.Step()
}

// Console returns the firmware console
func (fw *Firmware) Console() *Console {
	return fw.console
}

// Sampler returns the firmware sampler
func (fw *Firmware) Sampler() *Sampler {
	return fw.sampler
}

// Registry returns the firmware command registry
func (fw *Firmware) Registry() *CommandRegistry {
	return fw.registry
}

// Shell returns the firmware shell
func (fw *Firmware) Shell() *Shell {
	return fw.shell
}
