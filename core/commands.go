package core

import (
	"errors"
	"io"

	"serialsh/protocol"
)

// Build metadata, set with -ldflags "-X serialsh/core.Branch=..."
var (
	Platform = "RP2040"
	Branch   = "unknown"
	Hash     = "unknown"
)

var errUnknownFlag = errors.New("unknown flag")

// registerBuiltins registers the built-in commands for fw on reg
func registerBuiltins(reg *CommandRegistry, fw *Firmware) {
	builtins := []Command{
		{
			Name:    "version",
			Handler: handleVersion,
			Help:    "Print the version",
			Usage:   "usage: version [--v]",
		},
		{
			Name:    "read",
			Handler: fw.handleRead,
			Help:    "Read from ADC, CTRL+C to stop",
			Usage:   "usage: read",
		},
		{
			Name:    "stop",
			Handler: fw.handleStop,
			Help:    "Stop reading from ADC",
			Usage:   "usage: stop",
		},
		{
			Name:    "help",
			Handler: fw.handleHelp,
			Help:    "List commands",
			Usage:   "usage: help [command]",
		},
		{
			Name:    "debug",
			Handler: handleDebug,
			Help:    "Turn debug output on or off",
			Usage:   "usage: debug [on|off]",
		},
		{
			Name:    "stats",
			Handler: fw.handleStats,
			Help:    "Show console counters and recent events",
			Usage:   "usage: stats [--clear]",
		},
	}

	for _, cmd := range builtins {
		if err := reg.Register(cmd); err != nil {
			panic("register " + cmd.Name + ": " + err.Error())
		}
	}
}

func handleVersion(w io.Writer, args []string) error {
	io.WriteString(w, "  Platform:   "+Platform+"\n")
	io.WriteString(w, "  Version:\n")
	io.WriteString(w, "    SCM:    "+protocol.Version+"\n")

	if len(args) == 0 {
		return nil
	}
	if args[0] != "--v" {
		return errUnknownFlag
	}
	io.WriteString(w, "    Branch: "+Branch+"\n")
	io.WriteString(w, "    HASH:   "+Hash+"\n")
	return nil
}

func (fw *Firmware) handleRead(w io.Writer, args []string) error {
	if !fw.sampler.Start() {
		io.WriteString(w, "already reading\n")
	}
	return nil
}

func (fw *Firmware) handleStop(w io.Writer, args []string) error {
	fw.sampler.Cancel()
	return nil
}

func (fw *Firmware) handleHelp(w io.Writer, args []string) error {
	if len(args) > 0 {
		cmd, ok := fw.registry.Lookup(args[0])
		if !ok {
			io.WriteString(w, "unknown command: "+args[0]+"\n")
			return nil
		}
		io.WriteString(w, cmd.Usage+"\n")
		return nil
	}

	for _, cmd := range fw.registry.Commands() {
		io.WriteString(w, "  "+cmd.Name)
		for n := len(cmd.Name); n < 10; n++ {
			io.WriteString(w, " ")
		}
		io.WriteString(w, cmd.Help+"\n")
	}
	return nil
}

func handleDebug(w io.Writer, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "on":
			SetDebugEnabled(true)
			DebugPrintln("debug output enabled")
		case "off":
			SetDebugEnabled(false)
		default:
			return errors.New("expected on or off")
		}
	}

	if IsDebugEnabled() {
		io.WriteString(w, "debug: on\n")
	} else {
		io.WriteString(w, "debug: off\n")
	}
	return nil
}

func (fw *Firmware) handleStats(w io.Writer, args []string) error {
	if len(args) > 0 {
		if args[0] != "--clear" {
			return errUnknownFlag
		}
		ClearEvents()
		return nil
	}

	st := fw.console.Stats()
	io.WriteString(w, "  rx_overruns: "+utoa(st.RXOverruns)+"\n")
	io.WriteString(w, "  tx_drops:    "+utoa(st.TXDrops)+"\n")
	io.WriteString(w, "  cancels:     "+utoa(st.Cancels)+"\n")
	io.WriteString(w, "  samples:     "+utoa(fw.sampler.Samples())+"\n")
	io.WriteString(w, "  sampler:     "+fw.sampler.State().String()+"\n")
	io.WriteString(w, "  events:\n")
	DumpEvents(w)
	return nil
}
