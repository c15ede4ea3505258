package core

import (
	"io"

	"github.com/google/shlex"

	"serialsh/protocol"
)

// Terminal is the character channel a shell runs on.
// Console implements it.
type Terminal interface {
	io.Writer
	Getc() (byte, bool)
}

// Shell is the foreground command loop. Each Step consumes at most one
// received character and never blocks, so it can share a polling loop
// with other foreground work.
type Shell struct {
	term     Terminal
	registry *CommandRegistry

	line     []byte
	lineMax  int
	overflow bool // Current line exceeded lineMax, drop until terminator
	lastCR   bool // Previous character was CR, swallow a following LF

	echo   bool
	prompt string
}

// NewShell creates a shell reading lines of up to lineMax characters
func NewShell(term Terminal, registry *CommandRegistry, lineMax int) *Shell {
	if lineMax < 1 {
		panic("shell: lineMax must be positive")
	}
	return &Shell{
		term:     term,
		registry: registry,
		line:     make([]byte, 0, lineMax),
		lineMax:  lineMax,
		echo:     true,
		prompt:   "> ",
	}
}

// SetEcho enables or disables echo of typed characters
func (s *Shell) SetEcho(en bool) {
	s.echo = en
}

// SetPrompt sets the prompt printed before each line. Empty disables it.
func (s *Shell) SetPrompt(p string) {
	s.prompt = p
}

// Prompt prints the prompt
func (s *Shell) Prompt() {
	if s.prompt != "" {
		io.WriteString(s.term, s.prompt)
	}
}

// Pending returns the partially typed line
func (s *Shell) Pending() string {
	return string(s.line)
}

// Step processes at most one received character.
// It returns false when nothing was available.
func (s *Shell) Step() bool {
	c, ok := s.term.Getc()
	if !ok {
		return false
	}

	afterCR := s.lastCR
	s.lastCR = false

	switch {
	case c == protocol.CharCR:
		s.lastCR = true
		s.terminate()
	case c == protocol.CharLF:
		if !afterCR {
			s.terminate()
		}
	case c == protocol.CharBS || c == protocol.CharDEL:
		s.backspace()
	case c == protocol.CharETX:
		s.interrupt()
	case protocol.IsPrintable(c):
		s.accept(c)
	}
	// Other control characters are ignored
	return true
}

func (s *Shell) accept(c byte) {
	if s.overflow {
		return
	}
	if len(s.line) >= s.lineMax {
		s.overflow = true
		io.WriteString(s.term, "\nline too long\n")
		RecordEvent(EvtLineOverflow, uint32(s.lineMax))
		return
	}
	s.line = append(s.line, c)
	if s.echo {
		s.term.Write([]byte{c})
	}
}

func (s *Shell) backspace() {
	if s.overflow || len(s.line) == 0 {
		return
	}
	s.line = s.line[:len(s.line)-1]
	if s.echo {
		io.WriteString(s.term, "\b \b")
	}
}

// interrupt handles Ctrl-C. The "^C" echo is also the cancel sequence
// picked up by the console output filter.
func (s *Shell) interrupt() {
	io.WriteString(s.term, "^C\n")
	s.line = s.line[:0]
	s.overflow = false
	s.Prompt()
}

func (s *Shell) terminate() {
	if s.echo {
		io.WriteString(s.term, "\n")
	}
	if s.overflow {
		s.overflow = false
		s.line = s.line[:0]
		s.Prompt()
		return
	}

	line := string(s.line)
	s.line = s.line[:0]
	s.Exec(line)
	s.Prompt()
}

// Exec tokenizes one command line and runs the named command.
// Unknown names and handler errors are reported on the terminal.
func (s *Shell) Exec(line string) {
	fields, err := shlex.Split(line)
	if err != nil {
		io.WriteString(s.term, "error: "+err.Error()+"\n")
		RecordEvent(EvtCommandFailed, 0)
		return
	}
	if len(fields) == 0 {
		return
	}

	name := fields[0]
	cmd, ok := s.registry.Lookup(name)
	if !ok {
		io.WriteString(s.term, "unknown command: "+name+"\n")
		RecordEvent(EvtUnknownCmd, uint32(len(name)))
		return
	}

	if err := cmd.Handler(s.term, fields[1:]); err != nil {
		io.WriteString(s.term, "error: "+err.Error()+"\n")
		RecordEvent(EvtCommandFailed, 0)
	}
}
