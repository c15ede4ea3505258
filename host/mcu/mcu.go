// Package mcu talks to a serialsh board over its console: it sends command
// lines, splits the output into lines and decodes the build information.
package mcu

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"serialsh/host/serial"
)

const (
	charETX = 0x03
	maxLine = 256 // Longest line kept; longer ones are split
)

// ErrClosed is returned when using a connection after Close
var ErrClosed = errors.New("connection closed")

// BuildInfo is the board's answer to "version --v"
type BuildInfo struct {
	Platform string
	SCM      string
	Branch   string
	Hash     string
}

// MCU represents a connection to a serialsh board console
type MCU struct {
	port io.ReadWriteCloser
	log  zerolog.Logger

	mu     sync.Mutex // Serializes writes
	lines  chan string
	closed bool
}

// New wraps an already open port
func New(port io.ReadWriteCloser, log zerolog.Logger) *MCU {
	return &MCU{
		port:  port,
		log:   log.With().Str("component", "mcu").Logger(),
		lines: make(chan string, 64),
	}
}

// Connect opens the serial port described by cfg
func Connect(cfg *serial.Config, log zerolog.Logger) (*MCU, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	log.Info().Str("device", cfg.Device).Int("baud", cfg.Baud).Msg("connected")
	return New(port, log), nil
}

// Close closes the connection to the board
func (m *MCU) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.port.Close()
}

// Lines returns the console output split into lines. The channel is closed
// when ReadLoop returns.
func (m *MCU) Lines() <-chan string {
	return m.lines
}

// ReadLoop reads console output until ctx is done or the port fails.
// Lines end at CR or LF; empty lines are dropped.
func (m *MCU) ReadLoop(ctx context.Context) error {
	defer close(m.lines)

	var line bytes.Buffer
	buf := make([]byte, 128)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		n, err := m.port.Read(buf)
		for _, c := range buf[:n] {
			switch {
			case c == '\r' || c == '\n':
				if !m.emit(ctx, &line) {
					return nil
				}
			case line.Len() >= maxLine:
				if !m.emit(ctx, &line) {
					return nil
				}
				line.WriteByte(c)
			default:
				line.WriteByte(c)
			}
		}

		if err != nil {
			// A read timeout surfaces as io.EOF with no data
			if errors.Is(err, io.EOF) {
				continue
			}
			if m.isClosed() || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read console: %w", err)
		}
	}
}

func (m *MCU) emit(ctx context.Context, line *bytes.Buffer) bool {
	if line.Len() == 0 {
		return true
	}
	s := line.String()
	line.Reset()
	m.log.Trace().Str("line", s).Msg("rx")

	select {
	case m.lines <- s:
		return true
	case <-ctx.Done():
		return false
	}
}

func (m *MCU) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Write sends raw bytes to the board
func (m *MCU) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	return m.port.Write(p)
}

// SendCommand sends one command line
func (m *MCU) SendCommand(line string) error {
	m.log.Debug().Str("command", line).Msg("tx")
	if _, err := m.Write([]byte(line + "\r")); err != nil {
		return fmt.Errorf("send %q: %w", line, err)
	}
	return nil
}

// Interrupt sends Ctrl-C, which aborts the line being typed and stops sampling
func (m *MCU) Interrupt() error {
	m.log.Debug().Msg("tx ctrl-c")
	if _, err := m.Write([]byte{charETX}); err != nil {
		return fmt.Errorf("send interrupt: %w", err)
	}
	return nil
}

// Version asks the board for its build information. ReadLoop must be
// running. Lines that are not part of the answer are discarded.
func (m *MCU) Version(ctx context.Context) (BuildInfo, error) {
	if err := m.SendCommand("version --v"); err != nil {
		return BuildInfo{}, err
	}

	var info BuildInfo
	for {
		select {
		case <-ctx.Done():
			return info, fmt.Errorf("waiting for version: %w", ctx.Err())
		case line, ok := <-m.lines:
			if !ok {
				return info, ErrClosed
			}
			if ParseBuildInfoLine(&info, line) && info.Hash != "" {
				return info, nil
			}
		}
	}
}

// ParseBuildInfoLine fills one field of info from a line of version output.
// It reports whether the line was recognized.
func ParseBuildInfoLine(info *BuildInfo, line string) bool {
	key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
	if !ok {
		return false
	}
	value = strings.TrimSpace(value)

	switch key {
	case "Platform":
		info.Platform = value
	case "SCM":
		info.SCM = value
	case "Branch":
		info.Branch = value
	case "HASH":
		info.Hash = value
	case "Version":
		// Section header
	default:
		return false
	}
	return true
}
