package serial

import (
	"io"
)

// Port represents a serial port connected to a board console
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not read
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate of the board console UART
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the board console settings for device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200, // Board console UART rate
		ReadTimeout: 100,    // 100ms read timeout
	}
}
