// Package protocol implements the byte-level pieces of the serial console:
// the single-producer/single-consumer ring buffer shared between interrupt
// handlers and the foreground loop, and the escape filter applied to
// outgoing characters.
package protocol

// Version represents the serialsh firmware version
const Version = "1.0.0"

// Console constants
const (
	QueueSize = 1024 // Default RX/TX ring size (one slot is always kept free)
	LineMax   = 128  // Default shell line length

	// Control characters seen on the wire
	CharETX = 0x03 // Ctrl-C
	CharBS  = 0x08
	CharLF  = '\n'
	CharCR  = '\r'
	CharDEL = 0x7F

	// EscapeMarker followed by CancelMarker is the cancel sequence. The shell
	// echoes Ctrl-C as "^C", so an interactive Ctrl-C always produces it.
	EscapeMarker = '^'
	CancelMarker = 'C'
)

// IsPrintable reports whether c is a printable 7-bit ASCII character
func IsPrintable(c byte) bool {
	return c >= 0x20 && c <= 0x7E
}
