package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"serialsh/protocol"
)

func newTestConsole(queueSize int) (*Console, *fakeUART) {
	uart := &fakeUART{}
	return NewConsole(uart, queueSize, true), uart
}

func TestConsoleAutoCRLF(t *testing.T) {
	c, uart := newTestConsole(16)

	n, err := c.WriteString("a\nb")
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, "a\r\nb", uart.drain(c))
	require.False(t, InterruptsMasked())
}

func TestConsoleNoAutoCRLF(t *testing.T) {
	uart := &fakeUART{}
	c := NewConsole(uart, 16, false)

	c.WriteString("a\nb")
	require.Equal(t, "a\nb", uart.drain(c))
}

func TestConsoleEscapeSequences(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		cancels uint32
	}{
		{"cancel", "^C", "", 1},
		{"escaped char", "^x", "x", 0},
		{"lone marker", "^", "", 0},
		{"cancel then text", "^Cok", "ok", 1},
		{"ctrl-c echo", "^C\n", "\r\n", 1},
		{"two cancels", "^C^C", "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, uart := newTestConsole(16)
			var called uint32
			c.OnCancel(func() { called++ })

			c.WriteString(tt.input)
			require.Equal(t, tt.want, uart.drain(c))
			require.Equal(t, tt.cancels, called)
			require.Equal(t, tt.cancels, c.Stats().Cancels)
			require.False(t, InterruptsMasked())
		})
	}
}

func TestConsoleRawSkipsEscapeFilter(t *testing.T) {
	c, uart := newTestConsole(16)
	var called int
	c.OnCancel(func() { called++ })

	c.Putc('^')
	n, err := c.Raw().Write([]byte("^C\n7"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "^C\r\n7", uart.drain(c))
	require.Equal(t, protocol.EscapePending, c.filter.State(), "raw output leaves the lookback alone")
	require.Zero(t, called)

	c.Putc('C')
	require.Equal(t, 1, called)
	require.Empty(t, uart.drain(c))
	require.False(t, InterruptsMasked())
}

func TestConsoleRawOverwrite(t *testing.T) {
	c, uart := newTestConsole(16)

	c.SetOverwrite(true)
	c.Raw().Write([]byte("\n12\n34"))
	require.Equal(t, "\r12\r34", uart.drain(c))
}

func TestConsoleOverwrite(t *testing.T) {
	c, uart := newTestConsole(16)

	c.SetOverwrite(true)
	c.WriteString("\n12\n34")
	require.Equal(t, "\r12\r34", uart.drain(c))

	c.SetOverwrite(false)
	c.WriteString("\n")
	require.Equal(t, "\r\n", uart.drain(c))
}

func TestConsoleTXDrop(t *testing.T) {
	ClearEvents()
	c, uart := newTestConsole(4) // three usable slots

	n, _ := c.WriteString("abcde")
	require.Equal(t, 5, n, "Write reports the full length even when bytes are dropped")
	require.Equal(t, 3, c.TXPending())
	require.Equal(t, uint32(2), c.Stats().TXDrops)
	require.Equal(t, "abc", uart.drain(c))

	events := Events()
	require.Len(t, events, 2)
	require.Equal(t, uint8(EvtTXDrop), events[0].Kind)
	require.Equal(t, uint32('d'), events[0].Value)
}

func TestConsoleHandleTXDisablesWhenEmpty(t *testing.T) {
	c, uart := newTestConsole(8)

	c.Putc('x')
	require.True(t, uart.txEnabled)

	c.HandleTX()
	require.Equal(t, "x", uart.sent.String())
	require.True(t, uart.txEnabled)

	c.HandleTX()
	require.False(t, uart.txEnabled)
	require.Equal(t, 0, c.TXPending())
}

func TestConsoleGetc(t *testing.T) {
	c, uart := newTestConsole(8)

	b, ok := c.Getc()
	require.False(t, ok)
	require.Zero(t, b)

	for _, ch := range []byte("hey") {
		c.HandleRX(ch)
	}
	require.Equal(t, 3, uart.rxEnables, "RX interrupt is re-enabled on every entry")
	require.Equal(t, 3, c.RXPending())

	var got []byte
	for {
		b, ok := c.Getc()
		if !ok {
			break
		}
		got = append(got, b)
	}
	require.Equal(t, "hey", string(got))
	require.False(t, InterruptsMasked())
}

func TestConsoleRXOverrun(t *testing.T) {
	ClearEvents()
	c, _ := newTestConsole(4)

	for _, ch := range []byte("abcdef") {
		c.HandleRX(ch)
	}
	require.Equal(t, uint32(3), c.Stats().RXOverruns)

	var got []byte
	for b, ok := c.Getc(); ok; b, ok = c.Getc() {
		got = append(got, b)
	}
	require.Equal(t, "abc", string(got))
	require.Equal(t, uint8(EvtRXOverrun), Events()[0].Kind)
}
