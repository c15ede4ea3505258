package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"serialsh/core"
)

func TestForwardInputStopsAtDetach(t *testing.T) {
	var dst bytes.Buffer
	err := forwardInput(strings.NewReader("read\r\x03ignored\x1dafter"), &dst)
	require.ErrorIs(t, err, errDetached)
	require.Equal(t, "read\r\x03ignored", dst.String())
}

func TestForwardInputEOF(t *testing.T) {
	var dst bytes.Buffer
	err := forwardInput(strings.NewReader("version\r"), &dst)
	require.ErrorIs(t, err, errDetached)
	require.Equal(t, "version\r", dst.String())
}

// timeoutReader returns its data once, then behaves like a port read timeout
type timeoutReader struct {
	data []byte
}

func (r *timeoutReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		time.Sleep(time.Millisecond)
		return 0, io.EOF
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestCopyOutput(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, copyOutput(ctx, &out, &timeoutReader{data: []byte("\r165")}))
	require.Equal(t, "\r165", out.String())
}

func TestBridgeDetach(t *testing.T) {
	var toBoard bytes.Buffer
	port := &timeoutReader{}

	err := bridge(context.Background(), strings.NewReader("help\r\x1d"), &toBoard, func(ctx context.Context) error {
		return copyOutput(ctx, io.Discard, port)
	})
	require.NoError(t, err)
	require.Equal(t, "help\r", toBoard.String())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device unplugged") }

func TestBridgeOutputError(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	err := bridge(context.Background(), pr, io.Discard, func(ctx context.Context) error {
		return copyOutput(ctx, io.Discard, failingReader{})
	})
	require.ErrorContains(t, err, "device unplugged")
}

func TestSourceByName(t *testing.T) {
	for _, name := range []string{"sine", "ramp", "constant"} {
		src, err := sourceByName(name, 100)
		require.NoError(t, err, name)
		require.LessOrEqual(t, src.Read(), core.ADCValue(core.ADCMax))
	}

	src, err := sourceByName("constant", 1234)
	require.NoError(t, err)
	require.Equal(t, core.ADCValue(1234), src.Read())

	_, err = sourceByName("constant", 5000)
	require.Error(t, err)

	_, err = sourceByName("square", 0)
	require.ErrorContains(t, err, "square")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, Execute(context.Background()))
	require.Contains(t, out.String(), "serialsh-host 1.0.0")
	require.Contains(t, out.String(), "branch: "+core.Branch)
}
