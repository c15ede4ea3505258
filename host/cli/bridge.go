package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// detachKey ends an interactive session (Ctrl-])
const detachKey = 0x1d

var errDetached = errors.New("detached")

// bridge forwards in to dst until the detach key or end of input, while
// run handles the other direction. It returns when either side finishes.
func bridge(ctx context.Context, in io.Reader, dst io.Writer, run func(ctx context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return run(ctx) })

	inErr := make(chan error, 1)
	go func() { inErr <- forwardInput(in, dst) }()

	g.Go(func() error {
		select {
		case err := <-inErr:
			return err
		case <-ctx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errDetached) {
		return err
	}
	return nil
}

// forwardInput copies in to dst, stopping at the detach key
func forwardInput(in io.Reader, dst io.Writer) error {
	buf := make([]byte, 64)
	for {
		n, err := in.Read(buf)
		chunk := buf[:n]
		if i := bytes.IndexByte(chunk, detachKey); i >= 0 {
			if _, werr := dst.Write(chunk[:i]); werr != nil {
				return werr
			}
			return errDetached
		}
		if n > 0 {
			if _, werr := dst.Write(chunk); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			return errDetached
		}
		if err != nil {
			return err
		}
	}
}

// copyOutput copies src to out until ctx is done. Reads that time out
// without data report io.EOF and are retried.
func copyOutput(ctx context.Context, out io.Writer, src io.Reader) error {
	buf := make([]byte, 256)
	for ctx.Err() == nil {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
	return nil
}

// rawTerminal puts stdin into raw mode when it is a terminal, so Ctrl-C and
// line editing keys reach the board. The returned function restores it.
func rawTerminal() (func(), error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() { _ = term.Restore(fd, state) }, nil
}
