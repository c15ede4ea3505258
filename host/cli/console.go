package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"serialsh/host/serial"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open an interactive session with the board shell",
	Long: `Connect the terminal to the board console. Keys are sent as typed,
so Ctrl-C reaches the board and stops a running read. Press Ctrl-] to exit.`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	port, err := serial.Open(cfg.SerialPort())
	if err != nil {
		return err
	}
	defer port.Close()
	if err := port.Flush(); err != nil {
		log.Debug().Err(err).Msg("flush failed")
	}

	restore, err := rawTerminal()
	if err != nil {
		return fmt.Errorf("raw terminal: %w", err)
	}
	defer restore()

	fmt.Fprintf(os.Stderr, "connected to %s, Ctrl-] to exit\r\n", cfg.Serial.Device)
	log.Debug().Str("device", cfg.Serial.Device).Msg("console session started")

	return bridge(cmd.Context(), os.Stdin, port, func(ctx context.Context) error {
		return copyOutput(ctx, os.Stdout, port)
	})
}
