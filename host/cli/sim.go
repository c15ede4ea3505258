package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"serialsh/core"
	"serialsh/host/sim"
)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run the console firmware on a simulated board",
	Long: `Run the firmware core against simulated UART and ADC peripherals, with
the terminal as the board's serial console. Press Ctrl-] to exit.`,
	Args: cobra.NoArgs,
	RunE: runSim,
}

func init() {
	rootCmd.AddCommand(simCmd)

	flags := simCmd.Flags()
	flags.Uint32("settle-iterations", core.DefaultSettleIterations, "busy-wait iterations between samples")
	flags.Duration("conversion-interval", 100*time.Millisecond, "time for one simulated conversion")
	flags.Int("queue-size", core.DefaultConfig().QueueSize, "RX/TX ring size")
	flags.String("source", "sine", "analog source: sine, ramp or constant")
	flags.Uint16("level", 2048, "raw level for the constant source")

	_ = viper.BindPFlag("sim.settle_iterations", flags.Lookup("settle-iterations"))
	_ = viper.BindPFlag("sim.conversion_interval", flags.Lookup("conversion-interval"))
	_ = viper.BindPFlag("sim.queue_size", flags.Lookup("queue-size"))
}

func runSim(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("source")
	level, _ := cmd.Flags().GetUint16("level")
	src, err := sourceByName(name, core.ADCValue(level))
	if err != nil {
		return err
	}

	simCfg := sim.DefaultConfig()
	simCfg.Firmware.SettleIterations = cfg.Sim.SettleIterations
	simCfg.Firmware.QueueSize = cfg.Sim.QueueSize
	simCfg.ConversionInterval = cfg.Sim.ConversionInterval

	restore, err := rawTerminal()
	if err != nil {
		return fmt.Errorf("raw terminal: %w", err)
	}
	defer restore()

	board := sim.NewBoard(simCfg, src, os.Stdout, log)
	return bridge(cmd.Context(), os.Stdin, board, board.Run)
}

func sourceByName(name string, level core.ADCValue) (sim.Source, error) {
	switch name {
	case "sine":
		return sim.Sine(10 * time.Second), nil
	case "ramp":
		return sim.Ramp(64), nil
	case "constant":
		if level > core.ADCMax {
			return nil, fmt.Errorf("level %d exceeds %d", level, core.ADCMax)
		}
		return sim.Constant(level), nil
	default:
		return nil, fmt.Errorf("unknown source %q", name)
	}
}
