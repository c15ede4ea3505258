// Package cli implements the serialsh-host commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"serialsh/host/config"
	"serialsh/host/logging"
)

var rootCmd = &cobra.Command{
	Use:   "serialsh-host",
	Short: "Host tools for the serialsh board console",
	Long: `serialsh-host talks to a board running the serialsh console over a
serial port, or runs the same firmware on a simulated board.`,
	SilenceUsage: true,
}

// Execute runs the root command. Cancelling ctx stops long-running commands.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.config/serialsh/config.yaml)")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.StringP("device", "d", "", "serial device, e.g. /dev/ttyACM0")
	flags.IntP("baud", "b", 115200, "serial baud rate")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("serial.device", flags.Lookup("device"))
	_ = viper.BindPFlag("serial.baud", flags.Lookup("baud"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SERIALSH")
	// e.g. SERIALSH_SERIAL_DEVICE for serial.device
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// setup loads the configuration and builds the logger for a command
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.Log.Level, os.Stderr)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if f := viper.ConfigFileUsed(); f != "" {
		log.Debug().Str("file", f).Msg("config loaded")
	}
	return cfg, log, nil
}
