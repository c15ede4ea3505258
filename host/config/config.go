// Package config loads serialsh-host settings from defaults, a YAML file,
// SERIALSH_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"serialsh/core"
	"serialsh/host/serial"
)

// Config represents the complete serialsh-host configuration
type Config struct {
	Serial  SerialConfig  `mapstructure:"serial"`
	Log     LogConfig     `mapstructure:"log"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Sim     SimConfig     `mapstructure:"sim"`
}

// SerialConfig selects the board's serial port
type SerialConfig struct {
	// Device path, e.g. /dev/ttyACM0
	Device string `mapstructure:"device"`
	// Baud rate of the board console
	Baud int `mapstructure:"baud"`
	// ReadTimeoutMs bounds each port read so shutdown is prompt
	ReadTimeoutMs int `mapstructure:"read_timeout_ms"`
}

// LogConfig controls host logging
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error
	Level string `mapstructure:"level"`
}

// MQTTConfig controls sample publishing. An empty URL disables it.
type MQTTConfig struct {
	URL   string `mapstructure:"url"`
	Topic string `mapstructure:"topic"`
}

// MetricsConfig controls the Prometheus endpoint. An empty address disables it.
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

// SimConfig controls the virtual board
type SimConfig struct {
	SettleIterations   uint32        `mapstructure:"settle_iterations"`
	ConversionInterval time.Duration `mapstructure:"conversion_interval"`
	QueueSize          int           `mapstructure:"queue_size"`
}

// Default returns the built-in configuration
func Default() *Config {
	fw := core.DefaultConfig()
	return &Config{
		Serial: SerialConfig{
			Baud:          115200,
			ReadTimeoutMs: 100,
		},
		Log: LogConfig{
			Level: "info",
		},
		MQTT: MQTTConfig{
			Topic: "serialsh/samples",
		},
		Sim: SimConfig{
			SettleIterations:   fw.SettleIterations,
			ConversionInterval: 100 * time.Millisecond,
			QueueSize:          fw.QueueSize,
		},
	}
}

// SetDefaults registers the built-in values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("serial.device", defaults.Serial.Device)
	viper.SetDefault("serial.baud", defaults.Serial.Baud)
	viper.SetDefault("serial.read_timeout_ms", defaults.Serial.ReadTimeoutMs)

	viper.SetDefault("log.level", defaults.Log.Level)

	viper.SetDefault("mqtt.url", defaults.MQTT.URL)
	viper.SetDefault("mqtt.topic", defaults.MQTT.Topic)

	viper.SetDefault("metrics.listen", defaults.Metrics.Listen)

	viper.SetDefault("sim.settle_iterations", defaults.Sim.SettleIterations)
	viper.SetDefault("sim.conversion_interval", defaults.Sim.ConversionInterval)
	viper.SetDefault("sim.queue_size", defaults.Sim.QueueSize)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a command
func (c *Config) Validate() error {
	var errs []error
	if c.Serial.Baud <= 0 {
		errs = append(errs, fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud))
	}
	if c.Serial.ReadTimeoutMs < 0 {
		errs = append(errs, fmt.Errorf("serial.read_timeout_ms must not be negative, got %d", c.Serial.ReadTimeoutMs))
	}
	if c.Sim.QueueSize < 2 {
		errs = append(errs, fmt.Errorf("sim.queue_size must be at least 2, got %d", c.Sim.QueueSize))
	}
	if c.Sim.ConversionInterval <= 0 {
		errs = append(errs, fmt.Errorf("sim.conversion_interval must be positive, got %s", c.Sim.ConversionInterval))
	}
	if c.MQTT.URL != "" && c.MQTT.Topic == "" {
		errs = append(errs, errors.New("mqtt.topic is required when mqtt.url is set"))
	}
	return errors.Join(errs...)
}

// SerialPort returns the port settings in the form host/serial expects
func (c *Config) SerialPort() *serial.Config {
	return &serial.Config{
		Device:      c.Serial.Device,
		Baud:        c.Serial.Baud,
		ReadTimeout: c.Serial.ReadTimeoutMs,
	}
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "serialsh")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".serialsh"
	}
	return filepath.Join(home, ".config", "serialsh")
}

// ConfigFile returns the path to the default config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
