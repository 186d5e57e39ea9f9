package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/resultflow/errors"
	"github.com/c360/resultflow/monitor"
)

// Config is the monitor daemon configuration, loaded from YAML.
type Config struct {
	NATS    NATSConfig     `yaml:"nats"`
	Monitor monitor.Config `yaml:"monitor"`
	// MetricsAddr is the Prometheus scrape endpoint; empty disables it
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// NATSConfig holds the NATS connection settings.
type NATSConfig struct {
	URL string `yaml:"url"`
	// ConnectTimeout is a duration string, e.g. "5s"
	ConnectTimeout string `yaml:"connect_timeout,omitempty"`
}

// Timeout returns the parsed connect timeout.
func (c *NATSConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(c.ConnectTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		NATS: NATSConfig{
			URL:            "nats://localhost:4222",
			ConnectTimeout: "5s",
		},
		Monitor:     monitor.DefaultConfig(),
		MetricsAddr: ":9090",
	}
}

// LoadConfig reads and validates a YAML config file. Fields left out of the
// file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.WrapConfig(err, "Config", "LoadConfig", "read file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.WrapConfig(err, "Config", "LoadConfig", "yaml parse")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return errors.WrapConfig(
			fmt.Errorf("nats url required: %w", errors.ErrMissingConfig),
			"Config", "Validate", "nats check")
	}
	if c.NATS.ConnectTimeout != "" {
		if _, err := time.ParseDuration(c.NATS.ConnectTimeout); err != nil {
			return errors.WrapConfig(
				fmt.Errorf("connect_timeout %q: %w", c.NATS.ConnectTimeout, errors.ErrInvalidConfig),
				"Config", "Validate", "timeout check")
		}
	}
	return c.Monitor.Validate()
}
