package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the fftconv configuration file ($XDG_CONFIG_HOME/fftconv/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	Device      string `yaml:"device"`
	DeviceIndex *int64 `yaml:"device_index"`
	StreamCount *int64 `yaml:"stream_count"`
	FFTBackend  string `yaml:"fft_backend"`
	EnableConv  *bool  `yaml:"enable_conv"`
	Verbosity   *int64 `yaml:"verbosity"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "fftconv", "config.yaml")
}

// loadConfig reads the config file. A missing default file yields a zero
// Config; a missing explicit file is an error.
func loadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = configPath()
	}
	if path == "" {
		return Config{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: config path is chosen by the user
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyConfig applies config file values to flag variables that were not
// set explicitly on the command line.
func applyConfig(c *cli.Command, cfg Config) {
	if cfg.Device != "" && !c.IsSet("device") {
		device = cfg.Device
	}
	if cfg.DeviceIndex != nil && !c.IsSet("device-index") {
		deviceIndex = *cfg.DeviceIndex
	}
	if cfg.StreamCount != nil && !c.IsSet("streams") {
		streamCount = *cfg.StreamCount
	}
	if cfg.FFTBackend != "" && !c.IsSet("fft-backend") {
		fftBackend = cfg.FFTBackend
	}
	if cfg.EnableConv != nil && !c.IsSet("enable-conv") {
		enableConv = *cfg.EnableConv
	}
	if cfg.Verbosity != nil && !c.IsSet("verbosity") {
		verbosity = *cfg.Verbosity
	}
}
