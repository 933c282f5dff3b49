// Package config loads and stores bridge configuration in the XDG
// config dir. It covers the transport settings a resource name cannot
// carry: serial line parameters and the serial ports GPIB controllers
// sit on.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"visabridge/cli/internal/xdg"
)

// Config holds transport settings.
type Config struct {
	Serial SerialConfig `json:"serial"`
	GPIB   GPIBConfig   `json:"gpib"`
}

// SerialConfig holds the line settings applied to ASRL sessions.
type SerialConfig struct {
	BaudRate   int    `json:"baud_rate"`
	DataBits   int    `json:"data_bits"`
	Parity     string `json:"parity"`
	StopBits   int    `json:"stop_bits"`
	Terminator string `json:"terminator"`
}

// GPIBConfig maps GPIB board numbers to the serial devices their
// Prologix controllers occupy.
type GPIBConfig struct {
	Boards map[int]string `json:"boards"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Serial: SerialConfig{
			BaudRate:   9600,
			DataBits:   8,
			Parity:     "none",
			StopBits:   1,
			Terminator: "\n",
		},
		GPIB: GPIBConfig{Boards: map[int]string{}},
	}
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; a missing file returns defaults. Settings
// absent from the file keep their default values.
func Load() (Config, error) {
	c := Default()
	p, err := Path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, err
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}
