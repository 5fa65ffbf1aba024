// Package config loads the optional dvdbackup configuration file.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the optional dvdbackup configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Theme    ThemeConfig    `toml:"theme"`
}

// DefaultsConfig holds persistent flag defaults. A nil field means the
// built-in default applies.
type DefaultsConfig struct {
	Device    *string `toml:"device"`
	OutputDir *string `toml:"output_dir"`
	Verify    *bool   `toml:"verify"`
	Wait      *bool   `toml:"wait"`
	MaxRate   *string `toml:"max_rate"`
	Journal   *bool   `toml:"journal"`
}

// ThemeConfig holds optional color overrides.
type ThemeConfig struct {
	Green  *string `toml:"green"`
	Blue   *string `toml:"blue"`
	Yellow *string `toml:"yellow"`
	Red    *string `toml:"red"`
	Teal   *string `toml:"teal"`
	Mauve  *string `toml:"mauve"`
	Muted  *string `toml:"muted"`
	Dim    *string `toml:"dim"`
	Bright *string `toml:"bright"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "dvdbackup", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config file at path. A missing file yields a zero
// Config; unknown keys are rejected so typos surface.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, &UnknownKeyError{Key: undecoded[0].String()}
	}
	return cfg, nil
}

// UnknownKeyError reports a config key dvdbackup does not recognise.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return "unknown config key " + e.Key
}
