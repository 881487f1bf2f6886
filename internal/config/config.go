// Package config loads ff7-medit settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/aktsk/ff7-medit/pkg/addrtable"
	"github.com/aktsk/ff7-medit/pkg/process"
)

const (
	EnvConfig   = "FF7MEDIT_CONFIG"
	EnvBuild    = "FF7MEDIT_BUILD"
	EnvGameDir  = "FF7MEDIT_GAME_DIR"
	EnvLogLevel = "FF7MEDIT_LOG_LEVEL"
)

type Config struct {
	Build         string   `yaml:"build"`
	ProcessNames  []string `yaml:"process_names"`
	AddressTable  string   `yaml:"address_table"`
	GameDirectory string   `yaml:"game_directory"`
	Listen        string   `yaml:"listen"`
	LogLevel      string   `yaml:"log_level"`
	Freeze        bool     `yaml:"freeze"`
}

func Default() Config {
	return Config{
		Build:        "ff7_en-steam",
		ProcessNames: append([]string(nil), process.DefaultNames...),
		Listen:       "127.0.0.1:7878",
		LogLevel:     "warn",
	}
}

// Path picks the config file: explicit, then $FF7MEDIT_CONFIG, then
// ff7-medit/config.yaml in the user config directory. Only the last may be
// missing.
func Path(explicit string) (path string, required bool) {
	if explicit != "" {
		return explicit, true
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env, true
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, "ff7-medit", "config.yaml"), false
}

// Load reads the file chosen by Path, applies environment overrides and
// validates the result.
func Load(explicit string) (Config, error) {
	c := Default()
	path, required := Path(explicit)
	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			if err := c.decode(f); err != nil {
				return Config{}, fmt.Errorf("config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !required:
		default:
			return Config{}, fmt.Errorf("config: %w", err)
		}
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBuild); v != "" {
		c.Build = v
	}
	if v := os.Getenv(EnvGameDir); v != "" {
		c.GameDirectory = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) Validate() error {
	if c.Build == "" && c.AddressTable == "" {
		return errors.New("config: build or address_table is required")
	}
	if len(c.ProcessNames) == 0 {
		return errors.New("config: process_names is empty")
	}
	for _, n := range c.ProcessNames {
		if n == "" {
			return errors.New("config: empty process name")
		}
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("config: listen: %w", err)
	}
	return nil
}

// Table returns the address table file if one is configured, otherwise the
// built-in table for Build.
func (c *Config) Table() (*addrtable.Table, error) {
	if c.AddressTable != "" {
		return addrtable.LoadFile(c.AddressTable)
	}
	return addrtable.New(c.Build)
}
