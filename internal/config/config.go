// Package config handles loading and saving user configuration for dhfr.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL is where the prediction service listens in development.
	DefaultBaseURL = "http://localhost:8001"
	// DefaultTimeout bounds a single prediction request.
	DefaultTimeout = 2 * time.Minute
	// DefaultAddr is the listen address of the web form.
	DefaultAddr = ":8080"

	fileName = "config.yaml"
	logName  = "dhfr.log"
)

// Config holds all user configuration.
type Config struct {
	API   APIConfig   `yaml:"api" mapstructure:"api"`
	Log   LogConfig   `yaml:"log" mapstructure:"log"`
	Serve ServeConfig `yaml:"serve" mapstructure:"serve"`
}

// APIConfig describes the prediction service.
type APIConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Timeout of zero disables the client-side deadline.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LogConfig controls the application logger.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file,omitempty" mapstructure:"file"` // empty means stderr
}

// ServeConfig controls the web form server.
type ServeConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
		Log: LogConfig{
			Level: "info",
		},
		Serve: ServeConfig{
			Addr: DefaultAddr,
		},
	}
}

// Load reads the configuration at path on top of the defaults. A missing
// file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to path, creating the parent directory.
func Save(path string, cfg Config) error {
	out, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("api.base_url: missing host")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout: must not be negative, got %s", c.API.Timeout)
	}
	return nil
}

// GetConfigDir returns the default configuration directory.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "dhfr"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// FilePath is the config file inside dir.
func FilePath(dir string) string {
	return filepath.Join(dir, fileName)
}

// LogPath is the interactive log file inside dir.
func LogPath(dir string) string {
	return filepath.Join(dir, logName)
}
