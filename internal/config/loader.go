package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lucasnoah/phpcslint/internal/phpcs"
	"gopkg.in/yaml.v3"
)

// FileName is the per-project config file name.
const FileName = ".phpcslint.yaml"

// DefaultListen is the address the editor endpoint binds to by default.
const DefaultListen = "127.0.0.1:7700"

// Default returns the built-in configuration.
func Default() *Config {
	s := phpcs.DefaultSettings()
	return &Config{
		Interpreter:       phpcs.DefaultInterpreter,
		Timeout:           phpcs.DefaultTimeout.String(),
		Standard:          s.Standard,
		SeverityThreshold: s.SeverityThreshold,
		TabsToSpaces:      s.TabsToSpaces,
		SuppressWarnings:  s.SuppressWarnings,
		History:           true,
		Listen:            DefaultListen,
	}
}

// Load reads and parses a configuration from the given YAML file path.
// Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML onto the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	return cfg, nil
}

// LoadDefault searches for a config in standard locations and loads the first
// one found. Search order: ./.phpcslint.yaml, ~/.phpcslint/config.yaml.
// When none exists the defaults are returned with an empty path.
func LoadDefault() (*Config, string, error) {
	candidates := []string{FileName}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".phpcslint", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			return cfg, path, err
		}
	}

	return Default(), "", nil
}

// ApplyEnv overrides config values from PHPCSLINT_* environment variables.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("PHPCSLINT_INTERPRETER"); v != "" {
		cfg.Interpreter = v
	}
	if v := getenv("PHPCSLINT_SCRIPT"); v != "" {
		cfg.Script = v
	}
	if v := getenv("PHPCSLINT_STANDARD"); v != "" {
		cfg.Standard = v
	}
	if v := getenv("PHPCSLINT_SEVERITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SeverityThreshold = n
		}
	}
	if v := getenv("PHPCSLINT_DATABASE"); v != "" {
		cfg.Database = v
	}
}

// Settings returns the phpcs options held by cfg.
func (c *Config) Settings() phpcs.Settings {
	args := make([]string, len(c.AdditionalArguments))
	copy(args, c.AdditionalArguments)
	return phpcs.Settings{
		Standard:            c.Standard,
		SeverityThreshold:   c.SeverityThreshold,
		TabsToSpaces:        c.TabsToSpaces,
		SuppressWarnings:    c.SuppressWarnings,
		AdditionalArguments: args,
	}
}

// Tool returns the phpcs location held by cfg.
func (c *Config) Tool() (phpcs.Tool, error) {
	timeout, err := c.timeout()
	if err != nil {
		return phpcs.Tool{}, err
	}
	return phpcs.Tool{
		Interpreter: c.Interpreter,
		Script:      c.Script,
		Timeout:     timeout,
	}, nil
}

func (c *Config) timeout() (time.Duration, error) {
	if c.Timeout == "" {
		return phpcs.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid timeout %q: must be positive", c.Timeout)
	}
	return d, nil
}
