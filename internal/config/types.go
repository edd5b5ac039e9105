package config

// Config is the top-level configuration structure parsed from .phpcslint.yaml.
type Config struct {
	// Tool location
	Interpreter string `yaml:"interpreter"`
	Script      string `yaml:"script"`
	Timeout     string `yaml:"timeout"`

	// phpcs options
	Standard            string   `yaml:"standard"`
	SeverityThreshold   int      `yaml:"severity_threshold"`
	TabsToSpaces        bool     `yaml:"tabs_to_spaces"`
	SuppressWarnings    bool     `yaml:"suppress_warnings"`
	AdditionalArguments []string `yaml:"additional_arguments"`

	// Exclude holds doublestar patterns skipped when expanding lint targets.
	Exclude []string `yaml:"exclude"`

	History  bool   `yaml:"history"`
	Database string `yaml:"database"`
	Listen   string `yaml:"listen"`
}
