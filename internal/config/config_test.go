package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

const fullConfig = `
interpreter: /usr/bin/php8.2
script: /opt/phpcs/bin/phpcs
timeout: "30s"
standard: PSR12
severity_threshold: 3
tabs_to_spaces: false
suppress_warnings: true
additional_arguments:
  - --ignore=vendor/*
  - -s
exclude:
  - "vendor/**"
history: false
database: postgres://lint@localhost/phpcs
listen: ":9000"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Full(t *testing.T) {
	cfg, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Interpreter != "/usr/bin/php8.2" {
		t.Errorf("interpreter = %q", cfg.Interpreter)
	}
	if cfg.Standard != "PSR12" || cfg.SeverityThreshold != 3 {
		t.Errorf("standard/severity = %q/%d", cfg.Standard, cfg.SeverityThreshold)
	}
	if cfg.TabsToSpaces {
		t.Error("expected tabs_to_spaces=false")
	}
	if !cfg.SuppressWarnings {
		t.Error("expected suppress_warnings=true")
	}
	if !reflect.DeepEqual(cfg.AdditionalArguments, []string{"--ignore=vendor/*", "-s"}) {
		t.Errorf("additional_arguments = %q", cfg.AdditionalArguments)
	}
	if cfg.History {
		t.Error("expected history=false")
	}
	if cfg.Listen != ":9000" {
		t.Errorf("listen = %q", cfg.Listen)
	}

	tool, err := cfg.Tool()
	if err != nil {
		t.Fatalf("tool: %v", err)
	}
	if tool.Timeout != 30*time.Second {
		t.Errorf("timeout = %s", tool.Timeout)
	}
}

func TestLoad_MissingKeysKeepDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "standard: Squiz\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Standard != "Squiz" {
		t.Errorf("standard = %q", cfg.Standard)
	}
	if !cfg.TabsToSpaces {
		t.Error("tabs_to_spaces should default to true")
	}
	if cfg.SuppressWarnings {
		t.Error("suppress_warnings should default to false")
	}
	if cfg.SeverityThreshold != 1 {
		t.Errorf("severity_threshold should default to 1, got %d", cfg.SeverityThreshold)
	}
	if !cfg.History {
		t.Error("history should default to true")
	}
	if cfg.Listen != DefaultListen {
		t.Errorf("listen = %q", cfg.Listen)
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse([]byte("  \n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "standard: [unclosed\n"))
	if err == nil || !strings.Contains(err.Error(), "parsing config YAML") {
		t.Errorf("expected YAML error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadDefault_FindsProjectFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("standard: PEAR\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())

	cfg, path, err := LoadDefault()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != FileName {
		t.Errorf("path = %q", path)
	}
	if cfg.Standard != "PEAR" {
		t.Errorf("standard = %q", cfg.Standard)
	}
}

func TestLoadDefault_NoFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, path, err := LoadDefault()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected no path, got %q", path)
	}
	if cfg.Standard != "PSR2" {
		t.Errorf("standard = %q", cfg.Standard)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PHPCSLINT_INTERPRETER": "php7",
		"PHPCSLINT_SCRIPT":      "/x/phpcs",
		"PHPCSLINT_STANDARD":    "Zend",
		"PHPCSLINT_SEVERITY":    "4",
		"PHPCSLINT_DATABASE":    "/tmp/h.db",
	}
	cfg := Default()
	ApplyEnv(cfg, func(k string) string { return env[k] })

	if cfg.Interpreter != "php7" || cfg.Script != "/x/phpcs" || cfg.Standard != "Zend" {
		t.Errorf("unexpected tool/standard: %+v", cfg)
	}
	if cfg.SeverityThreshold != 4 {
		t.Errorf("severity = %d", cfg.SeverityThreshold)
	}
	if cfg.Database != "/tmp/h.db" {
		t.Errorf("database = %q", cfg.Database)
	}
}

func TestApplyEnv_BadSeverityIgnored(t *testing.T) {
	cfg := Default()
	ApplyEnv(cfg, func(k string) string {
		if k == "PHPCSLINT_SEVERITY" {
			return "high"
		}
		return ""
	})
	if cfg.SeverityThreshold != 1 {
		t.Errorf("severity = %d", cfg.SeverityThreshold)
	}
}

func TestSettings_CopiesArguments(t *testing.T) {
	cfg := Default()
	cfg.AdditionalArguments = []string{"-s"}
	s := cfg.Settings()
	s.AdditionalArguments[0] = "changed"
	if cfg.AdditionalArguments[0] != "-s" {
		t.Error("Settings must not alias the config slice")
	}
	if !s.TabsToSpaces || s.Standard != "PSR2" {
		t.Errorf("unexpected settings: %+v", s)
	}
}

func TestTool_InvalidTimeout(t *testing.T) {
	for _, v := range []string{"soon", "0s", "-1m"} {
		cfg := Default()
		cfg.Timeout = v
		if _, err := cfg.Tool(); err == nil {
			t.Errorf("timeout %q: expected error", v)
		}
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "phpcs")
	if err := os.WriteFile(script, []byte("<?php\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Interpreter = "sh"
	cfg.Script = script
	if errs := Check(cfg); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}

	cfg.Interpreter = "definitely-not-an-interpreter"
	cfg.Script = dir
	cfg.Timeout = "never"
	cfg.Exclude = []string{"vendor/**", "[unclosed"}
	errs := Check(cfg)

	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, f := range []string{"interpreter", "script", "timeout", "exclude[1]"} {
		if !fields[f] {
			t.Errorf("expected error for %s, got %v", f, errs)
		}
	}
	if fields["exclude[0]"] {
		t.Error("vendor/** is a valid pattern")
	}
}
