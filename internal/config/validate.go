package config

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/lucasnoah/phpcslint/internal/phpcs"
)

// ValidationError represents a single problem found by Check.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Check looks for environment problems that would stop phpcs from running.
// The phpcs options themselves are not validated; phpcs reports bad values.
func Check(cfg *Config) []ValidationError {
	var errs []ValidationError

	interpreter := cfg.Interpreter
	if interpreter == "" {
		interpreter = phpcs.DefaultInterpreter
	}
	if _, err := exec.LookPath(interpreter); err != nil {
		errs = append(errs, ValidationError{
			Field:   "interpreter",
			Message: fmt.Sprintf("%q not found on PATH", interpreter),
		})
	}

	script := cfg.Script
	if script == "" {
		script = phpcs.DefaultScriptPath()
	}
	if info, err := os.Stat(script); err != nil {
		errs = append(errs, ValidationError{
			Field:   "script",
			Message: fmt.Sprintf("%s: %v", script, err),
		})
	} else if info.IsDir() {
		errs = append(errs, ValidationError{
			Field:   "script",
			Message: fmt.Sprintf("%s is a directory", script),
		})
	}

	if _, err := cfg.timeout(); err != nil {
		errs = append(errs, ValidationError{Field: "timeout", Message: err.Error()})
	}

	for i, p := range cfg.Exclude {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("exclude[%d]", i),
				Message: fmt.Sprintf("invalid pattern %q", p),
			})
		}
	}

	return errs
}
