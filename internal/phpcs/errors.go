package phpcs

import (
	"errors"
	"fmt"
)

// Failure kinds. A *LintError always carries one of these as its Kind.
var (
	ErrLaunch      = errors.New("process launch failed")
	ErrTimeout     = errors.New("timed out")
	ErrEncoding    = errors.New("output is not valid UTF-8")
	ErrParse       = errors.New("malformed report")
	ErrUnknownType = errors.New("unknown issue type")
)

// LintError ties a failure to the file being linted.
type LintError struct {
	File string
	Kind error
	Err  error
}

func (e *LintError) Error() string {
	prefix := "phpcs"
	if e.File != "" {
		prefix = "phpcs " + e.File
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", prefix, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", prefix, e.Kind, e.Err)
}

// Unwrap lets errors.Is match both the kind and the underlying cause.
func (e *LintError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName returns a short machine-friendly name for the failure kind of err,
// or "internal" when err carries none of the known kinds.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrLaunch):
		return "launch"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrEncoding):
		return "encoding"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrUnknownType):
		return "unknown_type"
	default:
		return "internal"
	}
}

// withFile attaches file to err. Errors without a known kind are wrapped
// with the file name only.
func withFile(file string, err error) error {
	var le *LintError
	if errors.As(err, &le) {
		if le.File == "" {
			le.File = file
		}
		return err
	}
	return fmt.Errorf("phpcs %s: %w", file, err)
}
