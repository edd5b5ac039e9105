package phpcs

import "fmt"

// Severity is the three-level classification editors display, strongest
// first.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityViolation
)

// Severities lists every Severity in bucket order.
var Severities = []Severity{SeverityError, SeverityWarning, SeverityViolation}

// Key returns the single-letter bucket key: "E", "W" or "V".
func (s Severity) Key() string {
	switch s {
	case SeverityError:
		return "E"
	case SeverityWarning:
		return "W"
	case SeverityViolation:
		return "V"
	default:
		return "?"
	}
}

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityViolation:
		return "violation"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Demote moves s one level down. Violation is already the weakest level.
//
// phpcs errors are shown as warnings and phpcs warnings as violations, so
// the Error bucket is never filled by a phpcs report.
func (s Severity) Demote() Severity {
	switch s {
	case SeverityError:
		return SeverityWarning
	default:
		return SeverityViolation
	}
}

// ParseIssueType maps a phpcs message type ("ERROR", "WARNING", or any
// string starting with E or W) onto a Severity.
func ParseIssueType(t string) (Severity, error) {
	if t == "" {
		return 0, fmt.Errorf("%w: empty type", ErrUnknownType)
	}
	switch t[0] {
	case 'E':
		return SeverityError, nil
	case 'W':
		return SeverityWarning, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}
