package phpcs

import (
	"fmt"
	"log/slog"
)

// Issue is a finding in the shape editors consume.
type Issue struct {
	Line    int    `json:"line"`
	Offset  int    `json:"offset"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Buckets groups issues by Severity. Every slice is non-nil so the JSON form
// is always {"E": [...], "W": [...], "V": [...]}.
type Buckets struct {
	E []Issue `json:"E"`
	W []Issue `json:"W"`
	V []Issue `json:"V"`
}

// NewBuckets returns three empty buckets.
func NewBuckets() *Buckets {
	return &Buckets{E: []Issue{}, W: []Issue{}, V: []Issue{}}
}

// Add appends issue to the bucket for sev.
func (b *Buckets) Add(sev Severity, issue Issue) {
	switch sev {
	case SeverityError:
		b.E = append(b.E, issue)
	case SeverityWarning:
		b.W = append(b.W, issue)
	default:
		b.V = append(b.V, issue)
	}
}

// Get returns the bucket for sev.
func (b *Buckets) Get(sev Severity) []Issue {
	switch sev {
	case SeverityError:
		return b.E
	case SeverityWarning:
		return b.W
	default:
		return b.V
	}
}

// Len returns the number of issues across all buckets.
func (b *Buckets) Len() int {
	return len(b.E) + len(b.W) + len(b.V)
}

// maxLoggedOutput caps how much undecodable output ends up in the log.
const maxLoggedOutput = 2000

// Translate parses phpcs --report=json output and re-buckets every message
// of the first reported file one severity level down.
func Translate(output string) (*Buckets, error) {
	report, err := ParseReport(output)
	if err != nil {
		logged := output
		if len(logged) > maxLoggedOutput {
			logged = logged[:maxLoggedOutput] + "…(truncated)"
		}
		slog.Info("cannot decode phpcs JSON report",
			slog.String("error", err.Error()),
			slog.String("output", logged),
		)
		return nil, &LintError{Kind: ErrParse, Err: err}
	}
	return TranslateReport(report)
}

// TranslateReport converts an already decoded report.
func TranslateReport(report *Report) (*Buckets, error) {
	buckets := NewBuckets()
	if report.Totals.Errors+report.Totals.Warnings == 0 {
		return buckets, nil
	}

	_, file, ok, err := report.FirstFile()
	if err != nil {
		return nil, &LintError{Kind: ErrParse, Err: err}
	}
	if !ok {
		return buckets, nil
	}

	for i, m := range file.Messages {
		sev, err := ParseIssueType(m.Type)
		if err != nil {
			return nil, &LintError{Kind: ErrUnknownType, Err: fmt.Errorf("message %d: type %q", i, m.Type)}
		}
		buckets.Add(sev.Demote(), Issue{
			Line:    m.Line,
			Offset:  m.Column,
			Code:    0,
			Message: fmt.Sprintf("[%s] phpcs (%d): %s", m.Type[:1], m.Severity, m.Message),
		})
	}
	return buckets, nil
}
