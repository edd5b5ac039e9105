package db

import "github.com/lucasnoah/phpcslint/internal/phpcs"

// NewLintRun builds a history row from the outcome of Linter.Lint.
// Exactly one of res and lintErr is expected to be non-nil.
func NewLintRun(file string, s phpcs.Settings, res *phpcs.Result, lintErr error) LintRun {
	run := LintRun{
		File:              file,
		Standard:          s.Standard,
		SeverityThreshold: s.SeverityThreshold,
		ExitCode:          -1,
	}
	if lintErr != nil {
		run.FailureKind = phpcs.KindName(lintErr)
		run.Failure = lintErr.Error()
		return run
	}
	if res != nil {
		run.ExitCode = res.ExitCode
		run.DurationMs = int(res.Duration.Milliseconds())
		if res.Buckets != nil {
			run.Errors = len(res.Buckets.E)
			run.Warnings = len(res.Buckets.W)
			run.Violations = len(res.Buckets.V)
		}
	}
	return run
}

// RecordLint logs the outcome of Linter.Lint. A nil *DB records nothing so
// callers can leave history disabled.
func (d *DB) RecordLint(file string, s phpcs.Settings, res *phpcs.Result, lintErr error) error {
	if d == nil {
		return nil
	}
	return d.LogLintRun(NewLintRun(file, s, res, lintErr))
}
