package phpcs

import (
	"context"
	"log/slog"
	"time"
)

// Result is the outcome of linting one file.
type Result struct {
	File     string        `json:"file"`
	Buckets  *Buckets      `json:"errors"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"-"`
	Stderr   string        `json:"stderr,omitempty"`
}

// Passed reports whether phpcs found nothing.
func (r *Result) Passed() bool {
	return r.Buckets != nil && r.Buckets.Len() == 0
}

// Linter invokes phpcs and translates its report.
type Linter struct {
	cmd     CommandRunner
	tool    Tool
	metrics *Metrics

	// Dir is passed to every Invoker. Empty means the current directory.
	Dir string
}

// NewLinter creates a Linter. metrics may be nil.
func NewLinter(cmd CommandRunner, tool Tool, metrics *Metrics) *Linter {
	return &Linter{
		cmd:     cmd,
		tool:    tool.withDefaults(),
		metrics: metrics,
	}
}

// Tool returns the resolved tool location.
func (l *Linter) Tool() Tool {
	return l.tool
}

// Lint runs phpcs on file and returns the bucketed issues.
func (l *Linter) Lint(ctx context.Context, file string, settings Settings) (*Result, error) {
	ctx, span := l.metrics.startSpan(ctx, file)
	defer span.End()
	start := time.Now()

	iv := NewInvoker(l.cmd, l.tool, file, settings)
	iv.Dir = l.Dir

	inv, err := iv.Execute(ctx)
	if err != nil {
		l.metrics.record(ctx, span, time.Since(start), nil, err)
		slog.Warn("phpcs failed",
			slog.String("file", file),
			slog.String("kind", KindName(err)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	buckets, err := inv.Buckets()
	if err != nil {
		l.metrics.record(ctx, span, time.Since(start), nil, err)
		if inv.Stderr != "" {
			slog.Debug("phpcs stderr", slog.String("file", file), slog.String("stderr", inv.Stderr))
		}
		return nil, err
	}

	result := &Result{
		File:     file,
		Buckets:  buckets,
		ExitCode: inv.ExitCode,
		Duration: time.Since(start),
		Stderr:   inv.Stderr,
	}
	l.metrics.record(ctx, span, result.Duration, buckets, nil)

	slog.Debug("phpcs completed",
		slog.String("file", file),
		slog.Duration("duration", result.Duration),
		slog.Int("exit_code", inv.ExitCode),
		slog.Int("warnings", len(buckets.W)),
		slog.Int("violations", len(buckets.V)),
	)
	return result, nil
}
