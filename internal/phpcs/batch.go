package phpcs

import (
	"context"
	"encoding/json"
	"errors"
)

// FileResult summarises one file within a batch.
type FileResult struct {
	File       string `json:"file"`
	Passed     bool   `json:"passed"`
	Errors     int    `json:"errors"`
	Warnings   int    `json:"warnings"`
	Violations int    `json:"violations"`
	Kind       string `json:"kind,omitempty"`
	Failure    string `json:"failure,omitempty"`
}

// BatchResult is the structured output of a batch run.
type BatchResult struct {
	Passed bool         `json:"passed"`
	Files  []FileResult `json:"files"`
	// Failures maps a file to its lint failure diagnostic.
	Failures map[string]string `json:"failures,omitempty"`
}

// JSON returns the batch result as indented JSON.
func (b *BatchResult) JSON() (string, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// BatchOpts configures a batch run.
type BatchOpts struct {
	Files    []string
	Settings Settings
	Continue bool // keep going after a file fails
}

// RunBatch lints files one after another. A file that has issues, or could
// not be linted, fails the batch. Results are returned for every file that
// was linted successfully, in input order.
func (l *Linter) RunBatch(ctx context.Context, opts BatchOpts) (*BatchResult, []*Result, error) {
	batch := &BatchResult{
		Passed:   true,
		Files:    []FileResult{},
		Failures: make(map[string]string),
	}

	var all []*Result

	for _, file := range opts.Files {
		if err := ctx.Err(); err != nil {
			return batch, all, err
		}

		result, err := l.Lint(ctx, file, opts.Settings)
		if err != nil {
			var le *LintError
			if !errors.As(err, &le) {
				// Cancellation or an environment problem; no point continuing.
				return batch, all, err
			}
			batch.Passed = false
			batch.Failures[file] = err.Error()
			batch.Files = append(batch.Files, FileResult{
				File:    file,
				Kind:    KindName(err),
				Failure: err.Error(),
			})
			if !opts.Continue {
				break
			}
			continue
		}
		all = append(all, result)

		fr := FileResult{
			File:       file,
			Passed:     result.Passed(),
			Errors:     len(result.Buckets.E),
			Warnings:   len(result.Buckets.W),
			Violations: len(result.Buckets.V),
		}
		batch.Files = append(batch.Files, fr)

		if !fr.Passed {
			batch.Passed = false
			if !opts.Continue {
				break
			}
		}
	}

	return batch, all, nil
}
