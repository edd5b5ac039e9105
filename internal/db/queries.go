package db

import (
	"database/sql"
	"fmt"
)

// LintRun represents a row in the lint_runs table.
type LintRun struct {
	ID                int    `json:"id"`
	File              string `json:"file"`
	Standard          string `json:"standard"`
	SeverityThreshold int    `json:"severity_threshold"`
	ExitCode          int    `json:"exit_code"`
	DurationMs        int    `json:"duration_ms"`
	Errors            int    `json:"errors"`
	Warnings          int    `json:"warnings"`
	Violations        int    `json:"violations"`
	FailureKind       string `json:"failure_kind,omitempty"`
	Failure           string `json:"failure,omitempty"`
	Timestamp         string `json:"timestamp"`
}

const lintRunColumns = `id, file, standard, severity_threshold, exit_code, duration_ms, errors, warnings, violations, failure_kind, failure, timestamp`

// LogLintRun inserts a lint run record. Timestamp is filled in when empty.
func (d *DB) LogLintRun(r LintRun) error {
	ts := r.Timestamp
	if ts == "" {
		ts = now()
	}
	_, err := d.conn.Exec(d.rebind(
		`INSERT INTO lint_runs (file, standard, severity_threshold, exit_code, duration_ms, errors, warnings, violations, failure_kind, failure, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.File, r.Standard, r.SeverityThreshold, r.ExitCode, r.DurationMs,
		r.Errors, r.Warnings, r.Violations, nullString(r.FailureKind), nullString(r.Failure), ts,
	)
	if err != nil {
		return fmt.Errorf("log lint run: %w", err)
	}
	return nil
}

// GetLintHistory returns the most recent runs, newest first. An empty file
// returns runs for every file. limit <= 0 means no limit.
func (d *DB) GetLintHistory(file string, limit int) ([]LintRun, error) {
	query := `SELECT ` + lintRunColumns + ` FROM lint_runs`
	var args []any
	if file != "" {
		query += ` WHERE file = ?`
		args = append(args, file)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.conn.Query(d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("get lint history: %w", err)
	}
	defer rows.Close()

	var runs []LintRun
	for rows.Next() {
		r, err := scanLintRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetLatestLintRun returns the most recent run for file, or nil if none.
func (d *DB) GetLatestLintRun(file string) (*LintRun, error) {
	row := d.conn.QueryRow(d.rebind(
		`SELECT `+lintRunColumns+` FROM lint_runs WHERE file = ? ORDER BY id DESC LIMIT 1`),
		file,
	)
	r, err := scanLintRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest lint run: %w", err)
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLintRun(s scanner) (*LintRun, error) {
	var r LintRun
	var exitCode, durationMs sql.NullInt64
	var failureKind, failure sql.NullString
	err := s.Scan(&r.ID, &r.File, &r.Standard, &r.SeverityThreshold, &exitCode, &durationMs,
		&r.Errors, &r.Warnings, &r.Violations, &failureKind, &failure, &r.Timestamp)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan lint run: %w", err)
	}
	if exitCode.Valid {
		r.ExitCode = int(exitCode.Int64)
	}
	if durationMs.Valid {
		r.DurationMs = int(durationMs.Int64)
	}
	if failureKind.Valid {
		r.FailureKind = failureKind.String
	}
	if failure.Valid {
		r.Failure = failure.String
	}
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
