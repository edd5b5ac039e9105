package phpcs

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Report is the document phpcs writes with --report=json.
type Report struct {
	Totals Totals `json:"totals"`
	// Files is kept raw so the first file can be picked in document order.
	Files json.RawMessage `json:"files"`
}

// Totals is the report-wide summary.
type Totals struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Fixable  int `json:"fixable"`
}

// ReportFile holds the messages phpcs reported for one file.
type ReportFile struct {
	Errors   int             `json:"errors"`
	Warnings int             `json:"warnings"`
	Messages []ReportMessage `json:"messages"`
}

// ReportMessage is a single phpcs finding.
type ReportMessage struct {
	Message  string `json:"message"`
	Source   string `json:"source"`
	Severity int    `json:"severity"`
	Fixable  bool   `json:"fixable"`
	Type     string `json:"type"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// ParseReport decodes phpcs JSON output.
func ParseReport(output string) (*Report, error) {
	trimmed := bytes.TrimSpace([]byte(output))
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty output")
	}
	var r Report
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// FirstFile returns the first entry of the files object in document order.
// ok is false when the report lists no files.
func (r *Report) FirstFile() (path string, file *ReportFile, ok bool, err error) {
	raw := bytes.TrimSpace(r.Files)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil, false, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return "", nil, false, fmt.Errorf("read files object: %w", err)
	}
	if d, isDelim := tok.(json.Delim); !isDelim || d != '{' {
		return "", nil, false, fmt.Errorf("files is not an object")
	}
	if !dec.More() {
		return "", nil, false, nil
	}

	tok, err = dec.Token()
	if err != nil {
		return "", nil, false, fmt.Errorf("read file key: %w", err)
	}
	key, _ := tok.(string)

	var f ReportFile
	if err := dec.Decode(&f); err != nil {
		return "", nil, false, fmt.Errorf("decode file %q: %w", key, err)
	}
	return key, &f, true, nil
}
