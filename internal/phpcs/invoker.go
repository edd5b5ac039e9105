package phpcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"
)

// Fixed phpcs flags emitted before the configurable ones.
const (
	extensionsFlag = "--extensions=php,inc,lib,js,css"
	reportFlag     = "--report=json"
	tabWidthFlag   = "--tab-width=4"
	noWarningsFlag = "-n"
)

// Defaults for Settings and Tool.
const (
	DefaultStandard          = "PSR2"
	DefaultSeverityThreshold = 1
	DefaultInterpreter       = "php"
	DefaultTimeout           = 2 * time.Minute
)

// Settings are the per-request phpcs options. Values are passed through to
// phpcs as-is.
type Settings struct {
	Standard            string   `json:"standard" yaml:"standard"`
	SeverityThreshold   int      `json:"severity_threshold" yaml:"severity_threshold"`
	TabsToSpaces        bool     `json:"tabs_to_spaces" yaml:"tabs_to_spaces"`
	SuppressWarnings    bool     `json:"suppress_warnings" yaml:"suppress_warnings"`
	AdditionalArguments []string `json:"additional_arguments" yaml:"additional_arguments"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Standard:          DefaultStandard,
		SeverityThreshold: DefaultSeverityThreshold,
		TabsToSpaces:      true,
	}
}

// Tool locates the phpcs installation.
type Tool struct {
	Interpreter string        // defaults to "php"
	Script      string        // defaults to DefaultScriptPath()
	Timeout     time.Duration // defaults to DefaultTimeout
}

// DefaultScriptPath returns phpcs/scripts/phpcs next to the running binary.
func DefaultScriptPath() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("phpcs", "scripts", "phpcs")
	}
	return filepath.Join(filepath.Dir(exe), "phpcs", "scripts", "phpcs")
}

// withDefaults fills unset Tool fields.
func (t Tool) withDefaults() Tool {
	if t.Interpreter == "" {
		t.Interpreter = DefaultInterpreter
	}
	if t.Script == "" {
		t.Script = DefaultScriptPath()
	}
	if t.Timeout <= 0 {
		t.Timeout = DefaultTimeout
	}
	return t
}

// BuildArgs returns the full argv for linting file: interpreter and script
// first, the target file last. Settings are used verbatim; start from
// DefaultSettings() to get the documented defaults.
func BuildArgs(tool Tool, file string, s Settings) []string {
	tool = tool.withDefaults()
	args := []string{
		tool.Interpreter,
		tool.Script,
		extensionsFlag,
		reportFlag,
		"--standard=" + s.Standard,
		"--severity=" + strconv.Itoa(s.SeverityThreshold),
	}
	if s.TabsToSpaces {
		args = append(args, tabWidthFlag)
	}
	if s.SuppressWarnings {
		args = append(args, noWarningsFlag)
	}
	args = append(args, s.AdditionalArguments...)
	args = append(args, file)
	return args
}

// Invocation is the captured output of one phpcs run.
type Invocation struct {
	File     string
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Buckets translates the captured stdout. It is computed on every call.
func (inv *Invocation) Buckets() (*Buckets, error) {
	b, err := Translate(inv.Stdout)
	if err != nil {
		return nil, withFile(inv.File, err)
	}
	return b, nil
}

// Invoker runs phpcs once against a single file. It is not safe for
// concurrent use; create one per lint request.
type Invoker struct {
	cmd      CommandRunner
	tool     Tool
	file     string
	settings Settings

	// Dir is the working directory for phpcs. Empty means the caller's
	// current directory.
	Dir string

	done   bool
	result *Invocation
	err    error
}

// NewInvoker creates an Invoker for file.
func NewInvoker(cmd CommandRunner, tool Tool, file string, settings Settings) *Invoker {
	return &Invoker{
		cmd:      cmd,
		tool:     tool.withDefaults(),
		file:     file,
		settings: settings,
	}
}

// Execute runs phpcs and captures its output. Later calls return the first
// outcome, success or failure, without running phpcs again.
func (iv *Invoker) Execute(ctx context.Context) (*Invocation, error) {
	if iv.done {
		return iv.result, iv.err
	}
	iv.result, iv.err = iv.execute(ctx)
	iv.done = true
	return iv.result, iv.err
}

func (iv *Invoker) execute(ctx context.Context) (*Invocation, error) {
	dir := iv.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		dir = wd
	}

	args := BuildArgs(iv.tool, iv.file, iv.settings)

	runCtx, cancel := context.WithTimeout(ctx, iv.tool.Timeout)
	defer cancel()

	slog.Debug("running phpcs",
		slog.String("file", iv.file),
		slog.String("dir", dir),
		slog.Any("args", args),
	)

	start := time.Now()
	stdout, stderr, exitCode, err := iv.cmd.Run(runCtx, dir, args[0], args[1:])
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("phpcs %s: %w", iv.file, ctx.Err())
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, &LintError{File: iv.file, Kind: ErrTimeout, Err: fmt.Errorf("after %s", iv.tool.Timeout)}
		}
		return nil, &LintError{File: iv.file, Kind: ErrLaunch, Err: err}
	}

	if !utf8.Valid(stdout) {
		return nil, &LintError{File: iv.file, Kind: ErrEncoding, Err: fmt.Errorf("%d bytes of stdout", len(stdout))}
	}

	return &Invocation{
		File:     iv.file,
		Args:     args,
		Stdout:   string(stdout),
		Stderr:   string(stderr),
		ExitCode: exitCode,
		Duration: duration,
	}, nil
}
