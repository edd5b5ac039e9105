package phpcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

// mockCmd records calls and returns configured results.
type mockCmd struct {
	calls   []mockCall
	results []mockResult
	callIdx int
}

type mockCall struct {
	Dir  string
	Name string
	Args []string
}

type mockResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
	Block    bool // wait for ctx to be done
}

func (m *mockCmd) Run(ctx context.Context, dir string, name string, args []string) ([]byte, []byte, int, error) {
	m.calls = append(m.calls, mockCall{Dir: dir, Name: name, Args: args})
	if m.callIdx >= len(m.results) {
		return nil, nil, 0, nil
	}
	r := m.results[m.callIdx]
	m.callIdx++
	if r.Block {
		<-ctx.Done()
		return nil, nil, -1, ctx.Err()
	}
	return []byte(r.Stdout), []byte(r.Stderr), r.ExitCode, r.Err
}

var testTool = Tool{Interpreter: "php", Script: "/opt/phpcs/scripts/phpcs"}

func TestBuildArgs_Defaults(t *testing.T) {
	got := BuildArgs(testTool, "/src/a.php", DefaultSettings())
	want := []string{
		"php", "/opt/phpcs/scripts/phpcs",
		"--extensions=php,inc,lib,js,css", "--report=json",
		"--standard=PSR2", "--severity=1", "--tab-width=4",
		"/src/a.php",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestBuildArgs_AllOptions(t *testing.T) {
	s := Settings{
		Standard:            "PSR12",
		SeverityThreshold:   5,
		TabsToSpaces:        false,
		SuppressWarnings:    true,
		AdditionalArguments: []string{"--ignore=vendor", "-s"},
	}
	got := BuildArgs(testTool, "a.php", s)
	want := []string{
		"php", "/opt/phpcs/scripts/phpcs",
		"--extensions=php,inc,lib,js,css", "--report=json",
		"--standard=PSR12", "--severity=5", "-n",
		"--ignore=vendor", "-s",
		"a.php",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestBuildArgs_TabWidthBeforeNoWarnings(t *testing.T) {
	s := DefaultSettings()
	s.SuppressWarnings = true
	got := strings.Join(BuildArgs(testTool, "a.php", s), " ")
	if !strings.Contains(got, "--severity=1 --tab-width=4 -n a.php") {
		t.Errorf("unexpected flag order: %s", got)
	}
}

func TestBuildArgs_SettingsUsedVerbatim(t *testing.T) {
	got := strings.Join(BuildArgs(Tool{Interpreter: "php", Script: "/s"}, "f.php", Settings{}), " ")
	want := "php /s --extensions=php,inc,lib,js,css --report=json --standard= --severity=0 f.php"
	if got != want {
		t.Errorf("zero settings should not be partially defaulted:\n got %s\nwant %s", got, want)
	}
}

func TestBuildArgs_ToolDefaults(t *testing.T) {
	got := BuildArgs(Tool{}, "a.php", DefaultSettings())
	if got[0] != "php" {
		t.Errorf("expected php interpreter, got %q", got[0])
	}
	if !strings.HasSuffix(got[1], "phpcs/scripts/phpcs") {
		t.Errorf("expected default script path, got %q", got[1])
	}
}

func TestInvoker_Execute(t *testing.T) {
	mock := &mockCmd{results: []mockResult{{Stdout: `{"totals":{"errors":0,"warnings":0},"files":{}}`, Stderr: "note", ExitCode: 0}}}
	iv := NewInvoker(mock, testTool, "/src/a.php", DefaultSettings())
	iv.Dir = "/work"

	inv, err := iv.Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(mock.calls))
	}
	call := mock.calls[0]
	if call.Dir != "/work" {
		t.Errorf("expected dir=/work, got %q", call.Dir)
	}
	if call.Name != "php" {
		t.Errorf("expected name=php, got %q", call.Name)
	}
	if call.Args[len(call.Args)-1] != "/src/a.php" {
		t.Errorf("expected file last, got %q", call.Args)
	}
	if inv.Stderr != "note" {
		t.Errorf("expected stderr captured, got %q", inv.Stderr)
	}

	// Second call reuses the captured output.
	again, err := iv.Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != inv || len(mock.calls) != 1 {
		t.Errorf("expected a single invocation per Invoker")
	}
}

func TestInvoker_DefaultsToWorkingDir(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	mock := &mockCmd{}
	if _, err := NewInvoker(mock, testTool, "a.php", DefaultSettings()).Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.calls[0].Dir != wd {
		t.Errorf("expected dir=%q, got %q", wd, mock.calls[0].Dir)
	}
}

func TestInvoker_NonZeroExitIsNotFailure(t *testing.T) {
	mock := &mockCmd{results: []mockResult{{Stdout: "{}", ExitCode: 2}}}
	inv, err := NewInvoker(mock, testTool, "a.php", DefaultSettings()).Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.ExitCode != 2 {
		t.Errorf("expected exit_code=2, got %d", inv.ExitCode)
	}
}

func TestInvoker_LaunchFailure(t *testing.T) {
	mock := &mockCmd{results: []mockResult{{Err: fmt.Errorf("exec php: executable file not found")}}}
	_, err := NewInvoker(mock, testTool, "a.php", DefaultSettings()).Execute(context.Background())
	if !errors.Is(err, ErrLaunch) {
		t.Fatalf("expected ErrLaunch, got %v", err)
	}
	var le *LintError
	if !errors.As(err, &le) || le.File != "a.php" {
		t.Errorf("expected LintError for a.php, got %#v", err)
	}
	if !strings.Contains(err.Error(), "a.php") || !strings.Contains(err.Error(), "process launch failed") {
		t.Errorf("diagnostic should name file and kind: %q", err.Error())
	}
}

func TestInvoker_FailureIsCached(t *testing.T) {
	mock := &mockCmd{results: []mockResult{
		{Err: fmt.Errorf("exec php: executable file not found")},
		{Stdout: `{"totals":{"errors":0,"warnings":0},"files":{}}`},
	}}
	iv := NewInvoker(mock, testTool, "a.php", DefaultSettings())

	_, first := iv.Execute(context.Background())
	_, second := iv.Execute(context.Background())
	if len(mock.calls) != 1 {
		t.Fatalf("expected phpcs to run once, ran %d times", len(mock.calls))
	}
	if !errors.Is(first, ErrLaunch) || second != first {
		t.Errorf("expected the same launch failure twice, got %v then %v", first, second)
	}
}

func TestInvoker_InvalidUTF8(t *testing.T) {
	mock := &mockCmd{results: []mockResult{{Stdout: "\xff\xfe{}"}}}
	_, err := NewInvoker(mock, testTool, "a.php", DefaultSettings()).Execute(context.Background())
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
}

func TestInvoker_Timeout(t *testing.T) {
	mock := &mockCmd{results: []mockResult{{Block: true}}}
	tool := testTool
	tool.Timeout = 20 * time.Millisecond
	_, err := NewInvoker(mock, tool, "a.php", DefaultSettings()).Execute(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestInvoker_CallerCancel(t *testing.T) {
	mock := &mockCmd{results: []mockResult{{Block: true}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewInvoker(mock, testTool, "a.php", DefaultSettings()).Execute(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Errorf("caller cancellation must not be reported as a timeout")
	}
}

func TestInvocation_BucketsAttachesFile(t *testing.T) {
	inv := &Invocation{File: "/src/a.php", Stdout: "garbage"}
	_, err := inv.Buckets()
	var le *LintError
	if !errors.As(err, &le) {
		t.Fatalf("expected LintError, got %v", err)
	}
	if le.File != "/src/a.php" || !errors.Is(err, ErrParse) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExecRunner_CapturesStreams(t *testing.T) {
	r := &ExecRunner{}
	stdout, stderr, code, err := r.Run(context.Background(), t.TempDir(), "sh", []string{"-c", "echo out; echo err >&2; exit 3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(stdout) != "out\n" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
	if string(stderr) != "err\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
	if code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r := &ExecRunner{}
	_, _, code, err := r.Run(context.Background(), "", "/nonexistent/phpcs-interpreter", nil)
	if err == nil {
		t.Fatal("expected an error for a missing binary")
	}
	if code != -1 {
		t.Errorf("expected exit code -1, got %d", code)
	}
}

func TestExecRunner_Deadline(t *testing.T) {
	r := &ExecRunner{}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, _, _, err := r.Run(ctx, "", "sh", []string{"-c", "sleep 5"})
	if err == nil {
		t.Fatal("expected an error after the deadline")
	}
	if time.Since(start) > 4*time.Second {
		t.Errorf("process was not stopped promptly")
	}
}
