package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/lucasnoah/phpcslint/internal/config"
	"github.com/lucasnoah/phpcslint/internal/db"
	"github.com/lucasnoah/phpcslint/internal/phpcs"
	"github.com/spf13/cobra"
)

var lintCmd = &cobra.Command{
	Use:   "lint [files or patterns...]",
	Short: "Run phpcs on one or more files, one at a time",
	Long: `Run phpcs on each file and print its issues grouped by bucket.

Arguments may be doublestar patterns such as "src/**/*.php". Files matching
an exclude pattern from the config are skipped. The command fails when any
file has issues or could not be linted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		failFast, _ := cmd.Flags().GetBool("fail-fast")
		if format != "text" && format != "json" {
			return fmt.Errorf("invalid format %q: must be text or json", format)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		settings, err := settingsFromFlags(cmd, cfg)
		if err != nil {
			return err
		}

		files, err := expandTargets(args, cfg.Exclude)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No files to lint.")
			return nil
		}

		linter, err := newLinter(cfg, phpcs.DefaultMetrics())
		if err != nil {
			return err
		}
		history, cleanup := openHistory(cfg)
		defer cleanup()

		batch, results, err := linter.RunBatch(cmd.Context(), phpcs.BatchOpts{
			Files:    files,
			Settings: settings,
			Continue: !failFast,
		})
		if err != nil {
			return fmt.Errorf("run lint: %w", err)
		}

		recordBatch(history, settings, batch, results)

		if format == "json" {
			out := struct {
				Summary *phpcs.BatchResult `json:"summary"`
				Results []*phpcs.Result    `json:"results"`
			}{batch, results}
			if out.Results == nil {
				out.Results = []*phpcs.Result{}
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		} else {
			printBatch(cmd.OutOrStdout(), batch, results)
		}

		if !batch.Passed {
			cmd.SilenceUsage = true
			failed := 0
			for _, f := range batch.Files {
				if !f.Passed {
					failed++
				}
			}
			return fmt.Errorf("lint failed: %d of %d file(s) not clean", failed, len(batch.Files))
		}
		return nil
	},
}

func init() {
	lintCmd.Flags().String("format", "text", "Output format: text or json")
	lintCmd.Flags().Bool("fail-fast", false, "Stop at the first file that is not clean")
	addSettingsFlags(lintCmd)
}

// addSettingsFlags registers the per-run phpcs option overrides.
func addSettingsFlags(cmd *cobra.Command) {
	cmd.Flags().String("standard", "", "Coding standard (overrides config)")
	cmd.Flags().Int("severity", 0, "Minimum severity to report (overrides config)")
	cmd.Flags().Bool("no-warnings", false, "Pass -n to hide phpcs warnings")
	cmd.Flags().Bool("no-tab-width", false, "Do not pass --tab-width=4")
	cmd.Flags().StringArray("arg", nil, "Extra argument passed to phpcs (repeatable)")
}

// settingsFromFlags starts from the config and applies flags the user set.
func settingsFromFlags(cmd *cobra.Command, cfg *config.Config) (phpcs.Settings, error) {
	s := cfg.Settings()
	flags := cmd.Flags()
	if flags.Changed("standard") {
		s.Standard, _ = flags.GetString("standard")
	}
	if flags.Changed("severity") {
		s.SeverityThreshold, _ = flags.GetInt("severity")
	}
	if flags.Changed("no-warnings") {
		v, _ := flags.GetBool("no-warnings")
		s.SuppressWarnings = v
	}
	if flags.Changed("no-tab-width") {
		v, _ := flags.GetBool("no-tab-width")
		s.TabsToSpaces = !v
	}
	if flags.Changed("arg") {
		extra, err := flags.GetStringArray("arg")
		if err != nil {
			return phpcs.Settings{}, err
		}
		s.AdditionalArguments = append(s.AdditionalArguments, extra...)
	}
	return s, nil
}

// expandTargets turns arguments into a de-duplicated file list, expanding
// doublestar patterns and dropping excluded paths. Plain paths are kept even
// if they do not exist so phpcs can report them.
func expandTargets(args []string, exclude []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(f string) {
		f = filepath.Clean(f)
		if seen[f] || isExcluded(f, exclude) {
			return
		}
		seen[f] = true
		files = append(files, f)
	}

	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			add(arg)
			continue
		}
		if !doublestar.ValidatePattern(filepath.ToSlash(arg)) {
			return nil, fmt.Errorf("invalid pattern %q", arg)
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", arg, err)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return files, nil
}

func isExcluded(file string, exclude []string) bool {
	slashed := filepath.ToSlash(file)
	for _, p := range exclude {
		if ok, _ := doublestar.Match(p, slashed); ok {
			return true
		}
	}
	return false
}

// recordBatch writes one history row per file. Errors are logged, not
// returned; history must never fail a lint.
func recordBatch(history *db.DB, s phpcs.Settings, batch *phpcs.BatchResult, results []*phpcs.Result) {
	if history == nil {
		return
	}
	byFile := make(map[string]*phpcs.Result, len(results))
	for _, r := range results {
		byFile[r.File] = r
	}
	for _, f := range batch.Files {
		var err error
		if res, ok := byFile[f.File]; ok {
			err = history.RecordLint(f.File, s, res, nil)
		} else {
			err = history.LogLintRun(db.LintRun{
				File:              f.File,
				Standard:          s.Standard,
				SeverityThreshold: s.SeverityThreshold,
				ExitCode:          -1,
				FailureKind:       f.Kind,
				Failure:           f.Failure,
			})
		}
		if err != nil {
			slog.Warn("record lint history", slog.String("file", f.File), slog.String("error", err.Error()))
		}
	}
}

func printBatch(w io.Writer, batch *phpcs.BatchResult, results []*phpcs.Result) {
	byFile := make(map[string]*phpcs.Result, len(results))
	for _, r := range results {
		byFile[r.File] = r
	}
	for _, f := range batch.Files {
		if f.Failure != "" {
			fmt.Fprintf(w, "[FAIL] %s: %s\n", f.File, f.Failure)
			continue
		}
		printResult(w, byFile[f.File])
	}
	if batch.Passed {
		fmt.Fprintln(w, "\nAll files clean")
	}
}

func printResult(w io.Writer, res *phpcs.Result) {
	if res == nil {
		return
	}
	if res.Passed() {
		fmt.Fprintf(w, "[PASS] %s\n", res.File)
		return
	}
	fmt.Fprintf(w, "[ISSUES] %s: %d warning(s), %d violation(s)\n", res.File, len(res.Buckets.W), len(res.Buckets.V))
	for _, sev := range phpcs.Severities {
		for _, is := range res.Buckets.Get(sev) {
			fmt.Fprintf(w, "  %d:%d  %s  %s\n", is.Line, is.Offset, sev.Key(), is.Message)
		}
	}
}
