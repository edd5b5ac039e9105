package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucasnoah/phpcslint/internal/phpcs"
	"github.com/lucasnoah/phpcslint/internal/watch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Lint a file now and again every time it is saved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		debounce, _ := cmd.Flags().GetDuration("debounce")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		settings, err := settingsFromFlags(cmd, cfg)
		if err != nil {
			return err
		}
		linter, err := newLinter(cfg, phpcs.DefaultMetrics())
		if err != nil {
			return err
		}
		history, cleanup := openHistory(cfg)
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		lint := func(ctx context.Context) {
			res, err := linter.Lint(ctx, file, settings)
			if rerr := history.RecordLint(file, settings, res, err); rerr != nil {
				slog.Warn("record lint history", slog.String("file", file), slog.String("error", rerr.Error()))
			}
			fmt.Fprintf(out, "--- %s\n", time.Now().Format(time.TimeOnly))
			if err != nil {
				fmt.Fprintf(out, "[FAIL] %s\n", err)
				return
			}
			printResult(out, res)
		}

		lint(ctx)
		err = watch.Watch(ctx, file, debounce, lint)
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Wait this long after the last change before linting")
	addSettingsFlags(watchCmd)
}
