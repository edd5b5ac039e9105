package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/lucasnoah/phpcslint/internal/db"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [file]",
	Short: "Show recent lint runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")
		if format != "text" && format != "json" {
			return fmt.Errorf("invalid format %q: must be text or json", format)
		}

		var file string
		if len(args) == 1 {
			file = args[0]
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d, cleanup, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		runs, err := d.GetLintHistory(file, limit)
		if err != nil {
			return err
		}

		if format == "json" {
			if runs == nil {
				runs = []db.LintRun{}
			}
			data, err := json.MarshalIndent(runs, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No lint runs recorded.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tFILE\tSTANDARD\tE\tW\tV\tRESULT")
		for _, r := range runs {
			result := "ok"
			if r.FailureKind != "" {
				result = r.FailureKind
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				r.Timestamp, r.File, r.Standard, r.Errors, r.Warnings, r.Violations, result)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to show (0 for all)")
	historyCmd.Flags().String("format", "text", "Output format: text or json")
}
