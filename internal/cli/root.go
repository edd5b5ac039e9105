package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lucasnoah/phpcslint/internal/config"
	"github.com/lucasnoah/phpcslint/internal/db"
	"github.com/lucasnoah/phpcslint/internal/phpcs"
	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configFile string
	verbose    bool
)

func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "phpcslint",
	Short: "Run PHP_CodeSniffer and report issues in editor form",
	Long: `phpcslint runs PHP_CodeSniffer against a file, reads its JSON report and
sorts every issue into E/W/V buckets for editor integrations.

phpcs errors are reported as W and phpcs warnings as V.
Settings come from .phpcslint.yaml, ~/.phpcslint/config.yaml or PHPCSLINT_* variables.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
}

func setupLogging(cmd *cobra.Command) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadConfig resolves the config file and applies environment overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if configFile != "" {
		cfg, err = config.Load(configFile)
		path = configFile
	} else {
		cfg, path, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	config.ApplyEnv(cfg, os.Getenv)
	if path != "" {
		slog.Debug("loaded config", slog.String("path", path))
	}
	return cfg, nil
}

// newLinter builds a Linter backed by real processes.
func newLinter(cfg *config.Config, metrics *phpcs.Metrics) (*phpcs.Linter, error) {
	tool, err := cfg.Tool()
	if err != nil {
		return nil, err
	}
	return phpcs.NewLinter(&phpcs.ExecRunner{}, tool, metrics), nil
}

// openHistory opens and migrates the history DB. It returns a nil DB when
// history is disabled or the DB is unavailable, so a broken store never
// stops a lint. The cleanup func is always safe to call.
func openHistory(cfg *config.Config) (*db.DB, func()) {
	if !cfg.History {
		return nil, func() {}
	}
	d, cleanup, err := openDB(cfg)
	if err != nil {
		slog.Warn("lint history disabled", slog.String("error", err.Error()))
		return nil, func() {}
	}
	return d, cleanup
}

// openDB opens and migrates the DB, returning it with a cleanup func.
func openDB(cfg *config.Config) (*db.DB, func(), error) {
	dsn := cfg.Database
	if dsn == "" {
		path, err := db.DefaultDBPath()
		if err != nil {
			return nil, nil, err
		}
		dsn = path
	}
	d, err := db.Open(dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := d.Migrate(); err != nil {
		d.Close()
		return nil, nil, err
	}
	return d, func() { d.Close() }, nil
}
