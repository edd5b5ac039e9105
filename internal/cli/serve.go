package cli

import (
	"fmt"

	"github.com/lucasnoah/phpcslint/internal/phpcs"
	"github.com/lucasnoah/phpcslint/internal/web"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local lint endpoint for editors",
	Long: `Start a JSON endpoint on localhost that editors call to lint a file.

  POST /lint     {"file": "...", "settings": {...}} returns the E/W/V buckets
  GET  /history  recent lint runs (when history is enabled)
  GET  /metrics  Prometheus metrics
  GET  /healthz  liveness`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		listen := cfg.Listen
		if cmd.Flags().Changed("listen") {
			listen, _ = cmd.Flags().GetString("listen")
		}

		exporter, err := promexporter.New()
		if err != nil {
			return fmt.Errorf("create prometheus exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
		defer mp.Shutdown(cmd.Context())
		otel.SetMeterProvider(mp)

		metrics, err := phpcs.NewMetrics(mp, otel.GetTracerProvider())
		if err != nil {
			return fmt.Errorf("create metrics: %w", err)
		}
		linter, err := newLinter(cfg, metrics)
		if err != nil {
			return err
		}
		history, cleanup := openHistory(cfg)
		defer cleanup()

		return web.NewServer(linter, history, cfg.Settings()).Start(listen)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "Address to listen on (overrides config)")
}
