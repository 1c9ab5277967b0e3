// Command rfpctl runs the analysis pipeline from a terminal against the configured
// storage and model, without the HTTP server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/rfp-analyzer/internal/bootstrap"
	"github.com/bryanwahyu/rfp-analyzer/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "rfpctl",
		Short:        "Analyze RFP documents and inspect stored uploads",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.Path(), "config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline steps to stderr")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newFetchCmd(opts),
		newStorageHealthCmd(opts),
	)
	return cmd
}

// app loads config and wires the pipeline. Logs are dropped unless --verbose.
func (o *rootOptions) app(ctx context.Context) (*bootstrap.App, *config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if o.verbose {
		cfg.Logging.Format = "text"
		logger = cfg.NewLogger()
	}
	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("setup: %w", err)
	}
	return app, cfg, nil
}
