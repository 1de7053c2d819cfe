// Package cmd defines the CLI commands for the ogshim executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shakilemon73/Tni-news-sub001/internal/config"
	"github.com/shakilemon73/Tni-news-sub001/internal/logging"
)

// rootOptions carries persistent flags shared by subcommands.
type rootOptions struct {
	configPath string
}

// load reads configuration and builds the logger subcommands log through.
func (o *rootOptions) load() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// newRootCmd creates the root command and its subcommands.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "ogshim",
		Short: "Link-preview renderer for the news site.",
		Long: `ogshim answers social crawlers and chat-app link unfurlers with a small
HTML document of Open Graph, Twitter Card and JSON-LD metadata for an
article, while human visitors continue to the single-page app.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (YAML); environment variables override it")

	cmd.AddCommand(
		newServeCmd(opts),
		newRenderCmd(opts),
		newClassifyCmd(opts),
		newSeedCmd(opts),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
