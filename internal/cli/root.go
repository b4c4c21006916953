// Package cli wires the densitymap command tree
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jengzang/densitymap-backend-go/internal/config"
	"github.com/jengzang/densitymap-backend-go/internal/logging"
)

// globalOptions are the persistent flags shared by every subcommand
type globalOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand builds the densitymap command tree
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "densitymap",
		Short:         "Outcome density map engine",
		Long:          "densitymap turns scattered samples with outcome values into normalized density grids.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCommand(opts),
		newComputeCommand(opts),
	)
	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

// load reads configuration and builds the logger, applying flag overrides
func (o *globalOptions) load(logOutput string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if logOutput != "" {
		cfg.Log.Output = logOutput
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}
