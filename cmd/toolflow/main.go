// Package main implements the toolflow CLI: run and inspect pipeline
// definitions against the tools declared in configuration.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/toolflow/bootstrap"
	"github.com/kbukum/toolflow/config"
	"github.com/kbukum/toolflow/logger"
	"github.com/kbukum/toolflow/version"
)

var (
	// serviceName selects the config search paths (cmd/<name>/config.yml, .env.<name>).
	serviceName string
	configFile  string
	envFile     string
	defDirs     []string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "toolflow",
		Short: "Run dependency-ordered tool pipelines",
		Long: `toolflow resolves pipeline definitions into a dependency order and runs
each step against the tools declared in configuration, with retries,
conditions and sub-pipelines.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&serviceName, "service", "toolflow", "service name used for config discovery")
	root.PersistentFlags().StringVar(&configFile, "config", "", "explicit config file")
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "explicit .env file")
	root.PersistentFlags().StringSliceVar(&defDirs, "definitions", nil, "pipeline definition directories (overrides engine.definition_dirs)")

	root.AddCommand(newRunCmd(), newValidateCmd(), newToolsCmd())
	return root
}

// loadRuntime builds a runtime from the persistent flags.
func loadRuntime(ctx context.Context, opts ...bootstrap.Option) (*bootstrap.Runtime, error) {
	var loaderOpts []config.LoaderOption
	if configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(envFile))
	}

	cfg, err := config.Load(serviceName, loaderOpts...)
	if err != nil {
		return nil, err
	}
	if len(defDirs) > 0 {
		cfg.Engine.DefinitionDirs = defDirs
	}
	if v := cfg.Service.Version; v == "" || v == "dev" {
		cfg.Service.Version = version.Get().Short()
	}
	return bootstrap.New(ctx, cfg, opts...)
}

// quietRuntime builds a runtime that logs only errors and prints no summary,
// for commands whose stdout is their result.
func quietRuntime(cmd *cobra.Command) (*bootstrap.Runtime, error) {
	log := logger.NewWithWriter(&logger.Config{Level: "error", Format: logger.FormatConsole}, serviceName, cmd.ErrOrStderr())
	return loadRuntime(cmd.Context(), bootstrap.WithLogger(log), bootstrap.WithSummaryOutput(cmd.ErrOrStderr()))
}
