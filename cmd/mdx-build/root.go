package main

import (
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/3-lines-studio/mdx/internal/config"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "mdx-build",
		Short:         "Render MDX pages to static HTML with client hydration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().Bool(config.KeyVerbose, false, "enable debug logging")
	root.PersistentFlags().String(config.KeyRuntimeDir, "", "directory node modules are resolved from (default: current directory)")
	root.PersistentFlags().StringSlice(config.KeyRuntime, nil, "command that runs the JS runtime from stdin (default: bun run --smol -)")

	root.AddCommand(newBuildCommand())
	root.AddCommand(newServeCommand())
	root.AddCommand(newDoctorCommand())
	return root
}

// loadConfig merges mdx.yaml in the input dir, MDX_* env vars and flags.
func loadConfig(cmd *cobra.Command, dir string) (config.Config, error) {
	cfg, err := config.Load(config.New(), dir, cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	setupLogger(cfg.Verbose)
	return cfg, nil
}

func setupLogger(verbose bool) *slog.Logger {
	handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          "mdx-build",
		Level:           charmlog.InfoLevel,
	})
	if verbose {
		handler.SetLevel(charmlog.DebugLevel)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
