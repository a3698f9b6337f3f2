package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/3-lines-studio/mdx"
	"github.com/3-lines-studio/mdx/internal/adapters/cli"
	"github.com/3-lines-studio/mdx/internal/adapters/fs"
	"github.com/3-lines-studio/mdx/internal/config"
	"github.com/3-lines-studio/mdx/internal/site"
)

func newBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [input-dir]",
		Short: "Compile every .mdx page under the input dir",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBuild,
	}

	f := cmd.Flags()
	f.StringP(config.KeyOutput, "o", "_site", "output directory")
	f.IntP(config.KeyConcurrency, "j", 0, "pages compiled in parallel (default: number of CPUs)")
	f.String(config.KeyLang, "en", "lang attribute of the page layout")
	f.StringSlice(config.KeyExternal, nil, "extra modules left out of the bundles")
	f.StringSlice(config.KeyExcludeProps, nil, "prop keys never embedded in pages (default: collections)")
	f.Bool(config.KeyDropUnsafeProp, false, "drop props that are not JSON serializable instead of failing the page")
	f.String(config.KeyRootID, mdx.RootID, "id of the hydration container")
	f.Bool(config.KeyMinify, false, "minify bundles")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	inputDir := "."
	if len(args) == 1 {
		inputDir = args[0]
	}

	out := cli.NewOutput()
	out.PrintHeader("MDX Build")

	cfg, err := loadConfig(cmd, inputDir)
	if err != nil {
		out.PrintError("%v", err)
		return err
	}
	if len(args) == 1 {
		cfg.InputDir = inputDir
	}

	opts := []mdx.Option{
		mdx.WithExternal(cfg.External...),
		mdx.WithExcludedProps(cfg.ExcludeProps...),
		mdx.WithRootID(cfg.RootID),
		mdx.WithMinify(cfg.Minify),
		mdx.WithRuntimeCommand(cfg.Runtime...),
		mdx.WithRuntimeDir(cfg.RuntimeDir),
	}
	if cfg.DropUnserializableProps {
		opts = append(opts, mdx.WithUnserializableProps(mdx.PropsDrop))
	}

	outputDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return err
	}
	report := cli.NewBuildReport(out, outputDir)
	opts = append(opts, mdx.WithDroppedPropsHandler(report.AddDroppedProps))

	host := site.NewConfig()
	plugin, err := mdx.Register(host, opts...)
	if err != nil {
		out.PrintError("%v", err)
		return err
	}
	defer func() { _ = plugin.Close() }()

	builder := site.NewBuilder(host, fs.NewOSFileSystem(), nil)
	result, err := builder.Build(cmd.Context(), site.BuildInput{
		InputDir:    cfg.InputDir,
		OutputDir:   outputDir,
		Concurrency: cfg.Concurrency,
		Lang:        cfg.Lang,
	})
	if err != nil {
		out.PrintError("%v", err)
		return err
	}

	for _, page := range result.Pages {
		if page.Err != nil {
			report.AddError(page.InputPath, page.Err)
			continue
		}
		rel, relErr := filepath.Rel(outputDir, page.OutputPath)
		if relErr != nil {
			rel = page.OutputPath
		}
		report.AddPage(page.InputPath, rel, page.Duration)
	}
	report.Render()

	if report.HasFailures() {
		return fmt.Errorf("%d page(s) failed", len(result.Failed()))
	}
	return nil
}
