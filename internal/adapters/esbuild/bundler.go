// Package esbuild bundles MDX pages in memory with the esbuild Go API.
package esbuild

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/3-lines-studio/mdx/internal/core"
)

// MarkupCompiler converts MDX source into JSX module source.
type MarkupCompiler interface {
	CompileMarkup(ctx context.Context, content string, path string) (string, error)
}

type Bundler struct {
	markup MarkupCompiler
	logger *slog.Logger
}

func NewBundler(markup MarkupCompiler, logger *slog.Logger) *Bundler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bundler{markup: markup, logger: logger}
}

func (b *Bundler) Bundle(ctx context.Context, req core.BundleRequest) (string, error) {
	if req.EntryPath == "" {
		return "", &core.CompileError{Stage: core.StageBundle, Message: "missing entry path"}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entry, err := filepath.Abs(req.EntryPath)
	if err != nil {
		return "", core.NewCompileError(core.StageBundle, req.EntryPath, err)
	}

	opts := api.BuildOptions{
		EntryPoints:       []string{entry},
		Bundle:            true,
		Write:             false,
		Metafile:          true,
		External:          req.External,
		MinifyWhitespace:  req.Minify,
		MinifyIdentifiers: req.Minify,
		MinifySyntax:      req.Minify,
		LogLevel:          api.LogLevelSilent,
	}

	loader := &loaderState{}
	opts.Plugins = []api.Plugin{b.loaderPlugin(ctx, entry, req, loader)}

	switch req.Target {
	case core.TargetClient:
		opts.Platform = api.PlatformBrowser
		opts.Format = api.FormatIIFE
		opts.GlobalName = req.GlobalName
	default:
		opts.Platform = api.PlatformNode
		opts.Format = api.FormatCommonJS
	}

	result := api.Build(opts)
	if err := loader.err(); err != nil {
		return "", err
	}
	if len(result.Errors) > 0 {
		return "", bundleError(req.EntryPath, req.Target, result.Errors)
	}
	if len(result.OutputFiles) == 0 {
		return "", &core.CompileError{
			Stage:   core.StageBundle,
			Path:    req.EntryPath,
			Message: fmt.Sprintf("%s bundle produced no output", req.Target),
		}
	}

	b.logger.Debug("bundle built",
		"target", req.Target.String(),
		"path", req.EntryPath,
		"bytes", len(result.OutputFiles[0].Contents),
		"warnings", len(result.Warnings),
		"metafileBytes", len(result.Metafile),
	)

	return string(result.OutputFiles[0].Contents), nil
}

// loaderPlugin rewrites .mdx files into JSX modules. The entry file uses
// the content handed to the compile call and does not need to exist on
// disk; other .mdx imports are read from disk.
func (b *Bundler) loaderPlugin(ctx context.Context, entry string, req core.BundleRequest, state *loaderState) api.Plugin {
	entryFilter := "^" + regexp.QuoteMeta(entry) + "$"

	return api.Plugin{
		Name: "mdx-loader",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: entryFilter}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if args.Kind != api.ResolveEntryPoint {
					return api.OnResolveResult{}, nil
				}
				return api.OnResolveResult{Path: entry, Namespace: "file"}, nil
			})

			build.OnLoad(api.OnLoadOptions{Filter: core.LoaderFilter}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				content := req.Content
				if args.Path != entry {
					data, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					content = string(data)
				}

				code, err := b.markup.CompileMarkup(ctx, content, args.Path)
				if err != nil {
					err = core.NewCompileError(core.StageMarkup, args.Path, err)
					state.fail(err)
					return api.OnLoadResult{}, err
				}

				contents := req.Preamble + code
				return api.OnLoadResult{
					Contents:   &contents,
					Loader:     api.LoaderJSX,
					ResolveDir: filepath.Dir(args.Path),
				}, nil
			})
		},
	}
}

// loaderState keeps the first markup failure; OnLoad callbacks may run
// concurrently for different files.
type loaderState struct {
	mu    sync.Mutex
	first error
}

func (s *loaderState) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.first == nil {
		s.first = err
	}
}

func (s *loaderState) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.first
}

func bundleError(path string, target core.Target, messages []api.Message) error {
	details := make([]core.ErrorDetail, 0, len(messages))
	for _, msg := range messages {
		detail := core.ErrorDetail{Message: msg.Text}
		if msg.Location != nil {
			detail.File = msg.Location.File
			detail.Line = msg.Location.Line
			detail.Column = msg.Location.Column
			detail.LineText = msg.Location.LineText
		}
		details = append(details, detail)
	}

	return &core.CompileError{
		Stage:   core.StageBundle,
		Path:    path,
		Message: fmt.Sprintf("%s bundle failed with %d error(s)", target, len(messages)),
		Details: details,
	}
}
