package site

import (
	"context"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/3-lines-studio/mdx/internal/adapters/fs"
	"github.com/3-lines-studio/mdx/internal/core"
)

type BuildInput struct {
	InputDir    string
	OutputDir   string
	Concurrency int
	Lang        string
}

type PageResult struct {
	InputPath  string
	OutputPath string
	URL        string
	Duration   time.Duration
	Err        error
}

type BuildOutput struct {
	Pages []PageResult
}

func (o BuildOutput) Failed() []PageResult {
	var failed []PageResult
	for _, p := range o.Pages {
		if p.Err != nil {
			failed = append(failed, p)
		}
	}
	return failed
}

type page struct {
	relPath   string
	inputPath string
	format    string
	ext       core.Extension
	content   string
	data      map[string]any
}

type Builder struct {
	config *Config
	fs     fs.FileSystem
	logger *slog.Logger
}

func NewBuilder(config *Config, fsys fs.FileSystem, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{config: config, fs: fsys, logger: logger}
}

// Build renders every page of a registered template format. A failing page
// is reported in its PageResult and does not stop the others; the returned
// error covers problems with the build as a whole.
func (b *Builder) Build(ctx context.Context, input BuildInput) (BuildOutput, error) {
	if input.InputDir == "" {
		return BuildOutput{}, fmt.Errorf("missing input dir")
	}
	if input.OutputDir == "" {
		return BuildOutput{}, fmt.Errorf("missing output dir")
	}

	pages, err := b.discover(input.InputDir, input.OutputDir)
	if err != nil {
		return BuildOutput{}, err
	}
	b.logger.Info("pages found", "count", len(pages), "input", input.InputDir)

	if err := b.initExtensions(ctx, pages); err != nil {
		return BuildOutput{}, err
	}

	results := make([]PageResult, len(pages))
	loadErrs := make([]error, len(pages))
	for i := range pages {
		loadErrs[i] = b.load(ctx, &pages[i])
	}
	collections := buildCollections(pages)

	limit := input.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range pages {
		p := pages[i]
		results[i] = PageResult{
			InputPath:  p.inputPath,
			OutputPath: core.OutputPath(input.OutputDir, p.relPath),
			URL:        core.PageURL(p.relPath),
			Err:        loadErrs[i],
		}
		if loadErrs[i] != nil {
			continue
		}

		g.Go(func() error {
			start := time.Now()
			err := b.renderPage(gctx, p, results[i].OutputPath, collections, input.Lang)
			results[i].Duration = time.Since(start)
			results[i].Err = err
			if err != nil {
				b.logger.Error("page failed", "path", p.inputPath, "error", err)
			} else {
				b.logger.Debug("page written", "path", p.inputPath, "output", results[i].OutputPath, "duration", results[i].Duration)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BuildOutput{Pages: results}, err
	}

	return BuildOutput{Pages: results}, ctx.Err()
}

func (b *Builder) discover(inputDir, outputDir string) ([]page, error) {
	formats := b.config.TemplateFormats()
	absOutput, _ := filepath.Abs(outputDir)

	var pages []page
	err := b.fs.WalkDir(inputDir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == inputDir {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "node_modules" {
				return filepath.SkipDir
			}
			if abs, _ := filepath.Abs(path); abs == absOutput {
				return filepath.SkipDir
			}
			return nil
		}

		format := strings.TrimPrefix(filepath.Ext(path), ".")
		if !slices.Contains(formats, format) {
			return nil
		}
		ext, ok := b.config.Extension(format)
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		pages = append(pages, page{
			relPath:   rel,
			inputPath: path,
			format:    format,
			ext:       ext,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", inputDir, err)
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].relPath < pages[j].relPath })
	return pages, nil
}

func (b *Builder) initExtensions(ctx context.Context, pages []page) error {
	seen := make(map[string]bool)
	for _, p := range pages {
		if seen[p.format] || p.ext.Init == nil {
			continue
		}
		seen[p.format] = true
		if err := p.ext.Init(ctx); err != nil {
			return fmt.Errorf("failed to init %s extension: %w", p.format, err)
		}
	}
	return nil
}

func (b *Builder) load(ctx context.Context, p *page) error {
	raw, err := b.fs.ReadFile(p.inputPath)
	if err != nil {
		return err
	}

	data := map[string]any{}
	if p.ext.InstanceFromInputPath != nil {
		instance, err := p.ext.InstanceFromInputPath(ctx, p.inputPath)
		if err != nil {
			return fmt.Errorf("failed to load instance data: %w", err)
		}
		for k, v := range instance {
			data[k] = v
		}
	}

	body := raw
	if p.ext.ReadData {
		front, rest, err := SplitFrontMatter(raw)
		if err != nil {
			return err
		}
		for k, v := range front {
			data[k] = v
		}
		body = rest
	}

	p.content = string(body)
	p.data = data
	return nil
}

func (b *Builder) renderPage(ctx context.Context, p page, outputPath string, collections map[string]any, lang string) error {
	render, err := p.ext.Compile(p.content, p.inputPath)
	if err != nil {
		return err
	}

	props := make(map[string]any, len(p.data)+2)
	for k, v := range p.data {
		props[k] = v
	}
	props["page"] = pageInfo(p, outputPath)
	props["collections"] = collections

	fragment, err := render(ctx, props)
	if err != nil {
		return err
	}

	out := fragment
	if layout, ok := p.data["layout"].(bool); !ok || layout {
		title, _ := p.data["title"].(string)
		if title == "" {
			title = core.FileSlug(p.relPath)
		}
		out, err = RenderLayout(title, lang, fragment)
		if err != nil {
			return fmt.Errorf("failed to render layout: %w", err)
		}
	}

	return b.fs.WriteFile(outputPath, []byte(out), 0644)
}

func pageInfo(p page, outputPath string) map[string]any {
	return map[string]any{
		"inputPath":  p.inputPath,
		"fileSlug":   core.FileSlug(p.relPath),
		"url":        core.PageURL(p.relPath),
		"outputPath": outputPath,
	}
}

// buildCollections lists every page in the build. It is shared read-only
// between concurrent renders.
func buildCollections(pages []page) map[string]any {
	all := make([]any, 0, len(pages))
	for _, p := range pages {
		if p.data == nil {
			continue
		}
		all = append(all, map[string]any{
			"inputPath": p.inputPath,
			"fileSlug":  core.FileSlug(p.relPath),
			"url":       core.PageURL(p.relPath),
			"data":      p.data,
		})
	}
	return map[string]any{"all": all}
}
