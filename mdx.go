package mdx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/3-lines-studio/mdx/internal/adapters/esbuild"
	"github.com/3-lines-studio/mdx/internal/adapters/process"
	"github.com/3-lines-studio/mdx/internal/core"
	"github.com/3-lines-studio/mdx/internal/usecase"
)

type Host = core.Host

type Extension = core.Extension

type RenderFunc = core.RenderFunc

type CompileError = core.CompileError

type Stage = core.Stage

const (
	StageMarkup = core.StageMarkup
	StageBundle = core.StageBundle
	StageRender = core.StageRender
	StageProps  = core.StageProps
	StageOutput = core.StageOutput
)

const RootID = core.DefaultRootID

var ErrClosed = errors.New("mdx: plugin closed")

type Plugin struct {
	opts   options
	logger *slog.Logger

	startOnce sync.Once
	startErr  error
	runtime   *process.Runtime
	service   *usecase.CompileService

	mu     sync.Mutex
	closed bool
}

// Register adds the mdx template format to host and returns the plugin
// that serves its compiles. Close the plugin after the build.
func Register(host Host, opts ...Option) (*Plugin, error) {
	if host == nil {
		return nil, fmt.Errorf("mdx: nil host")
	}

	p, err := New(opts...)
	if err != nil {
		return nil, err
	}

	host.AddTemplateFormats(core.ExtensionName)
	if err := host.AddExtension(core.ExtensionName, p.Extension()); err != nil {
		return nil, fmt.Errorf("mdx: register extension: %w", err)
	}

	return p, nil
}

// New builds a plugin without registering it.
func New(opts ...Option) (*Plugin, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := core.ValidateRootID(o.rootID); err != nil {
		return nil, fmt.Errorf("mdx: %w", err)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Plugin{opts: o, logger: logger}, nil
}

func (p *Plugin) Extension() Extension {
	return Extension{
		Experimental: true,
		ReadData:     true,
		InstanceFromInputPath: func(context.Context, string) (map[string]any, error) {
			return map[string]any{}, nil
		},
		Init: func(context.Context) error {
			return p.start()
		},
		Compile: p.Compile,
	}
}

// Compile returns the render function for one page. The JS runtime is
// started on first use.
func (p *Plugin) Compile(content string, inputPath string) (RenderFunc, error) {
	if p.isClosed() {
		return nil, ErrClosed
	}
	if err := p.start(); err != nil {
		return nil, err
	}

	return func(ctx context.Context, props map[string]any) (string, error) {
		if p.isClosed() {
			return "", ErrClosed
		}

		out, err := p.service.Compile(ctx, usecase.CompileInput{
			Content:   content,
			InputPath: inputPath,
			Props:     props,
		})
		if err != nil {
			return "", err
		}
		if len(out.DroppedProps) > 0 && p.opts.onDropped != nil {
			p.opts.onDropped(inputPath, out.DroppedProps)
		}
		return out.HTML, nil
	}, nil
}

func (p *Plugin) start() error {
	p.startOnce.Do(func() {
		markup := p.opts.markup
		renderer := p.opts.renderer

		if markup == nil || renderer == nil {
			rt, err := process.NewRuntime(process.Config{
				Command: p.opts.runtimeCommand,
				Dir:     p.opts.runtimeDir,
				Logger:  p.logger,
			})
			if err != nil {
				p.startErr = err
				return
			}
			p.runtime = rt
			if markup == nil {
				markup = rt
			}
			if renderer == nil {
				renderer = rt
			}
		}

		bundler := esbuild.NewBundler(markup, p.logger)
		p.service = usecase.NewCompileService(bundler, renderer, usecase.CompileSettings{
			RootID:     p.opts.rootID,
			External:   p.opts.external,
			CDNScripts: p.opts.cdnScripts,
			Preamble:   p.opts.preamble,
			Minify:     p.opts.minify,
			Props: core.PropsPolicy{
				Exclude:        p.opts.excludedProps,
				Unserializable: p.opts.unserializable,
			},
		}, p.logger)
	})
	return p.startErr
}

func (p *Plugin) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Plugin) Close() error {
	// Waits for a running start and keeps later ones from spawning a runtime.
	p.startOnce.Do(func() { p.startErr = ErrClosed })

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.runtime != nil {
		return p.runtime.Stop()
	}
	return nil
}
