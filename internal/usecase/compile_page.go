package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/3-lines-studio/mdx/internal/core"
)

type CompileInput struct {
	Content   string
	InputPath string
	Props     map[string]any
}

type CompileOutput struct {
	HTML         string
	ServerHTML   string
	DroppedProps []string
}

type CompileSettings struct {
	RootID     string
	External   []string
	CDNScripts []string
	Preamble   string
	Minify     bool
	Props      core.PropsPolicy
}

type CompileService struct {
	bundler  Bundler
	renderer ServerRenderer
	settings CompileSettings
	logger   *slog.Logger
}

func NewCompileService(bundler Bundler, renderer ServerRenderer, settings CompileSettings, logger *slog.Logger) *CompileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompileService{
		bundler:  bundler,
		renderer: renderer,
		settings: settings,
		logger:   logger,
	}
}

// Compile turns one page into its HTML fragment: server markup inside the
// root container followed by the hydration script.
func (s *CompileService) Compile(ctx context.Context, input CompileInput) (CompileOutput, error) {
	start := time.Now()

	props, err := core.PrepareProps(input.Props, s.settings.Props)
	if err != nil {
		return CompileOutput{}, core.NewCompileError(core.StageProps, input.InputPath, err)
	}
	if len(props.Dropped) > 0 {
		s.logger.Warn("dropped props that are not JSON serializable", "path", input.InputPath, "keys", props.Dropped)
	}

	serverReq, clientReq := core.BundlePair(input.Content, input.InputPath, s.settings.External, s.settings.Preamble, s.settings.Minify)

	var serverCode, clientCode string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		code, err := s.bundler.Bundle(gctx, serverReq)
		if err != nil {
			return core.NewCompileError(core.StageBundle, input.InputPath, err)
		}
		serverCode = code
		return nil
	})
	g.Go(func() error {
		code, err := s.bundler.Bundle(gctx, clientReq)
		if err != nil {
			return core.NewCompileError(core.StageBundle, input.InputPath, err)
		}
		clientCode = code
		return nil
	})
	if err := g.Wait(); err != nil {
		return CompileOutput{}, err
	}
	bundleDuration := time.Since(start)

	serverHTML, err := s.renderer.Render(ctx, serverCode, props.JSON)
	if err != nil {
		return CompileOutput{}, core.NewCompileError(core.StageRender, input.InputPath, err)
	}

	hydrate, err := s.bundler.TransformIIFE(ctx, core.HydrationProgram(clientCode, s.settings.RootID), s.settings.Minify)
	if err != nil {
		return CompileOutput{}, core.NewCompileError(core.StageBundle, input.InputPath, err)
	}

	html, err := core.AssemblePage(core.PageParts{
		CDNScripts:    s.settings.CDNScripts,
		RootID:        s.settings.RootID,
		ServerHTML:    serverHTML,
		PropsJSON:     props.JSON,
		HydrateScript: hydrate,
	})
	if err != nil {
		return CompileOutput{}, core.NewCompileError(core.StageOutput, input.InputPath, err)
	}

	s.logger.Debug("page compiled",
		"path", input.InputPath,
		"bundle", bundleDuration,
		"total", time.Since(start),
		"bytes", len(html),
	)

	return CompileOutput{
		HTML:         html,
		ServerHTML:   serverHTML,
		DroppedProps: props.Dropped,
	}, nil
}
