package esbuild

import (
	"context"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/3-lines-studio/mdx/internal/core"
)

// TransformIIFE wraps code into a self-executing function so it can run
// from a plain script element.
func (b *Bundler) TransformIIFE(ctx context.Context, code string, minify bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	result := api.Transform(code, api.TransformOptions{
		Loader:            api.LoaderJS,
		Format:            api.FormatIIFE,
		MinifyWhitespace:  minify,
		MinifyIdentifiers: minify,
		MinifySyntax:      minify,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		err := bundleError("", core.TargetClient, result.Errors)
		if ce, ok := err.(*core.CompileError); ok {
			ce.Message = "hydration script transform failed"
		}
		return "", err
	}

	return string(result.Code), nil
}
