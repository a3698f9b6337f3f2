package usecase

import (
	"context"

	"github.com/3-lines-studio/mdx/internal/core"
)

type Bundler interface {
	Bundle(ctx context.Context, req core.BundleRequest) (string, error)
	TransformIIFE(ctx context.Context, code string, minify bool) (string, error)
}

type ServerRenderer interface {
	Render(ctx context.Context, code string, propsJSON []byte) (string, error)
}
