package mdx

import (
	"context"
	"log/slog"

	"github.com/3-lines-studio/mdx/internal/core"
)

// MarkupCompiler converts MDX source text into JSX module source.
type MarkupCompiler interface {
	CompileMarkup(ctx context.Context, content string, path string) (string, error)
}

// ServerRenderer evaluates a CommonJS server bundle and renders its default
// export with the given props.
type ServerRenderer interface {
	Render(ctx context.Context, code string, propsJSON []byte) (string, error)
}

type UnserializablePolicy = core.UnserializablePolicy

const (
	PropsFail = core.PropsFail
	PropsDrop = core.PropsDrop
)

type Option func(*options)

type options struct {
	rootID         string
	external       []string
	cdnScripts     []string
	excludedProps  []string
	unserializable UnserializablePolicy
	preamble       string
	minify         bool
	runtimeCommand []string
	runtimeDir     string
	logger         *slog.Logger
	markup         MarkupCompiler
	renderer       ServerRenderer
	onDropped      func(inputPath string, keys []string)
}

func defaultOptions() options {
	return options{
		rootID:        core.DefaultRootID,
		external:      append([]string(nil), core.DefaultExternal...),
		cdnScripts:    append([]string(nil), core.DefaultCDNScripts...),
		excludedProps: append([]string(nil), core.DefaultExcludedProps...),
		preamble:      core.DefaultPreamble,
	}
}

// WithExternal adds module names that are left out of both bundles.
func WithExternal(modules ...string) Option {
	return func(o *options) {
		o.external = append(o.external, modules...)
	}
}

func WithRootID(id string) Option {
	return func(o *options) {
		o.rootID = id
	}
}

// WithCDNScripts replaces the script tags that load the React runtime.
func WithCDNScripts(urls ...string) Option {
	return func(o *options) {
		o.cdnScripts = append([]string(nil), urls...)
	}
}

// WithExcludedProps replaces the list of prop keys that are never embedded
// into the page. The default list is ["collections"].
func WithExcludedProps(keys ...string) Option {
	return func(o *options) {
		o.excludedProps = append([]string(nil), keys...)
	}
}

func WithUnserializableProps(policy UnserializablePolicy) Option {
	return func(o *options) {
		o.unserializable = policy
	}
}

// WithPreamble replaces the imports placed before the converted markup.
func WithPreamble(preamble string) Option {
	return func(o *options) {
		o.preamble = preamble
	}
}

func WithMinify(minify bool) Option {
	return func(o *options) {
		o.minify = minify
	}
}

// WithRuntimeCommand sets the command that runs the JS runtime program
// read from stdin, e.g. "node --input-type=module -".
func WithRuntimeCommand(command ...string) Option {
	return func(o *options) {
		o.runtimeCommand = append([]string(nil), command...)
	}
}

// WithRuntimeDir sets the directory node modules are resolved from.
func WithRuntimeDir(dir string) Option {
	return func(o *options) {
		o.runtimeDir = dir
	}
}

// WithDroppedPropsHandler is called after a page renders with the prop keys
// that were left out because they are not JSON serializable.
func WithDroppedPropsHandler(fn func(inputPath string, keys []string)) Option {
	return func(o *options) {
		o.onDropped = fn
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMarkupCompiler replaces the runtime's MDX conversion.
func WithMarkupCompiler(markup MarkupCompiler) Option {
	return func(o *options) {
		o.markup = markup
	}
}

// WithServerRenderer replaces the runtime's server render.
func WithServerRenderer(renderer ServerRenderer) Option {
	return func(o *options) {
		o.renderer = renderer
	}
}
