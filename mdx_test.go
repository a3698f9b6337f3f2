package mdx

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type fakeHost struct {
	formats    []string
	extensions map[string]Extension
	addErr     error
}

func (h *fakeHost) AddTemplateFormats(formats ...string) {
	h.formats = append(h.formats, formats...)
}

func (h *fakeHost) AddExtension(name string, ext Extension) error {
	if h.addErr != nil {
		return h.addErr
	}
	if h.extensions == nil {
		h.extensions = make(map[string]Extension)
	}
	h.extensions[name] = ext
	return nil
}

// jsxMarkup treats page content as JSX already.
type jsxMarkup struct{}

func (jsxMarkup) CompileMarkup(ctx context.Context, content string, path string) (string, error) {
	return content, nil
}

type greetingRenderer struct {
	mu    sync.Mutex
	codes []string
	props []string
}

func (r *greetingRenderer) Render(ctx context.Context, code string, propsJSON []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, code)
	r.props = append(r.props, string(propsJSON))
	return "<h1>Hello World</h1>", nil
}

const helloPage = `export default function MDXContent(props) {
  return <h1>Hello {props.name}</h1>;
}
`

func newTestPlugin(t *testing.T, renderer ServerRenderer, opts ...Option) (*Plugin, *fakeHost) {
	t.Helper()

	host := &fakeHost{}
	opts = append([]Option{
		WithMarkupCompiler(jsxMarkup{}),
		WithServerRenderer(renderer),
		WithPreamble("import React from \"react\";\n"),
	}, opts...)

	p, err := Register(host, opts...)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p, host
}

func TestRegister(t *testing.T) {
	_, host := newTestPlugin(t, &greetingRenderer{})

	if len(host.formats) != 1 || host.formats[0] != "mdx" {
		t.Errorf("Expected template format mdx, got %v", host.formats)
	}

	ext, ok := host.extensions["mdx"]
	if !ok {
		t.Fatal("Expected mdx extension to be registered")
	}
	if !ext.Experimental {
		t.Error("Expected extension to require experimental mode")
	}
	if !ext.ReadData {
		t.Error("Expected extension to read data")
	}

	data, err := ext.InstanceFromInputPath(context.Background(), "index.mdx")
	if err != nil {
		t.Fatalf("InstanceFromInputPath failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty instance data, got %v", data)
	}
}

func TestRegisterErrors(t *testing.T) {
	t.Run("nil host", func(t *testing.T) {
		if _, err := Register(nil); err == nil {
			t.Error("Expected error, got nil")
		}
	})

	t.Run("host rejects extension", func(t *testing.T) {
		host := &fakeHost{addErr: errors.New("experimental extensions are disabled")}
		if _, err := Register(host); err == nil {
			t.Error("Expected error, got nil")
		}
	})

	t.Run("invalid root id", func(t *testing.T) {
		if _, err := Register(&fakeHost{}, WithRootID("not valid")); err == nil {
			t.Error("Expected error, got nil")
		}
	})
}

func TestCompileRendersPage(t *testing.T) {
	renderer := &greetingRenderer{}
	_, host := newTestPlugin(t, renderer)
	ext := host.extensions["mdx"]

	if err := ext.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	render, err := ext.Compile(helloPage, filepath.Join(t.TempDir(), "index.mdx"))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	html, err := render(context.Background(), map[string]any{
		"name":        "World",
		"collections": map[string]any{"all": []any{}},
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	for _, want := range []string{
		`<div id="MDX_ROOT"><h1>Hello World</h1></div>`,
		`"name":"World"`,
		"https://unpkg.com/react@18/umd/react.production.min.js",
		"https://unpkg.com/react-dom@18/umd/react-dom.production.min.js",
		"hydrateRoot",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, html)
		}
	}
	if strings.Contains(html, "collections") {
		t.Errorf("Expected collections to be stripped, got:\n%s", html)
	}

	if len(renderer.codes) != 1 || !strings.Contains(renderer.codes[0], `require("react")`) {
		t.Errorf("Expected renderer to receive the CommonJS server bundle, got %v", renderer.codes)
	}
	if renderer.props[0] != `{"name":"World"}` {
		t.Errorf("Expected stripped props, got %s", renderer.props[0])
	}
}

func TestCompileBundleFailure(t *testing.T) {
	p, _ := newTestPlugin(t, &greetingRenderer{})

	page := `import Missing from "./missing";
export default function MDXContent() { return <Missing />; }
`
	render, err := p.Compile(page, filepath.Join(t.TempDir(), "broken.mdx"))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	_, err = render(context.Background(), nil)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected CompileError, got %v", err)
	}
	if ce.Stage != StageBundle {
		t.Errorf("Expected stage %q, got %q", StageBundle, ce.Stage)
	}
	if !strings.Contains(err.Error(), "Could not resolve") {
		t.Errorf("Expected resolver message, got %v", err)
	}
}

func TestCompileDropUnserializableProps(t *testing.T) {
	renderer := &greetingRenderer{}
	p, _ := newTestPlugin(t, renderer, WithUnserializableProps(PropsDrop))

	render, err := p.Compile(helloPage, filepath.Join(t.TempDir(), "index.mdx"))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if _, err := render(context.Background(), map[string]any{"name": "World", "fn": func() {}}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if renderer.props[0] != `{"name":"World"}` {
		t.Errorf("Expected fn to be dropped, got %s", renderer.props[0])
	}
}

func TestDroppedPropsHandler(t *testing.T) {
	var gotPath string
	var gotKeys []string
	p, _ := newTestPlugin(t, &greetingRenderer{},
		WithUnserializableProps(PropsDrop),
		WithDroppedPropsHandler(func(inputPath string, keys []string) {
			gotPath = inputPath
			gotKeys = keys
		}),
	)

	path := filepath.Join(t.TempDir(), "index.mdx")
	render, err := p.Compile(helloPage, path)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if _, err := render(context.Background(), map[string]any{"name": "World"}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if gotKeys != nil {
		t.Errorf("Expected no call without dropped props, got %v", gotKeys)
	}

	if _, err := render(context.Background(), map[string]any{"name": "World", "onClick": func() {}}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if gotPath != path {
		t.Errorf("Expected path %q, got %q", path, gotPath)
	}
	if len(gotKeys) != 1 || gotKeys[0] != "onClick" {
		t.Errorf("Expected [onClick], got %v", gotKeys)
	}
}

func TestCustomExcludedProps(t *testing.T) {
	renderer := &greetingRenderer{}
	p, _ := newTestPlugin(t, renderer, WithExcludedProps("secret"))

	render, err := p.Compile(helloPage, filepath.Join(t.TempDir(), "index.mdx"))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if _, err := render(context.Background(), map[string]any{"secret": "x", "collections": 1}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if renderer.props[0] != `{"collections":1}` {
		t.Errorf("Expected only secret to be stripped, got %s", renderer.props[0])
	}
}

func TestClose(t *testing.T) {
	p, _ := newTestPlugin(t, &greetingRenderer{})

	render, err := p.Compile(helloPage, filepath.Join(t.TempDir(), "index.mdx"))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Expected second Close to be a no-op, got %v", err)
	}

	if _, err := render(context.Background(), nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from render, got %v", err)
	}
	if _, err := p.Compile(helloPage, "index.mdx"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from Compile, got %v", err)
	}
}

func TestCloseBeforeStart(t *testing.T) {
	p, err := New(WithRuntimeCommand("mdx-runtime-command-that-does-not-exist"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := p.Extension().Init(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from Init after Close, got %v", err)
	}
}
