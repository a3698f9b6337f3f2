package core

import "context"

// RenderFunc produces the output text of one page from its data.
type RenderFunc func(ctx context.Context, props map[string]any) (string, error)

// Extension is what a template format hands to the host generator.
type Extension struct {
	// Experimental marks extensions that need the host's experimental
	// extension mechanism switched on before they are registered.
	Experimental bool

	// ReadData asks the host to parse front matter and pass it as props.
	ReadData bool

	InstanceFromInputPath func(ctx context.Context, inputPath string) (map[string]any, error)
	Init                  func(ctx context.Context) error
	Compile               func(content string, inputPath string) (RenderFunc, error)
}

// Host is the registration surface of a static-site generator.
type Host interface {
	AddTemplateFormats(formats ...string)
	AddExtension(name string, ext Extension) error
}
