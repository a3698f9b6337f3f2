// Package site is a small static-site generator that implements the host
// side of the template extension contract.
package site

import (
	"fmt"
	"slices"
	"sync"

	"github.com/3-lines-studio/mdx/internal/core"
)

// Config collects template formats and extensions registered by plugins.
type Config struct {
	// AllowExperimental gates extensions that need the experimental
	// extension mechanism.
	AllowExperimental bool

	mu           sync.Mutex
	formats      []string
	extensions   map[string]core.Extension
	experimental bool
}

func NewConfig() *Config {
	return &Config{
		AllowExperimental: true,
		extensions:        make(map[string]core.Extension),
	}
}

func (c *Config) AddTemplateFormats(formats ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range formats {
		if !slices.Contains(c.formats, f) {
			c.formats = append(c.formats, f)
		}
	}
}

func (c *Config) AddExtension(name string, ext core.Extension) error {
	if name == "" {
		return fmt.Errorf("extension name cannot be empty")
	}
	if ext.Compile == nil {
		return fmt.Errorf("extension %s has no compile function", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ext.Experimental {
		if !c.AllowExperimental {
			return fmt.Errorf("extension %s requires experimental extensions to be enabled", name)
		}
		c.experimental = true
	}
	if c.extensions == nil {
		c.extensions = make(map[string]core.Extension)
	}
	c.extensions[name] = ext
	return nil
}

// Experimental reports whether a registered extension switched on the
// experimental extension mechanism.
func (c *Config) Experimental() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.experimental
}

func (c *Config) TemplateFormats() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.formats)
}

func (c *Config) Extension(name string) (core.Extension, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ext, ok := c.extensions[name]
	return ext, ok
}
