package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCompileErrorMessage(t *testing.T) {
	err := &CompileError{
		Stage:   StageBundle,
		Path:    "pages/index.mdx",
		Message: "server bundle failed with 1 error(s)",
		Details: []ErrorDetail{
			{Message: `Could not resolve "./missing"`, File: "pages/index.mdx", Line: 1, Column: 20},
			{Message: "plain detail"},
		},
	}

	msg := err.Error()
	for _, want := range []string{
		"bundle failed for pages/index.mdx: server bundle failed with 1 error(s)",
		`- Could not resolve "./missing" (pages/index.mdx:1:20)`,
		"- plain detail",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected %q in error message, got:\n%s", want, msg)
		}
	}
}

func TestNewCompileError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		if err := NewCompileError(StageRender, "a.mdx", nil); err != nil {
			t.Errorf("Expected nil, got %v", err)
		}
	})

	t.Run("foreign error is wrapped", func(t *testing.T) {
		cause := errors.New("boom")
		err := NewCompileError(StageRender, "a.mdx", cause)

		if StageOf(err) != StageRender {
			t.Errorf("Expected stage %q, got %q", StageRender, StageOf(err))
		}
		if !errors.Is(err, cause) {
			t.Error("Expected wrapped error to match cause")
		}
		if !strings.Contains(err.Error(), "render failed for a.mdx: boom") {
			t.Errorf("Unexpected message: %s", err.Error())
		}
	})

	t.Run("existing stage is kept", func(t *testing.T) {
		inner := &CompileError{Stage: StageMarkup, Message: "unexpected token"}
		err := NewCompileError(StageBundle, "a.mdx", fmt.Errorf("loader: %w", inner))

		if StageOf(err) != StageMarkup {
			t.Errorf("Expected stage %q, got %q", StageMarkup, StageOf(err))
		}
		if inner.Path != "a.mdx" {
			t.Errorf("Expected path to be filled in, got %q", inner.Path)
		}
	})

	t.Run("stage of foreign error is empty", func(t *testing.T) {
		if got := StageOf(errors.New("x")); got != "" {
			t.Errorf("Expected empty stage, got %q", got)
		}
	})
}
