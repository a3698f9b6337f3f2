package core

import (
	"errors"
	"fmt"
	"strings"
)

type Stage string

const (
	StageMarkup Stage = "markup"
	StageBundle Stage = "bundle"
	StageRender Stage = "render"
	StageProps  Stage = "props"
	StageOutput Stage = "output"
)

type ErrorDetail struct {
	Message  string
	File     string
	Line     int
	Column   int
	LineText string
}

func (d ErrorDetail) String() string {
	if d.File == "" {
		return d.Message
	}
	return fmt.Sprintf("%s (%s:%d:%d)", d.Message, d.File, d.Line, d.Column)
}

// CompileError is returned for every failed page compile. A page either
// compiles completely or fails with one of these.
type CompileError struct {
	Stage   Stage
	Path    string
	Message string
	Stack   string
	Details []ErrorDetail
	Err     error
}

func (e *CompileError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s failed", e.Stage)
	if e.Path != "" {
		fmt.Fprintf(&sb, " for %s", e.Path)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	} else if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	for _, d := range e.Details {
		sb.WriteString("\n  - ")
		sb.WriteString(d.String())
	}
	return sb.String()
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// NewCompileError wraps err unless it already carries a stage.
func NewCompileError(stage Stage, path string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CompileError
	if errors.As(err, &ce) {
		if ce.Path == "" {
			ce.Path = path
		}
		return ce
	}
	return &CompileError{Stage: stage, Path: path, Err: err}
}

// StageOf reports the stage a compile failed in, or "" for foreign errors.
func StageOf(err error) Stage {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Stage
	}
	return ""
}
