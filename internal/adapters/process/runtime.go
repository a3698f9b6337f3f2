// Package process runs the JavaScript side of the MDX pipeline in a
// long-lived bun (or node) process reached over a unix socket.
package process

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/3-lines-studio/mdx/internal/core"
)

//go:embed mdx_runtime.js
var RuntimeSource string

var DefaultCommand = []string{"bun", "run", "--smol", "-"}

var (
	ErrRuntimeStart   = errors.New("failed to start mdx runtime")
	ErrRuntimeTimeout = errors.New("timeout waiting for mdx runtime socket")
)

type Config struct {
	// Command runs a JS program read from stdin.
	Command []string
	// Dir is where the runtime resolves react and @mdx-js packages from.
	Dir          string
	StartTimeout time.Duration
	Logger       *slog.Logger
}

type Runtime struct {
	cmd       *exec.Cmd
	socketDir string
	socket    string
	client    *http.Client
	logger    *slog.Logger
}

func NewRuntime(cfg Config) (*Runtime, error) {
	command := cfg.Command
	if len(command) == 0 {
		command = DefaultCommand
	}
	if cfg.StartTimeout == 0 {
		cfg.StartTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dir := cfg.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = cwd
	}

	socketDir, err := os.MkdirTemp("", "mdx-runtime-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create socket dir: %w", err)
	}
	socket := filepath.Join(socketDir, "runtime.sock")

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "MDX_RUNTIME_SOCKET="+socket)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = strings.NewReader(RuntimeSource)

	if err := cmd.Start(); err != nil {
		_ = os.RemoveAll(socketDir)
		return nil, fmt.Errorf("%w: %s: %v", ErrRuntimeStart, command[0], err)
	}

	if err := waitForSocket(socket, cfg.StartTimeout); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		_ = os.RemoveAll(socketDir)
		return nil, err
	}

	logger.Debug("mdx runtime started", "command", strings.Join(command, " "), "pid", cmd.Process.Pid, "dir", dir)

	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socket)
		},
	}

	return &Runtime{
		cmd:       cmd,
		socketDir: socketDir,
		socket:    socket,
		client:    &http.Client{Transport: transport},
		logger:    logger,
	}, nil
}

// Stop kills the runtime. A runtime that already exited is not an error.
func (r *Runtime) Stop() error {
	err := r.cmd.Process.Kill()
	_ = r.cmd.Wait()
	_ = os.RemoveAll(r.socketDir)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

type runtimeError struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
	Errors  []struct {
		Message string `json:"message"`
		File    string `json:"file"`
		Line    int    `json:"line"`
		Column  int    `json:"column"`
	} `json:"errors"`
}

func (e *runtimeError) compileError(stage core.Stage, path string) *core.CompileError {
	ce := &core.CompileError{
		Stage:   stage,
		Path:    path,
		Message: e.Message,
		Stack:   e.Stack,
	}
	for _, d := range e.Errors {
		file := d.File
		if file == "" && d.Line > 0 {
			file = path
		}
		ce.Details = append(ce.Details, core.ErrorDetail{
			Message: d.Message,
			File:    file,
			Line:    d.Line,
			Column:  d.Column,
		})
	}
	return ce
}

// CompileMarkup converts MDX source into JSX module source.
func (r *Runtime) CompileMarkup(ctx context.Context, content string, path string) (string, error) {
	reqBody := map[string]any{
		"content": content,
		"path":    path,
	}

	var result struct {
		Code  string        `json:"code"`
		Error *runtimeError `json:"error"`
	}

	if err := r.postJSON(ctx, "/markup", reqBody, &result); err != nil {
		return "", core.NewCompileError(core.StageMarkup, path, err)
	}
	if result.Error != nil {
		return "", result.Error.compileError(core.StageMarkup, path)
	}

	return result.Code, nil
}

// Render evaluates a CommonJS server bundle in a fresh module scope and
// renders its default export to static markup.
func (r *Runtime) Render(ctx context.Context, code string, propsJSON []byte) (string, error) {
	if len(propsJSON) == 0 {
		propsJSON = []byte("{}")
	}

	reqBody := map[string]any{
		"code":  code,
		"props": json.RawMessage(propsJSON),
	}

	var result struct {
		HTML  string        `json:"html"`
		Error *runtimeError `json:"error"`
	}

	start := time.Now()
	if err := r.postJSON(ctx, "/render", reqBody, &result); err != nil {
		return "", core.NewCompileError(core.StageRender, "", err)
	}
	r.logger.Debug("ssr render timing", "duration", time.Since(start))

	if result.Error != nil {
		return "", result.Error.compileError(core.StageRender, "")
	}

	return result.HTML, nil
}

func (r *Runtime) postJSON(ctx context.Context, endpoint string, body any, result any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://localhost"+endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mdx runtime %s returned status %d", endpoint, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func waitForSocket(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("%w at %s", ErrRuntimeTimeout, path)
}
