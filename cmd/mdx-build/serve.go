package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/3-lines-studio/mdx/internal/adapters/cli"
	mdxhttp "github.com/3-lines-studio/mdx/internal/adapters/http"
	"github.com/3-lines-studio/mdx/internal/config"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [input-dir]",
		Short: "Preview the built site",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}

	f := cmd.Flags()
	f.StringP(config.KeyOutput, "o", "_site", "directory to serve")
	f.String(config.KeyAddr, "localhost:8080", "listen address")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	inputDir := "."
	if len(args) == 1 {
		inputDir = args[0]
	}

	out := cli.NewOutput()
	cfg, err := loadConfig(cmd, inputDir)
	if err != nil {
		out.PrintError("%v", err)
		return err
	}

	root, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return err
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		err = fmt.Errorf("%s is not a directory, run mdx-build build first", root)
		out.PrintError("%v", err)
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mdxhttp.NewSiteHandler(root, nil),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	out.PrintSuccess("Serving %s on http://%s", root, cfg.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
