package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/3-lines-studio/mdx/internal/adapters/cli"
	"github.com/3-lines-studio/mdx/internal/adapters/fs"
)

var requiredPackages = []string{"react", "react-dom", "@mdx-js/mdx", "@mdx-js/react"}

func newDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the JS runtime and packages needed for builds are installed",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	out := cli.NewOutput()
	out.PrintHeader("MDX Doctor")

	cfg, err := loadConfig(cmd, ".")
	if err != nil {
		out.PrintError("%v", err)
		return err
	}

	problems := 0

	if path, err := exec.LookPath(cfg.Runtime[0]); err != nil {
		out.PrintError("Runtime %q not found in PATH", cfg.Runtime[0])
		problems++
	} else {
		out.PrintSuccess("Runtime %s", path)
	}

	dir := cfg.RuntimeDir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return err
		}
	}

	fsys := fs.NewOSFileSystem()
	for _, pkg := range requiredPackages {
		manifest := filepath.Join(dir, "node_modules", filepath.FromSlash(pkg), "package.json")
		if !fsys.FileExists(manifest) {
			out.PrintError("Package %s not installed in %s", pkg, dir)
			problems++
			continue
		}
		out.PrintSuccess("Package %s", pkg)
	}

	if problems > 0 {
		out.PrintStep("Install with: bun add react@18 react-dom@18 @mdx-js/mdx@1 @mdx-js/react@1")
		return fmt.Errorf("%d problem(s) found", problems)
	}

	out.PrintSuccess("Ready to build")
	return nil
}
