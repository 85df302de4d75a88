/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package build provides the build command for dualpack.
package build

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bennypowers.dev/dualpack/cmd/project"
	"bennypowers.dev/dualpack/fs"
	"bennypowers.dev/dualpack/internal/logger"
	"bennypowers.dev/dualpack/transform"
)

// Cmd is the build cobra command.
var Cmd = &cobra.Command{
	Use:   "build [entry...]",
	Short: "Convert a module graph into npm package sources",
	Long: `Convert the module graphs reachable from the entry points into sources
for a dual ESM/CommonJS npm package.

Entry points given as arguments replace those in .config/dualpack.yaml.
Files are written under <out-dir>/src.

Examples:
  # Build using the config file
  dualpack build

  # Build one entry point to ES2020 with a CommonJS variant
  dualpack build --target ES2020 --script-module cjs mod.ts`,
	Args: cobra.ArbitraryArgs,
	RunE: run,
}

func init() {
	Cmd.Flags().Bool("dry-run", false, "Print the summary without writing files")
}

func run(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	filesystem := fs.NewOSFileSystem()
	p, err := project.Load(filesystem, args)
	if err != nil {
		return err
	}

	out, err := transform.Transform(cmd.Context(), p.Options)
	if err != nil {
		return err
	}
	for _, w := range out.Warnings {
		logger.Warn("%s", w)
	}

	if !dryRun {
		if err := Write(filesystem, p.OutDir(), out); err != nil {
			return err
		}
	}
	return Summarize(cmd.OutOrStdout(), out)
}

// Write replaces outDir/src with every main and test file. Sources from an
// earlier build that the graph no longer reaches are removed.
func Write(filesystem fs.FileSystem, outDir string, out *transform.Output) error {
	srcDir := filepath.Join(outDir, "src")
	files := make(map[string][]byte, len(out.Main.Files)+len(out.Test.Files))
	for _, env := range []transform.Environment{out.Main, out.Test} {
		for _, f := range env.Files {
			files[f.Path] = []byte(f.Text)
		}
	}
	if err := fs.ReplaceDir(filesystem, srcDir, files); err != nil {
		return fmt.Errorf("writing %s: %w", srcDir, err)
	}
	logger.Info("wrote %d files to %s", len(files), srcDir)
	return nil
}

// Summarize prints entry points and dependencies per environment. The
// summary is written to w in one call.
func Summarize(w io.Writer, out *transform.Output) error {
	caser := cases.Title(language.English)
	envs := []struct {
		name string
		env  transform.Environment
	}{
		{"main", out.Main},
		{"test", out.Test},
	}

	var b strings.Builder
	for _, e := range envs {
		if len(e.env.Files) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s (%d files)\n", caser.String(e.name), len(e.env.Files))
		for _, ep := range e.env.EntryPoints {
			fmt.Fprintf(&b, "  entry      %s\n", ep)
		}
		for _, d := range e.env.Normal() {
			fmt.Fprintf(&b, "  dependency %s\n", d)
		}
		for _, d := range e.env.Peer() {
			fmt.Fprintf(&b, "  peer       %s\n", d)
		}
	}
	if len(out.Warnings) > 0 {
		fmt.Fprintf(&b, "%d warnings\n", len(out.Warnings))
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}
