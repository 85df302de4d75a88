/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package version provides the version command for dualpack.
package version

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"bennypowers.dev/dualpack/internal/version"
	"bennypowers.dev/dualpack/shim"
)

// Cmd prints the dualpack version. With --verbose it also prints the build
// and the npm shim packages this build pins, which decide what lands in a
// generated package.json.
var Cmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the dualpack version, build details and the pinned shim package versions.`,
	Args:  cobra.NoArgs,
	RunE:  run,
}

func init() {
	Cmd.Flags().StringP("format", "f", "text", "Output format: text, json")
	Cmd.Flags().BoolP("verbose", "v", false, "Include build details and shim package versions")
}

type report struct {
	version.BuildInfo
	Shims map[string]string `json:"shims"`
}

func newReport() report {
	r := report{BuildInfo: version.Info(), Shims: map[string]string{}}
	for _, c := range shim.Catalogue() {
		if pkg := c.Definition.Package; pkg != nil {
			r.Shims[pkg.Name] = pkg.Version
		}
	}
	return r
}

func run(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	verbose, _ := cmd.Flags().GetBool("verbose")
	w := cmd.OutOrStdout()

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newReport())
	case "text":
		return writeText(w, newReport(), verbose)
	default:
		return fmt.Errorf("unknown format %q: expected text or json", format)
	}
}

func writeText(w io.Writer, r report, verbose bool) error {
	var b strings.Builder
	fmt.Fprintf(&b, "dualpack %s\n", r.Version)
	if verbose {
		dirty := ""
		if r.Dirty {
			dirty = " (dirty)"
		}
		fmt.Fprintf(&b, "  commit   %s%s\n", r.GitCommit, dirty)
		fmt.Fprintf(&b, "  built    %s\n", r.BuildTime)
		fmt.Fprintf(&b, "  go       %s %s\n", r.GoVersion, r.Platform)
		for _, c := range shim.Catalogue() {
			if pkg := c.Definition.Package; pkg != nil {
				fmt.Fprintf(&b, "  %-8s %s@%s\n", c.Name, pkg.Name, r.Shims[pkg.Name])
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
