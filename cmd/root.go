/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package cmd provides CLI commands for dualpack.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/dualpack/cmd/build"
	"bennypowers.dev/dualpack/cmd/graph"
	"bennypowers.dev/dualpack/cmd/shims"
	"bennypowers.dev/dualpack/cmd/version"
	"bennypowers.dev/dualpack/internal/logger"
	"bennypowers.dev/dualpack/load"
	"bennypowers.dev/dualpack/transform"
)

var rootCmd = &cobra.Command{
	Use:   "dualpack",
	Short: "Convert Deno-style module graphs into dual ESM/CommonJS npm packages",
	Long: `dualpack follows the imports of a Deno-style project, rewrites its specifiers
for Node, shims runtime globals, and writes the sources of an npm package.

Settings are read from .config/dualpack.{yaml,yml,json,jsonc,toml} in the
project root. Flags and DUALPACK_* environment variables override them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.SetLevel(viper.GetString("log-level"))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("root", ".", "Project root directory")
	flags.String("log-level", "warn", "Log level: debug, info, warn, error")
	flags.StringP("target", "t", "", "Lowest ECMAScript level of the output, e.g. ES2020")
	flags.String("script-module", "", "Also check the output for a synchronous format: "+strings.Join(transform.ValidScriptModules(), ", "))
	flags.String("import-map", "", "Import map file")
	flags.StringSlice("test", nil, "Test entry points or globs")
	flags.String("types-node-version", "", "Version range of @types/node")
	flags.StringP("out-dir", "o", "", "Output directory (default: npm)")
	flags.Duration("timeout", load.DefaultTimeout, "Timeout for each remote fetch")

	viper.SetEnvPrefix("DUALPACK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlags(flags)

	rootCmd.AddCommand(build.Cmd)
	rootCmd.AddCommand(graph.Cmd)
	rootCmd.AddCommand(shims.Cmd)
	rootCmd.AddCommand(version.Cmd)
}
