/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package project turns the config file, command line arguments and flags
// into transform options for the build and graph commands.
package project

import (
	"path/filepath"

	"github.com/spf13/viper"

	"bennypowers.dev/dualpack/config"
	"bennypowers.dev/dualpack/fs"
	"bennypowers.dev/dualpack/internal/logger"
	"bennypowers.dev/dualpack/load"
	"bennypowers.dev/dualpack/transform"
)

// Project is a loaded configuration and the options it produced.
type Project struct {
	Root    string
	Config  *config.Config
	Options transform.Options
}

// OutDir returns the absolute output directory.
func (p *Project) OutDir() string {
	out := viper.GetString("out-dir")
	if out == "" {
		out = p.Config.OutputDir()
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(p.Root, out)
}

// Load reads the project config under the root flag and applies overrides.
// Arguments, when given, replace the configured entry points.
func Load(filesystem fs.FileSystem, args []string) (*Project, error) {
	root, err := filepath.Abs(viper.GetString("root"))
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(filesystem, root)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		logger.Debugw("no config file found", "root", root)
		cfg = config.Default()
	}
	applyOverrides(cfg, args)

	opts, err := cfg.TransformOptions(filesystem, root)
	if err != nil {
		return nil, err
	}
	opts.Fetcher = load.NewRetryFetcher(
		load.NewHTTPFetcher(load.DefaultMaxSize).WithTimeout(viper.GetDuration("timeout")),
		load.DefaultRetryPolicy,
	)

	return &Project{Root: root, Config: cfg, Options: opts}, nil
}

func applyOverrides(cfg *config.Config, args []string) {
	if len(args) > 0 {
		cfg.EntryPoints = cfg.EntryPoints[:0]
		for _, arg := range args {
			cfg.EntryPoints = append(cfg.EntryPoints, config.EntryPoint{Path: arg})
		}
	}
	if v := viper.GetString("target"); v != "" {
		cfg.Target = v
	}
	if v := viper.GetString("script-module"); v != "" {
		cfg.ScriptModule = v
	}
	if v := viper.GetString("import-map"); v != "" {
		cfg.ImportMap = v
	}
	if v := viper.GetString("types-node-version"); v != "" {
		cfg.TypesNodeVersion = v
	}
	if v := viper.GetStringSlice("test"); len(v) > 0 {
		cfg.TestEntryPoints = v
	}
}
