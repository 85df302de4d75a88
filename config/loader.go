/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	dpfs "bennypowers.dev/dualpack/fs"
	"bennypowers.dev/dualpack/importmap"
	"bennypowers.dev/dualpack/internal/logger"
	"bennypowers.dev/dualpack/resolver"
	"bennypowers.dev/dualpack/shim"
	"bennypowers.dev/dualpack/transform"
)

// ConfigFileName is the base name of the config file without extension.
const ConfigFileName = "dualpack"

// ConfigDir is the directory where config files are stored.
const ConfigDir = ".config"

// configExtensions are the supported config file extensions in priority order.
var configExtensions = []string{".yaml", ".yml", ".json", ".jsonc", ".toml"}

// Path returns the config file Load would read, or "" if there is none.
func Path(filesystem dpfs.FileSystem, rootDir string) string {
	for _, ext := range configExtensions {
		configPath := filepath.Join(rootDir, ConfigDir, ConfigFileName+ext)
		if filesystem.Exists(configPath) {
			return configPath
		}
	}
	return ""
}

// Load searches for .config/dualpack.{yaml,yml,json,jsonc,toml} from rootDir.
// Returns nil if no config found (not an error).
func Load(filesystem dpfs.FileSystem, rootDir string) (*Config, error) {
	configPath := Path(filesystem, rootDir)
	if configPath == "" {
		return nil, nil
	}

	data, err := filesystem.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	switch filepath.Ext(configPath) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), cfg)
	case ".toml":
		err = unmarshalTOML(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", configPath, err)
	}

	logger.Debugw("loaded config", "path", configPath, "entryPoints", len(cfg.EntryPoints))
	return cfg, nil
}

// unmarshalTOML decodes TOML through its JSON form, so that the string or
// object fields decode the same way in every format.
func unmarshalTOML(data []byte, cfg *Config) error {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return err
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(asJSON, cfg)
}

// LoadOrDefault returns config or defaults if not found.
func LoadOrDefault(filesystem dpfs.FileSystem, rootDir string) *Config {
	cfg, err := Load(filesystem, rootDir)
	if err != nil || cfg == nil {
		return Default()
	}
	return cfg
}

// ExpandTestEntryPoints returns the test entry points relative to rootDir.
// Listed entries may be globs. With none listed, the test patterns are
// matched against every file under rootDir outside node_modules, hidden
// directories, and the output directory.
func (c *Config) ExpandTestEntryPoints(filesystem dpfs.FileSystem, rootDir string) ([]string, error) {
	if len(c.TestEntryPoints) > 0 {
		var result []string
		for _, entry := range c.TestEntryPoints {
			if !containsGlob(entry) {
				result = append(result, entry)
				continue
			}
			matches, err := expandGlob(filesystem, filepath.Join(rootDir, entry))
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				result = append(result, relativeTo(rootDir, m))
			}
		}
		return result, nil
	}

	patterns := c.TestPatterns()
	outDir := filepath.Join(rootDir, c.OutputDir())
	var result []string
	err := fs.WalkDir(filesystem, rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != rootDir && (d.Name() == "node_modules" || strings.HasPrefix(d.Name(), ".") || path == outDir) {
				return fs.SkipDir
			}
			return nil
		}
		rel := relativeTo(rootDir, path)
		for _, pattern := range patterns {
			if matchDoublestar(pattern, rel) {
				result = append(result, rel)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TransformOptions builds transform options from the config. The caller
// supplies the file system, fetcher, and any flag overrides.
func (c *Config) TransformOptions(filesystem dpfs.FileSystem, rootDir string) (transform.Options, error) {
	opts := transform.Options{
		EntryPoints:      c.EntryPointPaths(),
		Root:             rootDir,
		FS:               filesystem,
		TypesNodeVersion: c.TypesNodeVersion,
	}

	var err error
	if opts.TestEntryPoints, err = c.ExpandTestEntryPoints(filesystem, rootDir); err != nil {
		return opts, err
	}
	if opts.Target, err = c.TargetLevel(); err != nil {
		return opts, err
	}
	if opts.ScriptModule, err = c.ScriptModuleFormat(); err != nil {
		return opts, err
	}
	if c.ImportMap != "" {
		path := c.ImportMap
		if !filepath.IsAbs(path) {
			path = filepath.Join(rootDir, path)
		}
		if opts.ImportMap, err = importmap.Load(filesystem, path); err != nil {
			return opts, err
		}
	}
	if opts.Mappings, err = resolver.NewMappings(c.RawMappings(), rootDir); err != nil {
		return opts, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	opts.Shims, opts.TestShims = shim.Resolve(c.Shims.Options())
	return opts, nil
}

func relativeTo(rootDir, path string) string {
	rel, err := filepath.Rel(rootDir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// containsGlob returns true if the pattern contains glob characters.
func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// expandGlob expands a glob pattern against the filesystem.
func expandGlob(filesystem dpfs.FileSystem, pattern string) ([]string, error) {
	// Find the base directory (non-glob prefix)
	baseDir := pattern
	for containsGlob(baseDir) {
		baseDir = filepath.Dir(baseDir)
	}

	relPattern := strings.TrimPrefix(pattern, baseDir)
	relPattern = strings.TrimPrefix(relPattern, string(filepath.Separator))

	var matches []string

	err := fs.WalkDir(filesystem, baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip directories we can't read
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		relPath := strings.TrimPrefix(path, baseDir)
		relPath = strings.TrimPrefix(relPath, string(filepath.Separator))

		if matchDoublestar(relPattern, relPath) {
			matches = append(matches, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return matches, nil
}

// matchDoublestar provides ** glob matching using the doublestar library.
func matchDoublestar(pattern, path string) bool {
	matched, _ := doublestar.Match(pattern, path)
	return matched
}
