/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package importmap applies an import map to raw specifiers before they are
// classified.
package importmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"bennypowers.dev/dualpack/fs"
	"bennypowers.dev/dualpack/specifier"
	"github.com/tidwall/jsonc"
)

// ErrInvalidImportMap is returned when an import map cannot be parsed.
var ErrInvalidImportMap = errors.New("invalid import map")

// entry is one normalized key/address pair.
type entry struct {
	key     string
	address string
}

// table holds entries sorted for matching: exact lookups by map, prefix
// lookups by descending key length.
type table struct {
	exact    map[string]string
	prefixes []entry
}

type scope struct {
	prefix string
	table  *table
}

// ImportMap is a parsed import map with keys and addresses normalized
// against the map's own location.
type ImportMap struct {
	base    specifier.ModuleSpecifier
	imports *table
	scopes  []scope
}

type rawImportMap struct {
	Imports map[string]string            `json:"imports"`
	Scopes  map[string]map[string]string `json:"scopes"`
}

// Load reads and parses the import map at path.
func Load(filesystem fs.FileSystem, path string) (*ImportMap, error) {
	data, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading import map %s: %w", path, err)
	}
	return Parse(data, specifier.FromPath(path))
}

// Parse parses import map JSON (comments allowed). Relative keys and
// addresses resolve against base.
func Parse(data []byte, base specifier.ModuleSpecifier) (*ImportMap, error) {
	var raw rawImportMap
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImportMap, err)
	}

	im := &ImportMap{base: base}
	imports, err := newTable(raw.Imports, base)
	if err != nil {
		return nil, err
	}
	im.imports = imports

	for prefix, entries := range raw.Scopes {
		normalizedPrefix, err := normalizeKey(prefix, base)
		if err != nil {
			return nil, err
		}
		t, err := newTable(entries, base)
		if err != nil {
			return nil, err
		}
		im.scopes = append(im.scopes, scope{prefix: normalizedPrefix, table: t})
	}
	slices.SortFunc(im.scopes, func(a, b scope) int {
		if len(a.prefix) != len(b.prefix) {
			return len(b.prefix) - len(a.prefix)
		}
		return strings.Compare(a.prefix, b.prefix)
	})
	return im, nil
}

func newTable(entries map[string]string, base specifier.ModuleSpecifier) (*table, error) {
	t := &table{exact: make(map[string]string, len(entries))}
	for key, address := range entries {
		normalizedKey, err := normalizeKey(key, base)
		if err != nil {
			return nil, err
		}
		normalizedAddress, err := normalizeAddress(address, base)
		if err != nil {
			return nil, fmt.Errorf("%w: address for %q: %w", ErrInvalidImportMap, key, err)
		}
		if strings.HasSuffix(normalizedKey, "/") {
			if !strings.HasSuffix(normalizedAddress, "/") {
				return nil, fmt.Errorf("%w: address for prefix key %q must end in /", ErrInvalidImportMap, key)
			}
			t.prefixes = append(t.prefixes, entry{key: normalizedKey, address: normalizedAddress})
		}
		t.exact[normalizedKey] = normalizedAddress
	}
	slices.SortFunc(t.prefixes, func(a, b entry) int {
		if len(a.key) != len(b.key) {
			return len(b.key) - len(a.key)
		}
		return strings.Compare(a.key, b.key)
	})
	return t, nil
}

// normalizeKey resolves path-like and URL keys against base; bare keys stay
// as written.
func normalizeKey(key string, base specifier.ModuleSpecifier) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidImportMap)
	}
	switch specifier.Classify(key) {
	case specifier.KindLocal, specifier.KindRemote:
		resolved, err := resolveKeepingSlash(key, base)
		if err != nil {
			return "", fmt.Errorf("%w: key %q: %w", ErrInvalidImportMap, key, err)
		}
		return resolved, nil
	default:
		return key, nil
	}
}

func normalizeAddress(address string, base specifier.ModuleSpecifier) (string, error) {
	switch specifier.Classify(address) {
	case specifier.KindLocal, specifier.KindRemote:
		return resolveKeepingSlash(address, base)
	default:
		resolved, err := specifier.Resolve(address, base)
		if err != nil {
			return "", err
		}
		if strings.HasSuffix(address, "/") && !strings.HasSuffix(string(resolved), "/") {
			return string(resolved) + "/", nil
		}
		return string(resolved), nil
	}
}

// resolveKeepingSlash resolves s against base, preserving a trailing slash
// that path cleaning would otherwise drop.
func resolveKeepingSlash(s string, base specifier.ModuleSpecifier) (string, error) {
	resolved, err := specifier.Resolve(s, base)
	if err != nil {
		return "", err
	}
	out := string(resolved)
	if strings.HasSuffix(s, "/") && !strings.HasSuffix(out, "/") {
		out += "/"
	}
	return out, nil
}

// Resolve maps raw, as written in referrer, through the import map.
// It returns the mapped specifier and true, or raw and false when no entry
// matches.
func (im *ImportMap) Resolve(raw string, referrer specifier.ModuleSpecifier) (string, bool) {
	if im == nil {
		return raw, false
	}
	normalized := raw
	switch specifier.Classify(raw) {
	case specifier.KindLocal, specifier.KindRemote:
		resolved, err := specifier.Resolve(raw, referrer)
		if err != nil {
			return raw, false
		}
		normalized = string(resolved)
	}

	ref := string(referrer)
	for _, s := range im.scopes {
		if ref == s.prefix || (strings.HasSuffix(s.prefix, "/") && strings.HasPrefix(ref, s.prefix)) {
			if mapped, ok := s.table.match(normalized); ok {
				return mapped, true
			}
		}
	}
	if mapped, ok := im.imports.match(normalized); ok {
		return mapped, true
	}
	return raw, false
}

func (t *table) match(s string) (string, bool) {
	if address, ok := t.exact[s]; ok {
		return address, true
	}
	for _, e := range t.prefixes {
		if rest, ok := strings.CutPrefix(s, e.key); ok {
			return e.address + rest, true
		}
	}
	return "", false
}

// Len returns the number of top-level import entries.
func (im *ImportMap) Len() int {
	if im == nil {
		return 0
	}
	return len(im.imports.exact)
}
