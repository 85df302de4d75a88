/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package specifier

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// LocalResolver handles relative paths, absolute paths and file: URLs.
type LocalResolver struct{}

// NewLocalResolver creates a resolver for local filesystem paths.
func NewLocalResolver() *LocalResolver {
	return &LocalResolver{}
}

// Resolve returns the file: URL of raw, joined onto the referrer's directory
// when raw is relative.
func (r *LocalResolver) Resolve(raw string, referrer ModuleSpecifier) (ModuleSpecifier, error) {
	if strings.HasPrefix(strings.ToLower(raw), "file:") {
		u, err := url.Parse(raw)
		if err != nil || u.Path == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidSpecifier, raw)
		}
		return FromPath(u.Path), nil
	}
	if strings.HasPrefix(raw, "/") || windowsPathPattern.MatchString(raw) {
		return FromPath(raw), nil
	}
	if !referrer.IsLocal() {
		return "", fmt.Errorf("%w: relative specifier %q needs a local referrer, got %q", ErrInvalidSpecifier, raw, referrer)
	}
	return FromPath(path.Join(dirOf(referrer), raw)), nil
}

// CanResolve returns true for specifiers classified as local.
func (r *LocalResolver) CanResolve(raw string, _ ModuleSpecifier) bool {
	return Classify(raw) == KindLocal
}

// DirReferrer returns a referrer that resolves relative specifiers against
// dir itself, for entry points given relative to a project root.
func DirReferrer(dir string) ModuleSpecifier {
	s := string(FromPath(dir))
	if !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return ModuleSpecifier(s)
}

func dirOf(referrer ModuleSpecifier) string {
	p := referrer.Path()
	if strings.HasSuffix(p, "/") {
		return p
	}
	return path.Dir(p)
}
