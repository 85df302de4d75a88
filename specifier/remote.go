/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package specifier

import (
	"fmt"
	"net/url"
	"strings"
)

// RemoteResolver handles http(s) URLs and paths written inside remote modules.
type RemoteResolver struct{}

// NewRemoteResolver creates a resolver for remote URLs.
func NewRemoteResolver() *RemoteResolver {
	return &RemoteResolver{}
}

// Resolve resolves raw against a remote referrer and normalizes the result.
func (r *RemoteResolver) Resolve(raw string, referrer ModuleSpecifier) (ModuleSpecifier, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidSpecifier, raw, err)
	}
	base := &url.URL{}
	if referrer.IsRemote() {
		base, err = referrer.URL()
		if err != nil {
			return "", fmt.Errorf("%w: referrer %q: %w", ErrInvalidSpecifier, referrer, err)
		}
	}
	u := base.ResolveReference(ref)
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrInvalidSpecifier, raw)
	}
	return ModuleSpecifier(NormalizeURL(u).String()), nil
}

// CanResolve returns true for http(s) URLs, and for relative or absolute
// paths when the referrer is itself remote.
func (r *RemoteResolver) CanResolve(raw string, referrer ModuleSpecifier) bool {
	kind := Classify(raw)
	if kind == KindRemote {
		return true
	}
	return kind == KindLocal &&
		referrer.IsRemote() &&
		isPathLike(raw) &&
		!windowsPathPattern.MatchString(raw)
}

// NormalizeURL lowercases the scheme and host, drops default ports and the
// fragment, and ensures a non-empty path. Dot segments are resolved by the
// caller through url.URL.ResolveReference.
func NormalizeURL(u *url.URL) *url.URL {
	out := *u
	out.Scheme = strings.ToLower(out.Scheme)
	host := strings.ToLower(out.Host)
	switch {
	case out.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case out.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	out.Host = host
	out.Fragment = ""
	out.RawFragment = ""
	out.User = nil
	if out.Path == "" {
		out.Path = "/"
		out.RawPath = ""
	}
	return &out
}
