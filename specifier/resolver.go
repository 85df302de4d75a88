/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package specifier

import "fmt"

// A Resolver turns the text of an import into a canonical ModuleSpecifier.
// Each implementation owns one family of specifiers and says so through
// CanResolve; ChainResolver composes them.
type Resolver interface {
	Resolve(raw string, referrer ModuleSpecifier) (ModuleSpecifier, error)
	CanResolve(raw string, referrer ModuleSpecifier) bool
}

// ChainResolver delegates to the first of its resolvers that claims a
// specifier. Order matters: an earlier resolver shadows later ones.
type ChainResolver struct {
	resolvers []Resolver
}

// NewChainResolver composes resolvers in priority order.
func NewChainResolver(resolvers ...Resolver) *ChainResolver {
	return &ChainResolver{resolvers: resolvers}
}

// NewDefaultResolver is the chain used for every module in a graph.
//
// The remote resolver goes first. A relative import written inside an
// https module must stay on that host, and only the remote resolver
// inspects the referrer to decide that.
func NewDefaultResolver() *ChainResolver {
	return NewChainResolver(
		NewRemoteResolver(),
		NewLocalResolver(),
		NewNPMResolver(),
		NewJSRResolver(),
		NewBuiltinResolver(),
	)
}

func (c *ChainResolver) Resolve(raw string, referrer ModuleSpecifier) (ModuleSpecifier, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty specifier in %s", ErrInvalidSpecifier, describeReferrer(referrer))
	}
	if r := c.claim(raw, referrer); r != nil {
		return r.Resolve(raw, referrer)
	}
	return "", fmt.Errorf("%w: cannot resolve %q from %s", ErrInvalidSpecifier, raw, describeReferrer(referrer))
}

func (c *ChainResolver) CanResolve(raw string, referrer ModuleSpecifier) bool {
	return c.claim(raw, referrer) != nil
}

func (c *ChainResolver) claim(raw string, referrer ModuleSpecifier) Resolver {
	for _, r := range c.resolvers {
		if r.CanResolve(raw, referrer) {
			return r
		}
	}
	return nil
}

func describeReferrer(referrer ModuleSpecifier) string {
	if referrer == "" {
		return "an entry point"
	}
	return string(referrer)
}

var defaultResolver = NewDefaultResolver()

// Resolve canonicalizes raw as written in referrer. Specifiers that name
// the same module resolve to the same string, so results can be used as
// graph keys.
func Resolve(raw string, referrer ModuleSpecifier) (ModuleSpecifier, error) {
	return defaultResolver.Resolve(raw, referrer)
}
