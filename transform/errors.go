/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package transform

import (
	"errors"
	"fmt"

	"bennypowers.dev/dualpack/specifier"
)

var (
	// ErrNoEntryPoints is returned when no main entry point is configured.
	ErrNoEntryPoints = errors.New("at least one entry point is required")

	// ErrIncompatibleSyntax indicates syntax the requested script module
	// format cannot express.
	ErrIncompatibleSyntax = errors.New("syntax incompatible with the script module format")
)

// SyntaxError locates syntax that stops the build.
type SyntaxError struct {
	Specifier specifier.ModuleSpecifier
	Line      int
	Column    int

	// Construct names the offending syntax, e.g. "top-level await".
	Construct string
	Format    ScriptModule
	Err       error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s cannot be emitted as %s", e.Specifier, e.Line, e.Column, e.Construct, e.Format)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
