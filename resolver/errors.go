/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"errors"
	"fmt"

	"bennypowers.dev/dualpack/specifier"
)

// ErrUnresolved indicates that an import could not be resolved or loaded.
var ErrUnresolved = errors.New("unresolved specifier")

// ResolutionError reports an import that could not be resolved or loaded.
// Importer is empty for entry points.
type ResolutionError struct {
	Specifier string
	Importer  specifier.ModuleSpecifier
	Line      int
	Column    int
	Err       error
}

func (e *ResolutionError) Error() string {
	if e.Importer == "" {
		return fmt.Sprintf("resolving entry point %q: %v", e.Specifier, e.Err)
	}
	return fmt.Sprintf("resolving %q from %s:%d:%d: %v", e.Specifier, e.Importer, e.Line, e.Column, e.Err)
}

func (e *ResolutionError) Unwrap() []error {
	return []error{ErrUnresolved, e.Err}
}
