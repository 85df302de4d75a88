/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package shim

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMode is returned for a shim setting other than true, false or "dev".
var ErrInvalidMode = errors.New(`invalid shim mode: want true, false or "dev"`)

// Mode selects the partitions a shim is active in.
type Mode int

const (
	// Never disables the shim.
	Never Mode = iota
	// Always enables the shim for main and test output.
	Always
	// DevOnly enables the shim for test output only.
	DevOnly
)

func (m Mode) String() string {
	switch m {
	case Always:
		return "true"
	case DevOnly:
		return "dev"
	default:
		return "false"
	}
}

// InMain reports whether the shim is active in the main partition.
func (m Mode) InMain() bool {
	return m == Always
}

// InTest reports whether the shim is active in the test partition.
func (m Mode) InTest() bool {
	return m == Always || m == DevOnly
}

// ParseMode converts a decoded configuration value (a bool, "dev", or the
// strings "true"/"false" as they arrive from flags and environment) to a Mode.
// nil means Never.
func ParseMode(v any) (Mode, error) {
	switch val := v.(type) {
	case nil:
		return Never, nil
	case bool:
		if val {
			return Always, nil
		}
		return Never, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true":
			return Always, nil
		case "false", "":
			return Never, nil
		case "dev":
			return DevOnly, nil
		}
	case Mode:
		return val, nil
	}
	return Never, fmt.Errorf("%w, got %v", ErrInvalidMode, v)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
