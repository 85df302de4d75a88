/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/jsonc"
)

// ErrInvalidJSON is returned when a JSON module does not contain valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON module")

// JSONModule renders structured data as an equivalent ES module so that
// runtimes without JSON module support can import it. Comments and trailing
// commas are accepted.
func JSONModule(data []byte) ([]byte, error) {
	cleanJSON := bytes.TrimSpace(jsonc.ToJSON(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	if !json.Valid(cleanJSON) {
		var target any
		err := json.Unmarshal(cleanJSON, &target)
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	var out bytes.Buffer
	out.Grow(len(cleanJSON) + len("export default ;\n"))
	out.WriteString("export default ")
	out.Write(cleanJSON)
	out.WriteString(";\n")
	return out.Bytes(), nil
}
