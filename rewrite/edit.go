/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package rewrite

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrOverlappingEdits is returned by Apply when two edits replace
// intersecting ranges.
var ErrOverlappingEdits = errors.New("overlapping edits")

// Edit replaces source[Start:End] with Text. Start == End inserts.
type Edit struct {
	Start uint
	End   uint
	Text  string
}

// Insert returns an edit inserting text at offset.
func Insert(offset uint, text string) Edit {
	return Edit{Start: offset, End: offset, Text: text}
}

// Replace returns an edit replacing [start, end) with text.
func Replace(start, end uint, text string) Edit {
	return Edit{Start: start, End: end, Text: text}
}

// Apply splices edits into src. Edits are ordered by position; insertions
// at the same offset keep the order they were given in and precede a
// replacement starting there.
func Apply(src []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return src, nil
	}
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	var buf bytes.Buffer
	buf.Grow(len(src))
	var cursor uint
	for _, e := range sorted {
		if e.End < e.Start || e.End > uint(len(src)) {
			return nil, fmt.Errorf("%w: edit [%d,%d) outside source of %d bytes", ErrOverlappingEdits, e.Start, e.End, len(src))
		}
		if e.Start < cursor {
			return nil, fmt.Errorf("%w: edit at %d overlaps previous edit ending at %d", ErrOverlappingEdits, e.Start, cursor)
		}
		buf.Write(src[cursor:e.Start])
		buf.WriteString(e.Text)
		cursor = e.End
	}
	buf.Write(src[cursor:])
	return buf.Bytes(), nil
}

// Prepend returns an edit adding lines at the top of a module. A hashbang
// line, ending at hashbangEnd, stays first.
func Prepend(hashbangEnd uint, lines ...string) Edit {
	text := strings.Join(lines, "\n")
	if hashbangEnd > 0 {
		return Insert(hashbangEnd, "\n"+text)
	}
	return Insert(0, text+"\n")
}
