/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package parser

import (
	"fmt"
	"sync"

	"bennypowers.dev/dualpack/specifier"
	ts "github.com/tree-sitter/go-tree-sitter"
	tsjs "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tsts "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

type grammar int

const (
	grammarJavaScript grammar = iota
	grammarTypeScript
	grammarTSX
)

var (
	languages = map[grammar]*ts.Language{
		grammarJavaScript: ts.NewLanguage(tsjs.Language()),
		grammarTypeScript: ts.NewLanguage(tsts.LanguageTypescript()),
		grammarTSX:        ts.NewLanguage(tsts.LanguageTSX()),
	}

	// Parsers are expensive to create and not safe for concurrent use,
	// so each grammar keeps a pool.
	pools = map[grammar]*sync.Pool{}
)

func init() {
	for g, lang := range languages {
		pools[g] = &sync.Pool{
			New: func() any {
				p := ts.NewParser()
				if err := p.SetLanguage(lang); err != nil {
					panic(fmt.Sprintf("tree-sitter language version mismatch: %v", err))
				}
				return p
			},
		}
	}
}

func grammarFor(mt specifier.MediaType) (grammar, error) {
	switch mt {
	case specifier.MediaTSX:
		return grammarTSX, nil
	case specifier.MediaJSX:
		// The TSX grammar is a superset that also accepts plain JSX.
		return grammarTSX, nil
	case specifier.MediaTypeScript, specifier.MediaMTS, specifier.MediaCTS, specifier.MediaDTS:
		return grammarTypeScript, nil
	case specifier.MediaJavaScript, specifier.MediaMJS, specifier.MediaCJS, specifier.MediaUnknown:
		return grammarJavaScript, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mt)
	}
}

func parseTree(source []byte, g grammar) *ts.Tree {
	pool := pools[g]
	p := pool.Get().(*ts.Parser)
	defer pool.Put(p)
	return p.Parse(source, nil)
}
