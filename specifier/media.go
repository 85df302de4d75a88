/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package specifier

import "strings"

// MediaType is the source language of a module, inferred from its extension.
type MediaType int

const (
	MediaUnknown MediaType = iota
	MediaJavaScript
	MediaJSX
	MediaMJS
	MediaCJS
	MediaTypeScript
	MediaTSX
	MediaMTS
	MediaCTS
	MediaDTS
	MediaJSON
)

var mediaTypeByExt = map[string]MediaType{
	".js":    MediaJavaScript,
	".jsx":   MediaJSX,
	".mjs":   MediaMJS,
	".cjs":   MediaCJS,
	".ts":    MediaTypeScript,
	".tsx":   MediaTSX,
	".mts":   MediaMTS,
	".cts":   MediaCTS,
	".d.ts":  MediaDTS,
	".d.mts": MediaDTS,
	".d.cts": MediaDTS,
	".json":  MediaJSON,
	".jsonc": MediaJSON,
}

// MediaTypeOfExt returns the media type a file extension such as ".ts"
// or ".d.ts" implies, or MediaUnknown.
func MediaTypeOfExt(ext string) MediaType {
	return mediaTypeByExt[strings.ToLower(ext)]
}

// MediaTypeOf infers the media type of a local or remote specifier.
// Modules without a recognized extension are JavaScript; registry and
// builtin specifiers have no media type.
func MediaTypeOf(s ModuleSpecifier) MediaType {
	if s.IsExternal() {
		return MediaUnknown
	}
	if mt, ok := mediaTypeByExt[s.Ext()]; ok {
		return mt
	}
	return MediaJavaScript
}

// String returns a short name for the media type.
func (m MediaType) String() string {
	switch m {
	case MediaJavaScript:
		return "JavaScript"
	case MediaJSX:
		return "JSX"
	case MediaMJS:
		return "Mjs"
	case MediaCJS:
		return "Cjs"
	case MediaTypeScript:
		return "TypeScript"
	case MediaTSX:
		return "TSX"
	case MediaMTS:
		return "Mts"
	case MediaCTS:
		return "Cts"
	case MediaDTS:
		return "Dts"
	case MediaJSON:
		return "Json"
	default:
		return "Unknown"
	}
}

// IsTypeScript reports whether the source needs the TypeScript grammar.
func (m MediaType) IsTypeScript() bool {
	switch m {
	case MediaTypeScript, MediaTSX, MediaMTS, MediaCTS, MediaDTS:
		return true
	}
	return false
}

// IsJSX reports whether the source may contain JSX.
func (m MediaType) IsJSX() bool {
	return m == MediaJSX || m == MediaTSX
}

// IsJSON reports whether the module is structured data.
func (m MediaType) IsJSON() bool {
	return m == MediaJSON
}

// OutputExt returns the extension the module is emitted with.
func (m MediaType) OutputExt() string {
	switch m {
	case MediaMJS, MediaMTS:
		return ".mjs"
	case MediaCJS, MediaCTS:
		return ".cjs"
	default:
		return ".js"
	}
}

var mediaTypeByContentType = map[string]MediaType{
	"application/typescript":   MediaTypeScript,
	"application/x-typescript": MediaTypeScript,
	"text/typescript":          MediaTypeScript,
	"video/vnd.dlna.mpeg-tts":  MediaTypeScript,
	"video/mp2t":               MediaTypeScript,
	"text/tsx":                 MediaTSX,
	"application/javascript":   MediaJavaScript,
	"application/x-javascript": MediaJavaScript,
	"application/ecmascript":   MediaJavaScript,
	"application/node":         MediaJavaScript,
	"text/javascript":          MediaJavaScript,
	"text/ecmascript":          MediaJavaScript,
	"text/jsx":                 MediaJSX,
	"application/json":         MediaJSON,
	"text/json":                MediaJSON,
}

// MediaTypeFromContentType decides the media type of a fetched module.
// A recognized Content-Type wins over the URL, except that an extension
// from the same language family refines it: TypeScript served from
// "mod.d.ts" stays a declaration file and JavaScript from "x.mjs" stays
// an ES module. Unrecognized or missing content types (text/plain,
// application/octet-stream) fall back to the extension.
func MediaTypeFromContentType(contentType string, s ModuleSpecifier) MediaType {
	byExt := MediaTypeOf(s)
	mt, _, _ := strings.Cut(contentType, ";")
	byHeader, ok := mediaTypeByContentType[strings.ToLower(strings.TrimSpace(mt))]
	if !ok {
		return byExt
	}
	plain := byHeader == MediaJavaScript || byHeader == MediaTypeScript || byHeader == MediaJSON
	if _, known := mediaTypeByExt[s.Ext()]; known && plain && byExt.family() == byHeader.family() {
		return byExt
	}
	return byHeader
}

func (m MediaType) family() int {
	switch {
	case m.IsTypeScript():
		return 1
	case m == MediaJSON:
		return 2
	default:
		return 0
	}
}

// Ext returns the canonical source extension for the media type.
func (m MediaType) Ext() string {
	switch m {
	case MediaJSX:
		return ".jsx"
	case MediaMJS:
		return ".mjs"
	case MediaCJS:
		return ".cjs"
	case MediaTypeScript:
		return ".ts"
	case MediaTSX:
		return ".tsx"
	case MediaMTS:
		return ".mts"
	case MediaCTS:
		return ".cts"
	case MediaDTS:
		return ".d.ts"
	case MediaJSON:
		return ".json"
	default:
		return ".js"
	}
}
