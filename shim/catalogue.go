/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package shim

import "bennypowers.dev/dualpack/rewrite"

// Options selects built-in shims and adds custom ones.
type Options struct {
	Deno Mode
	// DenoTestOnly swaps the full Deno namespace for the smaller package
	// that only provides Deno.test.
	DenoTestOnly bool

	Timers       Mode
	Prompts      Mode
	Blob         Mode
	Crypto       Mode
	DOMException Mode
	Undici       Mode
	WeakRef      Mode
	WebSocket    Mode

	// Custom shims are active in both partitions, CustomDev in test only.
	Custom    []Definition
	CustomDev []Definition
}

// Category is a built-in shim and the option that enables it.
type Category struct {
	Name       string
	Definition Definition
}

// Catalogue returns the built-in shims in a fixed order.
func Catalogue() []Category {
	return []Category{
		{"deno", denoShim},
		{"timers", timersShim},
		{"prompts", promptsShim},
		{"blob", blobShim},
		{"crypto", cryptoShim},
		{"domException", domExceptionShim},
		{"undici", undiciShim},
		{"weakRef", weakRefShim},
		{"webSocket", webSocketShim},
	}
}

// Mode returns the option for the named category.
func (o Options) Mode(category string) Mode {
	switch category {
	case "deno":
		return o.Deno
	case "timers":
		return o.Timers
	case "prompts":
		return o.Prompts
	case "blob":
		return o.Blob
	case "crypto":
		return o.Crypto
	case "domException":
		return o.DOMException
	case "undici":
		return o.Undici
	case "weakRef":
		return o.WeakRef
	case "webSocket":
		return o.WebSocket
	}
	return Never
}

// Resolve turns options into the definitions active for main output and
// for test output. Test definitions are a superset of main definitions.
func Resolve(opts Options) (main, test []Definition) {
	for _, c := range Catalogue() {
		def := c.Definition
		if c.Name == "deno" && opts.DenoTestOnly {
			def = denoTestShim
		}
		mode := opts.Mode(c.Name)
		if mode.InMain() {
			main = append(main, def)
		}
		if mode.InTest() {
			test = append(test, def)
		}
	}
	main = append(main, opts.Custom...)
	test = append(test, opts.Custom...)
	test = append(test, opts.CustomDev...)
	return main, test
}

var denoShim = Definition{
	Package:     &PackageSource{Name: "@deno/shim-deno", Version: "~0.19.2"},
	GlobalNames: []GlobalName{Value("Deno")},
}

var denoTestShim = Definition{
	Package:     &PackageSource{Name: "@deno/shim-deno-test", Version: "~0.5.0"},
	GlobalNames: []GlobalName{Value("Deno")},
}

var timersShim = Definition{
	Package:     &PackageSource{Name: "@deno/shim-timers", Version: "~0.1.0"},
	GlobalNames: []GlobalName{Value("setInterval"), Value("setTimeout")},
}

var promptsShim = Definition{
	Package:     &PackageSource{Name: "@deno/shim-prompts", Version: "~0.1.0"},
	GlobalNames: []GlobalName{Value("alert"), Value("confirm"), Value("prompt")},
}

var blobShim = Definition{
	Module:      "node:buffer",
	GlobalNames: []GlobalName{Value("Blob")},
}

var cryptoShim = Definition{
	Package: &PackageSource{Name: "@deno/shim-crypto", Version: "~0.3.1"},
	GlobalNames: []GlobalName{
		Value("crypto"),
		TypeOnly("Crypto"),
		TypeOnly("SubtleCrypto"),
		TypeOnly("AlgorithmIdentifier"),
		TypeOnly("Algorithm"),
		TypeOnly("RsaOaepParams"),
		TypeOnly("BufferSource"),
		TypeOnly("AesCtrParams"),
		TypeOnly("AesCbcParams"),
		TypeOnly("AesGcmParams"),
		TypeOnly("CryptoKey"),
		TypeOnly("KeyAlgorithm"),
		TypeOnly("KeyType"),
		TypeOnly("KeyUsage"),
		TypeOnly("EcdhKeyDeriveParams"),
		TypeOnly("HkdfParams"),
		TypeOnly("HashAlgorithmIdentifier"),
		TypeOnly("Pbkdf2Params"),
		TypeOnly("AesDerivedKeyParams"),
		TypeOnly("HmacImportParams"),
		TypeOnly("JsonWebKey"),
		TypeOnly("RsaOtherPrimesInfo"),
		TypeOnly("KeyFormat"),
		TypeOnly("RsaHashedKeyGenParams"),
		TypeOnly("RsaKeyGenParams"),
		TypeOnly("BigInteger"),
		TypeOnly("EcKeyGenParams"),
		TypeOnly("NamedCurve"),
		TypeOnly("CryptoKeyPair"),
		TypeOnly("AesKeyGenParams"),
		TypeOnly("HmacKeyGenParams"),
		TypeOnly("RsaHashedImportParams"),
		TypeOnly("EcKeyImportParams"),
		TypeOnly("AesKeyAlgorithm"),
		TypeOnly("RsaPssParams"),
		TypeOnly("EcdsaParams"),
	},
}

var domExceptionShim = Definition{
	Package: &PackageSource{
		Name:         "domexception",
		Version:      "^4.0.0",
		TypesPackage: &rewrite.Dependency{Name: "@types/domexception", Version: "^4.0.0"},
	},
	GlobalNames: []GlobalName{{Name: "DOMException", ExportName: "default"}},
}

var undiciShim = Definition{
	Package: &PackageSource{Name: "undici", Version: "^6.0.0"},
	GlobalNames: []GlobalName{
		TypeOnly("BodyInit"),
		Value("fetch"),
		Value("File"),
		Value("FormData"),
		Value("Headers"),
		TypeOnly("HeadersInit"),
		TypeOnly("RequestInit"),
		Value("Request"),
		TypeOnly("ResponseInit"),
		Value("Response"),
	},
}

var weakRefShim = Definition{
	Package:     &PackageSource{Name: "@deno/sham-weakref", Version: "~0.1.0"},
	GlobalNames: []GlobalName{Value("WeakRef"), TypeOnly("WeakRefConstructor")},
}

var webSocketShim = Definition{
	Package: &PackageSource{
		Name:         "ws",
		Version:      "^8.13.0",
		TypesPackage: &rewrite.Dependency{Name: "@types/ws", Version: "^8.5.4"},
	},
	GlobalNames: []GlobalName{{Name: "WebSocket", ExportName: "default"}},
}
