/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Command dualpack converts Deno-style module graphs into npm package sources.
package main

import (
	"os"

	"bennypowers.dev/dualpack/cmd"
	"bennypowers.dev/dualpack/internal/logger"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
