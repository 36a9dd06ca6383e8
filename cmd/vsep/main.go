// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"os"

	"github.com/darshanime/vsep/tool"
)

func main() {
	if err := tool.New().Execute(); err != nil {
		os.Exit(1)
	}
}
