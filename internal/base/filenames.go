// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"fmt"
	"path/filepath"
)

const (
	tableExt  = "ldb"
	vtableExt = "vtb"

	// vtableManagerFilename is the name of the vTable manager's manifest,
	// rewritten atomically via write-new-then-rename.
	vtableManagerFilename = "VTABLEMETA"
)

// TableFilePath returns the path of the sstable with the given number.
func TableFilePath(dbname string, fn FileNum) string {
	return filepath.Join(dbname, fmt.Sprintf("%s.%s", fn, tableExt))
}

// VTableFilePath returns the path of the vTable with the given number.
func VTableFilePath(dbname string, fn FileNum) string {
	return filepath.Join(dbname, fmt.Sprintf("%s.%s", fn, vtableExt))
}

// VTableManagerFilePath returns the path of the vTable manager's manifest.
func VTableManagerFilePath(dbname string) string {
	return filepath.Join(dbname, vtableManagerFilename)
}
