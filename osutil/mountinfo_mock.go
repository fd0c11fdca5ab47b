// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2026 Canonical Ltd
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package osutil

import (
	"os"
	"path/filepath"

	"github.com/snapcore/blkid/dirs"
)

// MockMountInfo writes content to dirs.ProcMountInfo for the duration of
// a test and returns a restore function that deletes it again. Callers
// are expected to have already called dirs.SetRootDir(c.MkDir()) in
// their test setup, the same two-call convention the teacher uses
// throughout cmd/snap-bootstrap/partition and gadget.
func MockMountInfo(content string) (restore func()) {
	if err := os.MkdirAll(filepath.Dir(dirs.ProcMountInfo), 0755); err != nil {
		panic(err)
	}
	if err := os.WriteFile(dirs.ProcMountInfo, []byte(content), 0644); err != nil {
		panic(err)
	}
	return func() {
		os.Remove(dirs.ProcMountInfo)
	}
}
