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

// Package dirs centralizes every filesystem path the library touches so
// that tests can relocate them under a temporary root with SetRootDir.
package dirs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	GlobalRootDir string

	// ConfigFile is the default blkid.conf location, overridden by
	// $BLKID_CONF.
	ConfigFile string

	// CacheFile is the default binary cache location, overridden by
	// $BLKID_FILE.
	CacheFile string

	// ProcMountInfo is the kernel mountinfo file consumed by osutil.
	ProcMountInfo string

	// ProcSelfMountInfo is an alias kept for readers that want the
	// explicit "self" form.
	ProcSelfMountInfo string
)

func init() {
	SetRootDir("/")
}

// SetRootDir re-bases every exported path under root. Passing "" resets
// to "/". Tests call this from SetUpTest to get a hermetic filesystem
// view, mirroring the teacher's own dirs.SetRootDir contract.
func SetRootDir(root string) {
	if root == "" {
		root = "/"
	}
	GlobalRootDir = root

	ConfigFile = filepath.Join(root, "/etc/blkid.conf")
	CacheFile = filepath.Join(root, "/run/blkid/blkid.tab")
	ProcMountInfo = filepath.Join(root, "/proc/self/mountinfo")
	ProcSelfMountInfo = ProcMountInfo

	if env := safeGetenv("BLKID_CONF"); env != "" {
		ConfigFile = env
	}
	if env := safeGetenv("BLKID_FILE"); env != "" {
		CacheFile = env
	}
}

// StripRootDir removes GlobalRootDir from an absolute path, panicking if
// the path is not absolute or not rooted under it.
func StripRootDir(dir string) string {
	if !filepath.IsAbs(dir) {
		panic(fmt.Sprintf("supplied path is not absolute %q", dir))
	}
	if GlobalRootDir == "" || GlobalRootDir == "/" {
		return dir
	}
	if !strings.HasPrefix(dir, GlobalRootDir) {
		panic(fmt.Sprintf("supplied path is not related to global root %q", dir))
	}
	result := strings.TrimPrefix(dir, GlobalRootDir)
	if result == "" {
		return "/"
	}
	return result
}

// safeGetenv mirrors libblkid's safe_getenv(): environment overrides are
// ignored when running with elevated real vs effective credentials, so a
// setuid binary cannot be redirected by its caller's environment.
func safeGetenv(name string) string {
	if os.Getuid() != os.Geteuid() || os.Getgid() != os.Getegid() {
		return ""
	}
	return os.Getenv(name)
}
