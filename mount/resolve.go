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

package mount

import (
	"path/filepath"
	"strconv"
	"strings"
)

// MSBind is the kernel's MS_BIND mount flag, passed to GetFSRoot to ask
// it to resolve e's root through whatever filesystem e.Source itself
// lives on, instead of trusting e.Root at face value.
const MSBind = 1 << 12

// GetFSRoot reports the subtree of e's source filesystem that is
// visible at e.Target: "/" for an ordinary mount, something else for a
// bind mount or a btrfs subvolume mount.
//
// btrfs exposes the mounted subvolume through a "subvol=" option
// (always present from kernel 4.x onward); when only "subvolid=" is
// given we cannot resolve it to a path without access to the live
// filesystem, so we fall back to the mountinfo-reported root unchanged
// rather than guessing.
//
// When flags carries MSBind and e's source is a path (not a NAME=value
// tag), the root is resolved by finding whichever table entry e.Source
// sits under, stripping that entry's target prefix off e.Source, and
// joining the remainder with that entry's own root: this recovers the
// true subtree for a bind mount whose Source is a subdirectory of an
// already-mounted filesystem rather than a block device.
func (t *Table) GetFSRoot(e *FSEntry, flags int) (string, error) {
	if e.FSType == "btrfs" {
		if v, ok := e.Option("subvol"); ok && v != "" {
			return v, nil
		}
	}
	root := e.Root
	if root == "" {
		root = "/"
	}
	if flags&MSBind == 0 || e.SourceKind != SourcePath {
		return root, nil
	}
	return t.getFSRootBind(e, root)
}

func (t *Table) getFSRootBind(e *FSEntry, root string) (string, error) {
	mnt, ok := t.FindMountpoint(e.Source, Backward, nil)
	if !ok || mnt == e {
		return root, nil
	}
	rel := strings.TrimPrefix(e.Source, mnt.Target)
	base := mnt.Root
	if base == "" {
		base = "/"
	}
	return filepath.Join(base, rel, root), nil
}

// IsFSMounted reports whether an entry matching e's source and root is
// already present elsewhere in the table, i.e. whether mounting e again
// would be mounting the same filesystem a second time.
//
// This mirrors the original library's reflexivity check, except it does
// not chase a loop device back to its backing file and offset: two
// entries that both point at the same /dev/loopN are treated as the
// same filesystem, but a loop device and the regular file backing it
// are not recognized as the same source.
func (t *Table) IsFSMounted(e *FSEntry) bool {
	for _, x := range t.entries {
		if x == e {
			continue
		}
		if x.Source != e.Source {
			continue
		}
		xroot := x.Root
		if xroot == "" {
			xroot = "/"
		}
		eroot := e.Root
		if eroot == "" {
			eroot = "/"
		}
		if xroot == eroot {
			return true
		}
	}
	return false
}

// UniqFS removes duplicate entries that share the same key, as computed
// by keyFn, keeping the first occurrence of each key and discarding the
// rest. For a table built from mountinfo (KEEPTREE semantics), any
// child whose ParentID pointed at a discarded duplicate is rewritten to
// point at the kept entry first, so the parent/child tree stays
// connected after deduplication. Returns the removed entries.
func (t *Table) UniqFS(keyFn func(*FSEntry) string) []*FSEntry {
	seen := make(map[string]*FSEntry)
	var removed []*FSEntry
	var kept []*FSEntry

	for _, e := range t.entries {
		key := keyFn(e)
		if key == "" {
			kept = append(kept, e)
			continue
		}
		if first, ok := seen[key]; ok {
			if t.fromMountInfo {
				for _, other := range t.entries {
					if other.ParentID == e.ID {
						other.ParentID = first.ID
					}
				}
			}
			e.table = nil
			removed = append(removed, e)
			continue
		}
		seen[key] = e
		kept = append(kept, e)
	}

	t.entries = kept
	return removed
}

// SourceTargetKey is a ready-made UniqFS key function: two entries with
// the same source device and target directory are duplicates.
func SourceTargetKey(e *FSEntry) string {
	return e.Source + "\x00" + e.Target
}

// DevNoKey is a ready-made UniqFS key function for mountinfo tables,
// where device number is the authoritative identity of the source.
func DevNoKey(e *FSEntry) string {
	if e.DevNo == 0 {
		return ""
	}
	root := e.Root
	if root == "" {
		root = "/"
	}
	var b strings.Builder
	b.WriteString(formatDevNo(e.DevNo))
	b.WriteByte(0)
	b.WriteString(root)
	return b.String()
}

func formatDevNo(devno uint64) string {
	major := (devno >> 8) & 0xfff
	minor := (devno & 0xff) | ((devno >> 12) & 0xfff00)
	return strconv.FormatUint(major, 10) + ":" + strconv.FormatUint(minor, 10)
}
