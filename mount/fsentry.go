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

// Package mount implements the mount-table model: an in-memory
// representation of fstab/mtab/mountinfo entries, their parent/child
// tree, lookups by every key the original callers need (target,
// source, tag, device number, option pair), de-duplication and
// filesystem-root/bind-mount resolution. It consumes already-parsed
// entries (see github.com/snapcore/blkid/osutil for mountinfo parsing)
// the same way the original library's table is independent of its text
// parsers.
package mount

// Source classifies how an entry's Source field should be interpreted.
type Source int

const (
	SourcePath Source = iota
	SourceTag
)

// FSEntry is one mount-table row.
type FSEntry struct {
	// ID/ParentID/DevNo are only meaningful for mountinfo-sourced
	// tables; fstab-sourced tables leave them zero.
	ID       int
	ParentID int
	DevNo    uint64

	Source     string
	SourceKind Source
	TagName    string // set when SourceKind == SourceTag (e.g. "UUID")
	TagValue   string

	Target string
	FSType string
	Root   string // the bind-mounted subtree of the source filesystem, "/" normally
	VFSOptions string
	FSOptions  string

	// the table this entry is currently linked into (nil once removed), used to
	// detect when an entry has already been removed.
	table *Table
}

// Option returns the value of a comma-separated option in either
// VFSOptions or FSOptions, and whether it was present at all ("" with
// ok=true for a bare flag like "rw").
func (e *FSEntry) Option(name string) (value string, ok bool) {
	if v, ok := lookupOption(e.VFSOptions, name); ok {
		return v, true
	}
	return lookupOption(e.FSOptions, name)
}

func lookupOption(opts, name string) (string, bool) {
	start := 0
	for start <= len(opts) {
		end := start
		for end < len(opts) && opts[end] != ',' {
			end++
		}
		part := opts[start:end]
		if part == name {
			return "", true
		}
		if len(part) > len(name)+1 && part[len(name)] == '=' && part[:len(name)] == name {
			return part[len(name)+1:], true
		}
		start = end + 1
	}
	return "", false
}
