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
	"sort"
	"strings"
)

// Table is a reference-counted, ordered collection of FSEntry rows.
// Reference counting here only tracks shared ownership across callers
// (mnt_ref_table/mnt_unref_table); the Go garbage collector frees the
// underlying memory once the last reference drops the table.
type Table struct {
	refcount      int
	entries       []*FSEntry
	fromMountInfo bool
}

// New creates an empty, fstab/mtab-shaped table: KEEPTREE deduplication
// never applies to it, since it carries no parent/child relationships.
func New() *Table {
	return &Table{refcount: 1}
}

// Ref increments the table's reference count.
func (t *Table) Ref() {
	if t != nil {
		t.refcount++
	}
}

// Unref decrements the table's reference count.
func (t *Table) Unref() {
	if t != nil {
		t.refcount--
	}
}

func (t *Table) Refcount() int { return t.refcount }

// AddEntry appends e to the table.
func (t *Table) AddEntry(e *FSEntry) {
	e.table = t
	t.entries = append(t.entries, e)
}

// RemoveEntry unlinks e from the table; e may still be read afterwards
// but further lookups will not find it.
func (t *Table) RemoveEntry(e *FSEntry) {
	for i, x := range t.entries {
		if x == e {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			e.table = nil
			return
		}
	}
}

// Entries returns every row, in table order.
func (t *Table) Entries() []*FSEntry {
	return append([]*FSEntry(nil), t.entries...)
}

// Len reports the number of rows.
func (t *Table) Len() int { return len(t.entries) }

// Iterator walks a Table's entries one at a time. It is a plain cursor
// rather than an intrusive list node, so several iterators over the
// same table never interfere with each other.
type Iterator struct {
	table *Table
	pos   int
}

// NewIterator returns an Iterator positioned before the first entry.
func (t *Table) NewIterator() *Iterator {
	return &Iterator{table: t}
}

// Next returns the next entry, or ok=false once the table is exhausted.
func (it *Iterator) Next() (e *FSEntry, ok bool) {
	if it.pos >= len(it.table.entries) {
		return nil, false
	}
	e = it.table.entries[it.pos]
	it.pos++
	return e, true
}

// FindNext scans forward from the iterator's current position for the
// first entry matching pred, matching mnt_table_find_next_fs.
func (it *Iterator) FindNext(pred func(*FSEntry) bool) (*FSEntry, bool) {
	for {
		e, ok := it.Next()
		if !ok {
			return nil, false
		}
		if pred(e) {
			return e, true
		}
	}
}

// Direction controls the scan order of the Find* lookups: Backward
// (the default, matching libmount's preference for the most recently
// added/mounted entry winning) or Forward.
type Direction int

const (
	Backward Direction = iota
	Forward
)

// forEach visits every entry index in dir's order, stopping as soon as
// fn returns false.
func (t *Table) forEach(dir Direction, fn func(i int) bool) {
	if dir == Forward {
		for i := 0; i < len(t.entries); i++ {
			if !fn(i) {
				return
			}
		}
		return
	}
	for i := len(t.entries) - 1; i >= 0; i-- {
		if !fn(i) {
			return
		}
	}
}

// RootFS returns the table's topmost entry: the one with the smallest
// parent id, tie-broken by the smallest id. This is a heuristic, not a
// guarantee the entry is the real system root (a container or chroot's
// mountinfo may have no entry for "/" at all).
func (t *Table) RootFS() (*FSEntry, bool) {
	var root *FSEntry
	for _, e := range t.entries {
		if e.ID <= 0 {
			continue
		}
		if root == nil || e.ParentID < root.ParentID ||
			(e.ParentID == root.ParentID && e.ID < root.ID) {
			root = e
		}
	}
	return root, root != nil
}

// ChildrenOf returns parent's direct children, in ascending id order,
// skipping self-referential rows (a real root filesystem is its own
// parent in some mountinfo dumps).
func (t *Table) ChildrenOf(parent *FSEntry) []*FSEntry {
	var children []*FSEntry
	for _, e := range t.entries {
		if e.ParentID == parent.ID && e.ID != parent.ID {
			children = append(children, e)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	return children
}

// FindTarget finds the entry mounted at path, scanning in dir order. It
// tries, in order: a literal string match against every entry's Target,
// then (if canonicalize is non-nil) a match of the canonicalized path
// against each entry's literal Target, then
// canonicalized-against-canonicalized while skipping pseudo/network
// filesystems the kernel never lets you bind-traverse into.
func (t *Table) FindTarget(path string, dir Direction, canonicalize func(string) (string, error)) (*FSEntry, bool) {
	var found *FSEntry
	t.forEach(dir, func(i int) bool {
		if t.entries[i].Target == path {
			found = t.entries[i]
			return false
		}
		return true
	})
	if found != nil {
		return found, true
	}
	if canonicalize == nil {
		return nil, false
	}
	cpath, err := canonicalize(path)
	if err != nil {
		return nil, false
	}
	t.forEach(dir, func(i int) bool {
		if t.entries[i].Target == cpath {
			found = t.entries[i]
			return false
		}
		return true
	})
	if found != nil {
		return found, true
	}
	t.forEach(dir, func(i int) bool {
		e := t.entries[i]
		if isPseudoFS(e.FSType) {
			return true
		}
		ct, err := canonicalize(e.Target)
		if err == nil && ct == cpath {
			found = e
			return false
		}
		return true
	})
	if found != nil {
		return found, true
	}
	return nil, false
}

// FindMountpoint walks up path's directory components until it finds
// an entry mounted there, falling back to "/" (every table with a root
// entry matches eventually).
func (t *Table) FindMountpoint(path string, dir Direction, canonicalize func(string) (string, error)) (*FSEntry, bool) {
	path = filepath.Clean(path)
	for {
		if e, ok := t.FindTarget(path, dir, canonicalize); ok {
			return e, true
		}
		if path == "/" || path == "." {
			break
		}
		next := filepath.Dir(path)
		if next == path {
			break
		}
		path = next
	}
	return t.FindTarget("/", dir, canonicalize)
}

func isPseudoFS(fstype string) bool {
	switch fstype {
	case "proc", "sysfs", "tmpfs", "devtmpfs", "cgroup", "cgroup2", "nfs", "nfs4", "cifs", "smb3":
		return true
	default:
		return false
	}
}

// FindSrcPath finds the entry whose source resolves to path, scanning
// in dir order: a literal match, a canonicalized-path match, a tag
// evaluated back to a path (EACCES during evaluation is treated as "no
// match" rather than an error, since evaluation commonly requires
// privileges the caller may lack), and finally canonicalized source vs
// canonicalized path, skipping pseudo/network filesystems.
func (t *Table) FindSrcPath(path string, dir Direction, canonicalize func(string) (string, error), evalTag func(name, value string) (string, error)) (*FSEntry, bool) {
	var found *FSEntry
	t.forEach(dir, func(i int) bool {
		e := t.entries[i]
		if e.SourceKind == SourcePath && e.Source == path {
			found = e
			return false
		}
		return true
	})
	if found != nil {
		return found, true
	}
	if canonicalize != nil {
		cpath, err := canonicalize(path)
		if err == nil {
			t.forEach(dir, func(i int) bool {
				e := t.entries[i]
				if e.SourceKind == SourcePath && e.Source == cpath {
					found = e
					return false
				}
				return true
			})
			if found != nil {
				return found, true
			}
		}
	}
	if evalTag != nil {
		t.forEach(dir, func(i int) bool {
			e := t.entries[i]
			if e.SourceKind != SourceTag {
				return true
			}
			resolved, err := evalTag(e.TagName, e.TagValue)
			if err != nil {
				return true // EACCES-class failures: skip, do not abort the search
			}
			if resolved == path {
				found = e
				return false
			}
			return true
		})
		if found != nil {
			return found, true
		}
	}
	if canonicalize != nil {
		cpath, err := canonicalize(path)
		if err == nil {
			t.forEach(dir, func(i int) bool {
				e := t.entries[i]
				if e.SourceKind != SourcePath || isPseudoFS(e.FSType) {
					return true
				}
				ce, err := canonicalize(e.Source)
				if err == nil && ce == cpath {
					found = e
					return false
				}
				return true
			})
			if found != nil {
				return found, true
			}
		}
	}
	return nil, false
}

// FindTag finds the entry tagged name=value (e.g. UUID=...), scanning
// in dir order.
func (t *Table) FindTag(name, value string, dir Direction) (*FSEntry, bool) {
	var found *FSEntry
	t.forEach(dir, func(i int) bool {
		e := t.entries[i]
		if e.SourceKind == SourceTag && e.TagName == name && e.TagValue == value {
			found = e
			return false
		}
		return true
	})
	if found != nil {
		return found, true
	}
	return nil, false
}

// FindSource dispatches to FindTag or FindSrcPath depending on whether
// source parses as a NAME=value tag or a bare path. A tag with no
// literal match is resolved to a device path with evalTag (when
// non-nil) and looked up again through FindSrcPath.
func (t *Table) FindSource(source string, dir Direction, canonicalize func(string) (string, error), evalTag func(name, value string) (string, error)) (*FSEntry, bool) {
	if name, value, ok := ParseTagString(source); ok {
		if e, ok := t.FindTag(name, value, dir); ok {
			return e, true
		}
		if evalTag == nil {
			return nil, false
		}
		path, err := evalTag(name, value)
		if err != nil {
			return nil, false
		}
		return t.FindSrcPath(path, dir, canonicalize, evalTag)
	}
	return t.FindSrcPath(source, dir, canonicalize, evalTag)
}

// FindPair finds the entry whose (source, target) pair matches exactly,
// scanning in dir order.
func (t *Table) FindPair(source, target string, dir Direction) (*FSEntry, bool) {
	var found *FSEntry
	t.forEach(dir, func(i int) bool {
		e := t.entries[i]
		if e.Source == source && e.Target == target {
			found = e
			return false
		}
		return true
	})
	if found != nil {
		return found, true
	}
	return nil, false
}

// FindDevNo finds the entry with the given device number, scanning in
// dir order.
func (t *Table) FindDevNo(devno uint64, dir Direction) (*FSEntry, bool) {
	var found *FSEntry
	t.forEach(dir, func(i int) bool {
		if t.entries[i].DevNo == devno {
			found = t.entries[i]
			return false
		}
		return true
	})
	if found != nil {
		return found, true
	}
	return nil, false
}

// ParseTagString splits "NAME=value", stripping surrounding quotes from
// value, or reports ok=false if source does not look like a tag at all.
func ParseTagString(source string) (name, value string, ok bool) {
	idx := strings.IndexByte(source, '=')
	if idx <= 0 {
		return "", "", false
	}
	name = source[:idx]
	value = strings.Trim(source[idx+1:], `"`)
	for _, r := range name {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return "", "", false
		}
	}
	return name, value, true
}
