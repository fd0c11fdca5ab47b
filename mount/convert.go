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

import "github.com/snapcore/blkid/osutil"

// FromMountInfo builds a Table from already-parsed mountinfo rows. The
// resulting table carries real parent/child ids, so UniqFS on it
// rewrites the tree (KEEPTREE) instead of simply dropping rows.
func FromMountInfo(rows []*osutil.MountInfoEntry) *Table {
	t := New()
	t.fromMountInfo = true
	for _, r := range rows {
		// mountinfo's source field is always a resolved device path (or
		// "none" for pseudo filesystems), never a NAME=value tag - the
		// kernel has already done that resolution by the time it writes
		// this file.
		e := &FSEntry{
			ID:         r.ID,
			ParentID:   r.ParentID,
			DevNo:      r.DevNo(),
			Source:     r.Source,
			SourceKind: SourcePath,
			Target:     r.Target,
			FSType:     r.FSType,
			Root:       r.Root,
			VFSOptions: r.VFSOptions,
			FSOptions:  r.SuperOptions,
		}
		t.AddEntry(e)
	}
	return t
}

// LoadMountInfoTable reads and parses dirs.ProcMountInfo directly into
// a Table, the common case for a running system.
func LoadMountInfoTable() (*Table, error) {
	rows, err := osutil.LoadMountInfo()
	if err != nil {
		return nil, err
	}
	return FromMountInfo(rows), nil
}
