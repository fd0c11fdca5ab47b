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

package mount_test

import (
	"fmt"
	"testing"

	. "gopkg.in/check.v1"

	"github.com/snapcore/blkid/mount"
	"github.com/snapcore/blkid/osutil"
)

func Test(t *testing.T) { TestingT(t) }

var _ = Suite(&tableSuite{})

type tableSuite struct{}

func sampleMountInfo() []*osutil.MountInfoEntry {
	return []*osutil.MountInfoEntry{
		{ID: 20, ParentID: 0, DevMajor: 8, DevMinor: 1, Root: "/", Target: "/", VFSOptions: "rw,relatime", FSType: "ext4", Source: "/dev/sda1", SuperOptions: "rw"},
		{ID: 21, ParentID: 20, DevMajor: 8, DevMinor: 2, Root: "/", Target: "/home", VFSOptions: "rw,relatime", FSType: "ext4", Source: "/dev/sda2", SuperOptions: "rw"},
		{ID: 22, ParentID: 20, DevMajor: 0, DevMinor: 1, Root: "/", Target: "/proc", VFSOptions: "rw,nosuid", FSType: "proc", Source: "proc", SuperOptions: "rw"},
		{ID: 23, ParentID: 21, DevMajor: 8, DevMinor: 2, Root: "/sub", Target: "/home/sub", VFSOptions: "rw,relatime", FSType: "ext4", Source: "/dev/sda2", SuperOptions: "rw"},
	}
}

func (s *tableSuite) TestFromMountInfoBuildsTree(c *C) {
	tbl := mount.FromMountInfo(sampleMountInfo())
	c.Assert(tbl.Len(), Equals, 4)

	root, ok := tbl.RootFS()
	c.Assert(ok, Equals, true)
	c.Check(root.Target, Equals, "/")

	children := tbl.ChildrenOf(root)
	c.Assert(children, HasLen, 2)
	c.Check(children[0].Target, Equals, "/home")
	c.Check(children[1].Target, Equals, "/proc")
}

func (s *tableSuite) TestIteratorWalksEveryEntry(c *C) {
	tbl := mount.FromMountInfo(sampleMountInfo())
	it := tbl.NewIterator()
	count := 0
	for {
		_, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	c.Check(count, Equals, 4)
}

func (s *tableSuite) TestFindTargetLiteral(c *C) {
	tbl := mount.FromMountInfo(sampleMountInfo())
	e, ok := tbl.FindTarget("/home", mount.Backward, nil)
	c.Assert(ok, Equals, true)
	c.Check(e.Source, Equals, "/dev/sda2")
}

func (s *tableSuite) TestFindMountpointWalksUpToRoot(c *C) {
	tbl := mount.FromMountInfo(sampleMountInfo())
	e, ok := tbl.FindMountpoint("/home/sub/deep/path", mount.Backward, nil)
	c.Assert(ok, Equals, true)
	c.Check(e.Target, Equals, "/home/sub")
}

func (s *tableSuite) TestFindSrcPathLiteral(c *C) {
	tbl := mount.FromMountInfo(sampleMountInfo())
	e, ok := tbl.FindSrcPath("/dev/sda1", mount.Backward, nil, nil)
	c.Assert(ok, Equals, true)
	c.Check(e.Target, Equals, "/")
}

func (s *tableSuite) TestFindDevNo(c *C) {
	tbl := mount.FromMountInfo(sampleMountInfo())
	entries := tbl.Entries()
	e, ok := tbl.FindDevNo(entries[0].DevNo, mount.Backward)
	c.Assert(ok, Equals, true)
	c.Check(e.Target, Equals, "/")
}

// TestFindTargetDirectionPicksFirstOrLastDuplicate confirms Direction
// controls which of two entries sharing a target wins: Backward (the
// default used everywhere else in this suite) prefers the most
// recently added entry, Forward prefers the first.
func (s *tableSuite) TestFindTargetDirectionPicksFirstOrLastDuplicate(c *C) {
	tbl := mount.New()
	tbl.AddEntry(&mount.FSEntry{Source: "/dev/sda1", Target: "/mnt"})
	tbl.AddEntry(&mount.FSEntry{Source: "/dev/sda2", Target: "/mnt"})

	last, ok := tbl.FindTarget("/mnt", mount.Backward, nil)
	c.Assert(ok, Equals, true)
	c.Check(last.Source, Equals, "/dev/sda2")

	first, ok := tbl.FindTarget("/mnt", mount.Forward, nil)
	c.Assert(ok, Equals, true)
	c.Check(first.Source, Equals, "/dev/sda1")
}

// TestFindSourceTagVsPath mirrors a table built from fstab-shaped rows
// (tags allowed) rather than mountinfo.
func (s *tableSuite) TestFindSourceTagVsPath(c *C) {
	tbl := mount.New()
	tbl.AddEntry(&mount.FSEntry{SourceKind: mount.SourceTag, TagName: "LABEL", TagValue: "foo", Target: "/a"})
	tbl.AddEntry(&mount.FSEntry{SourceKind: mount.SourcePath, Source: "/dev/sda1", Target: "/a"})

	byLabel, ok := tbl.FindSource("LABEL=foo", mount.Backward, nil, nil)
	c.Assert(ok, Equals, true)
	c.Check(byLabel.Target, Equals, "/a")
	c.Check(byLabel.SourceKind, Equals, mount.SourceTag)

	byPath, ok := tbl.FindSource("/dev/sda1", mount.Backward, nil, nil)
	c.Assert(ok, Equals, true)
	c.Check(byPath.SourceKind, Equals, mount.SourcePath)

	byUUID, ok := tbl.FindSource("UUID=xxx", mount.Backward, nil, func(name, value string) (string, error) {
		if name == "UUID" && value == "xxx" {
			return "/dev/sda1", nil
		}
		return "", fmt.Errorf("no match")
	})
	c.Assert(ok, Equals, true)
	c.Check(byUUID.Source, Equals, "/dev/sda1")
}

func (s *tableSuite) TestUniqFSRewritesParentBeforeRemoving(c *C) {
	rows := sampleMountInfo()
	// Duplicate /home bind-mounted again at a different id, should be
	// deduplicated by (devno, root); it has no children of its own.
	rows = append(rows, &osutil.MountInfoEntry{ID: 30, ParentID: 20, DevMajor: 8, DevMinor: 2, Root: "/", Target: "/mnt/home2", VFSOptions: "rw", FSType: "ext4", Source: "/dev/sda2", SuperOptions: "rw"})
	tbl := mount.FromMountInfo(rows)

	removed := tbl.UniqFS(mount.DevNoKey)
	c.Assert(removed, HasLen, 1)
	c.Check(removed[0].Target, Equals, "/mnt/home2")

	// /home/sub's parent should still resolve (either original /home, id 21,
	// since that one was kept - first occurrence wins).
	entries := tbl.Entries()
	var sub *mount.FSEntry
	for _, e := range entries {
		if e.Target == "/home/sub" {
			sub = e
		}
	}
	c.Assert(sub, NotNil)
	c.Check(sub.ParentID, Equals, 21)
}

func (s *tableSuite) TestGetFSRootBindMount(c *C) {
	tbl := mount.FromMountInfo(sampleMountInfo())
	entries := tbl.Entries()
	var bind *mount.FSEntry
	for _, e := range entries {
		if e.Target == "/home/sub" {
			bind = e
		}
	}
	c.Assert(bind, NotNil)
	root, err := tbl.GetFSRoot(bind, 0)
	c.Assert(err, IsNil)
	c.Check(root, Equals, "/sub")
}

func (s *tableSuite) TestGetFSRootBtrfsSubvolOption(c *C) {
	tbl := mount.New()
	e := &mount.FSEntry{FSType: "btrfs", Root: "/unused", VFSOptions: "rw,subvol=/@home"}
	tbl.AddEntry(e)
	root, err := tbl.GetFSRoot(e, 0)
	c.Assert(err, IsNil)
	c.Check(root, Equals, "/@home")
}

// TestGetFSRootMSBindResolvesThroughParentFS covers a fstab-style bind
// mount whose Source is a subdirectory of an already-mounted
// filesystem rather than a device: with MSBind set, GetFSRoot must
// resolve the true root by combining the parent entry's own root with
// the path under its target.
func (s *tableSuite) TestGetFSRootMSBindResolvesThroughParentFS(c *C) {
	tbl := mount.New()
	parent := &mount.FSEntry{SourceKind: mount.SourcePath, Source: "/dev/sda3", Target: "/data", FSType: "ext4", Root: "/"}
	tbl.AddEntry(parent)
	bind := &mount.FSEntry{SourceKind: mount.SourcePath, Source: "/data/subdir", Target: "/mnt/bound", FSType: "ext4", Root: "/", VFSOptions: "bind"}
	tbl.AddEntry(bind)

	root, err := tbl.GetFSRoot(bind, mount.MSBind)
	c.Assert(err, IsNil)
	c.Check(root, Equals, "/subdir")
}

// TestGetFSRootWithoutMSBindIgnoresParentFS confirms the MSBind
// resolution never kicks in unless the flag is explicitly requested.
func (s *tableSuite) TestGetFSRootWithoutMSBindIgnoresParentFS(c *C) {
	tbl := mount.New()
	parent := &mount.FSEntry{SourceKind: mount.SourcePath, Source: "/dev/sda3", Target: "/data", FSType: "ext4", Root: "/"}
	tbl.AddEntry(parent)
	bind := &mount.FSEntry{SourceKind: mount.SourcePath, Source: "/data/subdir", Target: "/mnt/bound", FSType: "ext4", Root: "/", VFSOptions: "bind"}
	tbl.AddEntry(bind)

	root, err := tbl.GetFSRoot(bind, 0)
	c.Assert(err, IsNil)
	c.Check(root, Equals, "/")
}

func (s *tableSuite) TestIsFSMountedDetectsDuplicate(c *C) {
	tbl := mount.New()
	a := &mount.FSEntry{Source: "/dev/sda1", Root: "/", Target: "/mnt/a"}
	b := &mount.FSEntry{Source: "/dev/sda1", Root: "/", Target: "/mnt/b"}
	tbl.AddEntry(a)
	tbl.AddEntry(b)
	c.Check(tbl.IsFSMounted(a), Equals, true)

	c2 := &mount.FSEntry{Source: "/dev/sda2", Root: "/", Target: "/mnt/c"}
	tbl.AddEntry(c2)
	c.Check(tbl.IsFSMounted(c2), Equals, false)
}

func (s *tableSuite) TestParseTagString(c *C) {
	name, value, ok := mount.ParseTagString(`UUID="abcd-1234"`)
	c.Assert(ok, Equals, true)
	c.Check(name, Equals, "UUID")
	c.Check(value, Equals, "abcd-1234")

	_, _, ok = mount.ParseTagString("/dev/sda1")
	c.Check(ok, Equals, false)
}
