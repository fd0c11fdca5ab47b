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

package osutil_test

import (
	"strings"
	"testing"

	. "gopkg.in/check.v1"

	"github.com/snapcore/blkid/dirs"
	"github.com/snapcore/blkid/osutil"
)

func Test(t *testing.T) { TestingT(t) }

var _ = Suite(&mountInfoSuite{})

type mountInfoSuite struct{}

func (s *mountInfoSuite) SetUpTest(c *C) {
	dirs.SetRootDir(c.MkDir())
}

func (s *mountInfoSuite) TearDownTest(c *C) {
	dirs.SetRootDir("")
}

const sampleMountInfo = `130 30 42:1 / /run/mnt/point rw,relatime shared:54 - ext4 /dev/vda4 rw
25 30 8:2 / /boot rw,relatime shared:30 - ext4 /dev/sda2 rw,errors=remount-ro
`

func (s *mountInfoSuite) TestParseMountInfoHappy(c *C) {
	restore := osutil.MockMountInfo(sampleMountInfo)
	defer restore()

	entries, err := osutil.LoadMountInfo()
	c.Assert(err, IsNil)
	c.Assert(entries, HasLen, 2)

	c.Check(entries[0].ID, Equals, 130)
	c.Check(entries[0].ParentID, Equals, 30)
	c.Check(entries[0].DevMajor, Equals, 42)
	c.Check(entries[0].DevMinor, Equals, 1)
	c.Check(entries[0].Root, Equals, "/")
	c.Check(entries[0].Target, Equals, "/run/mnt/point")
	c.Check(entries[0].FSType, Equals, "ext4")
	c.Check(entries[0].Source, Equals, "/dev/vda4")
	c.Check(entries[0].OptionalFields, DeepEquals, []string{"shared:54"})
}

func (s *mountInfoSuite) TestParseMountInfoOctalEscapes(c *C) {
	entries, err := osutil.ParseMountInfo(strings.NewReader(
		`36 30 8:1 / /mnt/my\040space rw - ext4 /dev/sda1 rw` + "\n"))
	c.Assert(err, IsNil)
	c.Assert(entries, HasLen, 1)
	c.Check(entries[0].Target, Equals, "/mnt/my space")
}

func (s *mountInfoSuite) TestParseMountInfoMissingSeparator(c *C) {
	_, err := osutil.ParseMountInfo(strings.NewReader("36 30 8:1 / /mnt rw\n"))
	c.Assert(err, ErrorMatches, ".*missing separator field.*")
}

func (s *mountInfoSuite) TestParseMountInfoBadDevno(c *C) {
	_, err := osutil.ParseMountInfo(strings.NewReader(
		"36 30 notanumber / /mnt rw - ext4 /dev/sda1 rw\n"))
	c.Assert(err, ErrorMatches, `.*invalid device number format: "notanumber" \(expected <int>:<int>\).*`)
}

func (s *mountInfoSuite) TestLoadMountInfoMissingFile(c *C) {
	_, err := osutil.LoadMountInfo()
	c.Assert(err, NotNil)
}
