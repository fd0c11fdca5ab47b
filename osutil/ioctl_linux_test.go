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
	"path/filepath"

	. "gopkg.in/check.v1"

	"github.com/snapcore/blkid/osutil"
)

var _ = Suite(&ioctlSuite{})

type ioctlSuite struct{}

// Regular files do not support block-device ioctls; the helpers must
// degrade to their documented fallback rather than panicking.
func (s *ioctlSuite) TestIsCDROMOnRegularFileIsFalse(c *C) {
	p := filepath.Join(c.MkDir(), "not-a-device")
	f, err := osutil.CreateForTest(p)
	c.Assert(err, IsNil)
	defer f.Close()

	c.Check(osutil.IsCDROM(f), Equals, false)
}

func (s *ioctlSuite) TestBlockSectorSizeFallsBackOnRegularFile(c *C) {
	p := filepath.Join(c.MkDir(), "not-a-device")
	f, err := osutil.CreateForTest(p)
	c.Assert(err, IsNil)
	defer f.Close()

	sz, err := osutil.BlockSectorSize(f)
	c.Assert(err, NotNil)
	c.Check(sz, Equals, uint32(512))
}
