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

package value_test

import (
	"testing"

	. "gopkg.in/check.v1"

	"github.com/snapcore/blkid/value"
)

func Test(t *testing.T) { TestingT(t) }

var _ = Suite(&valueSuite{})

type valueSuite struct{}

func (s *valueSuite) TestAppendAndLookup(c *C) {
	var st value.Store
	st.AppendString("superblocks", "TYPE", "ext4")
	v, ok := st.Lookup("TYPE")
	c.Assert(ok, Equals, true)
	c.Check(v.String(), Equals, "ext4")
}

func (s *valueSuite) TestAppendOverwritesSameChainSameName(c *C) {
	var st value.Store
	st.AppendString("superblocks", "TYPE", "ext2")
	st.AppendString("superblocks", "TYPE", "ext4")
	c.Check(st.Len(), Equals, 1)
	v, _ := st.Lookup("TYPE")
	c.Check(v.String(), Equals, "ext4")
}

func (s *valueSuite) TestStringTrimsTrailingNuls(c *C) {
	v := value.Value{Data: []byte("label\x00\x00\x00")}
	c.Check(v.String(), Equals, "label")
}

func (s *valueSuite) TestResetChainOnlyAffectsThatChain(c *C) {
	var st value.Store
	st.AppendString("superblocks", "TYPE", "lvm2_member")
	st.AppendString("partitions", "PTTYPE", "dos")

	st.ResetChain("superblocks")

	c.Check(st.Len(), Equals, 1)
	_, ok := st.Lookup("TYPE")
	c.Check(ok, Equals, false)
	v, ok := st.Lookup("PTTYPE")
	c.Assert(ok, Equals, true)
	c.Check(v.String(), Equals, "dos")
}

func (s *valueSuite) TestReset(c *C) {
	var st value.Store
	st.AppendString("superblocks", "TYPE", "ext4")
	st.Reset()
	c.Check(st.Len(), Equals, 0)
}

func (s *valueSuite) TestLookupPrefersLastInserted(c *C) {
	var st value.Store
	st.AppendString("superblocks", "UUID", "aaa")
	st.AppendString("partitions", "UUID", "bbb")
	v, ok := st.Lookup("UUID")
	c.Assert(ok, Equals, true)
	c.Check(v.String(), Equals, "bbb")
}
