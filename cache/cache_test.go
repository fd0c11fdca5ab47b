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

package cache_test

import (
	"testing"

	. "gopkg.in/check.v1"

	"github.com/snapcore/blkid/cache"
	"github.com/snapcore/blkid/config"
)

func Test(t *testing.T) { TestingT(t) }

var _ = Suite(&cacheSuite{})

type cacheSuite struct{}

func (s *cacheSuite) TestPutInsertsAndReplaces(c *C) {
	h := cache.New("", nil)
	h.Put(&cache.Device{Name: "/dev/sda1", DevNo: 1, Tags: map[string]string{"TYPE": "ext4"}})
	c.Assert(h.Len(), Equals, 1)

	h.Put(&cache.Device{Name: "/dev/sda1", DevNo: 1, Tags: map[string]string{"TYPE": "xfs"}})
	c.Assert(h.Len(), Equals, 1)

	d, ok := h.FindDevName("/dev/sda1")
	c.Assert(ok, Equals, true)
	typ, ok := d.Tag("TYPE")
	c.Assert(ok, Equals, true)
	c.Check(typ, Equals, "xfs")
}

func (s *cacheSuite) TestRemoveDropsDevice(c *C) {
	h := cache.New("", nil)
	h.Put(&cache.Device{Name: "/dev/sda1"})
	h.Remove("/dev/sda1")
	c.Check(h.Len(), Equals, 0)
}

func (s *cacheSuite) TestFindByTag(c *C) {
	h := cache.New("", nil)
	h.Put(&cache.Device{Name: "/dev/sda1", Tags: map[string]string{"UUID": "abcd"}})
	h.Put(&cache.Device{Name: "/dev/sda2", Tags: map[string]string{"UUID": "efgh"}})

	d, ok := h.FindByTag("UUID", "efgh")
	c.Assert(ok, Equals, true)
	c.Check(d.Name, Equals, "/dev/sda2")

	_, ok = h.FindByTag("UUID", "zzzz")
	c.Check(ok, Equals, false)
}

func (s *cacheSuite) TestGCRemovesMissingDevices(c *C) {
	h := cache.New("", nil)
	h.Put(&cache.Device{Name: "/dev/sda1"})
	h.Put(&cache.Device{Name: "/dev/sda2"})

	removed := h.GC(func(name string) bool { return name != "/dev/sda2" })
	c.Assert(removed, HasLen, 1)
	c.Check(removed[0].Name, Equals, "/dev/sda2")
	c.Check(h.Len(), Equals, 1)
	_, ok := h.FindDevName("/dev/sda1")
	c.Check(ok, Equals, true)
}

func (s *cacheSuite) TestFilenameFallsBackToConfig(c *C) {
	conf := config.Default()
	h := cache.New("", conf)
	c.Check(h.Filename(), Equals, conf.CacheFile)

	h2 := cache.New("/custom/path", conf)
	c.Check(h2.Filename(), Equals, "/custom/path")
}

func (s *cacheSuite) TestRefUnrefReleasesConfig(c *C) {
	conf := config.Default()
	c.Assert(conf.Refcount(), Equals, 1)

	h := cache.New("", conf)
	c.Check(conf.Refcount(), Equals, 2)

	h.Ref()
	c.Check(h.Refcount(), Equals, 2)

	h.Unref()
	c.Check(h.Refcount(), Equals, 1)
	c.Check(conf.Refcount(), Equals, 2)

	h.Unref()
	c.Check(h.Refcount(), Equals, 0)
	c.Check(conf.Refcount(), Equals, 1)
}
