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

package partitions_test

import (
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	. "gopkg.in/check.v1"

	"github.com/snapcore/blkid/chain"
	"github.com/snapcore/blkid/partitions"
)

func Test(t *testing.T) { TestingT(t) }

var _ = Suite(&partitionsSuite{})

type partitionsSuite struct{}

type memCtx struct {
	data   []byte
	values map[string][]byte
}

func newMemCtx(size int) *memCtx {
	return &memCtx{data: make([]byte, size), values: make(map[string][]byte)}
}
func (m *memCtx) GetBuffer(off, size int64) ([]byte, error) {
	if off < 0 || off+size > int64(len(m.data)) {
		return nil, chain.ErrNotApplicable
	}
	return m.data[off : off+size], nil
}
func (m *memCtx) Size() int64                       { return int64(len(m.data)) }
func (m *memCtx) SetValue(name string, data []byte) { m.values[name] = append([]byte(nil), data...) }
func (m *memCtx) SetValueString(name, data string)  { m.values[name] = []byte(data) }
func (m *memCtx) SetWiper(int64, int64)             {}
func (m *memCtx) UseWiper(int64, int64)             {}
func (m *memCtx) str(name string) string            { return string(m.values[name]) }

func (s *partitionsSuite) TestDosDetectsPlainMBR(c *C) {
	ctx := newMemCtx(512)
	ctx.data[510] = 0x55
	ctx.data[511] = 0xaa
	c.Assert(partitions.Dos{}.Probe(ctx), IsNil)
	c.Check(ctx.str("PTTYPE"), Equals, "dos")
	c.Check(ctx.str("PTMAGIC"), Equals, "\x55\xaa")
	c.Check(ctx.str("PTMAGIC_OFFSET"), Equals, "510")
}

func (s *partitionsSuite) TestGptDetectsHeaderAndGUID(c *C) {
	ctx := newMemCtx(1024)
	copy(ctx.data[512:], []byte("EFI PART"))
	id := uuid.New()
	copy(ctx.data[512+56:], id[:])
	c.Assert(partitions.Gpt{}.Probe(ctx), IsNil)
	c.Check(ctx.str("PTTYPE"), Equals, "gpt")
	c.Check(ctx.str("PTUUID"), Equals, id.String())
}

// TestGptEmitsPartitionEntryAndMagic covers the full header-plus-entry
// walk: a one-entry partition array at LBA 2, decoded into
// PART_ENTRY_* tags alongside PTMAGIC/PTMAGIC_OFFSET.
func (s *partitionsSuite) TestGptEmitsPartitionEntryAndMagic(c *C) {
	ctx := newMemCtx(2048)
	copy(ctx.data[512:], []byte("EFI PART"))
	diskID := uuid.New()
	copy(ctx.data[512+56:], diskID[:])

	binary.LittleEndian.PutUint64(ctx.data[512+72:], 2)   // entry array LBA
	binary.LittleEndian.PutUint32(ctx.data[512+80:], 1)   // entry count
	binary.LittleEndian.PutUint32(ctx.data[512+84:], 128) // bytes per entry

	const entryOff = 1024
	typeGUID := uuid.New()
	uniqueGUID := uuid.New()
	copy(ctx.data[entryOff:], typeGUID[:])
	copy(ctx.data[entryOff+16:], uniqueGUID[:])
	binary.LittleEndian.PutUint64(ctx.data[entryOff+32:], 100) // starting LBA
	binary.LittleEndian.PutUint64(ctx.data[entryOff+40:], 199) // ending LBA
	for i, r := range "root" {
		binary.LittleEndian.PutUint16(ctx.data[entryOff+56+i*2:], uint16(r))
	}

	c.Assert(partitions.Gpt{}.Probe(ctx), IsNil)
	c.Check(ctx.str("PTTYPE"), Equals, "gpt")
	c.Check(ctx.str("PTMAGIC"), Equals, "EFI PART")
	c.Check(ctx.str("PTMAGIC_OFFSET"), Equals, "512")
	c.Check(ctx.str("PART_ENTRY_SCHEME"), Equals, "gpt")
	c.Check(ctx.str("PART_ENTRY_TYPE"), Equals, typeGUID.String())
	c.Check(ctx.str("PART_ENTRY_UUID"), Equals, uniqueGUID.String())
	c.Check(ctx.str("PART_ENTRY_NUMBER"), Equals, "1")
	c.Check(ctx.str("PART_ENTRY_OFFSET"), Equals, "51200")
	c.Check(ctx.str("PART_ENTRY_SIZE"), Equals, "51200")
	c.Check(ctx.str("PART_ENTRY_NAME"), Equals, "root")
}

// A real GPT disk carries a protective MBR at LBA0 and a GPT header at
// LBA1; running both drivers in catalogue order must leave PTTYPE=gpt.
func (s *partitionsSuite) TestProtectiveMBRThenGptWins(c *C) {
	ctx := newMemCtx(1024)
	ctx.data[510] = 0x55
	ctx.data[511] = 0xaa
	ctx.data[446+4] = 0xee // protective type in the single MBR entry
	copy(ctx.data[512:], []byte("EFI PART"))

	for _, d := range partitions.Driver {
		c.Assert(d.Probe(ctx), IsNil)
	}
	c.Check(ctx.str("PTTYPE"), Equals, "gpt")
}
