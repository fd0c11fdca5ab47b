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

// Package topology holds the block-device geometry chain. Unlike
// superblocks/partitions, its single descriptor reads no magic bytes:
// it reports facts the probing engine already gathered from the kernel
// at set_device time (sector sizes, minimum I/O size), the same
// distinction the original library draws between "low probing" (byte
// scanning) and "topology" (ioctl/sysfs facts).
package topology

import (
	"strconv"

	"github.com/snapcore/blkid/chain"
)

// SectorSizer is implemented by a chain.Context that also knows the
// device's sector and I/O sizes, captured out-of-band via ioctl. Using
// a small capability interface here, rather than widening
// chain.Context itself, keeps every other decoder free of geometry
// concerns it does not need.
type SectorSizer interface {
	LogicalSectorSize() uint32
	PhysicalSectorSize() uint32
	MinimumIOSize() uint32
}

// BlockDev is the sole topology decoder.
type BlockDev struct{}

func (BlockDev) Name() string          { return "blockdev" }
func (BlockDev) Magics() []chain.Magic { return nil }
func (BlockDev) Tolerant() bool        { return true }

func (BlockDev) Probe(ctx chain.Context) error {
	ss, ok := ctx.(SectorSizer)
	if !ok {
		return chain.ErrNotApplicable
	}
	ctx.SetValueString("LOGICAL_SECTOR_SIZE", strconv.FormatUint(uint64(ss.LogicalSectorSize()), 10))
	ctx.SetValueString("PHYSICAL_SECTOR_SIZE", strconv.FormatUint(uint64(ss.PhysicalSectorSize()), 10))
	ctx.SetValueString("MINIMUM_IO_SIZE", strconv.FormatUint(uint64(ss.MinimumIOSize()), 10))
	return nil
}

// Driver is the static topology decoder catalogue.
var Driver = []chain.Decoder{BlockDev{}}
