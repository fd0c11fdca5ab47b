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

package superblocks

import (
	"github.com/snapcore/blkid/chain"
)

const (
	lvm2LabelSector = 512
	lvm2TypeOffset  = lvm2LabelSector + 0x20
	lvm2UUIDOffset  = lvm2LabelSector + 0x28
	lvm2UUIDLen     = 32 // ASCII, no dashes
)

// Lvm2 decodes an LVM2 physical-volume label. It is tolerant, so safe
// probing does not count it towards ambivalence. An LVM2 PV commonly
// sits on a device that still carries a stale MBR/partition signature
// in sector 0 from before it was converted, and the engine must report
// lvm2_member rather than dos in that case. Sector 0 is therefore
// declared as a wiper: a partitions-chain decoder whose magic lies in
// that region later has its values discarded.
type Lvm2 struct{}

func (Lvm2) Name() string { return "lvm2" }

func (Lvm2) Magics() []chain.Magic {
	return []chain.Magic{{Offset: lvm2TypeOffset, Bytes: []byte("LVM2 001")}}
}

func (Lvm2) Tolerant() bool { return true }

func (Lvm2) Probe(ctx chain.Context) error {
	label, err := ctx.GetBuffer(lvm2LabelSector, lvm2LabelSector)
	if err != nil {
		return chain.ErrNotApplicable
	}
	if string(label[:8]) != "LABELONE" {
		return chain.ErrNotApplicable
	}

	ctx.SetValueString("TYPE", "lvm2_member")

	rawUUID := label[lvm2UUIDOffset-lvm2LabelSector : lvm2UUIDOffset-lvm2LabelSector+lvm2UUIDLen]
	ctx.SetValue("UUID", trimNUL(rawUUID))

	// The PV label claims sector 0 as its own even though a retired
	// partition table may still be sitting there.
	ctx.SetWiper(0, lvm2LabelSector)

	return nil
}
