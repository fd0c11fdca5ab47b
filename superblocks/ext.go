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
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/snapcore/blkid/chain"
)

const extSuperblockOffset = 1024

const (
	extMagicOffset       = 0x38
	extFeatureCompatOff  = 0x5c
	extFeatureIncompatOff = 0x60
	extFeatureROCompatOff = 0x64
	extUUIDOff           = 0x68
	extVolumeNameOff     = 0x78
	extVolumeNameLen     = 16
)

const (
	compatHasJournal = 0x0004

	incompatExtents = 0x0040
	incompat64Bit   = 0x0080
	incompatFlexBG  = 0x0200

	roCompatHugeFile = 0x0008
)

// Ext decodes ext2/ext3/ext4 superblocks. The three filesystems share a
// single on-disk layout; TYPE is derived from the feature bitmaps the
// same way libblkid's ext driver tells them apart.
type Ext struct{}

func (Ext) Name() string { return "ext" }

func (Ext) Magics() []chain.Magic {
	return []chain.Magic{{Offset: extSuperblockOffset + extMagicOffset, Bytes: []byte{0x53, 0xef}}}
}

func (Ext) Tolerant() bool { return false }

func (Ext) Probe(ctx chain.Context) error {
	sb, err := ctx.GetBuffer(extSuperblockOffset, 1024)
	if err != nil {
		return chain.ErrNotApplicable
	}

	compat := binary.LittleEndian.Uint32(sb[extFeatureCompatOff:])
	incompat := binary.LittleEndian.Uint32(sb[extFeatureIncompatOff:])
	roCompat := binary.LittleEndian.Uint32(sb[extFeatureROCompatOff:])

	name := "ext2"
	switch {
	case incompat&(incompatExtents|incompat64Bit|incompatFlexBG) != 0 || roCompat&roCompatHugeFile != 0:
		name = "ext4"
	case compat&compatHasJournal != 0:
		name = "ext3"
	}

	ctx.SetValueString("TYPE", name)

	rawUUID := sb[extUUIDOff : extUUIDOff+16]
	if id, err := uuid.FromBytes(rawUUID); err == nil && id != uuid.Nil {
		ctx.SetValueString("UUID", id.String())
	}

	label := sb[extVolumeNameOff : extVolumeNameOff+extVolumeNameLen]
	ctx.SetValue("LABEL", trimNUL(label))

	return nil
}

func trimNUL(b []byte) []byte {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return b[:n]
}
