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

// Package partitions holds the partition-table decoders (MBR, GPT).
package partitions

import (
	"strconv"

	"github.com/snapcore/blkid/chain"
)

const (
	dosSignatureOffset = 510
	dosPartTableOffset = 446
	dosPartEntrySize    = 16
	dosPartEntryCount   = 4
	dosPartTypeOffset   = 4 // within each 16-byte entry
)

// gptProtectiveType is the partition type byte GPT disks put in the
// single protective MBR entry (0xEE).
const gptProtectiveType = 0xee

// Dos decodes a classic MBR partition table. It is tolerant of GPT's
// protective-MBR convention: when the first partition entry is type
// 0xEE it still reports PTTYPE=dos, and Gpt, which runs after it in
// Driver, overwrites PTTYPE with gpt, matching libblkid's choice to let
// the GPT driver win when both signatures are present.
type Dos struct{}

func (Dos) Name() string { return "dos" }

func (Dos) Magics() []chain.Magic {
	return []chain.Magic{{Offset: dosSignatureOffset, Bytes: []byte{0x55, 0xaa}}}
}

func (Dos) Tolerant() bool { return true }

func (Dos) Probe(ctx chain.Context) error {
	table, err := ctx.GetBuffer(dosPartTableOffset, dosPartEntrySize*dosPartEntryCount)
	if err != nil {
		return chain.ErrNotApplicable
	}

	ctx.SetValue("PTMAGIC", []byte{0x55, 0xaa})
	ctx.SetValueString("PTMAGIC_OFFSET", strconv.Itoa(dosSignatureOffset))

	if isProtectiveMBR(table) {
		// A real GPT disk; Gpt, probed next, overwrites PTTYPE and
		// supplies PTUUID. Still claim the space so RunAll's tolerant
		// bookkeeping stays accurate.
		ctx.SetValueString("PTTYPE", "dos")
		return nil
	}

	ctx.SetValueString("PTTYPE", "dos")
	return nil
}

func isProtectiveMBR(table []byte) bool {
	entry := table[0:dosPartEntrySize]
	return entry[dosPartTypeOffset] == gptProtectiveType
}
