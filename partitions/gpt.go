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

package partitions

import (
	"encoding/binary"
	"strconv"
	"unicode/utf16"

	"github.com/google/uuid"

	"github.com/snapcore/blkid/chain"
)

const (
	gptHeaderOffset = 512
	gptDiskGUIDOff  = 56 // within the header

	// Remaining header fields, all little-endian, per the UEFI spec.
	gptPartLBAOff     = 72 // uint64: LBA of the partition entry array
	gptPartCountOff   = 80 // uint32: number of entries in the array
	gptPartEntrySzOff = 84 // uint32: bytes per entry

	// Partition entry field offsets, within one gptPartEntrySize row.
	gptEntryTypeGUIDOff = 0
	gptEntryUUIDOff     = 16
	gptEntryStartLBAOff = 32
	gptEntryEndLBAOff   = 40
	gptEntryNameOff     = 56
	gptEntryNameUnits   = 36 // UTF-16LE code units, 72 bytes

	sectorSize = 512
)

// Gpt decodes a GPT header at LBA 1. It is tolerant, like Dos: a
// protective MBR legitimately sits at LBA 0 underneath it, and because
// Dos (probed first) is tolerant too, RunAll records both results.
type Gpt struct{}

func (Gpt) Name() string { return "gpt" }

func (Gpt) Magics() []chain.Magic {
	return []chain.Magic{{Offset: gptHeaderOffset, Bytes: []byte("EFI PART")}}
}

func (Gpt) Tolerant() bool { return true }

func (Gpt) Probe(ctx chain.Context) error {
	header, err := ctx.GetBuffer(gptHeaderOffset, 128)
	if err != nil {
		return chain.ErrNotApplicable
	}

	ctx.SetValueString("PTTYPE", "gpt")
	ctx.SetValue("PTMAGIC", []byte("EFI PART"))
	ctx.SetValueString("PTMAGIC_OFFSET", strconv.Itoa(gptHeaderOffset))

	rawGUID := header[gptDiskGUIDOff : gptDiskGUIDOff+16]
	if id, err := uuid.FromBytes(rawGUID); err == nil && id != uuid.Nil {
		ctx.SetValueString("PTUUID", id.String())
	}

	entryLBA := binary.LittleEndian.Uint64(header[gptPartLBAOff:])
	entryCount := binary.LittleEndian.Uint32(header[gptPartCountOff:])
	entrySize := binary.LittleEndian.Uint32(header[gptPartEntrySzOff:])
	if entryCount == 0 || entrySize == 0 {
		return nil
	}

	table, err := ctx.GetBuffer(int64(entryLBA)*sectorSize, int64(entryCount)*int64(entrySize))
	if err != nil {
		// Short device: the header is present but the entry array isn't
		// readable. PTTYPE/PTUUID already stand, nothing further to add.
		return nil
	}

	setFirstPartitionEntry(ctx, table, entryCount, entrySize)
	return nil
}

// setFirstPartitionEntry emits PART_ENTRY_* for the first non-empty row
// of the partition entry array (an all-zero PartitionTypeGUID marks an
// unused slot). Matching blkid's single-partition PART_ENTRY_* tags,
// only one partition's worth of values is ever recorded per probe.
func setFirstPartitionEntry(ctx chain.Context, table []byte, count, size uint32) {
	for i := uint32(0); i < count; i++ {
		row := table[uint64(i)*uint64(size):]
		typeGUID, err := uuid.FromBytes(row[gptEntryTypeGUIDOff : gptEntryTypeGUIDOff+16])
		if err != nil || typeGUID == uuid.Nil {
			continue
		}

		uniqueGUID, _ := uuid.FromBytes(row[gptEntryUUIDOff : gptEntryUUIDOff+16])
		start := binary.LittleEndian.Uint64(row[gptEntryStartLBAOff:])
		end := binary.LittleEndian.Uint64(row[gptEntryEndLBAOff:])

		ctx.SetValueString("PART_ENTRY_SCHEME", "gpt")
		ctx.SetValueString("PART_ENTRY_TYPE", typeGUID.String())
		ctx.SetValueString("PART_ENTRY_UUID", uniqueGUID.String())
		ctx.SetValueString("PART_ENTRY_NUMBER", strconv.FormatUint(uint64(i+1), 10))
		ctx.SetValueString("PART_ENTRY_OFFSET", strconv.FormatUint(start*sectorSize, 10))
		ctx.SetValueString("PART_ENTRY_SIZE", strconv.FormatUint((end-start+1)*sectorSize, 10))
		if name := decodeGPTName(row); name != "" {
			ctx.SetValueString("PART_ENTRY_NAME", name)
		}
		return
	}
}

// decodeGPTName decodes a GPT partition name: UTF-16LE, NUL-terminated
// or padded, gptEntryNameUnits code units wide.
func decodeGPTName(row []byte) string {
	raw := row[gptEntryNameOff : gptEntryNameOff+gptEntryNameUnits*2]
	units := make([]uint16, 0, gptEntryNameUnits)
	for i := 0; i < gptEntryNameUnits; i++ {
		u := binary.LittleEndian.Uint16(raw[i*2:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}
