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
	"github.com/google/uuid"

	"github.com/snapcore/blkid/chain"
)

const swapPageSize = 4096

const (
	swapUUIDOffset  = 1036
	swapLabelOffset = 1052
	swapLabelLen    = 16
)

// Swap decodes a Linux swap header. The 10-byte signature sits in the
// last 10 bytes of the page the kernel treats as its page size; this
// driver assumes the common 4096-byte page the same way libblkid probes
// the common sizes first.
type Swap struct{}

func (Swap) Name() string { return "swap" }

func (Swap) Magics() []chain.Magic {
	return []chain.Magic{
		{Offset: swapPageSize - 10, Bytes: []byte("SWAPSPACE2")},
		{Offset: swapPageSize - 10, Bytes: []byte("SWAP-SPACE")},
	}
}

func (Swap) Tolerant() bool { return false }

func (Swap) Probe(ctx chain.Context) error {
	sig, err := ctx.GetBuffer(swapPageSize-10, 10)
	if err != nil {
		return chain.ErrNotApplicable
	}

	ctx.SetValueString("TYPE", "swap")

	if string(sig) == "SWAP-SPACE" {
		// Old-format swap headers carry no UUID/label.
		return nil
	}

	header, err := ctx.GetBuffer(0, swapPageSize)
	if err != nil {
		return nil
	}
	rawUUID := header[swapUUIDOffset : swapUUIDOffset+16]
	if id, err := uuid.FromBytes(rawUUID); err == nil && id != uuid.Nil {
		ctx.SetValueString("UUID", id.String())
	}
	label := header[swapLabelOffset : swapLabelOffset+swapLabelLen]
	ctx.SetValue("LABEL", trimNUL(label))
	return nil
}
