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

const (
	xfsUUIDOffset  = 32
	xfsFnameOffset = 108
	xfsFnameLen    = 12
)

// Xfs decodes an XFS primary superblock, always at the start of the
// filesystem.
type Xfs struct{}

func (Xfs) Name() string { return "xfs" }

func (Xfs) Magics() []chain.Magic {
	return []chain.Magic{{Offset: 0, Bytes: []byte("XFSB")}}
}

func (Xfs) Tolerant() bool { return false }

func (Xfs) Probe(ctx chain.Context) error {
	sb, err := ctx.GetBuffer(0, 128)
	if err != nil {
		return chain.ErrNotApplicable
	}

	ctx.SetValueString("TYPE", "xfs")

	rawUUID := sb[xfsUUIDOffset : xfsUUIDOffset+16]
	if id, err := uuid.FromBytes(rawUUID); err == nil && id != uuid.Nil {
		ctx.SetValueString("UUID", id.String())
	}

	label := sb[xfsFnameOffset : xfsFnameOffset+xfsFnameLen]
	ctx.SetValue("LABEL", trimNUL(label))

	return nil
}
