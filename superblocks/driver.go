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

// Package superblocks holds the filesystem/volume-manager superblock
// decoders. The catalogue is a plain slice, the same data-driven
// approach the reference Chain implementation in the ecosystem uses
// instead of an inheritance hierarchy: adding a format means appending
// a value here, not touching the probing engine.
package superblocks

import "github.com/snapcore/blkid/chain"

// Driver is the static catalogue of superblock decoders, in the probe
// order the engine tries them.
var Driver = []chain.Decoder{
	Ext{},
	Xfs{},
	Swap{},
	Lvm2{},
}
