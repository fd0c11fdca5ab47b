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

package osutil

import (
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// cdromGetCapability is CDROM_GET_CAPABILITY, not exported by
// golang.org/x/sys/unix.
const cdromGetCapability = 0x5331

// BlockDeviceSize returns the device size in bytes via BLKGETSIZE64.
func BlockDeviceSize(f *os.File) (uint64, error) {
	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size)))
	runtime.KeepAlive(f)
	if errno != 0 {
		return 0, errno
	}
	return size, nil
}

// BlockSectorSize returns the logical sector size via BLKSSZGET,
// falling back to 512 when the ioctl is not supported.
func BlockSectorSize(f *os.File) (uint32, error) {
	var size int32
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKSSZGET, uintptr(unsafe.Pointer(&size)))
	runtime.KeepAlive(f)
	if errno != 0 {
		return 512, errno
	}
	if size <= 0 {
		return 512, nil
	}
	return uint32(size), nil
}

// BlockIOMinSize returns the minimum I/O size via BLKIOMIN, falling back
// to the sector size when unsupported.
func BlockIOMinSize(f *os.File, sectorSize uint32) uint32 {
	var size int32
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKIOMIN, uintptr(unsafe.Pointer(&size)))
	runtime.KeepAlive(f)
	if errno != 0 || size <= 0 || size&(size-1) != 0 {
		return sectorSize
	}
	return uint32(size)
}

// IsCDROM reports whether fd refers to a CD-ROM device, via the
// CDROM_GET_CAPABILITY ioctl. Non-CD-ROM devices (including regular
// files used in tests) simply fail the ioctl, which is treated as
// "false" rather than an error.
func IsCDROM(f *os.File) bool {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), cdromGetCapability, 0)
	runtime.KeepAlive(f)
	return errno == 0
}
