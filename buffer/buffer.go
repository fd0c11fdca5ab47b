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

// Package buffer implements the probing engine's buffer pool: a small
// set of read-only windows into a device, reused across decoders
// instead of re-reading the same bytes for every superblock/partition
// probe. It mirrors blkid_probe_get_buffer() in the original C library.
package buffer

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Region sizing mirrors libblkid's PROBE_MMAP_* constants: the
// beginning and end of the probing window are mapped in 2MiB chunks,
// everything in the middle in 1MiB chunks, so a handful of decoders
// probing nearby offsets share one mapping instead of one each.
const (
	BeginSize = 2 * 1024 * 1024
	EndSize   = 2 * 1024 * 1024
	MidSize   = 1 * 1024 * 1024
)

// Region is one acquired window of device bytes.
type Region struct {
	Offset int64
	Data   []byte

	mmapped bool
}

// Pool owns the regions acquired for a single device handle. It is not
// safe for concurrent use, matching the rest of the probing engine.
type Pool struct {
	file   *os.File
	size   int64
	direct bool // true once mmap has failed once; fall back to pread for the life of the pool
	regions []*Region
}

// New creates a pool over f, whose device/file size is size bytes.
func New(f *os.File, size int64) *Pool {
	return &Pool{file: f, size: size}
}

// Close releases every mmap-backed region. pread-backed regions hold no
// external resource and need no cleanup.
func (p *Pool) Close() error {
	var firstErr error
	for _, r := range p.regions {
		if r.mmapped {
			if err := unix.Munmap(r.Data); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	p.regions = nil
	return firstErr
}

// Reset discards every acquired region without closing the underlying
// file, used when a probe is reset for reuse (reset_probe in the C
// source).
func (p *Pool) Reset() {
	p.Close()
}

// GetBuffer returns size bytes starting at off, reusing an already
// acquired region when it fully encloses the request (no eviction: the
// pool only grows for the life of the handle, exactly as upstream).
func (p *Pool) GetBuffer(off, size int64) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("buffer: invalid size %d", size)
	}
	if off < 0 || off+size > p.size {
		return nil, fmt.Errorf("buffer: region [%d,%d) out of device bounds (size %d)", off, off+size, p.size)
	}

	for _, r := range p.regions {
		if off >= r.Offset && off+size <= r.Offset+int64(len(r.Data)) {
			start := off - r.Offset
			return r.Data[start : start+size], nil
		}
	}

	region, err := p.acquire(off, size)
	if err != nil {
		return nil, err
	}
	p.regions = append(p.regions, region)
	start := off - region.Offset
	return region.Data[start : start+size], nil
}

// acquire maps or reads a region large enough to cover [off, off+size),
// rounded to the chunk size appropriate for its position in the device.
func (p *Pool) acquire(off, size int64) (*Region, error) {
	chunk := p.chunkSize(off)
	regionOff := (off / chunk) * chunk
	regionEnd := regionOff + chunk
	for regionEnd < off+size {
		regionEnd += chunk
	}
	if regionEnd > p.size {
		regionEnd = p.size
	}
	regionLen := regionEnd - regionOff

	if !p.direct {
		data, err := unix.Mmap(int(p.file.Fd()), regionOff, int(regionLen), unix.PROT_READ, unix.MAP_PRIVATE)
		if err == nil {
			return &Region{Offset: regionOff, Data: data, mmapped: true}, nil
		}
		// mmap is unavailable (e.g. non-seekable or non-regular file,
		// or a platform without it wired up); degrade to pread for
		// every subsequent acquisition rather than retrying each time.
		p.direct = true
	}

	data := make([]byte, regionLen)
	if _, err := p.file.ReadAt(data, regionOff); err != nil {
		return nil, fmt.Errorf("buffer: read at %d: %w", regionOff, err)
	}
	return &Region{Offset: regionOff, Data: data}, nil
}

func (p *Pool) chunkSize(off int64) int64 {
	switch {
	case off < BeginSize:
		return BeginSize
	case p.size-off <= EndSize:
		return EndSize
	default:
		return MidSize
	}
}
