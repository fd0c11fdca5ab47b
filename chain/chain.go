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

// Package chain defines the Decoder contract format drivers implement
// and the Chain type that holds an ordered, filterable catalogue of
// them. It has no knowledge of any specific filesystem or partition
// table; superblocks, partitions and topology each build their own
// catalogue out of Decoder values.
package chain

import "errors"

// ErrNotApplicable is returned by Probe when the decoder's magic
// matched but on closer inspection the region does not hold an
// instance of what it detects; the chain continues to the next
// candidate rather than treating this as failure.
var ErrNotApplicable = errors.New("chain: not applicable")

// Magic is a fixed-offset byte signature a Decoder claims to detect
// before it is asked to do a full probe, the same "idmag" shortcut
// libblkid uses to avoid invoking every decoder on every byte range.
type Magic struct {
	Offset int64
	Bytes  []byte
}

// Context is the probing-engine surface a Decoder needs: buffered
// access to the device and a place to record results. *probe.Probe
// implements it; it is defined here, not in package probe, so decoder
// packages never import probe and no import cycle exists.
type Context interface {
	GetBuffer(off, size int64) ([]byte, error)
	Size() int64
	SetValue(name string, data []byte)
	SetValueString(name, data string)
	SetWiper(offset, size int64)

	// UseWiper is called by the chain immediately after a decoder whose
	// own magic carries offset/size succeeds, letting the engine decide
	// whether that signature overlaps a region an earlier, unrelated
	// decoder already declared wiped (set_wiper/use_wiper).
	UseWiper(offset, size int64)
}

// Decoder is the interface every format driver (superblock, partition
// table or topology descriptor) implements.
type Decoder interface {
	// Name is the driver's short identifier, used by Chain.Disable and
	// StepExcept to select decoders. It is not necessarily the TYPE value
	// the decoder emits (Ext is named "ext" and emits TYPE=ext4).
	Name() string

	// Magics lists the byte signatures that make this decoder a
	// candidate at a given offset. A decoder with no magics (e.g. the
	// topology descriptor) is always a candidate.
	Magics() []Magic

	// Tolerant decoders coexist with other results in the same chain:
	// RunAll keeps probing after a tolerant match instead of stopping,
	// and RunSafe does not count tolerant candidates towards ambivalence
	// (used by dos and gpt, which share a disk with a protective MBR).
	Tolerant() bool

	// Probe performs the full inspection once a magic candidate (or, for
	// magic-less decoders, every probe) is selected. Implementations
	// return ErrNotApplicable when the signature turned out to be a
	// false positive.
	Probe(ctx Context) error
}

// Chain is a fixed, ordered, filterable catalogue of decoders for one
// probing concern (superblocks, partitions, topology).
type Chain struct {
	Name     string
	Decoders []Decoder

	enabled bool
	disable map[string]bool

	// cursor is the index, within the chain's current candidate list, of
	// the last decoder Step examined. -1 means "before first". It is
	// what lets do_probe be called repeatedly instead of running the
	// whole chain to completion in one call; ResetCursor restores it to
	// -1 on filter changes, chain reset, and the start of a new pass.
	cursor int
}

// New builds a Chain from a static decoder catalogue, enabled by
// default.
func New(name string, decoders []Decoder) *Chain {
	return &Chain{Name: name, Decoders: decoders, enabled: true, cursor: -1}
}

// SetEnabled toggles whether RunFirst/RunAll consider this chain at
// all, mirroring blkid_probe_enable_superblocks() and friends.
func (c *Chain) SetEnabled(on bool) {
	c.enabled = on
}

// Enabled reports the chain's enabled flag.
func (c *Chain) Enabled() bool {
	return c.enabled
}

// Disable filters a named decoder out of this chain's candidate list
// (probe-off), without removing it from the static catalogue.
func (c *Chain) Disable(name string) {
	if c.disable == nil {
		c.disable = make(map[string]bool)
	}
	c.disable[name] = true
	c.ResetCursor()
}

// Cursor reports the chain's current position, -1 meaning "before
// first decoder".
func (c *Chain) Cursor() int {
	return c.cursor
}

// ResetCursor rewinds the chain to "before first", as reset_probe does
// to every chain.
func (c *Chain) ResetCursor() {
	c.cursor = -1
}

// Retreat moves the cursor back one position, used by step_back to
// make the decoder at (or before) the current position eligible for
// re-examination on the next Step, typically after its magic bytes
// were rewritten by do_wipe.
func (c *Chain) Retreat() {
	if c.cursor > -1 {
		c.cursor--
	}
}

func (c *Chain) filtered(d Decoder) bool {
	return c.disable != nil && c.disable[d.Name()]
}

// MaxMagicSize returns the largest byte span any decoder's magic
// signatures need, telling the buffer pool how much to read up front.
func (c *Chain) MaxMagicSize() int64 {
	var max int64
	for _, d := range c.Decoders {
		for _, m := range d.Magics() {
			end := m.Offset + int64(len(m.Bytes))
			if end > max {
				max = end
			}
		}
	}
	return max
}

// candidate pairs a decoder that is eligible to run with the magic
// entry (if any) that made it eligible, so the chain can tell the
// Context the exact byte region a successful decoder matched on.
type candidate struct {
	decoder  Decoder
	magic    Magic
	hasMagic bool
}

// candidates returns the decoders whose magic matches at the current
// buffer contents, in catalogue order, or every non-filtered decoder
// when it carries no magic signatures at all.
func (c *Chain) candidates(ctx Context) ([]candidate, error) {
	var out []candidate
	for _, d := range c.Decoders {
		if c.filtered(d) {
			continue
		}
		magics := d.Magics()
		if len(magics) == 0 {
			out = append(out, candidate{decoder: d})
			continue
		}
		for _, m := range magics {
			buf, err := ctx.GetBuffer(m.Offset, int64(len(m.Bytes)))
			if err != nil {
				continue // short device, this signature cannot be present
			}
			if bytesEqual(buf, m.Bytes) {
				out = append(out, candidate{decoder: d, magic: m, hasMagic: true})
				break
			}
		}
	}
	return out, nil
}

// Step advances the cursor from the candidate after it, probing each
// in turn and skipping those that return ErrNotApplicable, until one
// succeeds; it returns at most one match per call. It returns that
// decoder and the magic entry that made it eligible (hasMagic is false for magic-less decoders, e.g. topology).
// A successful magic-bearing match immediately calls ctx.UseWiper so
// the wiper heuristic is applied at the exact point a signature is
// seen, not as a later bolt-on pass. Once every candidate has been
// tried this returns ErrNotApplicable and keeps returning it until
// ResetCursor runs, matching do_probe's "exhausted" behavior.
func (c *Chain) Step(ctx Context) (Decoder, Magic, bool, error) {
	return c.StepExcept(ctx, nil)
}

// StepExcept behaves like Step but skips any decoder named in except,
// used by StepBack to retry a chain without the decoder that won last
// time.
func (c *Chain) StepExcept(ctx Context, except map[string]bool) (Decoder, Magic, bool, error) {
	if !c.enabled {
		return nil, Magic{}, false, ErrNotApplicable
	}
	candidates, err := c.candidates(ctx)
	if err != nil {
		return nil, Magic{}, false, err
	}
	for c.cursor+1 < len(candidates) {
		c.cursor++
		cand := candidates[c.cursor]
		if except != nil && except[cand.decoder.Name()] {
			continue
		}
		err := cand.decoder.Probe(ctx)
		if err == nil {
			if cand.hasMagic {
				ctx.UseWiper(cand.magic.Offset, int64(len(cand.magic.Bytes)))
			}
			return cand.decoder, cand.magic, cand.hasMagic, nil
		}
		if !errors.Is(err, ErrNotApplicable) {
			return nil, Magic{}, false, err
		}
	}
	return nil, Magic{}, false, ErrNotApplicable
}

// RunFirst probes candidates in order, starting from the chain's
// cursor, and stops at the first decoder whose Probe succeeds,
// matching BLKID_PROBE_NONE-filter semantics (do_probe's single-result
// chain mode). Callers that want a full from-scratch pass call
// ResetCursor first.
func (c *Chain) RunFirst(ctx Context) (Decoder, error) {
	return c.RunFirstExcept(ctx, nil)
}

// RunFirstExcept behaves like RunFirst but skips any decoder named in
// except, used by StepBack to retry a chain without the decoder that
// won last time.
func (c *Chain) RunFirstExcept(ctx Context, except map[string]bool) (Decoder, error) {
	d, _, _, err := c.StepExcept(ctx, except)
	return d, err
}

// ErrAmbivalent is returned by RunSafe when more than one non-tolerant
// decoder's magic matches the same probing window: the safe-probe
// contract refuses to guess between them.
var ErrAmbivalent = errors.New("chain: ambivalent result")

// RunSafe is RunFirst's cautious sibling: if more than one non-tolerant
// candidate claims the window, it reports ErrAmbivalent instead of
// running any of them, matching do_safeprobe's refusal to pick a winner
// by probe order alone. Tolerant candidates never count towards that.
func (c *Chain) RunSafe(ctx Context) (Decoder, error) {
	if !c.enabled {
		return nil, ErrNotApplicable
	}
	candidates, err := c.candidates(ctx)
	if err != nil {
		return nil, err
	}
	intolerant := 0
	for _, cand := range candidates {
		if !cand.decoder.Tolerant() {
			intolerant++
		}
	}
	if intolerant > 1 {
		return nil, ErrAmbivalent
	}
	return c.RunFirst(ctx)
}

// RunAll probes every candidate from the chain's cursor onward, used by
// chains that tolerate multiple simultaneous results (e.g. lvm2
// coexisting with a wiped MBR).
func (c *Chain) RunAll(ctx Context) ([]Decoder, error) {
	if !c.enabled {
		return nil, nil
	}
	var matched []Decoder
	for {
		d, _, _, err := c.Step(ctx)
		if err == nil {
			matched = append(matched, d)
			if !d.Tolerant() {
				break
			}
			continue
		}
		if errors.Is(err, ErrNotApplicable) {
			break
		}
		return matched, err
	}
	return matched, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
