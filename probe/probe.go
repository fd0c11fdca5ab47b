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

// Package probe implements the probing-engine orchestration: it owns a
// device handle's buffer pool and value store, and drives the
// superblocks/topology/partitions chains across it. It corresponds to
// blkid_probe and the do_probe/do_safeprobe/do_fullprobe family in the
// original C library.
package probe

import (
	"errors"
	"fmt"
	"os"

	"github.com/snapcore/blkid/buffer"
	"github.com/snapcore/blkid/chain"
	"github.com/snapcore/blkid/config"
	"github.com/snapcore/blkid/logger"
	"github.com/snapcore/blkid/osutil"
	"github.com/snapcore/blkid/partitions"
	"github.com/snapcore/blkid/superblocks"
	"github.com/snapcore/blkid/topology"
	"github.com/snapcore/blkid/value"
)

// ErrInvalid marks structural misuse of the API (no device set, unknown
// chain name), the "-1/EINVAL" channel in the original two-level error
// taxonomy.
var ErrInvalid = errors.New("probe: invalid argument")

// ErrNotApplicable is re-exported from chain so callers never need to
// import both packages to classify a "no result" outcome; it is the
// "return 1" channel of the original API.
var ErrNotApplicable = chain.ErrNotApplicable

// ErrAmbivalent is re-exported from chain for the same reason.
var ErrAmbivalent = chain.ErrAmbivalent

type wiperRecord struct {
	offset, size int64
	chain        string // chain that declared this wiper, via SetWiper
}

// chainOrder is the fixed enumeration order every pass (stepwise or
// batch) visits chains in: superblocks first, so a decoder like lvm2
// can declare a wiper before partitions ever looks at the same bytes.
var chainOrder = []string{"superblocks", "topology", "partitions"}

// Probe is a single probing session against one device window. It is
// not safe for concurrent use, matching the rest of the library.
type Probe struct {
	file   *os.File
	offset int64 // absolute byte offset of this probe's window
	length int64 // length of this probe's window
	devno  uint64

	sectorSize     uint32
	physSectorSize uint32
	ioMinSize      uint32

	pool  *buffer.Pool
	store value.Store

	topologyChain *chain.Chain
	partitions    *chain.Chain
	superblocks   *chain.Chain

	// chainIdx is the probe-level "current chain" pointer used by the
	// stepwise Probe(): an index into chainOrder, persisted across calls
	// so each call picks up exactly where the last one left off.
	chainIdx int

	currentChain string
	lastWinner   map[string]string
	// lastMagic records, per chain, the byte region of the decoder that
	// won that chain's last run - the SBMAGIC/PTMAGIC location DoWipe
	// targets. It is distinct from declaredWiper, which is the separate
	// conflict-resolution mechanism a decoder opts into explicitly.
	lastMagic map[string]wiperRecord

	declaredWiper *wiperRecord
	parent        *Probe
}

// New builds an idle Probe with the default decoder catalogues. Call
// SetDevice before probing.
func New() *Probe {
	return &Probe{
		topologyChain: chain.New("topology", topology.Driver),
		partitions:    chain.New("partitions", partitions.Driver),
		superblocks:   chain.New("superblocks", superblocks.Driver),
		lastWinner:    map[string]string{},
		lastMagic:     map[string]wiperRecord{},
	}
}

// SetDevice attaches f as the probing target. length <= 0 means "to the
// end of the device". Calling SetDevice again resets all prior results,
// mirroring blkid_probe_set_device's full reinitialization.
func (p *Probe) SetDevice(f *os.File, offset, length int64) error {
	if f == nil {
		return fmt.Errorf("%w: nil file", ErrInvalid)
	}
	p.Reset()
	if p.pool != nil {
		p.pool.Close()
	}

	info, err := f.Stat()
	if err != nil {
		return err
	}
	whole := info.Size()
	if sz, err := osutil.BlockDeviceSize(f); err == nil && sz > 0 {
		whole = int64(sz)
	}
	if length <= 0 {
		length = whole - offset
	}

	sector, err := osutil.BlockSectorSize(f)
	if err != nil {
		logger.Debugf("probe: BLKSSZGET failed, assuming 512-byte sectors: %v", err)
		sector = 512
	}

	p.file = f
	p.offset = offset
	p.length = length
	p.pool = buffer.New(f, whole)
	p.sectorSize = sector
	p.physSectorSize = sector
	p.ioMinSize = osutil.BlockIOMinSize(f, sector)
	return nil
}

// AttachConfig installs cfg's probeoff list as a NOT-IN type filter on
// the superblocks chain, matching the original library's behavior when
// a Configuration is attached to a Probe. It does not retain cfg.
func (p *Probe) AttachConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	for _, name := range cfg.ProbeOff {
		p.superblocks.Disable(name)
	}
}

// SetDevNo records the device number associated with this probe,
// carried separately from SetDevice because it usually comes from a
// stat() on the path rather than the open file descriptor.
func (p *Probe) SetDevNo(devno uint64) { p.devno = devno }

// DevNo returns the device number set via SetDevNo.
func (p *Probe) DevNo() uint64 { return p.devno }

// Offset and Size expose the probing window, per the data model.
func (p *Probe) Offset() int64 { return p.offset }
func (p *Probe) WindowSize() int64 { return p.length }

// Reset clears every probing result and releases acquired buffers
// without closing the device, matching reset_probe(). Every chain's
// cursor returns to -1 and the stepwise current-chain pointer returns
// to the first chain in the fixed enumeration order.
func (p *Probe) Reset() {
	p.store.Reset()
	p.lastWinner = map[string]string{}
	p.lastMagic = map[string]wiperRecord{}
	p.declaredWiper = nil
	p.chainIdx = 0
	p.superblocks.ResetCursor()
	p.topologyChain.ResetCursor()
	p.partitions.ResetCursor()
	if p.pool != nil {
		p.pool.Reset()
	}
}

// Clone creates a new Probe sharing this probe's device and buffer
// pool. Buffer requests on the clone delegate straight to the parent's
// pool (the same *buffer.Pool value, not a copy) so bytes the parent
// already read are reused instead of re-acquired.
func (p *Probe) Clone() *Probe {
	return &Probe{
		file:           p.file,
		offset:         p.offset,
		length:         p.length,
		devno:          p.devno,
		sectorSize:     p.sectorSize,
		physSectorSize: p.physSectorSize,
		ioMinSize:      p.ioMinSize,
		pool:           p.pool,
		topologyChain:  chain.New("topology", topology.Driver),
		partitions:     chain.New("partitions", partitions.Driver),
		superblocks:    chain.New("superblocks", superblocks.Driver),
		lastWinner:     map[string]string{},
		lastMagic:      map[string]wiperRecord{},
		parent:         p,
	}
}

// Superblocks, Partitions and Topology expose the per-probe chains so
// callers can enable/disable or filter individual decoders before
// probing.
func (p *Probe) Superblocks() *chain.Chain { return p.superblocks }
func (p *Probe) Partitions() *chain.Chain  { return p.partitions }
func (p *Probe) Topology() *chain.Chain    { return p.topologyChain }

// Probe advances the probing state machine by exactly one decoder step,
// matching do_probe(): call it repeatedly and it walks the fixed chain
// enumeration order (superblocks, topology, partitions), one match per
// call, picking up from wherever the previous call (or StepBack) left
// off. Once every chain is exhausted it returns ErrNotApplicable and
// keeps returning it until Reset (reset_probe) runs.
func (p *Probe) Probe() error {
	if p.file == nil {
		return fmt.Errorf("%w: no device set", ErrInvalid)
	}
	for p.chainIdx < len(chainOrder) {
		name := chainOrder[p.chainIdx]
		ch, err := p.chainByName(name)
		if err != nil {
			return err
		}
		if !ch.Enabled() {
			p.chainIdx++
			continue
		}

		p.currentChain = name
		d, m, hasMagic, err := ch.Step(p)
		p.currentChain = ""

		switch {
		case err == nil:
			p.lastWinner[name] = d.Name()
			p.recordMagicFromStep(name, m, hasMagic)
			return nil
		case errors.Is(err, ErrNotApplicable):
			p.chainIdx++
		default:
			return err
		}
	}
	return ErrNotApplicable
}

// SafeProbe runs one cautious pass over every enabled chain, matching
// do_safeprobe(): an ambivalent chain returns ErrAmbivalent instead of
// guessing. Unlike Probe, this is a one-shot batch operation: each
// chain's cursor is reset before it runs.
func (p *Probe) SafeProbe() error {
	return p.run(true)
}

// FullProbe runs every enabled chain and never itself returns
// ErrNotApplicable: a device with no recognizable content at all is not
// an error, it is simply an empty value set. Ambivalent results are
// still reported, matching do_fullprobe()'s use of the safe path.
func (p *Probe) FullProbe() error {
	err := p.run(true)
	if errors.Is(err, ErrNotApplicable) {
		return nil
	}
	return err
}

// run is the batch (do_safeprobe/do_fullprobe) implementation: every
// enabled chain is visited once, in the fixed enumeration order
// (superblocks, topology, partitions), each starting from a freshly
// reset cursor.
func (p *Probe) run(safe bool) error {
	if p.file == nil {
		return fmt.Errorf("%w: no device set", ErrInvalid)
	}

	var anyMatch bool

	if p.superblocks.Enabled() {
		p.superblocks.ResetCursor()
		p.currentChain = "superblocks"
		var winner chain.Decoder
		var err error
		if safe {
			winner, err = p.superblocks.RunSafe(p)
		} else {
			winner, err = p.superblocks.RunFirst(p)
		}
		switch {
		case err == nil:
			anyMatch = true
			p.lastWinner["superblocks"] = winner.Name()
			p.recordMagic("superblocks", winner)
		case errors.Is(err, ErrNotApplicable):
			// no match in this chain, fine
		default:
			p.currentChain = ""
			return err
		}
	}

	if p.topologyChain.Enabled() {
		p.topologyChain.ResetCursor()
		p.currentChain = "topology"
		if _, err := p.topologyChain.RunFirst(p); err == nil {
			anyMatch = true
		} else if !errors.Is(err, ErrNotApplicable) {
			p.currentChain = ""
			return err
		}
	}

	if p.partitions.Enabled() {
		p.partitions.ResetCursor()
		p.currentChain = "partitions"
		matched, err := p.partitions.RunAll(p)
		if err != nil {
			p.currentChain = ""
			return err
		}
		if len(matched) > 0 {
			anyMatch = true
			winner := matched[len(matched)-1]
			p.lastWinner["partitions"] = winner.Name()
			p.recordMagic("partitions", winner)
		}
	}

	p.currentChain = ""

	if !anyMatch {
		return ErrNotApplicable
	}
	return nil
}

// StepBack discards the named chain's current result and re-probes it
// excluding the decoder that won last time, letting a caller walk
// through every matching decoder instead of only the first. It also
// retreats the chain's cursor, so a subsequent Probe() call resumes
// from the right position instead of assuming the chain already ran to
// completion.
func (p *Probe) StepBack(chainName string) error {
	ch, err := p.chainByName(chainName)
	if err != nil {
		return err
	}
	winner, ok := p.lastWinner[chainName]
	if !ok {
		return fmt.Errorf("%w: chain %q has no prior result", ErrInvalid, chainName)
	}

	p.store.ResetChain(chainName)
	delete(p.lastWinner, chainName)
	if p.pool != nil {
		p.pool.Reset() // signatures may have just been erased (e.g. by DoWipe)
	}
	ch.Retreat()

	p.currentChain = chainName
	d, m, hasMagic, err := ch.StepExcept(p, map[string]bool{winner: true})
	p.currentChain = ""
	if err != nil {
		return err
	}
	p.lastWinner[chainName] = d.Name()
	p.recordMagicFromStep(chainName, m, hasMagic)
	return nil
}

// recordMagic remembers the on-disk location of the magic signature
// that made winner a candidate, so a later DoWipe knows exactly which
// bytes to erase. A decoder with several magic entries is recorded by
// its first; in this catalogue only Swap declares two, both of the same
// length at the same offset. Used
// by the batch (RunFirst/RunSafe/RunAll) path.
func (p *Probe) recordMagic(chainName string, winner chain.Decoder) {
	magics := winner.Magics()
	if len(magics) == 0 {
		delete(p.lastMagic, chainName)
		return
	}
	p.lastMagic[chainName] = wiperRecord{offset: magics[0].Offset, size: int64(len(magics[0].Bytes))}
}

// recordMagicFromStep is recordMagic's stepwise-path sibling: it uses
// the exact Magic a Step call matched on rather than re-deriving it
// from the decoder's static catalogue entry.
func (p *Probe) recordMagicFromStep(chainName string, m chain.Magic, hasMagic bool) {
	if !hasMagic {
		delete(p.lastMagic, chainName)
		return
	}
	p.lastMagic[chainName] = wiperRecord{offset: m.Offset, size: int64(len(m.Bytes))}
}

func (p *Probe) chainByName(name string) (*chain.Chain, error) {
	switch name {
	case "topology":
		return p.topologyChain, nil
	case "partitions":
		return p.partitions, nil
	case "superblocks":
		return p.superblocks, nil
	default:
		return nil, fmt.Errorf("%w: unknown chain %q", ErrInvalid, name)
	}
}

// UseWiper is called by a chain immediately after a decoder's own
// magic signature matches, giving the probe a chance to discard that
// chain's results if they fall inside a region an earlier chain (e.g.
// lvm2 in superblocks) already declared wiped via SetWiper. Unlike the
// wiper-declaring decoder itself, which is never reset by its own
// declaration, a later decoder whose matched bytes actually overlap
// the declared region is stale and is dropped.
func (p *Probe) UseWiper(offset, size int64) {
	if p.declaredWiper == nil {
		return
	}
	if p.currentChain == p.declaredWiper.chain {
		return
	}
	if offset >= p.declaredWiper.offset+p.declaredWiper.size || offset+size <= p.declaredWiper.offset {
		return
	}
	logger.Debugf("probe: %s magic at [%d,%d) overlaps wiper declared by %s over [%d,%d), discarding %s chain results",
		p.currentChain, offset, offset+size, p.declaredWiper.chain,
		p.declaredWiper.offset, p.declaredWiper.offset+p.declaredWiper.size, p.currentChain)
	p.store.ResetChain(p.currentChain)
}

// IsWiped reports whether [offset, offset+size) overlaps the region a
// decoder declared wiped via SetWiper, if any.
func (p *Probe) IsWiped(offset, size int64) bool {
	if p.declaredWiper == nil {
		return false
	}
	return offset < p.declaredWiper.offset+p.declaredWiper.size && offset+size > p.declaredWiper.offset
}

// DoWipe implements the narrow write path: it zeroes the magic bytes of
// the superblocks chain's last result or, when superblocks has none, of
// the partitions chain's (matching the common "identify, then wipe the
// filesystem signature" workflow) and steps that chain back so the
// next Probe call re-examines the same slot - needed for backup
// superblocks that would otherwise still match. With dryRun set, it
// only validates that a wipeable result exists and writes nothing.
func (p *Probe) DoWipe(dryRun bool) error {
	chainName := "superblocks"
	region, ok := p.lastMagic[chainName]
	if !ok {
		chainName = "partitions"
		region, ok = p.lastMagic[chainName]
	}
	if !ok {
		return ErrNotApplicable
	}
	if dryRun {
		return nil
	}

	zeros := make([]byte, region.size)
	if _, err := p.file.WriteAt(zeros, p.offset+region.offset); err != nil {
		return err
	}
	if err := p.file.Sync(); err != nil {
		return err
	}
	delete(p.lastMagic, chainName)
	return p.StepBack(chainName)
}

// Value looks up a single emitted tag.
func (p *Probe) Value(name string) (string, bool) {
	v, ok := p.store.Lookup(name)
	if !ok {
		return "", false
	}
	return v.String(), true
}

// Values returns every tag emitted so far, across all chains.
func (p *Probe) Values() []*value.Value {
	return p.store.All()
}

// chain.Context implementation.

func (p *Probe) GetBuffer(off, size int64) ([]byte, error) {
	return p.pool.GetBuffer(p.offset+off, size)
}

func (p *Probe) Size() int64 { return p.length }

func (p *Probe) SetValue(name string, data []byte) {
	p.store.Append(p.currentChain, name, data)
}

func (p *Probe) SetValueString(name, data string) {
	p.store.AppendString(p.currentChain, name, data)
}

func (p *Probe) SetWiper(offset, size int64) {
	p.declaredWiper = &wiperRecord{offset: offset, size: size, chain: p.currentChain}
}

// topology.SectorSizer implementation.

func (p *Probe) LogicalSectorSize() uint32  { return p.sectorSize }
func (p *Probe) PhysicalSectorSize() uint32 { return p.physSectorSize }
func (p *Probe) MinimumIOSize() uint32      { return p.ioMinSize }
