// Package sdrfec reassembles I/Q sample superframes sent as fixed-size UDP
// datagrams and repairs lost datagrams with an erasure code.
//
// A superframe of K blocks is split across K data datagrams followed by up
// to M recovery datagrams. Block zero starts with a MetaData record that
// describes the stream. Any K distinct blocks of a superframe are enough to
// rebuild it; Buffer keeps a small ring of superframes in flight so that
// datagrams of neighbouring superframes may interleave.
package sdrfec

import (
	"fmt"

	"github.com/sdrfec/sdrfec/fec"
	"github.com/sdrfec/sdrfec/internal/fecwire"
	"github.com/sdrfec/sdrfec/internal/logging"
)

// Result describes the outcome of one WriteAndRead call.
type Result struct {
	Ready      bool     // a superframe was written to out
	N          int      // bytes written to out
	FrameIndex uint16   // superframe written to out
	Recovered  int      // data blocks rebuilt by the erasure decoder
	Meta       MetaData // latest metadata seen, last writer wins
	MetaValid  bool     // false until a metadata block has been seen
}

// Buffer is the superframe reassembly ring. It is not safe for concurrent
// use; wrap it in a SyncBuffer when datagrams arrive on several goroutines.
type Buffer struct {
	k, m  int
	codec fec.Codec
	log   logging.Logger

	slots []decoderSlot
	mask  int

	meta      MetaData
	metaValid bool

	stats counters
}

// NewBuffer allocates every slot up front; WriteAndRead never allocates on
// the common paths.
func NewBuffer(opts Options) (*Buffer, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	codec := opts.Codec
	if codec == nil {
		c, err := fec.New(opts.Scheme, opts.OriginalBlocks, opts.FECBlocks)
		if err != nil {
			return nil, fmt.Errorf("create %v codec: %w", opts.Scheme, err)
		}
		codec = c
	}
	n := opts.OriginalBlocks + opts.FECBlocks
	slotBytes := n * fecwire.BlockSize
	arena := make([]byte, opts.DecoderSlots*slotBytes)
	b := &Buffer{
		k:     opts.OriginalBlocks,
		m:     opts.FECBlocks,
		codec: codec,
		log:   opts.Logger,
		slots: make([]decoderSlot, opts.DecoderSlots),
		mask:  opts.DecoderSlots - 1,
	}
	for i := range b.slots {
		b.slots[i].init(arena[i*slotBytes:(i+1)*slotBytes], n)
	}
	return b, nil
}

// OriginalBlocks returns K.
func (b *Buffer) OriginalBlocks() int { return b.k }

// FECBlocks returns the largest number of recovery blocks accepted.
func (b *Buffer) FECBlocks() int { return b.m }

// FrameBytes returns the size of a reassembled superframe.
func (b *Buffer) FrameBytes() int { return FrameBytes(b.k) }

// CurrentMeta returns the latest metadata seen.
func (b *Buffer) CurrentMeta() (MetaData, bool) { return b.meta, b.metaValid }

// WriteAndRead offers one datagram to the buffer. When the datagram
// completes a superframe, its samples are written to out, which must hold
// at least FrameBytes bytes, and the Result is Ready. Each superframe is
// written at most once.
//
// A returned error concerns only this datagram or its superframe. Callers
// normally count it and carry on with the next datagram.
func (b *Buffer) WriteAndRead(datagram, out []byte) (Result, error) {
	b.stats.datagrams.Add(1)
	if len(out) < b.FrameBytes() {
		b.stats.shortBuffer.Add(1)
		return b.result(), ErrShortBuffer
	}
	hdr, payload, err := classify(datagram)
	if err != nil {
		b.stats.malformed.Add(1)
		return b.result(), err
	}
	idx := int(hdr.BlockIndex)
	if idx >= b.k+b.m {
		b.stats.badIndex.Add(1)
		return b.result(), ErrBlockIndex
	}
	s := b.slotFor(hdr.FrameIndex)
	if s == nil {
		b.stats.stale.Add(1)
		return b.result(), ErrStale
	}
	if s.has(idx) {
		b.stats.duplicates.Add(1)
		return b.result(), ErrDuplicate
	}
	if s.done {
		b.stats.late.Add(1)
		return b.result(), ErrLate
	}
	s.store(idx, payload, b.k)
	if idx == 0 {
		b.trackMeta(s.blocks[0])
	}
	if s.blockCount < b.k {
		return b.result(), nil
	}
	return b.emit(s, out)
}

// slotFor returns the slot bound to frame, rebinding it when frame is newer
// than its current occupant. It returns nil for frames older than the slot.
func (b *Buffer) slotFor(frame uint16) *decoderSlot {
	s := &b.slots[int(frame)&b.mask]
	switch {
	case s.bound && s.frameIndex == frame:
		return s
	case s.bound && !fecwire.FrameNewer(frame, s.frameIndex):
		return nil
	}
	if s.bound && !s.done {
		b.stats.abandoned.Add(1)
		if b.log.Enabled(logging.Debug) {
			b.log.Debug("superframe abandoned",
				logging.Int("frame", int(s.frameIndex)),
				logging.Int("blocks", s.blockCount),
				logging.Int("next", int(frame)))
		}
	}
	b.stats.rebinds.Add(1)
	s.reset(frame)
	return s
}

func (b *Buffer) trackMeta(block []byte) {
	var m MetaData
	if err := m.UnmarshalBinary(block); err != nil {
		return
	}
	if !b.metaValid || !m.Equal(b.meta) {
		b.stats.metaChanges.Add(1)
		b.log.Info("stream configuration", logging.Any("meta", m))
		if err := m.Check(b.k); err != nil {
			b.log.Warn("inconsistent metadata", logging.Err(err))
		}
	}
	b.meta = m
	b.metaValid = true
}

// emit finishes slot s: it runs the erasure decoder when data blocks are
// missing and copies the samples to out.
func (b *Buffer) emit(s *decoderSlot, out []byte) (Result, error) {
	s.done = true
	missing := b.k - s.originalCount
	if missing > 0 {
		metaMissing := !s.has(0)
		if err := b.codec.ReconstructData(s.blocks); err != nil {
			return b.drop(s, err)
		}
		for i := 0; i < b.k; i++ {
			if len(s.blocks[i]) != fecwire.BlockSize {
				return b.drop(s, fmt.Errorf("block %d not rebuilt", i))
			}
		}
		s.originalCount = b.k
		b.stats.decodes.Add(1)
		b.stats.recovered.Add(uint64(missing))
		if metaMissing {
			b.trackMeta(s.blocks[0])
		}
	}
	n := copy(out, s.blocks[0][fecwire.MetaLen:])
	for i := 1; i < b.k; i++ {
		n += copy(out[n:], s.blocks[i])
	}
	b.stats.frames.Add(1)
	res := b.result()
	res.Ready = true
	res.N = n
	res.FrameIndex = s.frameIndex
	res.Recovered = missing
	return res, nil
}

func (b *Buffer) drop(s *decoderSlot, cause error) (Result, error) {
	b.stats.unsolvable.Add(1)
	b.log.Warn("superframe dropped",
		logging.Int("frame", int(s.frameIndex)),
		logging.Int("original", s.originalCount),
		logging.Int("recovery", s.recoveryCount),
		logging.Err(cause))
	return b.result(), fmt.Errorf("%w: frame %d: %w", ErrUnsolvable, s.frameIndex, cause)
}

func (b *Buffer) result() Result {
	return Result{Meta: b.meta, MetaValid: b.metaValid}
}
