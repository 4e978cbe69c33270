package sdrfec

import "sync/atomic"

// Stats is a snapshot of the counters kept by a Buffer or Receiver.
type Stats struct {
	Datagrams    uint64 // datagrams offered
	Malformed    uint64 // wrong size
	BadIndex     uint64 // block index beyond K+M
	Stale        uint64 // superframe already evicted from its slot
	Duplicates   uint64
	Late         uint64 // new block for a superframe already emitted or dropped
	ShortBuffer  uint64
	Rebinds      uint64 // slots bound to a new superframe
	Abandoned    uint64 // superframes evicted before they could be decoded
	Frames       uint64 // superframes emitted
	Decodes      uint64 // emitted superframes that needed the erasure decoder
	Recovered    uint64 // data blocks rebuilt
	Unsolvable   uint64 // superframes dropped after a failed decode
	MetaChanges  uint64 // stream configuration changes, including the first
	IngressDrops uint64 // datagrams dropped because the ingress ring was full
	ReadErrors   uint64
}

// counters are updated by the single goroutine driving the Buffer and read
// from any goroutine through Stats.
type counters struct {
	datagrams   atomic.Uint64
	malformed   atomic.Uint64
	badIndex    atomic.Uint64
	stale       atomic.Uint64
	duplicates  atomic.Uint64
	late        atomic.Uint64
	shortBuffer atomic.Uint64
	rebinds     atomic.Uint64
	abandoned   atomic.Uint64
	frames      atomic.Uint64
	decodes     atomic.Uint64
	recovered   atomic.Uint64
	unsolvable  atomic.Uint64
	metaChanges atomic.Uint64
}

// Stats may be called concurrently with WriteAndRead.
func (b *Buffer) Stats() Stats {
	c := &b.stats
	return Stats{
		Datagrams:   c.datagrams.Load(),
		Malformed:   c.malformed.Load(),
		BadIndex:    c.badIndex.Load(),
		Stale:       c.stale.Load(),
		Duplicates:  c.duplicates.Load(),
		Late:        c.late.Load(),
		ShortBuffer: c.shortBuffer.Load(),
		Rebinds:     c.rebinds.Load(),
		Abandoned:   c.abandoned.Load(),
		Frames:      c.frames.Load(),
		Decodes:     c.decodes.Load(),
		Recovered:   c.recovered.Load(),
		Unsolvable:  c.unsolvable.Load(),
		MetaChanges: c.metaChanges.Load(),
	}
}
