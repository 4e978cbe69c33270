package sdrfec

import (
	"fmt"

	"github.com/sdrfec/sdrfec/fec"
	"github.com/sdrfec/sdrfec/internal/fecwire"
)

// Framer is the sending side of a Buffer: it cuts a sample stream into
// superframes and protects each one with recovery blocks.
type Framer struct {
	k, m       int
	codec      fec.Codec
	frameIndex uint16

	dgrams [][]byte // k+m datagrams over one arena, reused by every Frame call
	shards [][]byte // block views of dgrams handed to the codec
}

// NewFramer returns a Framer producing k data and m recovery datagrams per
// superframe.
func NewFramer(k, m int, scheme fec.Scheme) (*Framer, error) {
	if k <= 0 || k > maxOriginalBlocks {
		return nil, fmt.Errorf("original blocks must be in 1..%d, got %d", maxOriginalBlocks, k)
	}
	codec, err := fec.New(scheme, k, m)
	if err != nil {
		return nil, fmt.Errorf("create %v codec: %w", scheme, err)
	}
	n := k + m
	arena := make([]byte, n*fecwire.DatagramSize)
	f := &Framer{
		k:      k,
		m:      m,
		codec:  codec,
		dgrams: make([][]byte, n),
		shards: make([][]byte, n),
	}
	for i := range f.dgrams {
		f.dgrams[i] = arena[i*fecwire.DatagramSize : (i+1)*fecwire.DatagramSize]
		f.shards[i] = f.dgrams[i][fecwire.HeaderLen:]
	}
	return f, nil
}

// FrameBytes returns the number of sample bytes Frame expects.
func (f *Framer) FrameBytes() int { return FrameBytes(f.k) }

// FrameIndex returns the index the next superframe will carry.
func (f *Framer) FrameIndex() uint16 { return f.frameIndex }

func (f *Framer) SetFrameIndex(i uint16) { f.frameIndex = i }

// Frame encodes one superframe of samples. meta is written into block zero
// with its block counts set to the framer's shape. The returned datagrams,
// data blocks first, are only valid until the next call.
func (f *Framer) Frame(meta MetaData, samples []byte) ([][]byte, error) {
	if len(samples) != f.FrameBytes() {
		return nil, fmt.Errorf("superframe needs %d sample bytes, got %d", f.FrameBytes(), len(samples))
	}
	for i, d := range f.dgrams {
		h := fecwire.Header{FrameIndex: f.frameIndex, BlockIndex: uint8(i)}
		h.MarshalBinary(d)
	}
	meta.NbOriginalBlocks = uint8(f.k)
	meta.NbFECBlocks = uint8(f.m)
	meta.MarshalBinary(f.shards[0])
	n := copy(f.shards[0][fecwire.MetaLen:], samples)
	for i := 1; i < f.k; i++ {
		n += copy(f.shards[i], samples[n:])
	}
	if err := f.codec.Encode(f.shards); err != nil {
		return nil, fmt.Errorf("encode frame %d: %w", f.frameIndex, err)
	}
	f.frameIndex++
	return f.dgrams, nil
}
