package fecwire

import (
	"encoding/binary"
)

// Datagram geometry. Every datagram is exactly DatagramSize bytes: a Header
// followed by one protected block of BlockSize bytes. Multi-byte fields are
// little endian.
const (
	DatagramSize = 512
	HeaderLen    = 2 + 1 + 1
	BlockSize    = DatagramSize - HeaderLen

	SampleSize          = 4 // int16 I + int16 Q
	SamplesPerBlock     = BlockSize / SampleSize
	SamplesPerBlockZero = SamplesPerBlock - MetaLen/SampleSize
)

// Header prefixes every datagram.
//
//	offset 0  u16 FrameIndex  superframe counter, wraps at 65536
//	offset 2  u8  BlockIndex  0 metadata block, 1..K-1 data, K.. recovery
//	offset 3  u8  Filler      ignored
type Header struct {
	FrameIndex uint16
	BlockIndex uint8
	Filler     uint8
}

func (h *Header) MarshalBinary(b []byte) []byte {
	if len(b) < HeaderLen {
		b = make([]byte, HeaderLen)
	}
	binary.LittleEndian.PutUint16(b[0:2], h.FrameIndex)
	b[2] = h.BlockIndex
	b[3] = h.Filler
	return b[:HeaderLen]
}

func (h *Header) UnmarshalBinary(b []byte) bool {
	if len(b) < HeaderLen {
		return false
	}
	h.FrameIndex = binary.LittleEndian.Uint16(b[0:2])
	h.BlockIndex = b[2]
	h.Filler = b[3]
	return true
}

// FrameNewer reports whether frame a is ahead of b on the wrapping 16-bit
// counter, so 0 is newer than 65535.
func FrameNewer(a, b uint16) bool {
	return int16(a-b) > 0
}
