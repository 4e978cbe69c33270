package sdrfec

import "github.com/sdrfec/sdrfec/internal/fecwire"

// decoderSlot holds the blocks of the superframe currently bound to one ring
// position. blocks[i] views block index i inside the slot's arena; a zero
// length marks the block as absent, which is also how fec.Codec expects
// erasures to be flagged.
type decoderSlot struct {
	frameIndex uint16
	bound      bool
	done       bool // emitted or dropped; later blocks are ignored

	arena         []byte
	blocks        [][]byte
	blockCount    int // distinct blocks, data and recovery
	originalCount int // distinct blocks with index < K
	recoveryCount int
}

func (s *decoderSlot) init(arena []byte, nbBlocks int) {
	s.arena = arena
	s.blocks = make([][]byte, nbBlocks)
	s.clear()
}

// reset binds the slot to frameIndex and forgets everything stored for the
// previous binding.
func (s *decoderSlot) reset(frameIndex uint16) {
	s.frameIndex = frameIndex
	s.bound = true
	s.done = false
	s.clear()
}

func (s *decoderSlot) clear() {
	for i := range s.blocks {
		off := i * fecwire.BlockSize
		s.blocks[i] = s.arena[off : off : off+fecwire.BlockSize]
	}
	s.blockCount = 0
	s.originalCount = 0
	s.recoveryCount = 0
}

func (s *decoderSlot) has(idx int) bool {
	return len(s.blocks[idx]) != 0
}

// store copies a protected block into position idx. The caller has checked
// that idx is in range and not yet present.
func (s *decoderSlot) store(idx int, payload []byte, k int) {
	b := s.blocks[idx][:fecwire.BlockSize]
	copy(b, payload)
	s.blocks[idx] = b
	s.blockCount++
	if idx < k {
		s.originalCount++
	} else {
		s.recoveryCount++
	}
}
