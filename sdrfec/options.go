package sdrfec

import (
	"fmt"

	"github.com/sdrfec/sdrfec/fec"
	"github.com/sdrfec/sdrfec/internal/fecwire"
	"github.com/sdrfec/sdrfec/internal/logging"
)

// Wire geometry, re-exported for callers outside this module.
const (
	DatagramSize = fecwire.DatagramSize
	BlockSize    = fecwire.BlockSize
	SampleSize   = fecwire.SampleSize
)

const (
	DefaultOriginalBlocks = 128
	DefaultDecoderSlots   = 4
	DefaultIngressRing    = 1024

	maxOriginalBlocks = 255
	maxDecoderSlots   = 1024
)

type (
	MetaData = fecwire.MetaData
	Header   = fecwire.Header
)

// FrameBytes is the number of sample bytes carried by a superframe of k
// blocks: block zero gives up MetaLen bytes to the metadata record.
func FrameBytes(k int) int {
	return k*fecwire.BlockSize - fecwire.MetaLen
}

// Options configures a Buffer.
type Options struct {
	OriginalBlocks int            // K, blocks per superframe including block zero (default 128)
	FECBlocks      int            // largest M accepted (default min(K, 256-K))
	DecoderSlots   int            // reorder window in superframes, power of two (default 4)
	Scheme         fec.Scheme     // erasure code (default Cauchy Reed-Solomon)
	Codec          fec.Codec      // overrides Scheme; must be shaped K x FECBlocks
	Logger         logging.Logger // default logging.Default()
}

func (o *Options) setDefaults() {
	if o.OriginalBlocks <= 0 {
		o.OriginalBlocks = DefaultOriginalBlocks
	}
	if o.FECBlocks <= 0 {
		o.FECBlocks = min(o.OriginalBlocks, fec.MaxShards-o.OriginalBlocks)
	}
	if o.DecoderSlots <= 0 {
		o.DecoderSlots = DefaultDecoderSlots
	}
	if o.Logger == nil {
		o.Logger = logging.Default()
	}
}

func (o *Options) validate() error {
	if o.OriginalBlocks > maxOriginalBlocks {
		return fmt.Errorf("original blocks must be at most %d, got %d", maxOriginalBlocks, o.OriginalBlocks)
	}
	if o.FECBlocks <= 0 || o.OriginalBlocks+o.FECBlocks > fec.MaxShards {
		return fmt.Errorf("original + FEC blocks must be at most %d, got %d+%d", fec.MaxShards, o.OriginalBlocks, o.FECBlocks)
	}
	if o.DecoderSlots > maxDecoderSlots || o.DecoderSlots&(o.DecoderSlots-1) != 0 {
		return fmt.Errorf("decoder slots must be a power of two up to %d, got %d", maxDecoderSlots, o.DecoderSlots)
	}
	if o.Codec != nil && (o.Codec.DataShards() != o.OriginalBlocks || o.Codec.ParityShards() != o.FECBlocks) {
		return fmt.Errorf("codec shaped %dx%d, buffer needs %dx%d",
			o.Codec.DataShards(), o.Codec.ParityShards(), o.OriginalBlocks, o.FECBlocks)
	}
	return nil
}
