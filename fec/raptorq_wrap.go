package fec

import (
	"errors"
	"fmt"

	rqq "github.com/xssnick/raptorq"
)

// RaptorQ wraps Systematic RaptorQ behind the Codec shard layout: symbol id
// i carries shard i, so ids 0..k-1 are the data blocks and ids k.. are
// repair symbols. Unlike the Reed-Solomon codecs, k present symbols are not
// always sufficient; a failed solve reports ErrTooFewShards.
type RaptorQ struct {
	k, m int
}

// NewRaptorQ creates a codec for k data and m repair symbols.
func NewRaptorQ(k, m int) (*RaptorQ, error) {
	if err := checkShape(k, m); err != nil {
		return nil, err
	}
	return &RaptorQ{k: k, m: m}, nil
}

func (r *RaptorQ) DataShards() int   { return r.k }
func (r *RaptorQ) ParityShards() int { return r.m }

// Encode generates the repair symbols in place.
func (r *RaptorQ) Encode(shards [][]byte) error {
	if len(shards) != r.k+r.m {
		return ErrShardCount
	}
	size, err := prepareParity(shards, r.k)
	if err != nil {
		return err
	}
	data := make([]byte, 0, r.k*size)
	for i := 0; i < r.k; i++ {
		data = append(data, shards[i]...)
	}
	enc, err := newRaptorQEncoder(data, r.k, size)
	if err != nil {
		return err
	}
	for j := 0; j < r.m; j++ {
		copy(shards[r.k+j], enc.GenSymbol(uint32(r.k+j)))
	}
	return nil
}

// ReconstructData feeds every present symbol to a fresh decoder and copies
// the recovered generation into the missing data shards.
func (r *RaptorQ) ReconstructData(shards [][]byte) error {
	size, present, err := shardSize(shards, r.k+r.m)
	if err != nil {
		return err
	}
	missing := missingData(shards, r.k)
	if len(missing) == 0 {
		return nil
	}
	if present < r.k {
		return ErrTooFewShards
	}
	dec, err := newRaptorQDecoder(r.k*size, size)
	if err != nil {
		return err
	}
	for i, s := range shards {
		if len(s) == 0 {
			continue
		}
		if _, err := dec.AddSymbol(uint32(i), s); err != nil {
			return fmt.Errorf("raptorq add symbol %d: %w", i, err)
		}
	}
	ok, data, err := dec.Decode()
	if err != nil {
		return fmt.Errorf("raptorq decode: %w", err)
	}
	if !ok || len(data) < r.k*size {
		return ErrTooFewShards
	}
	for _, d := range missing {
		out := fillShard(shards[d], size)
		copy(out, data[d*size:(d+1)*size])
		shards[d] = out
	}
	return nil
}

type raptorQEncoder struct {
	K int
	L int
	r *rqq.RaptorQ
	e *rqq.Encoder
}

type raptorQDecoder struct {
	K int
	L int
	r *rqq.RaptorQ
	d *rqq.Decoder
}

// newRaptorQEncoder creates an encoder for one generation from contiguous payload bytes.
// It expects len(data) <= K*L; the last symbol is padded internally by the library.
func newRaptorQEncoder(data []byte, K, L int) (*raptorQEncoder, error) {
	if K <= 0 || L <= 0 {
		return nil, errors.New("bad K or L")
	}
	rq := rqq.NewRaptorQ(uint32(L))
	enc, err := rq.CreateEncoder(data)
	if err != nil {
		return nil, fmt.Errorf("raptorq encoder: %w", err)
	}
	return &raptorQEncoder{K: K, L: L, r: rq, e: enc}, nil
}

// GenSymbol returns the symbol bytes for a given symbol id.
// For 0 <= id < K, this returns the systematic source symbols.
// For id >= K, this returns repair symbols.
func (e *raptorQEncoder) GenSymbol(id uint32) []byte {
	return e.e.GenSymbol(id)
}

// newRaptorQDecoder creates a decoder for a generation of given original data size.
func newRaptorQDecoder(dataSize int, L int) (*raptorQDecoder, error) {
	if dataSize < 0 || L <= 0 {
		return nil, errors.New("bad dataSize or L")
	}
	rq := rqq.NewRaptorQ(uint32(L))
	dec, err := rq.CreateDecoder(uint32(dataSize))
	if err != nil {
		return nil, fmt.Errorf("raptorq decoder: %w", err)
	}
	// K is derived from params inside the decoder; expose via FastSymbolsNumRequired.
	return &raptorQDecoder{K: int(dec.FastSymbolsNumRequired()), L: L, r: rq, d: dec}, nil
}

// AddSymbol feeds a symbol with its id. Returns whether decoding can be attempted.
func (d *raptorQDecoder) AddSymbol(id uint32, data []byte) (bool, error) {
	return d.d.AddSymbol(id, data)
}

// Decode attempts to reconstruct the original payload. On success, returns the exact
// bytes (trimmed by the library to original size).
func (d *raptorQDecoder) Decode() (bool, []byte, error) {
	return d.d.Decode()
}
