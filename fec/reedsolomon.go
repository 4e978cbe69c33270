package fec

import (
	"errors"
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// Cauchy wraps klauspost/reedsolomon configured with a Cauchy matrix.
// Recovery row r is 1/(r xor c), independent of the total shard count, so a
// receiver sized for m recovery shards decodes senders using fewer.
type Cauchy struct {
	k, m int
	enc  reedsolomon.Encoder
}

// NewCauchy creates a codec for k data and m recovery shards.
func NewCauchy(k, m int) (*Cauchy, error) {
	if err := checkShape(k, m); err != nil {
		return nil, err
	}
	enc, err := reedsolomon.New(k, m, reedsolomon.WithCauchyMatrix())
	if err != nil {
		return nil, fmt.Errorf("reedsolomon: %w", err)
	}
	return &Cauchy{k: k, m: m, enc: enc}, nil
}

func (c *Cauchy) DataShards() int   { return c.k }
func (c *Cauchy) ParityShards() int { return c.m }

// Encode generates the recovery shards in place.
func (c *Cauchy) Encode(shards [][]byte) error {
	if len(shards) != c.k+c.m {
		return ErrShardCount
	}
	if _, err := prepareParity(shards, c.k); err != nil {
		return err
	}
	if err := c.enc.Encode(shards); err != nil {
		return fmt.Errorf("reedsolomon encode: %w", err)
	}
	return nil
}

// ReconstructData rebuilds missing data shards into their own capacity.
func (c *Cauchy) ReconstructData(shards [][]byte) error {
	if _, _, err := shardSize(shards, c.k+c.m); err != nil {
		return err
	}
	if err := c.enc.ReconstructData(shards); err != nil {
		if errors.Is(err, reedsolomon.ErrTooFewShards) {
			return ErrTooFewShards
		}
		return fmt.Errorf("reedsolomon reconstruct: %w", err)
	}
	return nil
}
