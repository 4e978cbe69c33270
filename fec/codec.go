package fec

import (
	"errors"
	"fmt"
	"strings"
)

// Scheme selects an erasure code implementation.
type Scheme uint8

const (
	SchemeCauchy  Scheme = 0 // Cauchy Reed-Solomon, klauspost/reedsolomon
	SchemeGF256   Scheme = 1 // Cauchy Reed-Solomon, pure Go tables
	SchemeRaptorQ Scheme = 2
)

// MaxShards bounds data + parity shards; block indices travel in one byte.
const MaxShards = 256

var (
	ErrShardCount   = errors.New("fec: wrong number of shards")
	ErrShardSize    = errors.New("fec: shard sizes differ")
	ErrTooFewShards = errors.New("fec: too few shards to reconstruct")
	ErrInvalidShape = errors.New("fec: invalid data/parity shard counts")
	ErrSingular     = errors.New("fec: decode matrix is singular")
)

func (s Scheme) String() string {
	switch s {
	case SchemeCauchy:
		return "cauchy"
	case SchemeGF256:
		return "gf256"
	case SchemeRaptorQ:
		return "raptorq"
	default:
		return fmt.Sprintf("scheme(%d)", uint8(s))
	}
}

// ParseScheme converts a configuration string to a Scheme.
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cauchy", "rs", "":
		return SchemeCauchy, nil
	case "gf256":
		return SchemeGF256, nil
	case "raptorq":
		return SchemeRaptorQ, nil
	default:
		return 0, fmt.Errorf("unsupported fec scheme %q", s)
	}
}

// Codec is a systematic erasure code over fixed-size shards.
//
// Shards are laid out by block index: shards[0:k] hold data, shards[k:k+m]
// hold recovery blocks. A missing shard has zero length; when its capacity
// is large enough that memory is reused for reconstructed data.
type Codec interface {
	// Encode computes the recovery shards from the data shards.
	Encode(shards [][]byte) error
	// ReconstructData fills every missing data shard given at least k
	// present shards. Missing recovery shards are left untouched.
	ReconstructData(shards [][]byte) error
	DataShards() int
	ParityShards() int
}

// New returns the Codec for scheme with k data and m recovery shards.
func New(scheme Scheme, k, m int) (Codec, error) {
	switch scheme {
	case SchemeCauchy:
		return NewCauchy(k, m)
	case SchemeGF256:
		return NewGF256(k, m)
	case SchemeRaptorQ:
		return NewRaptorQ(k, m)
	default:
		return nil, fmt.Errorf("fec: unknown scheme %v", scheme)
	}
}

func checkShape(k, m int) error {
	if k <= 0 || m <= 0 || k+m > MaxShards {
		return fmt.Errorf("%w: k=%d m=%d", ErrInvalidShape, k, m)
	}
	return nil
}

// shardSize returns the common length of the present shards and how many
// are present.
func shardSize(shards [][]byte, total int) (size, present int, err error) {
	if len(shards) != total {
		return 0, 0, ErrShardCount
	}
	for _, s := range shards {
		if len(s) == 0 {
			continue
		}
		if size == 0 {
			size = len(s)
		} else if len(s) != size {
			return 0, 0, ErrShardSize
		}
		present++
	}
	return size, present, nil
}

// prepareParity sizes the recovery shards to the data shard length, reusing
// their capacity where possible.
func prepareParity(shards [][]byte, k int) (int, error) {
	size := len(shards[0])
	if size == 0 {
		return 0, ErrShardSize
	}
	for i := 1; i < k; i++ {
		if len(shards[i]) != size {
			return 0, ErrShardSize
		}
	}
	for i := k; i < len(shards); i++ {
		if cap(shards[i]) < size {
			shards[i] = make([]byte, size)
		}
		shards[i] = shards[i][:size]
	}
	return size, nil
}

// missingData lists the data shard positions with zero length.
func missingData(shards [][]byte, k int) []int {
	var out []int
	for i := 0; i < k; i++ {
		if len(shards[i]) == 0 {
			out = append(out, i)
		}
	}
	return out
}

func fillShard(shard []byte, size int) []byte {
	if cap(shard) < size {
		return make([]byte, size)
	}
	shard = shard[:size]
	clear(shard)
	return shard
}
