package fec

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeShards(t *testing.T, k, m, size int, seed int64) ([][]byte, [][]byte) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	shards := make([][]byte, k+m)
	for i := 0; i < k; i++ {
		shards[i] = make([]byte, size)
		rng.Read(shards[i])
	}
	orig := make([][]byte, k)
	for i := 0; i < k; i++ {
		orig[i] = append([]byte(nil), shards[i]...)
	}
	return shards, orig
}

// erase drops the given shards, keeping their capacity for reconstruction.
func erase(shards [][]byte, idx ...int) {
	for _, i := range idx {
		shards[i] = shards[i][:0]
	}
}

func TestGFTables(t *testing.T) {
	for a := 1; a < 256; a++ {
		assert.Equal(t, byte(1), gfMul(byte(a), gfInv(byte(a))), "a=%d", a)
	}
	assert.Equal(t, byte(0), gfMul(0, 7))
	// 0x80 * 2 wraps through the reduction polynomial
	assert.Equal(t, byte(0x1d), gfMul(0x80, 2))
}

func TestCodecRoundTrip(t *testing.T) {
	const k, m, size = 16, 4, 508
	for _, scheme := range []Scheme{SchemeCauchy, SchemeGF256} {
		t.Run(scheme.String(), func(t *testing.T) {
			c, err := New(scheme, k, m)
			require.NoError(t, err)
			assert.Equal(t, k, c.DataShards())
			assert.Equal(t, m, c.ParityShards())

			shards, orig := makeShards(t, k, m, size, 7)
			require.NoError(t, c.Encode(shards))
			for j := k; j < k+m; j++ {
				require.Len(t, shards[j], size)
			}

			erase(shards, 0, 3, 9, 15)
			require.NoError(t, c.ReconstructData(shards))
			for i := 0; i < k; i++ {
				require.Equal(t, orig[i], shards[i], "shard %d", i)
			}
		})
	}
}

func TestCodecReconstructUsesShardCapacity(t *testing.T) {
	const k, m, size = 8, 2, 64
	for _, scheme := range []Scheme{SchemeCauchy, SchemeGF256} {
		t.Run(scheme.String(), func(t *testing.T) {
			c, err := New(scheme, k, m)
			require.NoError(t, err)
			shards, orig := makeShards(t, k, m, size, 11)
			require.NoError(t, c.Encode(shards))

			backing := shards[5][:size]
			erase(shards, 5)
			require.NoError(t, c.ReconstructData(shards))
			require.Equal(t, orig[5], shards[5])
			assert.Same(t, &backing[0], &shards[5][0])
		})
	}
}

func TestCodecTooFewShards(t *testing.T) {
	const k, m, size = 8, 2, 32
	for _, scheme := range []Scheme{SchemeCauchy, SchemeGF256, SchemeRaptorQ} {
		t.Run(scheme.String(), func(t *testing.T) {
			c, err := New(scheme, k, m)
			require.NoError(t, err)
			shards, _ := makeShards(t, k, m, size, 3)
			require.NoError(t, c.Encode(shards))
			erase(shards, 1, 2, 3)
			require.ErrorIs(t, c.ReconstructData(shards), ErrTooFewShards)
		})
	}
}

// Recovery rows depend only on their own index, so a decoder sized for more
// recovery shards than the sender used still decodes.
func TestCodecLargerReceiverShape(t *testing.T) {
	const k, size = 12, 100
	for _, scheme := range []Scheme{SchemeCauchy, SchemeGF256} {
		t.Run(scheme.String(), func(t *testing.T) {
			tx, err := New(scheme, k, 3)
			require.NoError(t, err)
			rx, err := New(scheme, k, 20)
			require.NoError(t, err)

			shards, orig := makeShards(t, k, 3, size, 5)
			require.NoError(t, tx.Encode(shards))

			wide := make([][]byte, k+20)
			copy(wide, shards)
			erase(wide, 2, 4, 11)
			require.NoError(t, rx.ReconstructData(wide))
			for i := 0; i < k; i++ {
				require.Equal(t, orig[i], wide[i], "shard %d", i)
			}
		})
	}
}

func TestCauchyGF256Interop(t *testing.T) {
	const k, m, size = 10, 4, 128
	lib, err := NewCauchy(k, m)
	require.NoError(t, err)
	pure, err := NewGF256(k, m)
	require.NoError(t, err)

	a, orig := makeShards(t, k, m, size, 21)
	require.NoError(t, lib.Encode(a))
	b := make([][]byte, k+m)
	for i := 0; i < k; i++ {
		b[i] = append([]byte(nil), orig[i]...)
	}
	require.NoError(t, pure.Encode(b))
	for j := k; j < k+m; j++ {
		require.Equal(t, a[j], b[j], "recovery shard %d", j)
	}

	erase(a, 1, 6, 7, 8)
	require.NoError(t, pure.ReconstructData(a))
	for i := 0; i < k; i++ {
		require.Equal(t, orig[i], a[i])
	}
}

func TestRaptorQRecoversLoss(t *testing.T) {
	const k, m, size = 8, 8, 64
	c, err := NewRaptorQ(k, m)
	require.NoError(t, err)
	shards, orig := makeShards(t, k, m, size, 9)
	require.NoError(t, c.Encode(shards))
	for i := 0; i < k; i++ {
		require.Equal(t, orig[i], shards[i], "systematic shard %d changed", i)
	}

	erase(shards, 2)
	require.NoError(t, c.ReconstructData(shards))
	require.Equal(t, orig[2], shards[2])
}

func TestShapeValidation(t *testing.T) {
	_, err := New(SchemeCauchy, 0, 4)
	require.ErrorIs(t, err, ErrInvalidShape)
	_, err = New(SchemeGF256, 200, 57)
	require.ErrorIs(t, err, ErrInvalidShape)
	_, err = New(Scheme(9), 4, 4)
	require.Error(t, err)

	c, err := NewGF256(4, 2)
	require.NoError(t, err)
	require.ErrorIs(t, c.ReconstructData(make([][]byte, 5)), ErrShardCount)
	bad := [][]byte{make([]byte, 4), make([]byte, 5), nil, nil, nil, nil}
	require.ErrorIs(t, c.ReconstructData(bad), ErrShardSize)
}

func TestParseScheme(t *testing.T) {
	for in, want := range map[string]Scheme{"": SchemeCauchy, "RS": SchemeCauchy, "gf256": SchemeGF256, " raptorq ": SchemeRaptorQ} {
		got, err := ParseScheme(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseScheme("polar")
	require.Error(t, err)
}
