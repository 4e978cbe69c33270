package fec_test

import (
	"bytes"
	"math/rand"
	"testing"
	"time"

	"github.com/sdrfec/sdrfec/fec"
)

const blockSize = 508

func randomShards(rng *rand.Rand, k, m int) [][]byte {
	shards := make([][]byte, k+m)
	for i := range shards {
		shards[i] = make([]byte, blockSize)
		if i < k {
			rng.Read(shards[i])
		}
	}
	return shards
}

// eraseRandom zeroes the length of n distinct shards, keeping capacity.
func eraseRandom(rng *rand.Rand, shards [][]byte, n int) []int {
	idx := rng.Perm(len(shards))[:n]
	for _, i := range idx {
		shards[i] = shards[i][:0]
	}
	return idx
}

func TestSuperframeCompareSchemes(t *testing.T) {
	// --- Editable parameters ---
	K := 128
	M := 8
	drops := 4 // per superframe
	frames := 50
	// ---------------------------

	for _, scheme := range []fec.Scheme{fec.SchemeCauchy, fec.SchemeGF256, fec.SchemeRaptorQ} {
		codec, err := fec.New(scheme, K, M)
		if err != nil {
			t.Fatalf("%v: %v", scheme, err)
		}
		rng := rand.New(rand.NewSource(42))
		var encT, decT time.Duration
		failed := 0
		for f := 0; f < frames; f++ {
			shards := randomShards(rng, K, M)
			t0 := time.Now()
			if err := codec.Encode(shards); err != nil {
				t.Fatalf("%v encode: %v", scheme, err)
			}
			encT += time.Since(t0)
			want := make([][]byte, K)
			for i := range want {
				want[i] = append([]byte(nil), shards[i]...)
			}
			eraseRandom(rng, shards, drops)
			t0 = time.Now()
			err := codec.ReconstructData(shards)
			decT += time.Since(t0)
			if err != nil {
				failed++
				continue
			}
			for i := 0; i < K; i++ {
				if !bytes.Equal(shards[i], want[i]) {
					t.Fatalf("%v frame %d: shard %d mismatch", scheme, f, i)
				}
			}
		}
		// RaptorQ is probabilistic; the Reed-Solomon variants are MDS.
		if scheme != fec.SchemeRaptorQ && failed > 0 {
			t.Fatalf("%v: %d/%d frames failed", scheme, failed, frames)
		}
		if failed > frames/10 {
			t.Fatalf("%v: %d/%d frames failed", scheme, failed, frames)
		}
		t.Logf("%-8v K=%d M=%d drops=%d enc=%v dec=%v failed=%d/%d",
			scheme, K, M, drops, encT, decT, failed, frames)
	}
}

func benchmarkReconstruct(b *testing.B, scheme fec.Scheme, k, m int) {
	codec, err := fec.New(scheme, k, m)
	if err != nil {
		b.Fatal(err)
	}
	rng := rand.New(rand.NewSource(7))
	shards := randomShards(rng, k, m)
	if err := codec.Encode(shards); err != nil {
		b.Fatal(err)
	}
	full := make([][]byte, k+m)
	for i := range full {
		full[i] = append([]byte(nil), shards[i]...)
	}
	work := make([][]byte, k+m)
	b.SetBytes(int64(k * blockSize))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := range work {
			work[j] = append(shards[j][:0], full[j]...)
		}
		// Lose the first m/2 data blocks.
		for j := 0; j < m/2; j++ {
			work[j] = work[j][:0]
		}
		if err := codec.ReconstructData(work); err != nil && scheme != fec.SchemeRaptorQ {
			b.Fatal(err)
		}
	}
}

func BenchmarkReconstructCauchy(b *testing.B)  { benchmarkReconstruct(b, fec.SchemeCauchy, 128, 8) }
func BenchmarkReconstructGF256(b *testing.B)   { benchmarkReconstruct(b, fec.SchemeGF256, 128, 8) }
func BenchmarkReconstructRaptorQ(b *testing.B) { benchmarkReconstruct(b, fec.SchemeRaptorQ, 128, 8) }
